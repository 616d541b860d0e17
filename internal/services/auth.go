package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"clothsy/internal/domain"
)

var (
	ErrBadCreds     = errors.New("invalid username or password")
	ErrInvalidToken = errors.New("invalid or expired token")
)

const issuer = "clothsy"

// dummyHash keeps the timing of unknown-user logins close to a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("clothsy-dummy-password"), bcrypt.DefaultCost)

// AuthService checks admin credentials against the configured accounts and
// issues HS256 tokens for them.
type AuthService struct {
	admins map[string]domain.AdminUser
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// ParseAdminUsers reads "user:password,user2:password2". Passwords that already
// look like bcrypt hashes are kept as they are; the rest are hashed here.
func ParseAdminUsers(spec string) ([]domain.AdminUser, error) {
	var out []domain.AdminUser
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, pass, ok := strings.Cut(pair, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" || pass == "" {
			return nil, fmt.Errorf("admin users: malformed entry %q", name)
		}
		hash := []byte(pass)
		if !strings.HasPrefix(pass, "$2") {
			var err error
			if hash, err = bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost); err != nil {
				return nil, err
			}
		}
		out = append(out, domain.AdminUser{Username: name, Hash: string(hash)})
	}
	return out, nil
}

func NewAuthService(admins []domain.AdminUser, secret string, ttl time.Duration) *AuthService {
	m := make(map[string]domain.AdminUser, len(admins))
	for _, a := range admins {
		m[a.Username] = a
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AuthService{admins: m, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Enabled reports whether any admin account is configured.
func (s *AuthService) Enabled() bool { return len(s.admins) > 0 }

// Login returns a signed token for valid credentials.
func (s *AuthService) Login(username, password string) (string, error) {
	a, ok := s.admins[username]
	hash := []byte(a.Hash)
	if !ok {
		hash = dummyHash
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil || !ok {
		return "", ErrBadCreds
	}
	return s.issue(username)
}

func (s *AuthService) issue(username string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify returns the admin a token was issued to. Tokens for accounts that are
// no longer configured are rejected.
func (s *AuthService) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if _, ok := s.admins[claims.Subject]; !ok {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// IsAuthenticated is the admin gate.
func (s *AuthService) IsAuthenticated(token string) bool {
	_, err := s.Verify(token)
	return err == nil
}

// TTL is how long issued tokens stay valid.
func (s *AuthService) TTL() time.Duration { return s.ttl }
