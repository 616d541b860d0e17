package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendSQLite   = "sqlite"
	BackendSupabase = "supabase"
)

type Config struct {
	Port     string `mapstructure:"port"`
	Backend  string `mapstructure:"backend"`
	DBDSN    string `mapstructure:"db_dsn"`
	SeedDemo bool   `mapstructure:"seed_demo"`

	SupabaseURL string `mapstructure:"supabase_url"`
	SupabaseKey string `mapstructure:"supabase_key"`

	SheetsWebhookURL  string `mapstructure:"sheets_webhook_url"`
	EmailJSServiceID  string `mapstructure:"emailjs_service_id"`
	EmailJSTemplateID string `mapstructure:"emailjs_template_id"`
	EmailJSPublicKey  string `mapstructure:"emailjs_public_key"`
	EmailJSPrivateKey string `mapstructure:"emailjs_private_key"`
	EmailJSToName     string `mapstructure:"emailjs_to_name"`
	FormspreeFormID   string `mapstructure:"formspree_form_id"`
	RelayQueue        int    `mapstructure:"relay_queue"`

	// AdminUsers is "user:password[,user:password...]"; passwords may be bcrypt hashes.
	AdminUsers   string        `mapstructure:"admin_users"`
	JWTSecret    string        `mapstructure:"jwt_secret"`
	JWTTTL       time.Duration `mapstructure:"jwt_ttl"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	CORSOrigins  string        `mapstructure:"cors_origins"`

	LogFile     string        `mapstructure:"log_file"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("backend", BackendSQLite)
	v.SetDefault("db_dsn", "clothsy.db") // sqlite file in project root
	v.SetDefault("seed_demo", true)
	v.SetDefault("supabase_url", "")
	v.SetDefault("supabase_key", "")
	v.SetDefault("sheets_webhook_url", "")
	v.SetDefault("emailjs_service_id", "")
	v.SetDefault("emailjs_template_id", "")
	v.SetDefault("emailjs_public_key", "")
	v.SetDefault("emailjs_private_key", "")
	v.SetDefault("emailjs_to_name", "Clothsy")
	v.SetDefault("formspree_form_id", "")
	v.SetDefault("relay_queue", 64)
	v.SetDefault("admin_users", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_ttl", "12h")
	v.SetDefault("cookie_secure", false)
	v.SetDefault("cors_origins", "")
	v.SetDefault("log_file", "./clothsy.log")
	v.SetDefault("http_timeout", "15s")
}

// Load reads .env (if present), then clothsy.yaml (if present), then the
// environment. Later sources win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	defaults(v)
	v.SetConfigName("clothsy")
	v.SetConfigType("yaml")
	v.AddConfigPath("./")
	v.AddConfigPath("./deploy/")
	v.AddConfigPath("/etc/clothsy/")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}

	log.Printf("[config] PORT=%s BACKEND=%s DB_DSN=%s SUPABASE_URL=%s SHEETS=%t EMAILJS=%t FORMSPREE=%t LOG_FILE=%s",
		cfg.Port, cfg.Backend, cfg.DBDSN, cfg.SupabaseURL,
		cfg.SheetsWebhookURL != "", cfg.EmailJSServiceID != "", cfg.FormspreeFormID != "", cfg.LogFile)
	return cfg, nil
}

func (c *Config) normalize() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case BackendSQLite:
		if c.DBDSN == "" {
			return errors.New("config: DB_DSN is required for the sqlite backend")
		}
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return errors.New("config: SUPABASE_URL and SUPABASE_KEY are required for the supabase backend")
		}
	default:
		return fmt.Errorf("config: unknown BACKEND %q (want sqlite or supabase)", c.Backend)
	}
	if c.JWTSecret == "" {
		// tokens will not survive a restart
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return err
		}
		c.JWTSecret = hex.EncodeToString(b)
		log.Printf("[config] JWT_SECRET not set; using a random per-process secret")
	}
	if c.JWTTTL <= 0 {
		c.JWTTTL = 12 * time.Hour
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 15 * time.Second
	}
	if c.RelayQueue <= 0 {
		c.RelayQueue = 64
	}
	return nil
}

// EmailJSEnabled reports whether all EmailJS identifiers are configured.
func (c Config) EmailJSEnabled() bool {
	return c.EmailJSServiceID != "" && c.EmailJSTemplateID != "" && c.EmailJSPublicKey != ""
}

// Origins splits CORS_ORIGINS on commas.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
