package domain

// AdminUser is a back-office account. Hash is a bcrypt hash.
type AdminUser struct {
	Username string
	Hash     string
}
