package users

import "time"

// User is a credential record keyed by username.
// Invariant: TwoFactorSecret is non-empty whenever TwoFactorEnabled is true.
// A stored secret with the flag still false means enrollment is pending
// confirmation.
type User struct {
	Username         string
	PasswordHash     string
	TwoFactorEnabled bool
	TwoFactorSecret  string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
