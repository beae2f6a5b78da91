package auth

import "time"

// Account is the credential-bearing view of a user. The password hash never
// leaves this package.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsAdmin      bool
	CreatedAt    time.Time
}
