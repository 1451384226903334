package models

import "time"

// PasswordRecovery is a single-use password reset record. Token is the
// SHA-256 hex digest of the secret mailed to the user, never the secret
// itself.
type PasswordRecovery struct {
	Token    string
	UserID   int64
	IssuedAt time.Time
	Valid    bool
}
