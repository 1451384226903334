// Package models holds the row types persisted by the server repositories.
package models

import "time"

// User is an account holder. MasterKey is the per-user 32-byte symmetric
// key material encrypting that user's stored passwords; it must never leave
// the service layer or appear in any view.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	MasterKey    []byte
	LastLogin    *time.Time
	FailAttempts int32
	LastAttempt  *time.Time
	CreatedAt    time.Time
}
