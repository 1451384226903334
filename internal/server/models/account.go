package models

import "time"

// AccountGroup is a user-owned folder of accounts.
type AccountGroup struct {
	ID     int64
	UserID int64
	Name   string
}

// Account is one stored credential entry. It must reference a group owned
// by the same user; the invariant is enforced at registration time.
type Account struct {
	ID             int64
	UserID         int64
	AccountGroupID int64
	Level          int16
	Name           string
}

// AccountPassword is one credential revision for an account. Password holds
// nonce||ciphertext produced by cryptox.Encrypt, never plaintext. The
// current credential is the most recently created row.
type AccountPassword struct {
	ID          int64
	AccountID   int64
	Username    string
	Password    []byte
	CreatedDate time.Time
}
