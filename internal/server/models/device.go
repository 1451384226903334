package models

// Device is a named client a user has logged in from. The name is purely
// an audit string carried in token claims.
type Device struct {
	ID     int64
	UserID int64
	Name   string
}
