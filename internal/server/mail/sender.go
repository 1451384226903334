// Package mail delivers the password-recovery notification. The core only
// needs the narrow Sender contract; SMTP is one implementation.
package mail

import "context"

// Sender delivers a plain-text message to a single recipient.
type Sender interface {
	Send(ctx context.Context, toName, toEmail, subject, body string) error
}
