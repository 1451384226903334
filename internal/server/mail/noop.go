package mail

import "context"

// NoopSender discards messages. Used when SMTP is not configured and in
// tests.
type NoopSender struct{}

func (NoopSender) Send(ctx context.Context, toName, toEmail, subject, body string) error {
	return nil
}
