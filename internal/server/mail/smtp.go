package mail

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// SMTPSender sends mail through an SMTP relay. Dial and send happen per
// message; the recovery flow sends rarely enough that connection reuse is
// not worth the state.
type SMTPSender struct {
	dialer   *gomail.Dialer
	fromName string
	fromAddr string
}

func NewSMTPSender(host string, port int, username, password, fromName, fromAddr string) *SMTPSender {
	return &SMTPSender{
		dialer:   gomail.NewDialer(host, port, username, password),
		fromName: fromName,
		fromAddr: fromAddr,
	}
}

func (s *SMTPSender) Send(ctx context.Context, toName, toEmail, subject, body string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.fromAddr, s.fromName)
	m.SetAddressHeader("To", toEmail, toName)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	// gomail has no context support; the dialer's own timeouts bound the call.
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
