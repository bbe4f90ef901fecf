// Package notify sends plain-text notification email over SMTP.
package notify

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer sends messages to a single configured recipient.
type Mailer struct {
	host     string
	port     string
	user     string
	password string
	to       string
}

// NewMailer constructs a mailer. Auth is skipped when user is empty.
func NewMailer(host, port, user, password, to string) *Mailer {
	return &Mailer{host: host, port: port, user: user, password: password, to: to}
}

// Send delivers a subject/body message to the configured recipient.
func (m *Mailer) Send(subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.user,
		"To: " + m.to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	if err := smtp.SendMail(addr, auth, m.user, []string{m.to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
