/*
Package notify provides delivery adapters for the engine's notification
signals.

PURPOSE:
  The core emits timeclock.Notification values (timepunch submitted,
  vacation requested, overtime detected) and stays ignorant of delivery.
  This package adapts those signals to SMTP via gomail.

USAGE:
  mailer := notify.NewSMTP(notify.SMTPConfig{
      Host: "smtp.example.gov", Port: 587,
      Username: "timeclock", Password: secret,
      From: "timeclock@example.gov",
  })
  svc := timeclock.NewApprovalService(store, mailer)

SEE ALSO:
  - timeclock/notify.go: The Notifier interface and LogNotifier fallback
*/
package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/warp/timeclock-engine/timeclock"
	gomail "gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTP delivers notifications as plain-text email.
type SMTP struct {
	config SMTPConfig
	dialer *gomail.Dialer
}

var _ timeclock.Notifier = (*SMTP)(nil)

func NewSMTP(config SMTPConfig) *SMTP {
	return &SMTP{
		config: config,
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
	}
}

func (s *SMTP) Notify(_ context.Context, n timeclock.Notification) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.From)
	m.SetHeader("To", n.Recipient)
	m.SetHeader("Subject", n.Subject)
	m.SetBody("text/plain", renderBody(n))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send notification to %s: %w", n.Recipient, err)
	}
	return nil
}

// renderBody lays the context map out as "key: value" lines in a stable
// order.
func renderBody(n timeclock.Notification) string {
	keys := make([]string, 0, len(n.Context))
	for k := range n.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(n.Subject)
	b.WriteString("\n\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, n.Context[k])
	}
	return b.String()
}
