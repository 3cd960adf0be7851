package notify

import (
	"bytes"
	"fmt"
	"net/smtp"
	"strings"

	zlog "github.com/rs/zerolog/log"

	"github.com/pharmakart/pharmacy-api/internal/config"
)

// Mailer is the outbound mail transport: send-or-fail, no retries.
type Mailer interface {
	Send(to []string, subject, body string) error
}

type SMTPMailer struct {
	host string
	port string
	user string
	pass string
	from string
}

func NewSMTPMailer(cfg config.SMTP, from string) *SMTPMailer {
	return &SMTPMailer{
		host: cfg.Host,
		port: cfg.Port,
		user: cfg.User,
		pass: cfg.Pass,
		from: from,
	}
}

func (m *SMTPMailer) Send(to []string, subject, body string) error {
	if m.host == "" || m.port == "" || m.user == "" || m.pass == "" {
		zlog.Warn().Msg("SMTP not configured, skipping email send")
		return nil
	}

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	_, _ = fmt.Fprintf(&buf, "From: %s\r\n", m.from)
	_, _ = fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(to, ", "))
	buf.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(body)

	addr := m.host + ":" + m.port
	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	return smtp.SendMail(addr, auth, m.user, to, buf.Bytes())
}
