package notify

import (
	"context"
	"crypto/tls"

	"github.com/nippysky/marobi/config"
	"gopkg.in/gomail.v2"
)

// Message is one outgoing email.
type Message struct {
	MessageID string
	To        string
	Subject   string
	Text      string
	HTML      string
}

// Sender delivers a message or reports why it could not.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPSender sends through the SMTP relay in the mail config.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	return &SMTPSender{dialer: d, from: cfg.From}
}

func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	if msg.MessageID != "" {
		m.SetHeader("Message-ID", "<"+msg.MessageID+"@marobi>")
	}
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	return s.dialer.DialAndSend(m)
}
