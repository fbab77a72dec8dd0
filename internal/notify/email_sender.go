package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	gomail "gopkg.in/mail.v2"
)

// EmailConfig holds SMTP configuration for sending emails.
type EmailConfig struct {
	SMTPServer string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	FromEmail  string
	ToEmail    string
	Enabled    bool
}

// EmailSender delivers messages via SMTP. The destination is fixed by
// configuration, so the monitor channel is ignored.
type EmailSender struct {
	cfg  EmailConfig
	dial func(m ...*gomail.Message) error
}

// NewEmailSender creates a sender with the given SMTP configuration.
func NewEmailSender(cfg EmailConfig) *EmailSender {
	if cfg.FromEmail == "" {
		cfg.FromEmail = cfg.SMTPUser
	}

	dialer := gomail.NewDialer(cfg.SMTPServer, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	dialer.Timeout = 10 * time.Second

	return &EmailSender{cfg: cfg, dial: dialer.DialAndSend}
}

// Send delivers an email with HTML body and plain text fallback.
func (s *EmailSender) Send(ctx context.Context, _ string, msg *RenderedMessage) error {
	if !s.cfg.Enabled {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := s.buildMessage(msg)

	if err := s.dial(m); err != nil {
		return fmt.Errorf("failed to send email to %s (Subject: %s): %w", s.cfg.ToEmail, msg.Subject, err)
	}

	log.Printf("Email sent: %s", msg.Subject)
	return nil
}

func (s *EmailSender) buildMessage(msg *RenderedMessage) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.FromEmail)
	m.SetHeader("To", s.cfg.ToEmail)
	m.SetHeader("Subject", msg.Subject)

	if msg.HTML != "" && msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	} else if msg.HTML != "" {
		m.SetBody("text/html", msg.HTML)
	} else {
		m.SetBody("text/plain", msg.Text)
	}
	return m
}
