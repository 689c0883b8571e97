package services

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"

	"katalog/pkg/rabbitmq"

	"github.com/jordan-wright/email"
)

// SMTPConfig locates the outgoing mail server. Credentials are optional.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPMailer delivers emails directly to an SMTP server. The mail worker
// uses it for messages taken off the queue.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
}

// NewSMTPMailer creates an SMTPMailer.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	m := &SMTPMailer{addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))}
	if cfg.Username != "" {
		m.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return m
}

func (m *SMTPMailer) Send(ctx context.Context, msg rabbitmq.MailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := newEmail(msg).Send(m.addr, m.auth); err != nil {
		return fmt.Errorf("failed to send email to %v: %w", msg.To, err)
	}
	return nil
}

func newEmail(msg rabbitmq.MailMessage) *email.Email {
	e := email.NewEmail()
	e.From = msg.From
	e.To = msg.To
	e.Subject = msg.Subject
	e.Text = []byte(msg.Body)
	return e
}
