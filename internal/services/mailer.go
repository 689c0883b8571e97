package services

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"katalog/pkg/rabbitmq"

	"github.com/rs/zerolog"
)

// Mailer hands an email to whatever delivers it.
type Mailer interface {
	Send(ctx context.Context, msg rabbitmq.MailMessage) error
}

// ConsoleMailer writes emails to the log instead of sending them. Used in
// development.
type ConsoleMailer struct {
	log zerolog.Logger
}

// NewConsoleMailer creates a ConsoleMailer.
func NewConsoleMailer(log zerolog.Logger) *ConsoleMailer {
	return &ConsoleMailer{log: log.With().Str("component", "mailer").Logger()}
}

func (m *ConsoleMailer) Send(ctx context.Context, msg rabbitmq.MailMessage) error {
	m.log.Info().
		Str("from", msg.From).
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Msg(msg.Body)
	return nil
}

// MailPublisher is the part of the RabbitMQ client the AMQP mailer needs.
type MailPublisher interface {
	PublishMail(ctx context.Context, msg rabbitmq.MailMessage) error
}

// AMQPMailer queues emails for the mail worker.
type AMQPMailer struct {
	publisher MailPublisher
}

// NewAMQPMailer creates an AMQPMailer.
func NewAMQPMailer(publisher MailPublisher) *AMQPMailer {
	return &AMQPMailer{publisher: publisher}
}

func (m *AMQPMailer) Send(ctx context.Context, msg rabbitmq.MailMessage) error {
	if err := m.publisher.PublishMail(ctx, msg); err != nil {
		return fmt.Errorf("failed to queue email: %w", err)
	}
	return nil
}

type passwordResetEmail struct {
	Username string
	ResetURL string
	Expiry   time.Duration
}

var passwordResetTemplate = template.Must(template.New("password_reset").Parse(
	`Hello {{.Username}},

Someone asked to reset the password of your account. Click the link to reset your password:

{{.ResetURL}}

The link expires in {{.Expiry}} and can be used once. If you did not ask for a reset, ignore this email.
`))

func renderPasswordResetEmail(data passwordResetEmail) (string, error) {
	var buf bytes.Buffer
	if err := passwordResetTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render password reset email: %w", err)
	}
	return buf.String(), nil
}
