// Command mailer is the worker that delivers emails queued by the API. With
// SMTP_HOST set it sends them through that server; otherwise it logs them.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	zlog "github.com/rs/zerolog/log"

	"katalog/internal/config"
	"katalog/internal/logger"
	"katalog/internal/services"
	"katalog/pkg/rabbitmq"
)

const sendTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	var sender services.Mailer = services.NewConsoleMailer(log)
	if cfg.Mail.SMTPHost != "" {
		sender = services.NewSMTPMailer(services.SMTPConfig{
			Host:     cfg.Mail.SMTPHost,
			Port:     cfg.Mail.SMTPPort,
			Username: cfg.Mail.SMTPUser,
			Password: cfg.Mail.SMTPPassword,
		})
		log.Info().Str("host", cfg.Mail.SMTPHost).Int("port", cfg.Mail.SMTPPort).Msg("Delivering mail over SMTP")
	} else {
		log.Info().Msg("SMTP_HOST not set, printing mail to the log")
	}

	mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.Mail.RabbitMQURL, Queue: cfg.Mail.Queue}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize RabbitMQ client")
	}
	defer func() {
		if err := mqClient.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing RabbitMQ client")
		}
	}()

	err = mqClient.ConsumeMail(func(msg rabbitmq.MailMessage) error {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := sender.Send(ctx, msg); err != nil {
			log.Error().Err(err).Strs("to", msg.To).Msg("Mail delivery failed")
			return err
		}
		log.Info().Strs("to", msg.To).Str("subject", msg.Subject).Msg("Mail delivered")
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start mail consumer")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Mail worker stopped")
}
