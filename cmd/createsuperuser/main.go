// Command createsuperuser creates an administrator account.
//
// Usage: go run ./cmd/createsuperuser [--email admin@example.com] [--username admin] [--password admin123]
package main

import (
	"context"

	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"katalog/internal/config"
	"katalog/internal/database"
	"katalog/internal/logger"
	"katalog/internal/repositories"
	"katalog/internal/services"
)

func main() {
	email := pflag.String("email", "admin@example.com", "email address")
	username := pflag.String("username", "admin", "username")
	password := pflag.String("password", "admin123", "password")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	db, err := database.Open(cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	auth := services.NewAuthService(
		repositories.NewGORMUserRepository(db),
		repositories.NewGORMTokenRepository(db),
		services.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.PasswordResetTTL),
		services.NewConsoleMailer(log),
		services.AuthSettings{From: cfg.Mail.From, FrontendURL: cfg.Mail.FrontendURL},
		log,
	)

	_, created, err := auth.CreateSuperuser(context.Background(), *email, *username, *password)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create superuser")
	}
	if !created {
		log.Warn().Str("email", *email).Msgf("User with email %s already exists", *email)
		return
	}
	log.Info().Str("email", *email).Msgf("Successfully created superuser: %s", *email)
}
