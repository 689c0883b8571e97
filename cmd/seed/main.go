// Command seed fills the catalog with sample products.
//
// Usage: go run ./cmd/seed [--count 100] [--clear]
package main

import (
	"context"
	"math/rand"
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"katalog/internal/config"
	"katalog/internal/database"
	"katalog/internal/logger"
	"katalog/internal/seed"
)

func main() {
	count := pflag.Int("count", 100, "number of products to create")
	clearAll := pflag.Bool("clear", false, "remove existing products and categories first")
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

	s := seed.New(db, rand.New(rand.NewSource(time.Now().UnixNano())), log)
	res, err := s.Run(context.Background(), seed.Options{Count: *count, Clear: *clearAll})
	if err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}
	log.Info().Int("products", res.Products).Msgf("Successfully created %d products", res.Products)
}
