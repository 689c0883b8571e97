package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"katalog/internal/config"
	"katalog/internal/database"
	"katalog/internal/handlers"
	"katalog/internal/logger"
	"katalog/internal/middleware"
	"katalog/internal/repositories"
	"katalog/internal/services"
	"katalog/pkg/cache"
	"katalog/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	// --- Database ---
	db, err := database.Open(cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	// --- Stats cache ---
	statsCache, closeCache := newCache(cfg.Redis, log)
	defer closeCache()

	// --- Mail ---
	mailer, closeMailer, err := newMailer(cfg.Mail, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize mailer")
	}
	defer closeMailer()

	app := NewApp(cfg, db, statsCache, mailer, log)

	// --- Start HTTP Server ---
	log.Info().Str("port", cfg.App.Port).Str("env", cfg.App.Env).Msg("Starting server")

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.App.Port); err != nil {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Info().Msg("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("Error during Fiber shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("Server gracefully stopped")
}

// NewApp wires repositories, services and handlers into a Fiber app.
func NewApp(cfg *config.Config, db *gorm.DB, statsCache cache.Cache, mailer services.Mailer, log zerolog.Logger) *fiber.App {
	// --- Repositories ---
	search := repositories.StrategyFor(db, cfg.DB.SearchBackend)
	productRepo := repositories.NewGORMProductRepository(db, search)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	tokenRepo := repositories.NewGORMTokenRepository(db)
	log.Info().Str("search", search.Name()).Msg("Product search strategy selected")

	// --- Services ---
	issuer := services.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.PasswordResetTTL)
	catalogService := services.NewCatalogService(productRepo, categoryRepo, statsCache, cfg.App.StatsCacheTTL, log)
	authService := services.NewAuthService(userRepo, tokenRepo, issuer, mailer, services.AuthSettings{
		From:        cfg.Mail.From,
		FrontendURL: cfg.Mail.FrontendURL,
	}, log)

	// --- Handlers ---
	validate := handlers.NewValidator()
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	authHandler := handlers.NewAuthHandler(authService, validate, cfg.Security.CookieSecure)
	adminHandler := handlers.NewAdminHandler(catalogService, authService, validate)
	healthHandler := handlers.NewHealthHandler(cfg.App.Version, cfg.App.Debug())

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: handlers.ErrorHandler(log),
	})

	// --- Middleware ---
	app.Use(middleware.RequestTimer(log))
	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.App.Debug()}))

	csrfMiddleware := csrf.New(csrf.Config{
		KeyLookup:      "header:X-CSRFToken",
		CookieName:     "csrftoken",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.Security.CookieSecure,
		Expiration:     12 * time.Hour,
		ContextKey:     handlers.CSRFContextKey,
	})
	if cfg.Security.CSRFEnabled {
		app.Use(csrfMiddleware)
	} else {
		authHandler.WithCSRF(csrfMiddleware)
	}

	// --- Routes ---
	healthHandler.RegisterRoutes(app)

	api := app.Group("/api")
	catalogHandler.RegisterRoutes(api)
	authHandler.RegisterRoutes(api)
	adminHandler.RegisterRoutes(api)

	return app
}

// newCache returns a Redis cache when an address is configured and reachable,
// and an in-memory cache otherwise.
func newCache(cfg config.RedisConfig, log zerolog.Logger) (cache.Cache, func()) {
	if cfg.Addr == "" {
		return cache.NewMemoryCache(), func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	rc := cache.NewRedisCache(rdb, "katalog:")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Addr).Msg("Redis unavailable, using in-memory cache")
		_ = rdb.Close()
		return cache.NewMemoryCache(), func() {}
	}
	log.Info().Str("addr", cfg.Addr).Msg("Using Redis cache")
	return rc, func() { _ = rdb.Close() }
}

// newMailer selects how reset emails leave the service.
func newMailer(cfg config.MailConfig, log zerolog.Logger) (services.Mailer, func(), error) {
	if cfg.Backend != "amqp" {
		return services.NewConsoleMailer(log), func() {}, nil
	}

	mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.Queue}, log)
	if err != nil {
		return nil, nil, err
	}
	return services.NewAMQPMailer(mqClient), func() {
		if err := mqClient.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing RabbitMQ client")
		}
	}, nil
}
