package database

import (
	"fmt"
	"strings"

	"katalog/internal/config"
	"katalog/internal/logger"
	"katalog/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ProductSearchVector is the weighted text vector used for full-text search
// on PostgreSQL. The GIN index created by Migrate uses the same expression so
// the planner can match it; queries using it must not join other tables that
// have name or description columns.
const ProductSearchVector = "(setweight(to_tsvector('english', coalesce(name, '')), 'A') || " +
	"setweight(to_tsvector('english', coalesce(description, '')), 'B'))"

// Open connects to the configured database. Uniqueness violations are
// translated to gorm.ErrDuplicatedKey for both drivers.
func Open(cfg config.DBConfig, zl zerolog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(SQLiteDSN(cfg.DSN))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gl := logger.NewGormLogger(zl)
	level := gormlogger.Warn
	if zl.GetLevel() <= zerolog.DebugLevel {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gl.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Driver, err)
	}
	return db, nil
}

// SQLiteDSN enables foreign key enforcement, which SQLite leaves off by
// default and which the cascade deletes rely on.
func SQLiteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}

// SupportsFullText reports whether the connected backend has native
// full-text search.
func SupportsFullText(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

// Migrate creates or updates the schema. On PostgreSQL it also creates the
// GIN indexes for full-text search and attribute lookups.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.Variant{},
		&models.Media{},
		&models.User{},
		&models.RevokedToken{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	if !SupportsFullText(db) {
		return nil
	}

	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_search ON products USING GIN (" + ProductSearchVector + ")",
		"CREATE INDEX IF NOT EXISTS idx_products_attributes ON products USING GIN (attributes)",
		"CREATE INDEX IF NOT EXISTS idx_variants_attributes ON variants USING GIN (attributes)",
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create search index: %w", err)
		}
	}
	return nil
}

// OpenInMemory opens a private in-memory SQLite database with the schema
// migrated. Every call gets its own database.
func OpenInMemory() (*gorm.DB, error) {
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := Open(config.DBConfig{Driver: "sqlite", DSN: dsn}, logger.Nop())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// One connection keeps the database alive and avoids shared-cache table locks.
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
