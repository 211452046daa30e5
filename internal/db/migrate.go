// Package db connects to PostgreSQL and prepares the schema.
package db

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/diewo77/go-billing/internal/config"
	"github.com/diewo77/go-billing/internal/store"
	migrate "github.com/golang-migrate/migrate/v4"
	// Registers the postgres driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var passwordRe = regexp.MustCompile(`(password=)(\S+)`)

// Connect opens the database, retrying while PostgreSQL starts up.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}
	retries := max(cfg.ConnectRetries, 1)

	var (
		db  *gorm.DB
		err error
	)
	for i := 0; i < retries; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gcfg)
		if err == nil {
			break
		}
		slog.Warn("retrying database connection", "attempt", i+1, "error", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	slog.Info("connected to database", "dsn", passwordRe.ReplaceAllString(cfg.DSN(), `${1}***`))
	return db, nil
}

// Migrate creates or upgrades the schema. With sqlMigrations the embedded SQL
// files are applied through golang-migrate; otherwise gorm AutoMigrate is used.
func Migrate(db *gorm.DB, cfg config.DatabaseConfig, sqlMigrations bool) error {
	if sqlMigrations {
		if err := runSQLMigrations(cfg.URL()); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else if err := AutoMigrate(db); err != nil {
		return err
	}
	for _, table := range []string{"users", "clients", "quotations", "invoices"} {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// AutoMigrate applies the gorm schema of every store record.
func AutoMigrate(db *gorm.DB) error {
	for _, m := range store.Models() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

func runSQLMigrations(url string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return err
	}
	defer m.Close()
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
