package db

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/diewo77/facturacion/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// blank imports register the sqlite3 database driver and the file
	// source for golang-migrate
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectAndMigrate opens the embedded sqlite database at path and brings
// the schema up to date. MIGRATIONS=1 runs the SQL files in ./migrations
// via golang-migrate; otherwise AutoMigrate keeps dev setups working.
func ConnectAndMigrate(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is empty, check DATABASE_PATH")
	}
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}
	conn, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// Basic connectivity test
	if pingErr := conn.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	// sqlite does not enforce FKs unless asked
	if err := conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	zlog.Info().Str("path", path).Msg("database opened")

	if v := strings.ToLower(os.Getenv("MIGRATIONS")); v == "1" || v == "true" || v == "yes" {
		if err := runSQLMigrations(path); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		modelsToMigrate := []interface{}{
			&models.Product{}, &models.StockRecord{}, &models.StockMovement{},
			&models.Invoice{}, &models.InvoiceItem{}, &models.Organization{},
		}
		for _, m := range modelsToMigrate {
			if migErr := conn.AutoMigrate(m); migErr != nil {
				return nil, fmt.Errorf("automigrate %T: %w", m, migErr)
			}
		}
	}

	// sanity check: ensure required core tables exist
	for _, table := range []string{"productos", "stock", "stock_movements", "facturas", "factura_items"} {
		if !conn.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	return conn, nil
}

// runSQLMigrations executes migrations in ./migrations using the
// golang-migrate file source.
func runSQLMigrations(path string) error {
	m, err := migrate.New("file://migrations", "sqlite3://"+path)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
