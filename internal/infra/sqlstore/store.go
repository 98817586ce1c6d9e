// Package sqlstore persists transactions, enrichments, insights and reference
// data through gorm. SQLite is the default backend; a postgres:// DSN selects
// PostgreSQL.
package sqlstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config controls how the database is opened.
type Config struct {
	// DSN is a postgres:// or postgresql:// URL, or a SQLite file path.
	DSN string
	// LogSQL enables gorm's statement logging.
	LogSQL bool
}

// Store is the gorm-backed repository for every table.
type Store struct {
	db *gorm.DB
}

// New wraps an open gorm handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open connects to the configured database and tunes the connection pool.
func Open(cfg Config) (*Store, error) {
	logLevel := gormlogger.Silent
	if cfg.LogSQL {
		logLevel = gormlogger.Info
	}
	gcfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	}

	var (
		db  *gorm.DB
		err error
	)
	if isPostgres(cfg.DSN) {
		db, err = gorm.Open(postgres.Open(cfg.DSN), gcfg)
	} else {
		path := strings.TrimPrefix(cfg.DSN, "sqlite://")
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("Open: create db dir: %w", err)
			}
		}
		db, err = gorm.Open(sqlite.Open(sqliteDSN(path)), gcfg)
	}
	if err != nil {
		return nil, fmt.Errorf("Open: open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("Open: get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return New(db), nil
}

// AutoMigrate creates or updates every table.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("Ping: get sql db: %w", err)
	}
	return sqlDB.Ping()
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("Close: get sql db: %w", err)
	}
	return sqlDB.Close()
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
}
