package database

import (
	"database/sql"
	"fmt"

	"github.com/RubachokBoss/originality-bot/internal/config"
	_ "github.com/mattn/go-sqlite3"
)

// NewSQLite opens the submissions database file. WAL keeps concurrent
// webhook handlers from tripping over the single-writer lock.
func NewSQLite(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", cfg.Path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}
