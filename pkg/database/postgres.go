package database

import (
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/config"
)

// NewPostgres returns a configured PostgreSQL client.
func NewPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := cfg.DSN()
	if cfg.ReadOnly {
		dsn = withReadOnly(dsn)
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// NewRegistry opens the external scan registry. Every session is read-only;
// the registry is owned by another system.
func NewRegistry(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	cfg.ReadOnly = true
	return NewPostgres(cfg)
}

func withReadOnly(dsn string) string {
	const option = "-c default_transaction_read_only=on"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		parsed, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		query := parsed.Query()
		query.Set("options", option)
		parsed.RawQuery = query.Encode()
		return parsed.String()
	}
	return dsn + " options='" + option + "'"
}
