package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/upb/rolegate/config"
	"go.uber.org/zap"
)

// DB is the pool behind the user and consumer stores
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// pingTimeout bounds the startup connectivity check
const pingTimeout = 5 * time.Second

// NewDB opens a lib/pq pool sized from cfg and fails unless the server
// answers a ping within pingTimeout.
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	pool, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.LogString(), err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.LogString(), err)
	}

	logger.Info("database connection established", zap.String("connection", cfg.LogString()))
	return &DB{DB: pool, logger: logger}, nil
}

func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck reports whether the pool is reachable and both the users and
// consumers tables exist. Readiness fails until InitSchema has run.
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}

	var ready bool
	row := db.QueryRowContext(ctx, `SELECT to_regclass('users') IS NOT NULL AND to_regclass('consumers') IS NOT NULL`)
	if err := row.Scan(&ready); err != nil {
		return fmt.Errorf("schema check failed: %w", err)
	}
	if !ready {
		return errSchemaMissing
	}
	return nil
}

// NewFromSQL wraps an already opened pool, used with sqlmock in tests
func NewFromSQL(db *sql.DB, logger *zap.Logger) *DB {
	return &DB{DB: db, logger: logger}
}

// InitSchema creates the user and consumer tables
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		-- Administrator accounts (HTTP Basic)
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			login VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Consumers, keyed by client certificate common name
		CREATE TABLE IF NOT EXISTS consumers (
			id UUID PRIMARY KEY,
			consumer_id VARCHAR(255) NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}
