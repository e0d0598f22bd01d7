package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/upb/rolegate/repositories"
	"go.uber.org/zap"
)

type txKey struct{}

// querier is the part of *sql.DB and *sql.Tx the repositories use
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// conn returns the transaction begun by TxManager on ctx, or the pool
func conn(ctx context.Context, db *DB) querier {
	if t, ok := ctx.Value(txKey{}).(*pgTx); ok {
		return t.tx
	}
	return db.DB
}

// TxManager begins transactions that user and consumer repositories join
// through the returned context.
type TxManager struct {
	db     *DB
	logger *zap.Logger
}

// NewTxManager creates a TxManager over db
func NewTxManager(db *DB, logger *zap.Logger) *TxManager {
	return &TxManager{db: db, logger: logger}
}

func (m *TxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	sqlTx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	t := &pgTx{tx: sqlTx, logger: m.logger}
	t.ctx = context.WithValue(ctx, txKey{}, t)
	return t, nil
}

func (m *TxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	t, err := m.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(t.Context(), t); err != nil {
		if rbErr := t.Rollback(); rbErr != nil {
			m.logger.Error("rollback failed", zap.Error(rbErr), zap.NamedError("cause", err))
		}
		return err
	}
	return t.Commit()
}

type pgTx struct {
	tx     *sql.Tx
	ctx    context.Context
	logger *zap.Logger
}

func (t *pgTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback is a no-op on a finished transaction
func (t *pgTx) Rollback() error {
	err := t.tx.Rollback()
	if err == nil || errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return fmt.Errorf("rollback: %w", err)
}

func (t *pgTx) Context() context.Context { return t.ctx }
