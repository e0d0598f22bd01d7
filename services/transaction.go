package services

import (
	"context"
	"fmt"

	"github.com/upb/rolegate/repositories"
)

// WithTransactionResult runs fn inside a transaction begun on txMgr and
// returns its result. fn gets the transaction's context so repository calls
// join it. The transaction commits only when fn returns nil; an error or a
// panic rolls it back and the panic is re-raised.
func WithTransactionResult[T any](ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context, tx repositories.Transaction) (T, error)) (result T, err error) {
	tx, err := txMgr.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		rbErr := tx.Rollback()
		if p := recover(); p != nil {
			panic(p)
		}
		if rbErr != nil {
			err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
	}()

	if result, err = fn(tx.Context(), tx); err != nil {
		return result, err
	}

	committed = true
	if err = tx.Commit(); err != nil {
		return result, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}
