package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/yourplaces/api/internal/domain/repository"
)

// Querier is the subset of pgx operations the repositories need. It is
// satisfied by both *pgxpool.Pool and pgx.Tx, so a repository can run
// against the pool or inside a transaction without knowing which.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRunner implements repository.TxManager on a pgx pool.
type TxRunner struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

func NewTxRunner(pool *pgxpool.Pool, logger *logrus.Logger) *TxRunner {
	return &TxRunner{pool: pool, logger: logger}
}

// WithTx begins a transaction, binds fresh repositories to it, and runs fn.
// Commit happens only when fn returns nil; any error or panic rolls the
// whole transaction back, so the dual write (place row + owner place_ids)
// either lands completely or not at all.
func (t *TxRunner) WithTx(ctx context.Context, fn func(users repository.UserRepository, places repository.PlaceRepository) error) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				t.logger.WithField("panic", p).WithError(rbErr).Error("rollback after panic failed")
			}
			panic(p)
		}
	}()

	if err := fn(&UserRepository{q: tx}, &PlaceRepository{q: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			t.logger.WithError(rbErr).WithField("cause", err.Error()).Error("transaction rollback failed")
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

var _ repository.TxManager = (*TxRunner)(nil)
