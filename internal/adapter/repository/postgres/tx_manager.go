package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/walletledger/internal/usecase"
)

// DBTX is what repositories run statements against: the pool outside a
// transaction, the pgx.Tx inside one.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgxPool interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TxOption configures the transactions a TxManager starts.
type TxOption func(*pgx.TxOptions)

// WithIsolation sets the isolation level. An empty level keeps the server
// default.
func WithIsolation(level pgx.TxIsoLevel) TxOption {
	return func(o *pgx.TxOptions) {
		o.IsoLevel = level
	}
}

// TxManager implements usecase.TransactionManager. Every multi-entry write
// (transfer pair, installment plan, recurring series, scope ALL mutation)
// and every snapshot recompute runs in one of its transactions.
type TxManager struct {
	pool    pgxPool
	options pgx.TxOptions
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool *pgxpool.Pool, opts ...TxOption) *TxManager {
	return newTxManagerWithPool(pool, opts...)
}

func newTxManagerWithPool(pool pgxPool, opts ...TxOption) *TxManager {
	m := &TxManager{pool: pool}
	for _, opt := range opts {
		opt(&m.options)
	}
	return m
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.BeginTx(ctx, m.options)
	if err != nil {
		return nil, err
	}

	return &Tx{tx: tx}, nil
}

// Tx wraps a pgx transaction.
type Tx struct {
	tx pgx.Tx
}

// Commit commits the transaction. Deferred constraint failures surface here
// and are mapped like statement failures.
func (t *Tx) Commit(ctx context.Context) error {
	return mapError(t.tx.Commit(ctx))
}

// Rollback rolls back the transaction. Rolling back a committed transaction
// is a no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// PgxTx returns the underlying pgx.Tx.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}

// conn picks the transaction when there is one, db otherwise.
func conn(db DBTX, tx usecase.Transaction) DBTX {
	if tx == nil {
		return db
	}
	return tx.(*Tx).PgxTx()
}
