package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/errors"
)

// Store provides a unified interface for all repository operations with transaction support
type Store struct {
	executor    SQLExecutor
	logger      *slog.Logger
	lockTimeout time.Duration
}

var _ domain.Ledger = (*Store)(nil)

type StoreOption func(*Store)

// WithLockTimeout bounds how long a statement inside WithTransaction waits for a row
// lock before failing with errors.ErrStoreUnavailable. Zero waits forever.
func WithLockTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		s.lockTimeout = d
	}
}

// NewStore creates a new Store instance
func NewStore(db *sql.DB, logger *slog.Logger, opts ...StoreOption) *Store {
	s := &Store{
		executor: db,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Wallets returns a WalletRepository using the current executor
func (s *Store) Wallets() domain.WalletRepository {
	return NewWalletRepository(s.executor, s.logger)
}

// Transactions returns a TransactionRepository using the current executor
func (s *Store) Transactions() domain.TransactionRepository {
	return NewTransactionRepository(s.executor, s.logger)
}

// WithTransaction executes fn within a database transaction. The transaction commits
// when fn returns nil and rolls back on error, panic or cancellation of ctx.
func (s *Store) WithTransaction(ctx context.Context, fn func(domain.UnitOfWork) error) error {
	// A Store already bound to a sql.Tx cannot nest another one.
	db, ok := s.executor.(DB)
	if !ok {
		return errors.ErrCannotBeginTransaction
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		s.logger.Error("Failed to begin transaction", "error", err)
		return unavailable(err)
	}

	txStore := &Store{
		executor:    tx,
		logger:      s.logger,
		lockTimeout: s.lockTimeout,
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if s.lockTimeout > 0 {
		if err := txStore.setLockTimeout(ctx); err != nil {
			s.rollback(tx)
			return err
		}
	}

	if err := fn(txStore); err != nil {
		s.rollback(tx)
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", "error", err)
		return unavailable(err)
	}
	return nil
}

func (s *Store) setLockTimeout(ctx context.Context) error {
	// SET LOCAL does not take bind parameters; set_config(..., true) is its
	// parameterised equivalent and lasts until the transaction ends.
	_, err := s.executor.ExecContext(ctx,
		`SELECT set_config('lock_timeout', $1, true)`,
		fmt.Sprintf("%dms", s.lockTimeout.Milliseconds()),
	)
	if err != nil {
		s.logger.Error("Failed to set lock timeout", "error", err)
		return unavailable(err)
	}
	return nil
}

func (s *Store) rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		s.logger.Warn("Rollback failed", "error", err)
	}
}
