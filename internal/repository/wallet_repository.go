package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/errors"
)

type walletRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewWalletRepository(db SQLExecutor, logger *slog.Logger) domain.WalletRepository {
	return &walletRepository{
		db:     db,
		logger: logger,
	}
}

func (r *walletRepository) CreateWallet(ctx context.Context, wallet *domain.Wallet) error {
	query := `
		INSERT INTO wallets (user_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, wallet.ID, wallet.Balance, now, now)
	if err != nil {
		if pqErr, ok := pqError(err); ok && pqErr.Code == pgUniqueViolation {
			r.logger.Warn("Duplicate wallet creation attempt", "user_id", wallet.ID)
			return errors.ErrDuplicateWallet
		}
		if isUnavailable(err) {
			return unavailable(err)
		}
		r.logger.Error("Failed to create wallet", "user_id", wallet.ID, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to create wallet").WithDetails(err.Error())
	}

	wallet.CreatedAt = now
	wallet.UpdatedAt = now
	r.logger.Info("Wallet created successfully", "user_id", wallet.ID)
	return nil
}

func (r *walletRepository) GetWallet(ctx context.Context, id int64) (*domain.Wallet, error) {
	query := `
		SELECT user_id, balance, created_at, updated_at
		FROM wallets WHERE user_id = $1
	`

	return r.scanWallet(ctx, query, id)
}

func (r *walletRepository) GetWalletForUpdate(ctx context.Context, id int64) (*domain.Wallet, error) {
	query := `
		SELECT user_id, balance, created_at, updated_at
		FROM wallets WHERE user_id = $1 FOR UPDATE
	`

	return r.scanWallet(ctx, query, id)
}

func (r *walletRepository) scanWallet(ctx context.Context, query string, id int64) (*domain.Wallet, error) {
	var wallet domain.Wallet

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&wallet.ID,
		&wallet.Balance,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Warn("Wallet not found", "user_id", id)
			return nil, errors.ErrWalletNotFound
		}
		if isUnavailable(err) {
			r.logger.Warn("Wallet read aborted", "user_id", id, "error", err)
			return nil, unavailable(err)
		}
		r.logger.Error("Failed to get wallet", "user_id", id, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get wallet").WithDetails(err.Error())
	}

	return &wallet, nil
}

// AdjustBalance adds delta (negative for a debit) to the wallet balance. The
// wallets_balance_non_negative constraint rejects any debit that would overdraw.
func (r *walletRepository) AdjustBalance(ctx context.Context, id int64, delta int64) error {
	query := `
		UPDATE wallets
		SET balance = balance + $1, updated_at = $2
		WHERE user_id = $3
	`

	result, err := r.db.ExecContext(ctx, query, delta, time.Now().UTC(), id)
	if err != nil {
		if pqErr, ok := pqError(err); ok && pqErr.Code == pgCheckViolation && pqErr.Constraint == constraintBalanceNonNeg {
			r.logger.Warn("Debit rejected by balance constraint", "user_id", id, "delta", delta)
			return errors.ErrInsufficientFunds
		}
		if isUnavailable(err) {
			return unavailable(err)
		}
		r.logger.Error("Failed to adjust wallet balance", "user_id", id, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to adjust wallet balance").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}

	if rowsAffected == 0 {
		r.logger.Warn("No wallet found to update", "user_id", id)
		return errors.ErrWalletNotFound
	}

	r.logger.Debug("Wallet balance adjusted", "user_id", id, "delta", delta)
	return nil
}
