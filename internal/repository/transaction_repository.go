package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/errors"
)

type transactionRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewTransactionRepository(db SQLExecutor, logger *slog.Logger) domain.TransactionRepository {
	return &transactionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *transactionRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions
		(transaction_ref, sender_id, receiver_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	now := time.Now().UTC()

	err := r.db.QueryRowContext(ctx,
		query,
		tx.Ref,
		tx.SenderID,
		tx.ReceiverID,
		tx.Amount,
		string(tx.Status),
		now,
	).Scan(&tx.ID)

	if err != nil {
		if pqErr, ok := pqError(err); ok {
			if pqErr.Code == pgUniqueViolation && pqErr.Constraint == constraintTransactionRef {
				r.logger.Warn("Duplicate transaction reference", "transaction_ref", tx.Ref)
				return errors.ErrDuplicateTransaction
			}
		}
		if isUnavailable(err) {
			return unavailable(err)
		}
		r.logger.Error("Failed to create transaction",
			"transaction_ref", tx.Ref,
			"sender_id", tx.SenderID,
			"receiver_id", tx.ReceiverID,
			"amount", tx.Amount,
			"error", err)
		return errors.NewAppError(errors.InternalError, "failed to create transaction").WithDetails(err.Error())
	}

	tx.CreatedAt = now
	r.logger.Info("Transaction recorded", "transaction_ref", tx.Ref, "status", tx.Status)
	return nil
}

func (r *transactionRepository) GetTransactionByRef(ctx context.Context, ref string) (*domain.Transaction, error) {
	query := `
		SELECT id, transaction_ref, sender_id, receiver_id, amount, status, created_at
		FROM transactions WHERE transaction_ref = $1
	`

	var transaction domain.Transaction
	err := scanTransaction(r.db.QueryRowContext(ctx, query, ref), &transaction)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		if isUnavailable(err) {
			return nil, unavailable(err)
		}
		r.logger.Error("Failed to get transaction", "transaction_ref", ref, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get transaction").WithDetails(err.Error())
	}

	return &transaction, nil
}

func (r *transactionRepository) ListRecentTransactions(ctx context.Context, filter domain.HistoryFilter) ([]domain.Transaction, error) {
	query := `
		SELECT id, transaction_ref, sender_id, receiver_id, amount, status, created_at
		FROM transactions
		WHERE receiver_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	if filter.IncludeSent {
		query = `
			SELECT id, transaction_ref, sender_id, receiver_id, amount, status, created_at
			FROM transactions
			WHERE receiver_id = $1 OR sender_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`
	}

	rows, err := r.db.QueryContext(ctx, query, filter.WalletID, filter.Limit)
	if err != nil {
		if isUnavailable(err) {
			return nil, unavailable(err)
		}
		r.logger.Error("Failed to list transactions", "user_id", filter.WalletID, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to list transactions").WithDetails(err.Error())
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0, filter.Limit)
	for rows.Next() {
		var transaction domain.Transaction
		if err := scanTransaction(rows, &transaction); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan transaction").WithDetails(err.Error())
		}
		transactions = append(transactions, transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to list transactions").WithDetails(err.Error())
	}

	return transactions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner, transaction *domain.Transaction) error {
	var status string
	err := row.Scan(
		&transaction.ID,
		&transaction.Ref,
		&transaction.SenderID,
		&transaction.ReceiverID,
		&transaction.Amount,
		&status,
		&transaction.CreatedAt,
	)
	if err != nil {
		return err
	}
	transaction.Status = domain.TransactionStatus(status)
	return nil
}
