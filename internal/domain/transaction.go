package domain

import (
	"context"
	"time"
)

type TransactionStatus string

const (
	StatusSuccess TransactionStatus = "SUCCESS"
	StatusFailed  TransactionStatus = "FAILED"
)

// Transaction is an immutable record of one transfer attempt, keyed by the
// caller-supplied reference.
type Transaction struct {
	ID         int64             `json:"id"`
	Ref        string            `json:"transaction_ref"`
	SenderID   int64             `json:"sender_id"`
	ReceiverID int64             `json:"receiver_id"`
	Amount     int64             `json:"amount"`
	Status     TransactionStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
}

// HistoryFilter selects which side of a transfer counts towards a wallet's history.
type HistoryFilter struct {
	WalletID    int64
	IncludeSent bool
	Limit       int
}

type TransactionRepository interface {
	CreateTransaction(ctx context.Context, tx *Transaction) error
	// GetTransactionByRef returns nil, nil when no record exists for ref.
	GetTransactionByRef(ctx context.Context, ref string) (*Transaction, error)
	ListRecentTransactions(ctx context.Context, filter HistoryFilter) ([]Transaction, error)
}
