package domain

import "context"

// UnitOfWork exposes repositories bound to a single database transaction, or to the
// pool when used outside one.
type UnitOfWork interface {
	Wallets() WalletRepository
	Transactions() TransactionRepository
}

// Ledger runs fn atomically: every write made through the UnitOfWork handed to fn is
// committed when fn returns nil and rolled back otherwise.
type Ledger interface {
	UnitOfWork
	WithTransaction(ctx context.Context, fn func(UnitOfWork) error) error
}
