package domain

import (
	"context"
	"time"
)

// Wallet holds a balance in minor currency units (kobo). Balance is never negative.
type Wallet struct {
	ID        int64     `json:"user_id"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type WalletRepository interface {
	CreateWallet(ctx context.Context, wallet *Wallet) error
	GetWallet(ctx context.Context, id int64) (*Wallet, error)
	// GetWalletForUpdate reads the wallet and holds an exclusive row lock on it until
	// the enclosing unit of work commits or rolls back.
	GetWalletForUpdate(ctx context.Context, id int64) (*Wallet, error)
	AdjustBalance(ctx context.Context, id int64, delta int64) error
}
