package service

import (
	"context"
	"log/slog"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/errors"
)

// MaxInitialBalance caps opening balances at one billion naira.
const MaxInitialBalance int64 = 100_000_000_000

type WalletService struct {
	wallets domain.WalletRepository
	logger  *slog.Logger
}

func NewWalletService(wallets domain.WalletRepository, logger *slog.Logger) *WalletService {
	return &WalletService{
		wallets: wallets,
		logger:  logger,
	}
}

func (s *WalletService) CreateWallet(ctx context.Context, walletID int64, initialBalance int64) (*domain.Wallet, error) {
	s.logger.Info("Creating wallet", "user_id", walletID, "initial_balance", initialBalance)

	if walletID <= 0 {
		return nil, errors.ErrInvalidWalletID
	}

	if initialBalance < 0 {
		return nil, errors.NewAppError(errors.InvalidAmount, "initial balance cannot be negative")
	}
	if initialBalance > MaxInitialBalance {
		return nil, errors.NewAppError(errors.InvalidAmount, "initial balance exceeds maximum limit")
	}

	wallet := &domain.Wallet{
		ID:      walletID,
		Balance: initialBalance,
	}

	if err := s.wallets.CreateWallet(ctx, wallet); err != nil {
		return nil, err
	}

	return wallet, nil
}
