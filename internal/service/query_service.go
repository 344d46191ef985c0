package service

import (
	"context"
	"log/slog"

	"wallet-ledger/internal/cache"
	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/errors"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 10
)

// QueryService serves read-only balance and history lookups.
type QueryService struct {
	wallets      domain.WalletRepository
	transactions domain.TransactionRepository
	cache        cache.BalanceCache
	logger       *slog.Logger
	includeSent  bool
}

// NewQueryService builds a QueryService. When includeSent is false a wallet's history
// only lists transfers it received.
func NewQueryService(
	wallets domain.WalletRepository,
	transactions domain.TransactionRepository,
	balanceCache cache.BalanceCache,
	logger *slog.Logger,
	includeSent bool,
) *QueryService {
	if balanceCache == nil {
		balanceCache = cache.NopBalanceCache{}
	}
	return &QueryService{
		wallets:      wallets,
		transactions: transactions,
		cache:        balanceCache,
		logger:       logger,
		includeSent:  includeSent,
	}
}

// GetBalance returns the committed balance of a wallet in minor units.
func (s *QueryService) GetBalance(ctx context.Context, walletID int64) (int64, error) {
	if walletID <= 0 {
		return 0, errors.ErrInvalidWalletID
	}

	entry, cacheErr := s.cache.Get(ctx, walletID)
	if cacheErr != nil {
		s.logger.Warn("Balance cache read failed", "user_id", walletID, "error", cacheErr)
	} else if entry.Found {
		return entry.Balance, nil
	}

	wallet, err := s.wallets.GetWallet(ctx, walletID)
	if err != nil {
		return 0, err
	}

	// Without a generation the fill could race an invalidation, so skip it.
	if cacheErr == nil {
		if err := s.cache.Set(ctx, walletID, wallet.Balance, entry.Generation); err != nil {
			s.logger.Warn("Balance cache write failed", "user_id", walletID, "error", err)
		}
	}
	return wallet.Balance, nil
}

// ListRecentTransactions returns up to limit records, newest first. A limit outside
// 1..MaxHistoryLimit is replaced by the nearest bound, and zero means the default.
func (s *QueryService) ListRecentTransactions(ctx context.Context, walletID int64, limit int) ([]domain.Transaction, error) {
	if walletID <= 0 {
		return nil, errors.ErrInvalidWalletID
	}

	switch {
	case limit == 0:
		limit = DefaultHistoryLimit
	case limit < 1:
		limit = 1
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	return s.transactions.ListRecentTransactions(ctx, domain.HistoryFilter{
		WalletID:    walletID,
		IncludeSent: s.includeSent,
		Limit:       limit,
	})
}
