package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/service"
)

type TransfererMock struct {
	mock.Mock
}

func (m *TransfererMock) Transfer(ctx context.Context, req *service.TransferRequest) (*service.TransferResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*service.TransferResult)
	return res, args.Error(1)
}

type WalletQuerierMock struct {
	mock.Mock
}

func (m *WalletQuerierMock) GetBalance(ctx context.Context, walletID int64) (int64, error) {
	args := m.Called(ctx, walletID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *WalletQuerierMock) ListRecentTransactions(ctx context.Context, walletID int64, limit int) ([]domain.Transaction, error) {
	args := m.Called(ctx, walletID, limit)
	txs, _ := args.Get(0).([]domain.Transaction)
	return txs, args.Error(1)
}

type WalletCreatorMock struct {
	mock.Mock
}

func (m *WalletCreatorMock) CreateWallet(ctx context.Context, walletID int64, initialBalance int64) (*domain.Wallet, error) {
	args := m.Called(ctx, walletID, initialBalance)
	wallet, _ := args.Get(0).(*domain.Wallet)
	return wallet, args.Error(1)
}
