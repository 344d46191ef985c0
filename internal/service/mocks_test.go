package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"wallet-ledger/internal/cache"
	"wallet-ledger/internal/domain"
)

type BalanceCacheMock struct {
	mock.Mock
}

func (m *BalanceCacheMock) Get(ctx context.Context, walletID int64) (cache.Entry, error) {
	args := m.Called(ctx, walletID)
	return args.Get(0).(cache.Entry), args.Error(1)
}

func (m *BalanceCacheMock) Set(ctx context.Context, walletID int64, balance int64, generation int64) error {
	args := m.Called(ctx, walletID, balance, generation)
	return args.Error(0)
}

func (m *BalanceCacheMock) Invalidate(ctx context.Context, walletIDs ...int64) error {
	args := m.Called(ctx, walletIDs)
	return args.Error(0)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) PublishTransferCompleted(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}
