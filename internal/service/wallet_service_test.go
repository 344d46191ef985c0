package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-ledger/internal/errors"
)

func TestWalletService_CreateWallet(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		walletID    int64
		balance     int64
		expectedErr error
	}{
		{name: "success", walletID: 3, balance: 10000},
		{name: "zero opening balance", walletID: 4, balance: 0},
		{name: "duplicate", walletID: 1, balance: 10, expectedErr: errors.ErrDuplicateWallet},
		{name: "invalid id", walletID: 0, balance: 10, expectedErr: errors.ErrInvalidWalletID},
		{name: "negative balance", walletID: 5, balance: -1, expectedErr: errors.ErrInvalidAmount},
		{name: "balance over limit", walletID: 6, balance: MaxInitialBalance + 1, expectedErr: errors.ErrInvalidAmount},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ledger := newMemLedger(map[int64]int64{1: 0})
			svc := NewWalletService(ledger.Wallets(), discardLogger())

			wallet, err := svc.CreateWallet(ctx, tt.walletID, tt.balance)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.walletID, wallet.ID)
			assert.Equal(t, tt.balance, ledger.balance(tt.walletID))
		})
	}
}
