package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/errors"
)

func newWalletRouter(h *WalletHandler) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/wallets", h.CreateWallet).Methods("POST")
	router.HandleFunc("/wallet/{user_id}", h.GetWallet).Methods("GET")
	return router
}

func TestWalletHandler_GetWallet(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		setup      func(m *WalletQuerierMock)
		wantStatus int
		wantBody   string
	}{
		{
			name: "balance in major units",
			path: "/wallet/1",
			setup: func(m *WalletQuerierMock) {
				m.On("GetBalance", mock.Anything, int64(1)).Return(int64(4975), nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"balance": 49.75}`,
		},
		{
			name: "whole amount keeps two decimals",
			path: "/wallet/2",
			setup: func(m *WalletQuerierMock) {
				m.On("GetBalance", mock.Anything, int64(2)).Return(int64(10000), nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"balance": 100.00}`,
		},
		{
			name: "not found",
			path: "/wallet/9",
			setup: func(m *WalletQuerierMock) {
				m.On("GetBalance", mock.Anything, int64(9)).Return(int64(0), errors.ErrWalletNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `{"detail": "wallet not found", "code": "wallet_not_found"}`,
		},
		{
			name:       "bad id",
			path:       "/wallet/x",
			setup:      func(m *WalletQuerierMock) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"detail": "wallet id must be a positive integer", "code": "invalid_wallet_id"}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			queries := new(WalletQuerierMock)
			tt.setup(queries)
			router := newWalletRouter(NewWalletHandler(new(WalletCreatorMock), queries))

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			queries.AssertExpectations(t)
		})
	}
}

func TestWalletHandler_CreateWallet(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(m *WalletCreatorMock)
		wantStatus int
		wantBody   string
	}{
		{
			name: "created",
			body: `{"user_id": 1, "initial_balance": "₦100.00"}`,
			setup: func(m *WalletCreatorMock) {
				m.On("CreateWallet", mock.Anything, int64(1), int64(10000)).Return(&domain.Wallet{ID: 1, Balance: 10000}, nil)
			},
			wantStatus: http.StatusCreated,
			wantBody:   `{"user_id": 1, "balance": "100.00"}`,
		},
		{
			name: "empty opening balance",
			body: `{"user_id": 2}`,
			setup: func(m *WalletCreatorMock) {
				m.On("CreateWallet", mock.Anything, int64(2), int64(0)).Return(&domain.Wallet{ID: 2}, nil)
			},
			wantStatus: http.StatusCreated,
			wantBody:   `{"user_id": 2, "balance": "0.00"}`,
		},
		{
			name: "duplicate",
			body: `{"user_id": 1, "initial_balance": "5"}`,
			setup: func(m *WalletCreatorMock) {
				m.On("CreateWallet", mock.Anything, int64(1), int64(500)).Return(nil, errors.ErrDuplicateWallet)
			},
			wantStatus: http.StatusConflict,
			wantBody:   `{"detail": "wallet already exists", "code": "duplicate_wallet"}`,
		},
		{
			name:       "negative balance",
			body:       `{"user_id": 1, "initial_balance": "-5"}`,
			setup:      func(m *WalletCreatorMock) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"detail": "balance cannot be negative", "code": "invalid_amount"}`,
		},
		{
			name:       "oversized body",
			body:       `{"user_id": 1, "initial_balance": "` + strings.Repeat(" ", maxBodyBytes) + `1"}`,
			setup:      func(m *WalletCreatorMock) {},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantBody:   `{"detail": "request body too large", "code": "invalid_input"}`,
		},
		{
			name:       "bad body",
			body:       `[]`,
			setup:      func(m *WalletCreatorMock) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"detail": "invalid request body", "code": "invalid_input"}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			creator := new(WalletCreatorMock)
			tt.setup(creator)
			router := newWalletRouter(NewWalletHandler(creator, new(WalletQuerierMock)))

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/wallets", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			creator.AssertExpectations(t)
		})
	}
}
