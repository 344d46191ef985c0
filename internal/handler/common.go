package handler

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/errors"
	"wallet-ledger/internal/service"
)

// Transferer runs idempotent wallet transfers.
type Transferer interface {
	Transfer(ctx context.Context, req *service.TransferRequest) (*service.TransferResult, error)
}

// WalletQuerier serves the read side.
type WalletQuerier interface {
	GetBalance(ctx context.Context, walletID int64) (int64, error)
	ListRecentTransactions(ctx context.Context, walletID int64, limit int) ([]domain.Transaction, error)
}

// WalletCreator provisions wallets out of band.
type WalletCreator interface {
	CreateWallet(ctx context.Context, walletID int64, initialBalance int64) (*domain.Wallet, error)
}

// ErrorResponse is the failure body: detail is the human message, code the stable
// machine-readable kind.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, appErr *errors.AppError) {
	writeJSON(w, statusCode, ErrorResponse{
		Detail: appErr.Message,
		Code:   string(appErr.Code),
	})
}

// writeAppError writes err with its natural status. Internal details never reach
// the client.
func writeAppError(w http.ResponseWriter, err error) {
	appErr := errors.AsAppError(err)
	writeError(w, appErr.HTTPStatus(), appErr)
}

// maxBodyBytes caps request bodies; every request this API accepts is a few hundred bytes.
const maxBodyBytes = 64 << 10

// decodeJSON reads a size-limited JSON body into dst, writing the failure response
// itself and returning false when the body is unusable.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, errors.NewAppError(errors.InvalidInput, "request body too large"))
		return false
	}
	writeError(w, http.StatusBadRequest, errors.NewAppError(errors.InvalidInput, "invalid request body"))
	return false
}
