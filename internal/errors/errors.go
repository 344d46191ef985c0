package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	InvalidAmount        ErrorCode = "invalid_amount"
	InvalidInput         ErrorCode = "invalid_input"
	InvalidWalletID      ErrorCode = "invalid_wallet_id"
	SameWalletTransfer   ErrorCode = "same_wallet_transfer"
	WalletNotFound       ErrorCode = "wallet_not_found"
	InsufficientFunds    ErrorCode = "insufficient_funds"
	DuplicateTransaction ErrorCode = "duplicate_transaction"
	DuplicateWallet      ErrorCode = "duplicate_wallet"
	StoreUnavailable     ErrorCode = "store_unavailable"
	CannotBeginTx        ErrorCode = "cannot_begin_transaction"
	InternalError        ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an AppError with the same code, so copies made by
// WithDetails still match the predefined errors below.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetails returns a copy of e carrying details. The receiver is left untouched.
func (e *AppError) WithDetails(details string) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// HTTPStatus maps the error code to its natural HTTP status.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case InvalidAmount, InvalidInput, InvalidWalletID, SameWalletTransfer:
		return http.StatusBadRequest
	case WalletNotFound:
		return http.StatusNotFound
	case InsufficientFunds:
		return http.StatusUnprocessableEntity
	case DuplicateTransaction, DuplicateWallet:
		return http.StatusConflict
	case StoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Predefined errors for common cases
var (
	ErrInvalidAmount          = NewAppError(InvalidAmount, "invalid amount")
	ErrNonPositiveAmount      = NewAppError(InvalidAmount, "amount must be greater than zero")
	ErrInvalidWalletID        = NewAppError(InvalidWalletID, "wallet id must be a positive integer")
	ErrSameWalletTransfer     = NewAppError(SameWalletTransfer, "sender and receiver must be different wallets")
	ErrWalletNotFound         = NewAppError(WalletNotFound, "wallet not found")
	ErrSenderNotFound         = NewAppError(WalletNotFound, "sender wallet not found")
	ErrReceiverNotFound       = NewAppError(WalletNotFound, "receiver wallet not found")
	ErrInsufficientFunds      = NewAppError(InsufficientFunds, "insufficient funds")
	ErrDuplicateTransaction   = NewAppError(DuplicateTransaction, "transaction already processed")
	ErrDuplicateWallet        = NewAppError(DuplicateWallet, "wallet already exists")
	ErrStoreUnavailable       = NewAppError(StoreUnavailable, "ledger store unavailable")
	ErrCannotBeginTransaction = NewAppError(CannotBeginTx, "cannot begin a nested transaction")
)

// Is and As forward to the standard library so callers importing this package under
// the name errors keep access to them.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

// AsAppError extracts an *AppError from err, or wraps err as an internal error.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return NewAppError(InternalError, "an unexpected error occurred").WithDetails(err.Error())
}
