package repository

import (
	"context"
	"database/sql/driver"
	stderrors "errors"

	"github.com/lib/pq"

	"wallet-ledger/internal/errors"
)

// Postgres SQLSTATE codes the ledger reacts to.
const (
	pgUniqueViolation  = "23505"
	pgCheckViolation   = "23514"
	pgLockNotAvailable = "55P03"
	pgDeadlockDetected = "40P01"
	pgQueryCanceled    = "57014"
	pgSerialization    = "40001"
)

const (
	constraintTransactionRef = "transactions_transaction_ref_key"
	constraintBalanceNonNeg  = "wallets_balance_non_negative"
)

func pqError(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

// isUnavailable reports errors a caller may retry later with the same reference:
// lock waits that timed out, broken connections and abandoned requests.
func isUnavailable(err error) bool {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if stderrors.Is(err, driver.ErrBadConn) {
		return true
	}
	if pqErr, ok := pqError(err); ok {
		switch pqErr.Code {
		case pgLockNotAvailable, pgDeadlockDetected, pgQueryCanceled, pgSerialization:
			return true
		}
		// Class 08: connection exception.
		return pqErr.Code.Class() == "08"
	}
	return false
}

func unavailable(err error) *errors.AppError {
	return errors.ErrStoreUnavailable.WithDetails(err.Error())
}
