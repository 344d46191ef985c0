package service

import (
	"context"
	"log/slog"

	"wallet-ledger/internal/cache"
	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/errors"
	"wallet-ledger/internal/events"
)

// MaxRefLength matches the transaction_ref column width.
const MaxRefLength = 64

type TransferService struct {
	ledger       domain.Ledger
	cache        cache.BalanceCache
	publisher    events.Publisher
	logger       *slog.Logger
	recordFailed bool
}

type TransferOption func(*TransferService)

// WithBalanceCache invalidates cached balances of both wallets after each commit.
func WithBalanceCache(c cache.BalanceCache) TransferOption {
	return func(s *TransferService) {
		s.cache = c
	}
}

// WithPublisher announces every committed transfer.
func WithPublisher(p events.Publisher) TransferOption {
	return func(s *TransferService) {
		s.publisher = p
	}
}

// WithFailedTransferRecords makes the service log a FAILED record for transfers that
// were rejected for insufficient funds or an unknown wallet. A retry with the same
// reference then reports the FAILED outcome instead of running again.
func WithFailedTransferRecords(enabled bool) TransferOption {
	return func(s *TransferService) {
		s.recordFailed = enabled
	}
}

func NewTransferService(ledger domain.Ledger, logger *slog.Logger, opts ...TransferOption) *TransferService {
	s := &TransferService{
		ledger:    ledger,
		cache:     cache.NopBalanceCache{},
		publisher: events.NopPublisher{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type TransferRequest struct {
	SenderID   int64
	ReceiverID int64
	Amount     int64
	Ref        string
}

type TransferResult struct {
	Transaction *domain.Transaction
	// AlreadyProcessed is set when a record for Ref already existed. Transaction is
	// then that earlier record and no balance was touched.
	AlreadyProcessed bool
}

// Transfer moves Amount minor units from the sender to the receiver exactly once per
// Ref. Both wallet rows are locked in ascending id order, whatever their role, so two
// transfers between the same pair in opposite directions queue instead of deadlocking.
func (s *TransferService) Transfer(ctx context.Context, req *TransferRequest) (*TransferResult, error) {
	s.logger.Info("Processing transfer",
		"sender_id", req.SenderID,
		"receiver_id", req.ReceiverID,
		"amount", req.Amount,
		"transaction_ref", req.Ref)

	if err := validateTransfer(req); err != nil {
		return nil, err
	}

	record := &domain.Transaction{
		Ref:        req.Ref,
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Amount:     req.Amount,
		Status:     domain.StatusSuccess,
	}

	var existing *domain.Transaction
	err := s.ledger.WithTransaction(ctx, func(uow domain.UnitOfWork) error {
		found, err := uow.Transactions().GetTransactionByRef(ctx, req.Ref)
		if err != nil {
			return err
		}
		if found != nil {
			existing = found
			return errors.ErrDuplicateTransaction
		}

		found, err = lockWallets(ctx, uow, req)
		if err != nil {
			return err
		}
		if found != nil {
			existing = found
			return errors.ErrDuplicateTransaction
		}

		if err := uow.Wallets().AdjustBalance(ctx, req.SenderID, -req.Amount); err != nil {
			return err
		}
		if err := uow.Wallets().AdjustBalance(ctx, req.ReceiverID, req.Amount); err != nil {
			return err
		}

		return uow.Transactions().CreateTransaction(ctx, record)
	})

	if err != nil {
		if errors.Is(err, errors.ErrDuplicateTransaction) {
			return s.alreadyProcessed(ctx, req.Ref, existing)
		}
		s.logger.Warn("Transfer failed", "transaction_ref", req.Ref, "error", err)
		s.recordFailure(ctx, req, err)
		return nil, err
	}

	s.afterCommit(ctx, record)

	s.logger.Info("Transfer completed successfully", "transaction_ref", record.Ref, "transaction_id", record.ID)
	return &TransferResult{Transaction: record}, nil
}

func validateTransfer(req *TransferRequest) error {
	if req.Amount <= 0 {
		return errors.ErrNonPositiveAmount
	}
	if req.SenderID <= 0 || req.ReceiverID <= 0 {
		return errors.ErrInvalidWalletID
	}
	if req.SenderID == req.ReceiverID {
		return errors.ErrSameWalletTransfer
	}
	if req.Ref == "" {
		return errors.NewAppError(errors.InvalidInput, "transaction_ref is required")
	}
	if len(req.Ref) > MaxRefLength {
		return errors.NewAppErrorf(errors.InvalidInput, "transaction_ref must be at most %d characters", MaxRefLength)
	}
	return nil
}

// lockWallets takes the row locks lowest id first. Once the sender row is held the
// ref is looked up again: a request with the same ref that held the lock before us has
// committed by now, and its record takes precedence over our funds check. When the
// sender sorts first an overdraft is reported before the receiver is looked up.
func lockWallets(ctx context.Context, uow domain.UnitOfWork, req *TransferRequest) (*domain.Transaction, error) {
	first, second := req.SenderID, req.ReceiverID
	if second < first {
		first, second = second, first
	}

	for _, id := range [2]int64{first, second} {
		wallet, err := uow.Wallets().GetWalletForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, errors.ErrWalletNotFound) {
				if id == req.SenderID {
					return nil, errors.ErrSenderNotFound
				}
				return nil, errors.ErrReceiverNotFound
			}
			return nil, err
		}
		if id != req.SenderID {
			continue
		}

		found, err := uow.Transactions().GetTransactionByRef(ctx, req.Ref)
		if err != nil {
			return nil, err
		}
		if found != nil {
			return found, nil
		}
		if wallet.Balance < req.Amount {
			return nil, errors.ErrInsufficientFunds
		}
	}
	return nil, nil
}

func (s *TransferService) alreadyProcessed(ctx context.Context, ref string, existing *domain.Transaction) (*TransferResult, error) {
	if existing == nil {
		// Lost the insert race to a concurrent request with the same ref; its record
		// is committed by now.
		found, err := s.ledger.Transactions().GetTransactionByRef(ctx, ref)
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, errors.NewAppError(errors.InternalError, "duplicate transaction reference without a record")
		}
		existing = found
	}

	s.logger.Info("Returning existing transaction for reference",
		"transaction_ref", ref,
		"status", existing.Status)
	return &TransferResult{Transaction: existing, AlreadyProcessed: true}, nil
}

func (s *TransferService) recordFailure(ctx context.Context, req *TransferRequest, cause error) {
	if !s.recordFailed {
		return
	}
	if !errors.Is(cause, errors.ErrInsufficientFunds) && !errors.Is(cause, errors.ErrWalletNotFound) {
		return
	}

	failed := &domain.Transaction{
		Ref:        req.Ref,
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Amount:     req.Amount,
		Status:     domain.StatusFailed,
	}
	if err := s.ledger.Transactions().CreateTransaction(ctx, failed); err != nil && !errors.Is(err, errors.ErrDuplicateTransaction) {
		s.logger.Error("Failed to record failed transfer", "transaction_ref", req.Ref, "error", err)
	}
}

func (s *TransferService) afterCommit(ctx context.Context, record *domain.Transaction) {
	if err := s.cache.Invalidate(ctx, record.SenderID, record.ReceiverID); err != nil {
		s.logger.Warn("Failed to invalidate cached balances", "transaction_ref", record.Ref, "error", err)
	}
	if err := s.publisher.PublishTransferCompleted(ctx, record); err != nil {
		s.logger.Warn("Failed to publish transfer event", "transaction_ref", record.Ref, "error", err)
	}
}
