package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"wallet-ledger/internal/currency"
	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/errors"
	"wallet-ledger/internal/service"
)

const (
	msgTransferSuccessful = "Transfer successful"
	msgAlreadySuccessful  = "Transfer Already Successful"
)

type TransactionHandler struct {
	transfers Transferer
	queries   WalletQuerier
}

func NewTransactionHandler(transfers Transferer, queries WalletQuerier) *TransactionHandler {
	return &TransactionHandler{
		transfers: transfers,
		queries:   queries,
	}
}

type TransferRequest struct {
	SenderID       json.Number `json:"sender_id"`
	ReceiverID     json.Number `json:"receiver_id"`
	Amount         string      `json:"amount"`
	TransactionRef string      `json:"transaction_ref"`
}

type TransferResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type TransactionResponse struct {
	Ref    string    `json:"ref"`
	Amount string    `json:"amount"`
	Status string    `json:"status"`
	Date   time.Time `json:"date"`
}

func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	senderID, err := req.SenderID.Int64()
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.NewAppError(errors.InvalidInput, "sender_id must be an integer"))
		return
	}
	receiverID, err := req.ReceiverID.Int64()
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.NewAppError(errors.InvalidInput, "receiver_id must be an integer"))
		return
	}

	amount, err := currency.Normalize(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.AsAppError(err))
		return
	}

	result, err := h.transfers.Transfer(r.Context(), &service.TransferRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
		Ref:        req.TransactionRef,
	})
	if err != nil {
		appErr := errors.AsAppError(err)
		writeError(w, transferFailureStatus(appErr), appErr)
		return
	}

	if !result.AlreadyProcessed {
		writeJSON(w, http.StatusOK, TransferResponse{Status: "success", Message: msgTransferSuccessful})
		return
	}

	if result.Transaction.Status != domain.StatusSuccess {
		appErr := errors.NewAppErrorf(errors.DuplicateTransaction,
			"Transfer already processed with status %s", result.Transaction.Status)
		writeError(w, transferFailureStatus(appErr), appErr)
		return
	}
	writeJSON(w, http.StatusOK, TransferResponse{Status: "success", Message: msgAlreadySuccessful})
}

// transferFailureStatus is the status table of POST /transfer. Unlike the other
// endpoints, which use AppError.HTTPStatus, it reports every business rejection as 400
// (insufficient funds and a retry of a FAILED ref included) and keeps 5xx for the store.
func transferFailureStatus(appErr *errors.AppError) int {
	switch appErr.Code {
	case errors.StoreUnavailable:
		return http.StatusServiceUnavailable
	case errors.InternalError, errors.CannotBeginTx:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	walletID, err := strconv.ParseInt(mux.Vars(r)["user_id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.ErrInvalidWalletID)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.NewAppError(errors.InvalidInput, "limit must be an integer"))
			return
		}
	}

	txs, err := h.queries.ListRecentTransactions(r.Context(), walletID, limit)
	if err != nil {
		writeAppError(w, err)
		return
	}

	response := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		response = append(response, TransactionResponse{
			Ref:    tx.Ref,
			Amount: currency.FormatMinor(tx.Amount),
			Status: string(tx.Status),
			Date:   tx.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, response)
}
