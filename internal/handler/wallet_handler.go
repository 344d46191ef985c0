package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"wallet-ledger/internal/currency"
	"wallet-ledger/internal/errors"
)

type WalletHandler struct {
	creator WalletCreator
	queries WalletQuerier
}

func NewWalletHandler(creator WalletCreator, queries WalletQuerier) *WalletHandler {
	return &WalletHandler{
		creator: creator,
		queries: queries,
	}
}

type CreateWalletRequest struct {
	UserID         int64  `json:"user_id"`
	InitialBalance string `json:"initial_balance"`
}

type CreateWalletResponse struct {
	UserID  int64  `json:"user_id"`
	Balance string `json:"balance"`
}

// BalanceResponse carries the balance in major units as a JSON number with two
// decimal places, e.g. {"balance": 49.75}.
type BalanceResponse struct {
	Balance json.Number `json:"balance"`
}

func (h *WalletHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	var req CreateWalletRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	initialBalance := int64(0)
	if req.InitialBalance != "" {
		var err error
		initialBalance, err = currency.NormalizeBalance(req.InitialBalance)
		if err != nil {
			writeAppError(w, err)
			return
		}
	}

	wallet, err := h.creator.CreateWallet(r.Context(), req.UserID, initialBalance)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateWalletResponse{
		UserID:  wallet.ID,
		Balance: currency.FormatMinor(wallet.Balance),
	})
}

func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	walletID, err := strconv.ParseInt(mux.Vars(r)["user_id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.ErrInvalidWalletID)
		return
	}

	balance, err := h.queries.GetBalance(r.Context(), walletID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceResponse{
		Balance: json.Number(currency.FormatMinor(balance)),
	})
}
