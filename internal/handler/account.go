package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/dinobank/internal/auth"
	"github.com/dukerupert/dinobank/internal/bank"
	"github.com/dukerupert/dinobank/internal/ledger"
	"github.com/dukerupert/dinobank/internal/model"
	"github.com/dukerupert/dinobank/internal/money"
)

type AccountHandler struct {
	bank   *bank.Service
	logger *slog.Logger
}

func NewAccountHandler(b *bank.Service, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{bank: b, logger: logger}
}

type profileResponse struct {
	model.Account
	BalanceDisplay string `json:"balance_display"`
}

func newProfile(a model.Account) profileResponse {
	return profileResponse{Account: a, BalanceDisplay: money.Format(a.Balance)}
}

type transactionResponse struct {
	model.Transaction
	AmountDisplay string `json:"amount_display"`
}

type entryResponse struct {
	Transaction    transactionResponse `json:"transaction"`
	Balance        int64               `json:"balance"`
	BalanceDisplay string              `json:"balance_display"`
}

func newEntry(e *ledger.Entry) entryResponse {
	return entryResponse{
		Transaction:    transactionResponse{Transaction: e.Transaction, AmountDisplay: money.Format(e.Transaction.Amount)},
		Balance:        e.Balance,
		BalanceDisplay: money.Format(e.Balance),
	}
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	acct, err := h.bank.GetProfile(r.Context(), auth.Subject(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfile(*acct))
}

type onboardRequest struct {
	Username      string     `json:"username"`
	DisplayName   string     `json:"display_name"`
	Role          model.Role `json:"role"`
	ParentID      *int64     `json:"parent_id"`
	DinosaurColor string     `json:"dinosaur_color"`
}

func (h *AccountHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	var req onboardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON")
		return
	}

	acct, err := h.bank.Onboard(r.Context(), auth.Subject(r.Context()), bank.Onboarding{
		Username:      req.Username,
		DisplayName:   req.DisplayName,
		Role:          req.Role,
		ParentID:      req.ParentID,
		DinosaurColor: req.DinosaurColor,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newProfile(*acct))
}

func (h *AccountHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PIN string `json:"pin"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON")
		return
	}
	if err := h.bank.SetPIN(r.Context(), principal(r), req.PIN); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) Children(w http.ResponseWriter, r *http.Request) {
	children, err := h.bank.ListChildren(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]profileResponse, 0, len(children))
	for _, c := range children {
		out = append(out, newProfile(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AccountHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	ownerID, err := parseQueryID(r, "user_id")
	if err != nil {
		writeBadRequest(w, "invalid user_id")
		return
	}
	txs, err := h.bank.ListTransactions(r.Context(), principal(r), ownerID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, transactionResponse{Transaction: t, AmountDisplay: money.Format(t.Amount)})
	}
	writeJSON(w, http.StatusOK, out)
}

type moveRequest struct {
	Amount amount `json:"amount"`
	Reason string `json:"reason"`
}

func (h *AccountHandler) Allowance(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}
	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON")
		return
	}

	entry, err := h.bank.GrantAllowance(r.Context(), principal(r), childID, int64(req.Amount), req.Reason, r.Header.Get(PINHeader))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newEntry(entry))
}

func (h *AccountHandler) Spend(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r)
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}
	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON")
		return
	}

	entry, err := h.bank.RecordSpend(r.Context(), principal(r), accountID, int64(req.Amount), req.Reason)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newEntry(entry))
}

func (h *AccountHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r)
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}
	rec, err := h.bank.Reconcile(r.Context(), principal(r), accountID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
