package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/dinobank/internal/bank"
	"github.com/dukerupert/dinobank/internal/model"
	"github.com/dukerupert/dinobank/internal/money"
)

type ChoreHandler struct {
	bank   *bank.Service
	logger *slog.Logger
}

func NewChoreHandler(b *bank.Service, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{bank: b, logger: logger}
}

type choreResponse struct {
	model.Chore
	RewardDisplay string `json:"reward_display"`
}

func newChoreResponse(c model.Chore) choreResponse {
	return choreResponse{Chore: c, RewardDisplay: money.Format(c.RewardValue)}
}

type choreRequest struct {
	AssigneeID  int64  `json:"assignee_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	RewardValue amount `json:"reward_value"`
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON")
		return
	}

	chore, err := h.bank.CreateChore(r.Context(), principal(r), bank.NewChore{
		AssigneeID:  req.AssigneeID,
		Title:       req.Title,
		Description: req.Description,
		RewardValue: int64(req.RewardValue),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newChoreResponse(*chore))
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	var q bank.ChoreQuery
	var err error
	if q.AssigneeID, err = parseQueryID(r, "assignee_id"); err != nil {
		writeBadRequest(w, "invalid assignee_id")
		return
	}
	if q.CreatorID, err = parseQueryID(r, "creator_id"); err != nil {
		writeBadRequest(w, "invalid creator_id")
		return
	}
	q.Status = model.ChoreStatus(r.URL.Query().Get("status"))

	chores, err := h.bank.ListChores(r.Context(), principal(r), q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]choreResponse, 0, len(chores))
	for _, c := range chores {
		out = append(out, newChoreResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ChoreHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}
	var req struct {
		Status model.ChoreStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON")
		return
	}

	chore, err := h.bank.SetChoreStatus(r.Context(), principal(r), id, req.Status, r.Header.Get(PINHeader))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newChoreResponse(*chore))
}
