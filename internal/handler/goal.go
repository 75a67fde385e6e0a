package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/dinobank/internal/bank"
	"github.com/dukerupert/dinobank/internal/model"
	"github.com/dukerupert/dinobank/internal/money"
)

type GoalHandler struct {
	bank   *bank.Service
	logger *slog.Logger
}

func NewGoalHandler(b *bank.Service, logger *slog.Logger) *GoalHandler {
	return &GoalHandler{bank: b, logger: logger}
}

type goalResponse struct {
	model.Goal
	Remaining      int64  `json:"remaining"`
	TargetDisplay  string `json:"target_display"`
	CurrentDisplay string `json:"current_display"`
}

func newGoalResponse(g model.Goal) goalResponse {
	return goalResponse{
		Goal:           g,
		Remaining:      g.Remaining(),
		TargetDisplay:  money.Format(g.TargetAmount),
		CurrentDisplay: money.Format(g.CurrentAmount),
	}
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, err := parseQueryID(r, "user_id")
	if err != nil {
		writeBadRequest(w, "invalid user_id")
		return
	}
	goals, err := h.bank.ListGoals(r.Context(), principal(r), ownerID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, newGoalResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title        string `json:"title"`
		TargetAmount amount `json:"target_amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON")
		return
	}

	g, err := h.bank.CreateGoal(r.Context(), principal(r), req.Title, int64(req.TargetAmount))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newGoalResponse(*g))
}

func (h *GoalHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}
	var req struct {
		Amount amount `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON")
		return
	}

	g, err := h.bank.ContributeGoal(r.Context(), principal(r), id, int64(req.Amount))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newGoalResponse(*g))
}
