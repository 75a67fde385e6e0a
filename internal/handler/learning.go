package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dukerupert/dinobank/internal/bank"
	"github.com/dukerupert/dinobank/internal/model"
)

type LearningHandler struct {
	bank   *bank.Service
	logger *slog.Logger
}

func NewLearningHandler(b *bank.Service, logger *slog.Logger) *LearningHandler {
	return &LearningHandler{bank: b, logger: logger}
}

func (h *LearningHandler) Modules(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseQueryID(r, "user_id")
	if err != nil {
		writeBadRequest(w, "invalid user_id")
		return
	}
	progress, err := h.bank.ListModuleProgress(r.Context(), principal(r), accountID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if progress == nil {
		progress = []model.ModuleProgress{}
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *LearningHandler) CompleteModule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Score *int `json:"score"`
	}
	// An empty body means no score.
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "invalid JSON")
			return
		}
	}

	progress, err := h.bank.CompleteModule(r.Context(), principal(r), chi.URLParam(r, "id"), req.Score)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *LearningHandler) Moods(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseQueryID(r, "user_id")
	if err != nil {
		writeBadRequest(w, "invalid user_id")
		return
	}
	moods, err := h.bank.ListMoods(r.Context(), principal(r), accountID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if moods == nil {
		moods = []model.DailyMood{}
	}
	writeJSON(w, http.StatusOK, moods)
}

func (h *LearningHandler) RecordMood(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mood model.Mood `json:"mood"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON")
		return
	}
	m, err := h.bank.RecordMood(r.Context(), principal(r), req.Mood)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}
