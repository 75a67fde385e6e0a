package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dukerupert/dinobank/internal/bank"
	"github.com/dukerupert/dinobank/internal/handler"
	"github.com/dukerupert/dinobank/internal/middleware"
	"github.com/dukerupert/dinobank/internal/store"
	ws "github.com/dukerupert/dinobank/internal/websocket"
)

type Options struct {
	// RateLimit is money-moving requests per minute per account.
	RateLimit int
	// WSOrigins are host patterns allowed to open cross-origin websockets.
	WSOrigins []string
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	repo        store.Repository
	verifier    middleware.TokenVerifier
	accountH    *handler.AccountHandler
	choreH      *handler.ChoreHandler
	goalH       *handler.GoalHandler
	learningH   *handler.LearningHandler
	rateLimiter *middleware.RateLimiter
	opts        Options
	logger      *slog.Logger
}

func New(db *sql.DB, repo store.Repository, svc *bank.Service, hub *ws.Hub, verifier middleware.TokenVerifier, opts Options, logger *slog.Logger) *Server {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 30
	}
	return &Server{
		db:          db,
		hub:         hub,
		repo:        repo,
		verifier:    verifier,
		accountH:    handler.NewAccountHandler(svc, logger.With("component", "account")),
		choreH:      handler.NewChoreHandler(svc, logger.With("component", "chore")),
		goalH:       handler.NewGoalHandler(svc, logger.With("component", "goal")),
		learningH:   handler.NewLearningHandler(svc, logger.With("component", "learning")),
		rateLimiter: middleware.NewRateLimiter(),
		opts:        opts,
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(s.logger.With("component", "http")))

	// Public routes (no auth required)
	r.Get("/health", s.healthHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireIdentity(s.verifier, s.repo, s.logger.With("component", "auth")))

		// Reachable before onboarding
		r.Get("/api/me", s.accountH.Me)
		r.Post("/api/onboard", s.accountH.Onboard)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireProfile)
			s.registerProtectedRoutes(r)
		})
	})

	return r
}

func (s *Server) registerProtectedRoutes(r chi.Router) {
	r.Get("/ws", ws.HandleWebSocket(s.hub, s.opts.WSOrigins))

	// Account routes
	r.Put("/api/me/pin", s.accountH.SetPIN)
	r.Get("/api/children", s.accountH.Children)
	r.Get("/api/transactions", s.accountH.Transactions)
	r.Get("/api/accounts/{id}/reconcile", s.accountH.Reconcile)

	// Chore routes
	r.Get("/api/chores", s.choreH.List)
	r.Post("/api/chores", s.choreH.Create)

	// Goal routes
	r.Get("/api/goals", s.goalH.List)
	r.Post("/api/goals", s.goalH.Create)

	// Learning routes
	r.Get("/api/modules", s.learningH.Modules)
	r.Post("/api/modules/{id}/complete", s.learningH.CompleteModule)
	r.Get("/api/moods", s.learningH.Moods)
	r.Post("/api/moods", s.learningH.RecordMood)

	// Money-moving routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(s.rateLimiter, middleware.AccountKey, s.opts.RateLimit, time.Minute))
		r.Patch("/api/chores/{id}/status", s.choreH.SetStatus)
		r.Post("/api/goals/{id}/contribute", s.goalH.Contribute)
		r.Post("/api/children/{id}/allowance", s.accountH.Allowance)
		r.Post("/api/accounts/{id}/spend", s.accountH.Spend)
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error("health check", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "clients": s.hub.ClientCount()})
}
