package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/dinobank/internal/auth"
	"github.com/dukerupert/dinobank/internal/bank"
	"github.com/dukerupert/dinobank/internal/config"
	"github.com/dukerupert/dinobank/internal/database"
	"github.com/dukerupert/dinobank/internal/events"
	"github.com/dukerupert/dinobank/internal/events/amqp"
	"github.com/dukerupert/dinobank/internal/events/kafka"
	"github.com/dukerupert/dinobank/internal/logging"
	"github.com/dukerupert/dinobank/internal/server"
	"github.com/dukerupert/dinobank/internal/store"
	"github.com/dukerupert/dinobank/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "dinobank: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, dialect, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	repo := store.New(db, dialect)

	hub := websocket.NewHub(logger.With("component", "websocket"))
	publisher, closers, err := buildPublisher(cfg, hub, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				logger.Warn("close publisher", "error", err)
			}
		}
	}()

	svc := bank.New(repo, publisher, logger)
	verifier := auth.NewVerifier(cfg.AuthSecret, cfg.AuthIssuer, cfg.AuthAudience)
	srv := server.New(db, repo, svc, hub, verifier, server.Options{
		RateLimit: cfg.RateLimit,
		WSOrigins: cfg.WSOrigins,
	}, logger)

	// Only the header read is bounded; hijacked websocket connections keep
	// whatever deadline the server last set.
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("dinobank running", "addr", "http://localhost:"+cfg.Port, "db", dialect.Name)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return srv.RateLimiter().Run(ctx, time.Minute)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(cfg config.Config) (*sql.DB, store.Dialect, error) {
	if cfg.DBDriver == "postgres" {
		db, err := database.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, store.Dialect{}, fmt.Errorf("failed to open database: %w", err)
		}
		return db, store.Postgres, nil
	}
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, store.Dialect{}, fmt.Errorf("failed to open database: %w", err)
	}
	return db, store.SQLite, nil
}

// buildPublisher fans committed events out to the websocket hub and to any
// configured brokers.
func buildPublisher(cfg config.Config, hub *websocket.Hub, logger *slog.Logger) (events.Publisher, []io.Closer, error) {
	pubs := events.Multi{hub}
	var closers []io.Closer

	if len(cfg.KafkaBrokers) > 0 {
		p := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		pubs = append(pubs, p)
		closers = append(closers, p)
		logger.Info("publishing events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	if cfg.AMQPURL != "" {
		p, err := amqp.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			for _, c := range closers {
				c.Close()
			}
			return nil, nil, fmt.Errorf("connect amqp: %w", err)
		}
		pubs = append(pubs, p)
		closers = append(closers, p)
		logger.Info("publishing events to amqp", "exchange", cfg.AMQPExchange)
	}
	return pubs, closers, nil
}
