// Command reconcile checks every account's stored balance against the sum of
// its transaction log and exits 1 if any differ.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dukerupert/dinobank/internal/config"
	"github.com/dukerupert/dinobank/internal/database"
	"github.com/dukerupert/dinobank/internal/ledger"
	"github.com/dukerupert/dinobank/internal/logging"
	"github.com/dukerupert/dinobank/internal/money"
	"github.com/dukerupert/dinobank/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "reconcile: %v\n", err)
		return 2
	}
	if err := cfg.ValidateStore(); err != nil {
		fmt.Fprintf(os.Stderr, "reconcile: %v\n", err)
		return 2
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	var repo *store.SQLStore
	switch cfg.DBDriver {
	case "postgres":
		db, err := database.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			logger.Error("open database", "error", err)
			return 2
		}
		defer db.Close()
		repo = store.New(db, store.Postgres)
	default:
		db, err := database.Open(cfg.DBPath)
		if err != nil {
			logger.Error("open database", "error", err)
			return 2
		}
		defer db.Close()
		repo = store.New(db, store.SQLite)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mismatches, err := ledger.Verify(ctx, repo)
	if err != nil {
		logger.Error("verify ledger", "error", err)
		return 2
	}
	for _, m := range mismatches {
		fmt.Printf("account %d: stored %s, transactions sum to %s\n",
			m.AccountID, money.Format(m.Stored), money.Format(m.Computed))
	}
	if len(mismatches) > 0 {
		logger.Error("ledger mismatch", "accounts", len(mismatches))
		return 1
	}
	logger.Info("ledger consistent")
	return 0
}
