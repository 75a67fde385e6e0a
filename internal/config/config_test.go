package config

import (
	"strings"
	"testing"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DINOBANK_AUTH_SECRET", secret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DBDriver != "sqlite" || cfg.DBPath != "dinobank.db" {
		t.Errorf("db = %q %q", cfg.DBDriver, cfg.DBPath)
	}
	if cfg.RateLimit != 30 {
		t.Errorf("RateLimit = %d, want 30", cfg.RateLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestLoadLists(t *testing.T) {
	t.Setenv("DINOBANK_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("DINOBANK_DB_DRIVER", " Postgres ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
	if cfg.DBDriver != "postgres" {
		t.Errorf("DBDriver = %q, want postgres", cfg.DBDriver)
	}
}

func TestValidateCollectsAll(t *testing.T) {
	cfg := Config{DBDriver: "mysql", RateLimit: 0}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"DINOBANK_DB_DRIVER", "DINOBANK_AUTH_SECRET", "DINOBANK_RATE_LIMIT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %s", err, want)
		}
	}

	cfg = Config{DBDriver: "postgres", AuthSecret: secret, RateLimit: 5}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "DINOBANK_DATABASE_URL") {
		t.Errorf("err = %v, want missing database url", err)
	}
}

func TestValidateStoreIgnoresServerSettings(t *testing.T) {
	cfg := Config{DBDriver: "sqlite", DBPath: "dinobank.db"}
	if err := cfg.ValidateStore(); err != nil {
		t.Errorf("validate store: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected full validation to require a secret")
	}

	cfg = Config{DBDriver: "sqlite"}
	if err := cfg.ValidateStore(); err == nil || !strings.Contains(err.Error(), "DINOBANK_DB_PATH") {
		t.Errorf("err = %v, want missing db path", err)
	}
	cfg = Config{DBDriver: "mongo", DBPath: "x"}
	if err := cfg.ValidateStore(); err == nil || !strings.Contains(err.Error(), "DINOBANK_DB_DRIVER") {
		t.Errorf("err = %v, want bad driver", err)
	}
}
