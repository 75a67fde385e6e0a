// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port        string `env:"DINOBANK_PORT"         envDefault:"8080"`
	DBDriver    string `env:"DINOBANK_DB_DRIVER"    envDefault:"sqlite"`
	DBPath      string `env:"DINOBANK_DB_PATH"      envDefault:"dinobank.db"`
	DatabaseURL string `env:"DINOBANK_DATABASE_URL"`

	LogLevel  string `env:"DINOBANK_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"DINOBANK_LOG_FORMAT" envDefault:"text"`

	AuthIssuer   string `env:"DINOBANK_AUTH_ISSUER"`
	AuthAudience string `env:"DINOBANK_AUTH_AUDIENCE"`
	AuthSecret   string `env:"DINOBANK_AUTH_SECRET"`

	// WSOrigins are host patterns allowed to open websockets from a browser.
	WSOrigins []string `env:"DINOBANK_WS_ORIGINS" envSeparator:","`

	KafkaBrokers []string `env:"DINOBANK_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"DINOBANK_KAFKA_TOPIC"   envDefault:"dinobank.events"`
	AMQPURL      string   `env:"DINOBANK_AMQP_URL"`
	AMQPExchange string   `env:"DINOBANK_AMQP_EXCHANGE" envDefault:"dinobank.events"`

	// RateLimit is money-moving requests per minute per account.
	RateLimit int `env:"DINOBANK_RATE_LIMIT" envDefault:"30"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	return cfg, nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	errs := c.storeErrors()
	if len(c.AuthSecret) < 32 {
		errs = append(errs, errors.New("DINOBANK_AUTH_SECRET must be at least 32 bytes"))
	}
	if c.RateLimit <= 0 {
		errs = append(errs, errors.New("DINOBANK_RATE_LIMIT must be positive"))
	}
	return errors.Join(errs...)
}

// ValidateStore checks only the database settings, for tools that never
// serve requests.
func (c Config) ValidateStore() error {
	return errors.Join(c.storeErrors()...)
}

func (c Config) storeErrors() []error {
	var errs []error
	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			errs = append(errs, errors.New("DINOBANK_DB_PATH is required for sqlite"))
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DINOBANK_DATABASE_URL is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DINOBANK_DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver))
	}
	return errs
}
