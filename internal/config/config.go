package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// configValidator is a package-level validator instance. Using a single
// instance lets the library cache struct metadata between calls.
var configValidator = validator.New()

// Config holds all configuration for the server process.
type Config struct {
	// ListenAddr is the host:port the HTTP server binds to.
	ListenAddr string `validate:"required,hostname_port"`
	// BusTopic is the message-bus topic instance traffic travels on.
	BusTopic string `validate:"required"`
	// InstanceName labels this instance in logs and stats output.
	InstanceName string `validate:"required,min=1,max=64"`
	// PollStorage is the default subscriber queue depth.
	PollStorage int `validate:"gte=1,lte=4096"`
	// Periodic is the default flush cadence advertised to clients.
	Periodic time.Duration `validate:"gt=0"`
}

// New loads configuration from environment variables, with a .env file as a
// development convenience.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on environment variables")
	}

	cfg := &Config{
		ListenAddr:   getEnv("NETTABLE_ADDR", ":8735"),
		BusTopic:     getEnv("NETTABLE_BUS_TOPIC", "nettable.changes"),
		InstanceName: getEnv("NETTABLE_INSTANCE", "nettable"),
		PollStorage:  1,
		Periodic:     100 * time.Millisecond,
	}

	if v := os.Getenv("NETTABLE_POLL_STORAGE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid NETTABLE_POLL_STORAGE %q: %w", v, err)
		}
		cfg.PollStorage = n
	}
	if v := os.Getenv("NETTABLE_PERIODIC"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid NETTABLE_PERIODIC %q: %w", v, err)
		}
		cfg.Periodic = d
	}

	if err := configValidator.Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
