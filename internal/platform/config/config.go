// Package config loads engine and server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Engine holds the tunables of the client-side game-state engine.
type Engine struct {
	// DBPath is the sqlite file backing local persistence.
	DBPath string `env:"GLOW_DB_PATH" envDefault:"glow.db"`

	// DebounceWindow is the coalescing delay before a snapshot write fires
	// after the last mutation.
	DebounceWindow time.Duration `env:"GLOW_DEBOUNCE_WINDOW" envDefault:"5s"`

	// ConfigURL is the remote odds-config endpoint.
	ConfigURL string `env:"GLOW_CONFIG_URL" envDefault:"http://localhost:8790/v1/config/odds"`

	// ConfigTTL is the freshness window of the cached odds config.
	ConfigTTL time.Duration `env:"GLOW_CONFIG_TTL" envDefault:"24h"`

	// SyncURL is the base URL of the remote document store.
	SyncURL string `env:"GLOW_SYNC_URL" envDefault:"http://localhost:8790"`
}

// Server holds the glow-syncd listener configuration.
type Server struct {
	Addr      string `env:"GLOW_SYNCD_ADDR" envDefault:":8790"`
	DBPath    string `env:"GLOW_SYNCD_DB_PATH" envDefault:"syncd.db"`
	JWTSecret string `env:"GLOW_SYNCD_JWT_SECRET" envDefault:""`
}

// ParseEnv loads configuration values into target from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
