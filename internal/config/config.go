package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port string

	// Ledger/index database file.
	DBPath string

	// Root directory holding the markdown collection. File arguments that
	// do not resolve as given are retried relative to this root, and files
	// are recorded in the store by their root-relative path.
	Root string

	// Auth for the HTTP API. Empty disables auth (local use).
	APIKey string

	// Default context lines for content search.
	DefaultContext int
}

func Load() Config {
	cfg := Config{
		Port:           envOr("PORT", "8091"),
		DBPath:         envOr("MDLEDGER_DB", "ledger.db"),
		Root:           envOr("MDLEDGER_ROOT", "."),
		APIKey:         os.Getenv("MDLEDGER_API_KEY"),
		DefaultContext: envInt("DEFAULT_CONTEXT", 1),
	}

	if cfg.DefaultContext < 0 {
		cfg.DefaultContext = 1
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("MDLEDGER_DB must not be empty")
	}
	if c.Root == "" {
		return fmt.Errorf("MDLEDGER_ROOT must not be empty")
	}
	if info, err := os.Stat(c.Root); err != nil {
		return fmt.Errorf("MDLEDGER_ROOT: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("MDLEDGER_ROOT %q is not a directory", c.Root)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
