package config

import (
	"fmt"
	"github.com/caarlos0/env/v11"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/currency"
	"strings"
	"time"
)

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

type Config struct {
	Storage       string        `env:"CART_STORAGE" envDefault:"sqlite"`
	SnapshotKey   string        `env:"CART_SNAPSHOT_KEY" envDefault:"@goMarketplace: card"`
	SQLitePath    string        `env:"CART_SQLITE_PATH" envDefault:"cart.db"`
	PostgresDSN   string        `env:"CART_POSTGRES_DSN"`
	RedisAddr     string        `env:"CART_REDIS_ADDR"`
	Currency      string        `env:"CART_CURRENCY" envDefault:"BRL"`
	LogLevel      string        `env:"CART_LOG_LEVEL" envDefault:"info"`
	WriteDebounce time.Duration `env:"CART_WRITE_DEBOUNCE" envDefault:"0s"`
	SerialWrites  bool          `env:"CART_SERIAL_WRITES" envDefault:"false"`
}

// Load reads the configuration from environment variables and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("cfg.Validate: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory:
	case StorageSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("CART_SQLITE_PATH is required for sqlite storage")
		}
	case StoragePostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("CART_POSTGRES_DSN is required for postgres storage")
		}
	case StorageRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("CART_REDIS_ADDR is required for redis storage")
		}
	default:
		return fmt.Errorf("unknown storage[%s]", c.Storage)
	}

	if c.SnapshotKey == "" {
		return fmt.Errorf("CART_SNAPSHOT_KEY is empty")
	}
	if c.WriteDebounce < 0 {
		return fmt.Errorf("CART_WRITE_DEBOUNCE must be non-negative")
	}
	if _, err := c.CurrencyUnit(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}

	return nil
}

func (c Config) CurrencyUnit() (currency.Unit, error) {
	unit, err := currency.ParseISO(c.Currency)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("currency[%s] is not valid: %w", c.Currency, err)
	}
	return unit, nil
}

func (c Config) Level() (log.Level, error) {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("log level[%s] is not valid: %w", c.LogLevel, err)
	}
	return level, nil
}
