package config

import (
	"fmt"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/spf13/viper"
)

// Defaults applied when a key is unset.
const (
	DefaultDatabasePath  = "~/.local/share/ledger/ledger.db"
	DefaultHorizonMonths = 3
	DefaultServerAddr    = ":8080"
	DefaultCacheTTL      = 5 * time.Minute
	DefaultMaxAttempts   = 3
)

// Config is the resolved runtime configuration.
type Config struct {
	DatabasePath     string
	LogLevel         string
	LogFormat        string
	ServerAddr       string
	CacheTTL         time.Duration
	HorizonMonths    int
	RetryMaxAttempts int
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("ledger.horizon_months", DefaultHorizonMonths)
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("retry.max_attempts", DefaultMaxAttempts)
}

// Load reads the ledger configuration from v. Values come from flags bound
// to v, LEDGER_ environment variables, the config file, then defaults.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		DatabasePath:     ExpandPath(v.GetString("database.path")),
		LogLevel:         v.GetString("logging.level"),
		LogFormat:        v.GetString("logging.format"),
		ServerAddr:       v.GetString("server.addr"),
		CacheTTL:         v.GetDuration("cache.ttl"),
		HorizonMonths:    v.GetInt("ledger.horizon_months"),
		RetryMaxAttempts: v.GetInt("retry.max_attempts"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if _, err := common.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("%w: invalid log format %q", common.ErrInvalidConfig, c.LogFormat)
	}
	if c.HorizonMonths < 0 {
		return fmt.Errorf("%w: ledger.horizon_months must not be negative, got %d", common.ErrInvalidConfig, c.HorizonMonths)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("%w: cache.ttl must be positive, got %s", common.ErrInvalidConfig, c.CacheTTL)
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("%w: retry.max_attempts must be at least 1, got %d", common.ErrInvalidConfig, c.RetryMaxAttempts)
	}
	return nil
}

// RetryOptions returns the retry policy for store writes.
func (c *Config) RetryOptions() common.RetryOptions {
	return common.RetryOptions{MaxAttempts: c.RetryMaxAttempts}
}
