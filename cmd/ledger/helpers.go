package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/cache"
	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/config"
	"github.com/Veraticus/the-ledger-must-balance/internal/ledger"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, *config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, nil, common.NewUserError("failed to open ledger database "+cfg.DatabasePath, err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, cfg, nil
}

// initService wires the ledger service over a freshly opened store. The
// returned function closes the store.
func initService(ctx context.Context) (*ledger.Service, *storage.SQLiteStorage, func(), error) {
	store, cfg, err := initStorage(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	svc, err := ledger.NewWithConfig(ledger.Deps{
		Storage: store,
		Totals:  cache.NewInvoiceTotals(cfg.CacheTTL),
	}, ledger.Config{
		Retry:         cfg.RetryOptions(),
		HorizonMonths: cfg.HorizonMonths,
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, nil, err
	}

	closeFn := func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("failed to close storage", "error", closeErr)
		}
	}
	return svc, store, closeFn, nil
}

// parseDay parses a YYYY-MM-DD flag value.
func parseDay(value, flag string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, value, time.UTC)
	if err != nil {
		return time.Time{}, common.InvalidInput("--%s must be YYYY-MM-DD, got %q", flag, value)
	}
	return t, nil
}

// parseMonth parses a YYYY-MM argument.
func parseMonth(value string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01", value, time.UTC)
	if err != nil {
		return time.Time{}, common.InvalidInput("month must be YYYY-MM, got %q", value)
	}
	return t, nil
}

// parseAmount parses a positive decimal amount.
func parseAmount(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, common.InvalidInput("invalid amount %q", value)
	}
	return d, nil
}

// parseFunding reads "account:<id>" or "card:<id>".
func parseFunding(value string) (model.FundingSource, error) {
	kind, id, ok := strings.Cut(value, ":")
	if !ok || id == "" {
		return model.FundingSource{}, common.InvalidInput("funding must be account:<id> or card:<id>, got %q", value)
	}
	switch kind {
	case "account":
		return model.FundingSource{Kind: model.FundingAccount, ID: id}, nil
	case "card", "credit_card":
		return model.FundingSource{Kind: model.FundingCreditCard, ID: id}, nil
	default:
		return model.FundingSource{}, common.InvalidInput("unknown funding kind %q", kind)
	}
}

// optional returns nil for an empty flag value.
func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
