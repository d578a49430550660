// Package ledger applies the scheduling, billing and mutation rules to the
// store. Every operation runs in one store transaction and is retried when the
// store reports a transient failure.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/cache"
	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/installment"
	"github.com/Veraticus/the-ledger-must-balance/internal/recurrence"
	"github.com/Veraticus/the-ledger-must-balance/internal/schedule"
	"github.com/Veraticus/the-ledger-must-balance/internal/service"
	"github.com/google/uuid"
)

// Deps contains the collaborators of the service.
type Deps struct {
	// Storage is the persistence layer.
	Storage service.Storage
	// Clock supplies today. Defaults to the system clock.
	Clock schedule.Clock
	// Totals caches invoice totals. Optional.
	Totals *cache.InvoiceTotals
	// Notifier is told about every committed batch. Optional.
	Notifier service.ChangeNotifier
}

// Validate ensures all required dependencies are provided.
func (d *Deps) Validate() error {
	if d.Storage == nil {
		return fmt.Errorf("storage dependency is required")
	}
	return nil
}

// Config holds tunables of the service.
type Config struct {
	Retry         common.RetryOptions
	HorizonMonths int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{HorizonMonths: 3}
}

// Service orchestrates ledger operations.
type Service struct {
	store    service.Storage
	clock    schedule.Clock
	totals   *cache.InvoiceTotals
	notifier service.ChangeNotifier
	expander *recurrence.Expander
	planner  *installment.Planner
	newID    func() string
	cfg      Config
}

// New creates a service with the default configuration.
func New(deps Deps) (*Service, error) {
	return NewWithConfig(deps, DefaultConfig())
}

// NewWithConfig creates a service with a custom configuration.
func NewWithConfig(deps Deps, cfg Config) (*Service, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if deps.Clock == nil {
		deps.Clock = schedule.SystemClock{}
	}

	notifiers := multiNotifier{}
	if deps.Totals != nil {
		notifiers = append(notifiers, deps.Totals)
	}
	if deps.Notifier != nil {
		notifiers = append(notifiers, deps.Notifier)
	}

	return &Service{
		store:    deps.Storage,
		clock:    deps.Clock,
		totals:   deps.Totals,
		notifier: notifiers,
		expander: recurrence.NewExpander(deps.Clock),
		planner:  installment.NewPlanner(),
		newID:    uuid.NewString,
		cfg:      cfg,
	}, nil
}

// HorizonMonths is the default expansion horizon.
func (s *Service) HorizonMonths() int {
	return s.cfg.HorizonMonths
}

// Today returns the service's current calendar day.
func (s *Service) Today() time.Time {
	return schedule.Today(s.clock)
}

// inTx runs fn in a store transaction, retrying the whole unit when the store
// reports a transient failure. The change fn returns is broadcast after commit.
func (s *Service) inTx(ctx context.Context, op string, fn func(tx service.Transaction) (service.Change, error)) error {
	var change service.Change
	err := common.WithRetry(ctx, func() error {
		tx, err := s.store.BeginTx(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		change, err = fn(tx)
		if err != nil {
			return err
		}
		return tx.Commit()
	}, s.cfg.Retry)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.notifier.Notify(ctx, change)
	slog.Debug("committed", "op", op, "series_kind", change.SeriesKind, "series_id", change.SeriesID,
		"invoices", len(change.InvoiceIDs))
	return nil
}

type multiNotifier []service.ChangeNotifier

func (m multiNotifier) Notify(ctx context.Context, change service.Change) {
	for _, n := range m {
		n.Notify(ctx, change)
	}
}
