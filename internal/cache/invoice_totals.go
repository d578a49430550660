// Package cache keeps computed invoice totals in memory and drops them when
// a batch touches the invoice.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/service"
	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// DefaultTTL is used when no TTL is configured.
const DefaultTTL = 5 * time.Minute

// InvoiceTotals caches invoice totals keyed by invoice ID. It implements
// service.ChangeNotifier so committed batches evict stale totals.
//
// Every eviction bumps a generation counter. A total read from the store is
// only stored with SetIfCurrent when no eviction happened since the read
// began.
type InvoiceTotals struct {
	items *gocache.Cache

	mu         sync.Mutex
	generation uint64
}

var _ service.ChangeNotifier = (*InvoiceTotals)(nil)

// NewInvoiceTotals creates a cache whose entries expire after ttl.
func NewInvoiceTotals(ttl time.Duration) *InvoiceTotals {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InvoiceTotals{items: gocache.New(ttl, 2*ttl)}
}

// Get returns the cached total of an invoice.
func (c *InvoiceTotals) Get(invoiceID string) (decimal.Decimal, bool) {
	v, ok := c.items.Get(invoiceID)
	if !ok {
		return decimal.Zero, false
	}
	total, ok := v.(decimal.Decimal)
	return total, ok
}

// Set stores the total of an invoice with the default expiration.
func (c *InvoiceTotals) Set(invoiceID string, total decimal.Decimal) {
	c.items.SetDefault(invoiceID, total)
}

// Generation returns the current eviction generation.
func (c *InvoiceTotals) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// SetIfCurrent stores a total only if nothing was evicted since generation
// was observed. It reports whether the total was stored.
func (c *InvoiceTotals) SetIfCurrent(invoiceID string, total decimal.Decimal, generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		return false
	}
	c.items.SetDefault(invoiceID, total)
	return true
}

// Invalidate drops an invoice total.
func (c *InvoiceTotals) Invalidate(invoiceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.items.Delete(invoiceID)
}

// Notify evicts every invoice the change touched. Changes that do not name
// their invoices flush the whole cache.
func (c *InvoiceTotals) Notify(_ context.Context, change service.Change) {
	if len(change.InvoiceIDs) == 0 && change.SeriesID == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++

	if len(change.InvoiceIDs) == 0 {
		if c.items.ItemCount() > 0 {
			slog.Debug("flushing invoice totals", "series_kind", change.SeriesKind, "series_id", change.SeriesID)
			c.items.Flush()
		}
		return
	}
	for _, id := range change.InvoiceIDs {
		c.items.Delete(id)
	}
}
