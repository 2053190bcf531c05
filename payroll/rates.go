/*
rates.go - Historical pay rate resolution

PURPOSE:
  Resolves the rate in effect for a worker on a date, from a time-ranged
  rate history. Consulted ONLY when a session's own recorded rate snapshot
  is missing or exactly zero: a session must never have a valid non-zero
  recorded rate overwritten by a different historical rate, so that
  already-priced work stays priced.

RESOLUTION RULE:
  The record with the latest start_date <= the query date, among records
  whose end_date is null or >= the query date. Absent a match, the rate
  resolves to 0 - a deliberate silent default (the engine marks such items
  RateMissing so upstream can surface them).

BATCHING:
  The resolver may be backed by a database. CachedResolver memoizes one
  lookup per distinct (worker, date) pair actually needed, bounding the
  number of external lookups per engine run. This is a performance concern,
  not a correctness one.
*/
package payroll

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RESOLVER INTERFACE
// =============================================================================

// RateResolver returns the pay rate in effect for a worker on a date.
// A zero rate with nil error means "no record covers this date".
type RateResolver interface {
	RateFor(ctx context.Context, worker WorkerID, day DayKey) (decimal.Decimal, error)
}

// RateFunc adapts a plain function to RateResolver.
type RateFunc func(ctx context.Context, worker WorkerID, day DayKey) (decimal.Decimal, error)

func (f RateFunc) RateFor(ctx context.Context, worker WorkerID, day DayKey) (decimal.Decimal, error) {
	return f(ctx, worker, day)
}

// zeroRates is the resolver of last resort: everything resolves to 0.
type zeroRates struct{}

func (zeroRates) RateFor(context.Context, WorkerID, DayKey) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

// =============================================================================
// HISTORY RESOLVER - In-memory resolution over a record slice
// =============================================================================

// HistoryResolver resolves rates from an already-fetched rate history.
type HistoryResolver struct {
	Records []PayRateRecord
}

func NewHistoryResolver(records []PayRateRecord) *HistoryResolver {
	return &HistoryResolver{Records: records}
}

func (h *HistoryResolver) RateFor(_ context.Context, worker WorkerID, day DayKey) (decimal.Decimal, error) {
	var best *PayRateRecord
	for i := range h.Records {
		r := &h.Records[i]
		if r.WorkerID != worker || !r.Covers(day) {
			continue
		}
		if best == nil || r.StartDate > best.StartDate {
			best = r
		}
	}
	if best == nil {
		return decimal.Zero, nil
	}
	return best.Rate, nil
}

// =============================================================================
// CACHED RESOLVER - One lookup per distinct (worker, date) pair
// =============================================================================

type rateKey struct {
	Worker WorkerID
	Day    DayKey
}

// CachedResolver memoizes another resolver for the duration of one engine
// run. Safe for concurrent use, though each run builds its own cache.
type CachedResolver struct {
	next RateResolver

	mu   sync.Mutex
	memo map[rateKey]decimal.Decimal
}

func NewCachedResolver(next RateResolver) *CachedResolver {
	return &CachedResolver{next: next, memo: make(map[rateKey]decimal.Decimal)}
}

func (c *CachedResolver) RateFor(ctx context.Context, worker WorkerID, day DayKey) (decimal.Decimal, error) {
	k := rateKey{Worker: worker, Day: day}

	c.mu.Lock()
	if rate, ok := c.memo[k]; ok {
		c.mu.Unlock()
		return rate, nil
	}
	c.mu.Unlock()

	rate, err := c.next.RateFor(ctx, worker, day)
	if err != nil {
		return decimal.Zero, err
	}

	c.mu.Lock()
	c.memo[k] = rate
	c.mu.Unlock()
	return rate, nil
}
