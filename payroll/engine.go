/*
engine.go - Pipeline wiring

PURPOSE:
  Runs the full payroll computation:

    raw events -> session pairer -> daily splitter -> weekly splitter
               -> final line items + per-worker summaries

  The engine is a single-pass, synchronous, side-effect-free transformation.
  It performs no I/O itself beyond calls to the injected RateResolver; the
  caller fetches events (and imposes any timeouts) before invoking Run.
  Because the engine holds no mutable shared state, concurrent Runs are
  safe without locking.
*/
package payroll

import (
	"context"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine computes payroll line items and summaries from raw clock events.
type Engine struct {
	Config Config
	Rates  RateResolver
}

// NewEngine creates an engine with the default overtime policy. A nil
// resolver is accepted; unresolved rates then default to 0.
func NewEngine(rates RateResolver) *Engine {
	if rates == nil {
		rates = zeroRates{}
	}
	return &Engine{Config: DefaultConfig(), Rates: rates}
}

// Result is one full recomputation. Items preserve chronological grouping
// for display; their order is not otherwise semantically significant.
type Result struct {
	Items     []LineItem
	Summaries []WorkerSummary

	// Open holds unmatched "in" events: sessions still running (or never
	// closed) that are excluded from overtime computation.
	Open []ClockEvent

	// Warnings records per-event data quality problems and zero-rate
	// fallbacks. The batch is never aborted for these.
	Warnings []Warning
}

// Run executes the pipeline. The only error condition is a systemic rate
// resolver failure; per-record problems surface as Result.Warnings.
func (e *Engine) Run(ctx context.Context, events []ClockEvent) (*Result, error) {
	sessions, open, warnings := PairSessions(events)

	// Memoize rate lookups: one per distinct (worker, day) actually needed,
	// regardless of how many sessions share it.
	rates := RateResolver(e.Rates)
	if rates == nil {
		rates = zeroRates{}
	}
	rates = NewCachedResolver(rates)

	daily, rateWarnings, err := e.splitDaily(ctx, sessions, rates)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, rateWarnings...)

	items := e.splitWeekly(daily)

	return &Result{
		Items:     items,
		Summaries: Summarize(items),
		Open:      open,
		Warnings:  warnings,
	}, nil
}
