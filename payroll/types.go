/*
Package payroll provides the overtime allocation and payroll summarization engine.

PURPOSE:
  This package turns a raw, unordered log of clock-in/clock-out events into
  payroll line items carrying regular vs. overtime hours, resolved pay rates,
  and monetary amounts, then aggregates those line items per worker for a
  billing period.

KEY CONCEPTS IN THIS FILE (types.go):
  - ClockEvent: An immutable snapshot of one clock-in or clock-out
  - Session: A matched in/out pair (the unit overtime applies to)
  - LineItem: One regular- or overtime-hours bucket derived from a session
  - WorkerSummary: Per-worker totals across a queried period
  - Config: The overtime policy knobs (daily cap, weekly cap, multiplier)

DESIGN PRINCIPLES:
  1. Purity: The engine is a deterministic function of its inputs. Nothing
     is persisted; every query is a fresh recomputation.
  2. Precision: Uses decimal.Decimal to avoid floating-point errors in
     payable values.
  3. Type Safety: Strong typing for IDs prevents mixing worker/project IDs.
  4. Faithful rounding: Hours and amounts are rounded to 2 decimals at the
     point of emission, and again at summary aggregation. Downstream billing
     records depend on the intermediate rounded values matching exactly, so
     rounding is NOT deferred to the end.

USAGE:
  engine := payroll.NewEngine(rates)
  result, err := engine.Run(ctx, events)
  // result.Items: final line items, result.Summaries: per-worker totals

SEE ALSO:
  - pairer.go: Matches in/out events into sessions
  - daily.go: Allocates hours against the per-day regular budget
  - weekly.go: Re-allocates regular hours against the weekly budget
  - summary.go: Per-worker reduction
*/
package payroll

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type WorkerID string
type ProjectID string

// =============================================================================
// CLOCK EVENT - Immutable input snapshot
// =============================================================================

type Action string

const (
	ActionIn  Action = "in"
	ActionOut Action = "out"
)

// ClockEvent is one row of the clock log, already joined with worker and
// project names by the caller. The engine never mutates events; billed/paid
// flags are carried through to line items unchanged.
type ClockEvent struct {
	ID          int64
	WorkerID    WorkerID
	WorkerName  string
	ProjectID   ProjectID
	ProjectName string
	Action      Action

	// LocalTime is the wall-clock timestamp as the worker saw it. All
	// grouping (day buckets, ISO weeks) uses LocalTime; no timezone math
	// happens downstream. UTCTime is a fallback when LocalTime is absent.
	LocalTime     TimePoint
	UTCTime       TimePoint
	OffsetMinutes int

	Note string

	// PayRate is the rate snapshot taken at clock-in. Zero means unknown;
	// the resolver is consulted only in that case.
	PayRate decimal.Decimal

	// SessionID is an opaque grouping key minted at clock-in. It is carried
	// through but pairing is positional (see pairer.go).
	SessionID string

	Billed     bool
	BilledDate string
	Paid       bool
	PaidDate   string
}

// Timestamp returns the event's usable timestamp: local wall-clock time if
// present, otherwise the UTC one. The zero TimePoint means the event has no
// usable timestamp and must be skipped.
func (e ClockEvent) Timestamp() TimePoint {
	if !e.LocalTime.IsZero() {
		return e.LocalTime
	}
	return e.UTCTime
}

// =============================================================================
// PAY RATE RECORD - Time-ranged rate history
// =============================================================================

// PayRateRecord is one interval of a worker's rate history. At most one
// record is assumed active for a worker on any given date; the engine does
// not enforce this.
type PayRateRecord struct {
	WorkerID  WorkerID
	Rate      decimal.Decimal
	StartDate DayKey
	EndDate   *DayKey // nil = open-ended
}

// Covers reports whether the record is in effect on the given date.
func (r PayRateRecord) Covers(day DayKey) bool {
	if r.StartDate > day {
		return false
	}
	return r.EndDate == nil || *r.EndDate >= day
}

// =============================================================================
// SESSION - Matched in/out pair
// =============================================================================

// Session is one closed work session: a clock-in and its matched clock-out.
// Open sessions (no out) are excluded from overtime computation entirely;
// overtime only applies to closed, measurable durations.
type Session struct {
	In  ClockEvent
	Out ClockEvent
}

// DayKey returns the calendar day this session is attributed to.
//
// A session crossing midnight belongs entirely to its START day. This is a
// business-rule decision, isolated here so it can be revisited without
// touching the splitters.
func (s Session) DayKey() DayKey {
	return s.In.Timestamp().DayKey()
}

// Hours returns the session duration in fractional hours. A negative
// duration (out before in) is treated as zero, not negative pay.
func (s Session) Hours() decimal.Decimal {
	h := HoursBetween(s.In.Timestamp(), s.Out.Timestamp())
	if h.IsNegative() {
		return decimal.Zero
	}
	return h
}

// =============================================================================
// LINE ITEM - The engine's primary output unit
// =============================================================================

type OvertimeType string

const (
	OvertimeNone   OvertimeType = ""
	OvertimeDaily  OvertimeType = "Daily"
	OvertimeWeekly OvertimeType = "Weekly"
)

// LineItem is one regular- or overtime-hours bucket derived from a session.
// RegularHours and OvertimeHours are mutually exclusive: an item is either a
// regular bucket or an overtime bucket, never both. A single session may
// straddle the boundary and yield one of each.
type LineItem struct {
	EventID     int64
	WorkerID    WorkerID
	WorkerName  string
	ProjectID   ProjectID
	ProjectName string

	ClockIn  TimePoint
	ClockOut TimePoint

	RegularHours  decimal.Decimal
	OvertimeHours decimal.Decimal
	OvertimeType  OvertimeType

	// PayRate is the rate applied to THIS bucket: the base rate for regular
	// items, 1.5x base (rounded to 2 decimals) for any overtime item.
	PayRate   decimal.Decimal
	PayAmount decimal.Decimal

	// RateMissing marks items priced at the silent zero-rate fallback: the
	// event carried no rate snapshot and the resolver had no record either.
	// The cap arithmetic is unaffected; this exists so upstream can surface
	// the condition instead of quietly paying $0.
	RateMissing bool

	Note       string
	Billed     bool
	BilledDate string
	Paid       bool
	PaidDate   string
}

// Hours returns the item's payable hours (whichever bucket is populated).
func (li LineItem) Hours() decimal.Decimal {
	return li.RegularHours.Add(li.OvertimeHours)
}

// =============================================================================
// WORKER SUMMARY - Per-worker totals
// =============================================================================

type WorkerSummary struct {
	WorkerID    WorkerID
	WorkerName  string
	RegularTime decimal.Decimal
	Overtime    decimal.Decimal
	PayAmount   decimal.Decimal
}

// =============================================================================
// CONFIG - Overtime policy
// =============================================================================

// Config holds the overtime policy. The daily cap applies per worker per
// project per day; the weekly cap applies per worker ACROSS projects per ISO
// week. That asymmetry is a genuine policy choice, kept explicit by the two
// independent grouping functions in daily.go and weekly.go.
type Config struct {
	DailyCapHours      decimal.Decimal
	WeeklyCapHours     decimal.Decimal
	OvertimeMultiplier decimal.Decimal
}

// DefaultConfig returns the standard policy: 8h/day, 40h/week, time-and-a-half.
func DefaultConfig() Config {
	return Config{
		DailyCapHours:      decimal.NewFromInt(8),
		WeeklyCapHours:     decimal.NewFromInt(40),
		OvertimeMultiplier: decimal.RequireFromString("1.5"),
	}
}
