/*
errors.go - Centralized error types and warnings for the payroll engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The store and api packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Data quality - Bad timestamps on individual events. These are NEVER
     fatal: the offending event is skipped, a Warning is recorded, and the
     rest of the batch is processed.
  2. Clock flow - Double clock-in, missing open session. Returned by the
     store/api layer, not the engine.
  3. Lookup - Unknown worker/project references.

WARNINGS vs ERRORS:
  The engine itself returns an error only for systemic failures (a rate
  resolver that cannot be reached at all). Per-record problems become
  Warnings in the Result so the caller decides how to surface them.
*/
package payroll

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingTimestamp is returned when an event carries no timestamp at
	// all (neither local nor UTC).
	ErrMissingTimestamp = errors.New("missing timestamp")

	// ErrUnparseableTimestamp is returned when a timestamp string does not
	// match any accepted layout.
	ErrUnparseableTimestamp = errors.New("unparseable timestamp")

	// ErrAlreadyClockedIn is returned when a worker clocks in to a project
	// that already has an open session.
	ErrAlreadyClockedIn = errors.New("already clocked in to this project")

	// ErrNoOpenSession is returned when a clock-out references a session
	// that is not open.
	ErrNoOpenSession = errors.New("no open session")

	// ErrWorkerNotFound is returned when a referenced worker doesn't exist.
	ErrWorkerNotFound = errors.New("worker not found")

	// ErrProjectNotFound is returned when a referenced project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
)

// =============================================================================
// WARNINGS - Per-record conditions that do not abort the batch
// =============================================================================

type WarningKind string

const (
	// WarnBadTimestamp: event dropped because its timestamp was missing or
	// unparseable.
	WarnBadTimestamp WarningKind = "bad_timestamp"

	// WarnRateMissing: no rate snapshot on the event and no rate record
	// covered the date; the item was priced at 0.
	WarnRateMissing WarningKind = "rate_missing"
)

// Warning records one skipped or degraded record. The engine collects
// warnings in its Result instead of logging, so the caller owns the
// reporting policy.
type Warning struct {
	Kind     WarningKind
	EventID  int64
	WorkerID WorkerID
	Detail   string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: event %d (worker %s): %s", w.Kind, w.EventID, w.WorkerID, w.Detail)
}
