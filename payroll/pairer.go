/*
pairer.go - Session pairing

PURPOSE:
  Matches "in" and "out" events into closed work sessions. The clock log is
  positional: within one worker/project/day, an "out" closes the most recent
  unmatched "in" (a stack), which tolerates nested or repeated punches.

EDGE CASES:
  - Event with no usable timestamp: dropped with a recorded warning; the
    rest of the batch continues.
  - "in" with no matching "out": returned as open, excluded from overtime
    computation (only closed durations are measurable).
  - Stray "out" with no "in" on the stack: silently unpaired; produces no
    line item and is not reported as an error.

SEE ALSO:
  - types.go: Session.DayKey() holds the start-day attribution policy
  - daily.go: Consumes the sessions grouped by the same key
*/
package payroll

import (
	"sort"
)

// =============================================================================
// GROUP KEY - Per worker, per project, per calendar day
// =============================================================================

// dailyGroupKey buckets events and sessions for pairing and for the daily
// overtime budget. Distinct from weeklyGroupKey on purpose: the daily cap is
// per project, the weekly cap is not.
type dailyGroupKey struct {
	Worker  WorkerID
	Project ProjectID
	Day     DayKey
}

func (k dailyGroupKey) less(other dailyGroupKey) bool {
	if k.Worker != other.Worker {
		return k.Worker < other.Worker
	}
	if k.Project != other.Project {
		return k.Project < other.Project
	}
	return k.Day < other.Day
}

// =============================================================================
// SESSION PAIRER
// =============================================================================

// PairSessions matches in/out events into closed sessions. Returns the
// sessions in deterministic order (by worker, project, day, then time), the
// unmatched "in" events (open sessions), and warnings for dropped events.
func PairSessions(events []ClockEvent) (sessions []Session, open []ClockEvent, warnings []Warning) {
	groups := make(map[dailyGroupKey][]ClockEvent)
	var keys []dailyGroupKey

	for _, e := range events {
		ts := e.Timestamp()
		if ts.IsZero() {
			warnings = append(warnings, Warning{
				Kind:     WarnBadTimestamp,
				EventID:  e.ID,
				WorkerID: e.WorkerID,
				Detail:   "event has no usable timestamp, skipped",
			})
			continue
		}
		k := dailyGroupKey{Worker: e.WorkerID, Project: e.ProjectID, Day: ts.DayKey()}
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], e)
	}

	// Map iteration is randomized; sort keys so output is byte-stable.
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	for _, k := range keys {
		s, o := pairGroup(groups[k])
		sessions = append(sessions, s...)
		open = append(open, o...)
	}
	return sessions, open, warnings
}

// pairGroup stack-matches one worker/project/day bucket.
func pairGroup(events []ClockEvent) (sessions []Session, open []ClockEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		ti, tj := events[i].Timestamp(), events[j].Timestamp()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return events[i].ID < events[j].ID
	})

	var stack []ClockEvent
	for _, e := range events {
		switch e.Action {
		case ActionIn:
			stack = append(stack, e)
		case ActionOut:
			if len(stack) == 0 {
				continue // stray out, nothing to close
			}
			in := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			sessions = append(sessions, Session{In: in, Out: e})
		}
	}
	open = append(open, stack...)
	return sessions, open
}
