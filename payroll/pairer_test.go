package payroll_test

// Note: event builders (inEvent, outEvent, shift, mustTime) are defined in
// engine_test.go.

import (
	"testing"

	"github.com/warp/payroll-engine/payroll"
)

func TestPairSessions_SimpleInOut(t *testing.T) {
	events := shift(t, nil, "W", "P", "2025-06-09 08:00", "2025-06-09 16:00", 20)

	sessions, open, warnings := payroll.PairSessions(events)

	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if len(open) != 0 || len(warnings) != 0 {
		t.Errorf("expected no open events or warnings, got %d open, %d warnings", len(open), len(warnings))
	}
	assertDecimal(t, sessions[0].Hours(), 8, "session hours")
}

func TestPairSessions_OutClosesMostRecentIn(t *testing.T) {
	// Two ins then two outs: the first out closes the SECOND in (stack
	// order), leaving the first in matched by the later out.
	events := []payroll.ClockEvent{
		inEvent(t, "W", "P", "2025-06-09 08:00", 20),
		inEvent(t, "W", "P", "2025-06-09 09:00", 20),
		outEvent(t, "W", "P", "2025-06-09 10:00"),
		outEvent(t, "W", "P", "2025-06-09 12:00"),
	}

	sessions, open, _ := payroll.PairSessions(events)

	if len(sessions) != 2 || len(open) != 0 {
		t.Fatalf("expected 2 sessions and no open events, got %d/%d", len(sessions), len(open))
	}
	// Inner pair first: 09:00-10:00, then the outer 08:00-12:00.
	assertDecimal(t, sessions[0].Hours(), 1, "inner session hours")
	assertDecimal(t, sessions[1].Hours(), 4, "outer session hours")
}

func TestPairSessions_UnmatchedInIsOpen(t *testing.T) {
	events := []payroll.ClockEvent{
		inEvent(t, "W", "P", "2025-06-09 08:00", 20),
		outEvent(t, "W", "P", "2025-06-09 12:00"),
		inEvent(t, "W", "P", "2025-06-09 13:00", 20),
	}

	sessions, open, _ := payroll.PairSessions(events)

	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if len(open) != 1 {
		t.Fatalf("expected 1 open event, got %d", len(open))
	}
	if open[0].LocalTime.String() != "2025-06-09 13:00" {
		t.Errorf("wrong event left open: %s", open[0].LocalTime)
	}
}

func TestPairSessions_StrayOutIsDroppedSilently(t *testing.T) {
	// An out with no in on the stack is simply not paired: no session, no
	// open event, no warning.
	events := []payroll.ClockEvent{
		outEvent(t, "W", "P", "2025-06-09 08:00"),
	}

	sessions, open, warnings := payroll.PairSessions(events)

	if len(sessions) != 0 || len(open) != 0 || len(warnings) != 0 {
		t.Errorf("stray out should vanish silently: %d sessions, %d open, %d warnings",
			len(sessions), len(open), len(warnings))
	}
}

func TestPairSessions_GroupsAreIsolated(t *testing.T) {
	// An out on a different project (or day) must not close another
	// group's in.
	events := []payroll.ClockEvent{
		inEvent(t, "W", "P1", "2025-06-09 08:00", 20),
		outEvent(t, "W", "P2", "2025-06-09 16:00"),
	}

	sessions, open, _ := payroll.PairSessions(events)

	if len(sessions) != 0 {
		t.Fatalf("cross-project pairing must not happen, got %d sessions", len(sessions))
	}
	if len(open) != 1 {
		t.Errorf("the P1 in should stay open, got %d open", len(open))
	}
}

func TestPairSessions_UnsortedInputIsSorted(t *testing.T) {
	// Events arrive in arbitrary order; pairing sorts by timestamp first.
	events := []payroll.ClockEvent{
		outEvent(t, "W", "P", "2025-06-09 16:00"),
		inEvent(t, "W", "P", "2025-06-09 08:00", 20),
	}

	sessions, _, _ := payroll.PairSessions(events)

	if len(sessions) != 1 {
		t.Fatalf("expected 1 session from unsorted input, got %d", len(sessions))
	}
	assertDecimal(t, sessions[0].Hours(), 8, "session hours")
}

func TestPairSessions_MissingTimestampWarnsAndContinues(t *testing.T) {
	bad := payroll.ClockEvent{ID: 999, WorkerID: "W", ProjectID: "P", Action: payroll.ActionIn}
	events := append(shift(t, nil, "W", "P", "2025-06-09 08:00", "2025-06-09 16:00", 20), bad)

	sessions, _, warnings := payroll.PairSessions(events)

	if len(sessions) != 1 {
		t.Fatalf("valid events must still pair, got %d sessions", len(sessions))
	}
	if len(warnings) != 1 || warnings[0].EventID != 999 {
		t.Fatalf("expected a warning for event 999, got %+v", warnings)
	}
}

func TestPairSessions_UTCFallbackWhenLocalMissing(t *testing.T) {
	in := inEvent(t, "W", "P", "2025-06-09 08:00", 20)
	in.UTCTime = in.LocalTime
	in.LocalTime = payroll.TimePoint{}
	out := outEvent(t, "W", "P", "2025-06-09 16:00")

	sessions, _, warnings := payroll.PairSessions([]payroll.ClockEvent{in, out})

	if len(warnings) != 0 {
		t.Fatalf("UTC fallback should not warn, got %+v", warnings)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session via UTC fallback, got %d", len(sessions))
	}
}

func TestSession_MidnightCrossing_AttributedToStartDay(t *testing.T) {
	// A 22:00-02:00 session belongs entirely to its start day.
	s := payroll.Session{
		In:  inEvent(t, "W", "P", "2025-06-09 22:00", 20),
		Out: outEvent(t, "W", "P", "2025-06-10 02:00"),
	}

	if s.DayKey() != "2025-06-09" {
		t.Errorf("midnight-crossing session attributed to %s, want start day 2025-06-09", s.DayKey())
	}
	assertDecimal(t, s.Hours(), 4, "session hours")
}

func TestSession_NegativeDuration_TreatedAsZero(t *testing.T) {
	// Out before in: zero duration, never negative pay.
	s := payroll.Session{
		In:  inEvent(t, "W", "P", "2025-06-09 16:00", 20),
		Out: outEvent(t, "W", "P", "2025-06-09 08:00"),
	}

	if !s.Hours().IsZero() {
		t.Errorf("negative duration should clamp to zero, got %v", s.Hours())
	}
}
