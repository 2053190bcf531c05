package payroll_test

import (
	"errors"
	"testing"

	"github.com/warp/payroll-engine/payroll"
)

func TestParseTimePoint_AcceptedLayouts(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2025-06-09 08:30", "2025-06-09 08:30"},
		{"2025-06-09T08:30", "2025-06-09 08:30"},
		{"2025-06-09 08:30:45", "2025-06-09 08:30"},
		{"2025-06-09T08:30:45", "2025-06-09 08:30"},
		{"2025-06-09", "2025-06-09"},
	}
	for _, c := range cases {
		tp, err := payroll.ParseTimePoint(c.in)
		if err != nil {
			t.Errorf("ParseTimePoint(%q): unexpected error %v", c.in, err)
			continue
		}
		if tp.String() != c.want {
			t.Errorf("ParseTimePoint(%q) = %q, want %q", c.in, tp.String(), c.want)
		}
	}
}

func TestParseTimePoint_Rejections(t *testing.T) {
	if _, err := payroll.ParseTimePoint(""); !errors.Is(err, payroll.ErrMissingTimestamp) {
		t.Errorf("empty string: got %v, want ErrMissingTimestamp", err)
	}
	for _, s := range []string{"not a date", "2025-13-40 99:99", "09/06/2025"} {
		if _, err := payroll.ParseTimePoint(s); !errors.Is(err, payroll.ErrUnparseableTimestamp) {
			t.Errorf("ParseTimePoint(%q): got %v, want ErrUnparseableTimestamp", s, err)
		}
	}
}

func TestWeekKey_ISOWeekBoundaries(t *testing.T) {
	// ISO weeks start Monday, and the ISO year can differ from the
	// calendar year around January 1st.
	cases := []struct {
		in   string
		want string
	}{
		{"2025-06-09 08:00", "2025-W24"}, // a Monday
		{"2025-06-15 23:59", "2025-W24"}, // the following Sunday
		{"2025-06-16 00:00", "2025-W25"}, // next Monday
		{"2024-12-30 12:00", "2025-W01"}, // Dec 30 2024 falls in ISO 2025
		{"2027-01-01 12:00", "2026-W53"}, // Jan 1 2027 falls in ISO 2026
	}
	for _, c := range cases {
		tp := mustTime(t, c.in)
		if got := tp.WeekKey().String(); got != c.want {
			t.Errorf("WeekKey(%s) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestWeekKey_Less(t *testing.T) {
	w52 := payroll.WeekKey{Year: 2024, Week: 52}
	w01 := payroll.WeekKey{Year: 2025, Week: 1}
	w24 := payroll.WeekKey{Year: 2025, Week: 24}

	if !w52.Less(w01) || !w01.Less(w24) || w24.Less(w01) {
		t.Error("week key ordering must be (year, week) lexicographic")
	}
}

func TestHoursBetween(t *testing.T) {
	from := mustTime(t, "2025-06-09 08:00")
	to := mustTime(t, "2025-06-09 16:30")
	assertDecimal(t, payroll.HoursBetween(from, to), 8.5, "eight and a half hours")

	// Reversed order yields a negative value; Session.Hours clamps it.
	if !payroll.HoursBetween(to, from).IsNegative() {
		t.Error("reversed interval should be negative")
	}
}

func TestDayKey_StringOrdering(t *testing.T) {
	// Rate resolution relies on DayKey comparing correctly as a string.
	if !(payroll.DayKey("2025-06-09") < payroll.DayKey("2025-06-10")) {
		t.Error("day keys must order lexicographically by date")
	}
	if !(payroll.DayKey("2025-12-31") < payroll.DayKey("2026-01-01")) {
		t.Error("day keys must order across year boundaries")
	}
}
