package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TIME POINT - Minute-granularity wall-clock time
// =============================================================================

// TimePoint is a calendar date plus wall-clock time. The engine treats all
// timestamps as naive local time; no timezone conversion happens here.
type TimePoint struct {
	Time        time.Time
	Granularity Granularity
}

type Granularity int

const (
	GranularityDay Granularity = iota
	GranularityMinute
)

// Constructors
func NewDate(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Granularity: GranularityDay}
}

func NewTimePoint(year int, month time.Month, day, hour, minute int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, hour, minute, 0, 0, time.UTC), Granularity: GranularityMinute}
}

// timestampLayouts are tried in order when parsing. Clock clients submit
// HTML5 datetime-local strings ("2006-01-02T15:04"); the store keeps the
// space-separated form; bare dates come from rate records and filters.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseTimePoint parses a timestamp string leniently. An empty or
// unparseable string returns an error; callers skip such events with a
// warning rather than aborting the batch.
func ParseTimePoint(s string) (TimePoint, error) {
	if s == "" {
		return TimePoint{}, ErrMissingTimestamp
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return TimePoint{Time: t, Granularity: GranularityMinute}, nil
		}
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.UTC); err == nil {
		return TimePoint{Time: t, Granularity: GranularityDay}, nil
	}
	return TimePoint{}, fmt.Errorf("%w: %q", ErrUnparseableTimestamp, s)
}

// ParseDay parses a bare date string into a DayKey.
func ParseDay(s string) (DayKey, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnparseableTimestamp, s)
	}
	return DayKey(t.Format("2006-01-02")), nil
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool  { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool  { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) IsZero() bool                { return tp.Time.IsZero() }

func (tp TimePoint) normalize() time.Time {
	switch tp.Granularity {
	case GranularityDay:
		return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), tp.Time.Hour(), tp.Time.Minute(), 0, 0, time.UTC)
	}
}

func (tp TimePoint) String() string {
	switch tp.Granularity {
	case GranularityDay:
		return tp.Time.Format("2006-01-02")
	default:
		return tp.Time.Format("2006-01-02 15:04")
	}
}

// =============================================================================
// DAY AND WEEK KEYS - Grouping buckets
// =============================================================================

// DayKey identifies one calendar day ("2006-01-02"). The textual form
// compares correctly with <, so rate-history resolution can use plain
// string ordering.
type DayKey string

func (tp TimePoint) DayKey() DayKey {
	return DayKey(tp.Time.Format("2006-01-02"))
}

// WeekKey identifies an ISO 8601 week: Monday-start, keyed by (ISO year,
// week number). Note the ISO year can differ from the calendar year near
// year boundaries.
type WeekKey struct {
	Year int
	Week int
}

func (tp TimePoint) WeekKey() WeekKey {
	y, w := tp.Time.ISOWeek()
	return WeekKey{Year: y, Week: w}
}

func (wk WeekKey) String() string {
	return fmt.Sprintf("%d-W%02d", wk.Year, wk.Week)
}

// Less orders week keys chronologically.
func (wk WeekKey) Less(other WeekKey) bool {
	if wk.Year != other.Year {
		return wk.Year < other.Year
	}
	return wk.Week < other.Week
}

// =============================================================================
// DURATION
// =============================================================================

// HoursBetween returns the elapsed time from one point to another in
// fractional hours, as an exact decimal (seconds / 3600).
func HoursBetween(from, to TimePoint) decimal.Decimal {
	secs := int64(to.normalize().Sub(from.normalize()).Seconds())
	return decimal.NewFromInt(secs).Div(decimal.NewFromInt(3600))
}
