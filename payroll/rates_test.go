package payroll_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
)

func day(s string) payroll.DayKey { return payroll.DayKey(s) }

func dayPtr(s string) *payroll.DayKey {
	d := payroll.DayKey(s)
	return &d
}

func resolve(t *testing.T, r payroll.RateResolver, worker string, d string) decimal.Decimal {
	t.Helper()
	rate, err := r.RateFor(context.Background(), payroll.WorkerID(worker), day(d))
	if err != nil {
		t.Fatalf("unexpected resolver error: %v", err)
	}
	return rate
}

func TestHistoryResolver_LatestStartDateWins(t *testing.T) {
	// Two overlapping-in-time records: resolution picks the one with the
	// latest start_date <= the query date.
	resolver := payroll.NewHistoryResolver([]payroll.PayRateRecord{
		{WorkerID: "W", Rate: dec(18), StartDate: "2025-01-01"},
		{WorkerID: "W", Rate: dec(22), StartDate: "2025-06-01"},
	})

	assertDecimal(t, resolve(t, resolver, "W", "2025-03-15"), 18, "rate before the raise")
	assertDecimal(t, resolve(t, resolver, "W", "2025-06-01"), 22, "rate on the raise day")
	assertDecimal(t, resolve(t, resolver, "W", "2025-12-31"), 22, "rate after the raise")
}

func TestHistoryResolver_EndDateBoundsTheRecord(t *testing.T) {
	resolver := payroll.NewHistoryResolver([]payroll.PayRateRecord{
		{WorkerID: "W", Rate: dec(20), StartDate: "2025-01-01", EndDate: dayPtr("2025-06-30")},
	})

	assertDecimal(t, resolve(t, resolver, "W", "2025-06-30"), 20, "end date is inclusive")
	assertDecimal(t, resolve(t, resolver, "W", "2025-07-01"), 0, "expired record does not apply")
}

func TestHistoryResolver_NoMatchResolvesToZero(t *testing.T) {
	// Absent a covering record the rate is 0, not an error. The engine
	// marks such items RateMissing; the resolver itself stays silent.
	resolver := payroll.NewHistoryResolver([]payroll.PayRateRecord{
		{WorkerID: "OTHER", Rate: dec(30), StartDate: "2025-01-01"},
		{WorkerID: "W", Rate: dec(20), StartDate: "2025-06-01"},
	})

	assertDecimal(t, resolve(t, resolver, "W", "2025-05-31"), 0, "date before any record")
	assertDecimal(t, resolve(t, resolver, "NOBODY", "2025-06-15"), 0, "unknown worker")
}

func TestCachedResolver_OneLookupPerDistinctWorkerDate(t *testing.T) {
	// GIVEN: A counting resolver wrapped in the cache
	// WHEN: Resolving the same (worker, date) pair repeatedly plus one
	//       distinct pair
	// THEN: The underlying resolver is hit exactly twice

	calls := 0
	counting := payroll.RateFunc(func(_ context.Context, _ payroll.WorkerID, _ payroll.DayKey) (decimal.Decimal, error) {
		calls++
		return dec(20), nil
	})
	cached := payroll.NewCachedResolver(counting)

	for i := 0; i < 5; i++ {
		resolve(t, cached, "W", "2025-06-09")
	}
	resolve(t, cached, "W", "2025-06-10")

	if calls != 2 {
		t.Errorf("expected 2 underlying lookups, got %d", calls)
	}
}

func TestEngineRun_BatchesRateLookups(t *testing.T) {
	// Three zero-rate sessions on the same worker/day must trigger one
	// external lookup, not three.
	calls := 0
	counting := payroll.RateFunc(func(_ context.Context, _ payroll.WorkerID, _ payroll.DayKey) (decimal.Decimal, error) {
		calls++
		return dec(20), nil
	})
	engine := payroll.NewEngine(counting)

	events := shift(t, nil, "W", "P", "2025-06-09 08:00", "2025-06-09 10:00", 0)
	events = shift(t, events, "W", "P", "2025-06-09 11:00", "2025-06-09 13:00", 0)
	events = shift(t, events, "W", "P", "2025-06-09 14:00", "2025-06-09 16:00", 0)

	if _, err := engine.Run(context.Background(), events); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 batched lookup, got %d", calls)
	}
}

func TestEngineRun_ResolverFailureIsFatal(t *testing.T) {
	// Per-record problems are warnings, but a resolver that cannot be
	// reached at all is a systemic failure and aborts the run.
	failing := payroll.RateFunc(func(_ context.Context, _ payroll.WorkerID, _ payroll.DayKey) (decimal.Decimal, error) {
		return decimal.Zero, context.DeadlineExceeded
	})
	engine := payroll.NewEngine(failing)

	events := shift(t, nil, "W", "P", "2025-06-09 08:00", "2025-06-09 10:00", 0)
	if _, err := engine.Run(context.Background(), events); err == nil {
		t.Fatal("expected the resolver failure to propagate")
	}
}
