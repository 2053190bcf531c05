/*
daily.go - Daily overtime splitter

PURPOSE:
  Walks each worker/project/day's closed sessions in time order and
  allocates each session's hours into a regular bucket (up to the per-day
  cap) and a daily-overtime bucket (beyond it). A session may yield zero,
  one, or two line items; one session can straddle the boundary.

GROUPING:
  The daily budget is per (worker, project, day) - a worker splitting 10
  hours across two projects in one day earns no daily overtime. Contrast
  with the weekly budget, which spans projects (weekly.go).

ROUNDING:
  Hours, the overtime rate, and amounts are each rounded to 2 decimals at
  emission. Intermediate budget arithmetic stays unrounded. Emission-time
  rounding is an explicit design choice so line items match displayed and
  billed values exactly, accepting the small aggregate drift that implies.
*/
package payroll

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// splitDaily allocates each group's sessions against the daily regular
// budget. Each group's fold is independent; the budget never leaks across
// workers, projects, or days.
func (e *Engine) splitDaily(ctx context.Context, sessions []Session, rates RateResolver) ([]LineItem, []Warning, error) {
	groups := make(map[dailyGroupKey][]Session)
	var keys []dailyGroupKey
	for _, s := range sessions {
		k := dailyGroupKey{Worker: s.In.WorkerID, Project: s.In.ProjectID, Day: s.DayKey()}
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], s)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	var items []LineItem
	var warnings []Warning
	for _, k := range keys {
		group := groups[k]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].In.Timestamp().Before(group[j].In.Timestamp())
		})

		budget := e.Config.DailyCapHours
		for _, s := range group {
			rate, missing, err := e.sessionRate(ctx, s, rates)
			if err != nil {
				return nil, nil, err
			}
			if missing {
				warnings = append(warnings, Warning{
					Kind:     WarnRateMissing,
					EventID:  s.In.ID,
					WorkerID: s.In.WorkerID,
					Detail:   "no pay rate on record for " + string(s.DayKey()) + ", paying 0",
				})
			}

			dur := s.Hours()
			regular := decimal.Min(dur, budget)
			overtime := dur.Sub(regular)
			budget = budget.Sub(regular)

			if regular.IsPositive() {
				item := newLineItem(s, rate, missing)
				item.RegularHours = regular.Round(2)
				item.PayAmount = regular.Mul(rate).Round(2)
				items = append(items, item)
			}
			if overtime.IsPositive() {
				otRate := rate.Mul(e.Config.OvertimeMultiplier)
				item := newLineItem(s, otRate.Round(2), missing)
				item.OvertimeHours = overtime.Round(2)
				item.OvertimeType = OvertimeDaily
				item.PayAmount = overtime.Mul(otRate).Round(2)
				items = append(items, item)
			}
		}
	}
	return items, warnings, nil
}

// sessionRate returns the rate for a session: the clock-in snapshot when it
// is non-zero, otherwise the historical rate for the session's day. The
// missing flag is set only when both sources came up empty.
func (e *Engine) sessionRate(ctx context.Context, s Session, rates RateResolver) (rate decimal.Decimal, missing bool, err error) {
	rate = s.In.PayRate
	if rate.IsPositive() {
		return rate, false, nil
	}
	rate, err = rates.RateFor(ctx, s.In.WorkerID, s.DayKey())
	if err != nil {
		return decimal.Zero, false, err
	}
	if !rate.IsPositive() {
		return decimal.Zero, true, nil
	}
	return rate, false, nil
}

// newLineItem carries the session's identifying and billing fields through
// to a fresh item. Hour buckets and amount are filled in by the caller.
func newLineItem(s Session, rate decimal.Decimal, rateMissing bool) LineItem {
	return LineItem{
		EventID:     s.In.ID,
		WorkerID:    s.In.WorkerID,
		WorkerName:  s.In.WorkerName,
		ProjectID:   s.In.ProjectID,
		ProjectName: s.In.ProjectName,
		ClockIn:     s.In.Timestamp(),
		ClockOut:    s.Out.Timestamp(),
		PayRate:     rate,
		RateMissing: rateMissing,
		Note:        s.In.Note,
		Billed:      s.In.Billed,
		BilledDate:  s.In.BilledDate,
		Paid:        s.In.Paid,
		PaidDate:    s.In.PaidDate,
	}
}
