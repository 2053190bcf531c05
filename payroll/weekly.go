/*
weekly.go - Weekly overtime splitter

PURPOSE:
  Re-groups the daily-regular line items by worker and ISO week and
  re-allocates their hours against the weekly cap. Hours beyond the cap
  become weekly-overtime items at 1.5x. Daily-overtime items pass through
  untouched regardless of week - those hours were already removed from the
  regular pool.

GROUPING:
  The weekly budget is per worker ACROSS ALL PROJECTS, unlike the daily
  budget which is per worker per project. The asymmetry is intentional and
  load-bearing; do not unify the two grouping keys.

ALLOCATION:
  Within a (worker, ISO week) partition whose regular total exceeds the cap,
  items are walked in their existing (chronological) order with a shrinking
  budget: an item fitting entirely inside the budget passes through
  unchanged, byte for byte; the item that straddles the cap is shrunk and
  its remainder emitted as a new weekly-overtime item; once the budget is
  exhausted every later item converts entirely. Partitions at or under the
  cap pass through unmodified.
*/
package payroll

import (
	"sort"

	"github.com/shopspring/decimal"
)

// weeklyGroupKey buckets line items for the weekly overtime budget. No
// project component, by design.
type weeklyGroupKey struct {
	Worker WorkerID
	Week   WeekKey
}

func (k weeklyGroupKey) less(other weeklyGroupKey) bool {
	if k.Worker != other.Worker {
		return k.Worker < other.Worker
	}
	return k.Week.Less(other.Week)
}

// splitWeekly converts regular hours beyond the weekly cap into
// weekly-overtime items. Input items must already be daily-split.
func (e *Engine) splitWeekly(items []LineItem) []LineItem {
	partitions := make(map[weeklyGroupKey][]LineItem)
	var keys []weeklyGroupKey
	for _, item := range items {
		k := weeklyGroupKey{Worker: item.WorkerID, Week: item.ClockIn.WeekKey()}
		if _, seen := partitions[k]; !seen {
			keys = append(keys, k)
		}
		partitions[k] = append(partitions[k], item)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	var out []LineItem
	for _, k := range keys {
		out = append(out, e.splitWeekPartition(partitions[k])...)
	}
	return out
}

func (e *Engine) splitWeekPartition(items []LineItem) []LineItem {
	totalRegular := decimal.Zero
	for _, item := range items {
		if item.OvertimeType == OvertimeNone {
			totalRegular = totalRegular.Add(item.RegularHours)
		}
	}
	if !totalRegular.GreaterThan(e.Config.WeeklyCapHours) {
		return items
	}

	budget := e.Config.WeeklyCapHours
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		if item.OvertimeType != OvertimeNone {
			out = append(out, item) // daily OT passes through in place
			continue
		}

		hours := item.RegularHours
		switch {
		case budget.IsPositive() && !hours.GreaterThan(budget):
			out = append(out, item)
			budget = budget.Sub(hours)

		case budget.IsPositive():
			// This item straddles the cap: shrink the regular part, emit
			// the remainder as weekly overtime.
			regular := item
			regular.RegularHours = budget.Round(2)
			regular.PayAmount = budget.Mul(item.PayRate).Round(2)
			out = append(out, regular)

			out = append(out, e.weeklyOvertimeItem(item, hours.Sub(budget)))
			budget = decimal.Zero

		default:
			out = append(out, e.weeklyOvertimeItem(item, hours))
		}
	}
	return out
}

// weeklyOvertimeItem converts hours of a regular item into a weekly-OT item
// at 1.5x the item's base rate.
func (e *Engine) weeklyOvertimeItem(item LineItem, hours decimal.Decimal) LineItem {
	otRate := item.PayRate.Mul(e.Config.OvertimeMultiplier)
	ot := item
	ot.RegularHours = decimal.Zero
	ot.OvertimeHours = hours.Round(2)
	ot.OvertimeType = OvertimeWeekly
	ot.PayRate = otRate.Round(2)
	ot.PayAmount = hours.Mul(otRate).Round(2)
	return ot
}
