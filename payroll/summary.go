/*
summary.go - Per-worker reduction

PURPOSE:
  Reduces the final line-item set into one summary row per worker: total
  regular hours, total overtime hours, total pay. Sums are taken exactly
  and rounded to 2 decimals AFTER summation, not per addend - the line
  items themselves are already rounded, so the summary reflects exactly
  what the rows display.
*/
package payroll

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Summarize aggregates line items into one row per distinct worker,
// ordered by worker name (then ID, for stability).
func Summarize(items []LineItem) []WorkerSummary {
	byWorker := make(map[WorkerID]*WorkerSummary)
	var order []WorkerID
	for _, item := range items {
		s, ok := byWorker[item.WorkerID]
		if !ok {
			name := item.WorkerName
			if name == "" {
				name = string(item.WorkerID)
			}
			s = &WorkerSummary{
				WorkerID:    item.WorkerID,
				WorkerName:  name,
				RegularTime: decimal.Zero,
				Overtime:    decimal.Zero,
				PayAmount:   decimal.Zero,
			}
			byWorker[item.WorkerID] = s
			order = append(order, item.WorkerID)
		}
		s.RegularTime = s.RegularTime.Add(item.RegularHours)
		s.Overtime = s.Overtime.Add(item.OvertimeHours)
		s.PayAmount = s.PayAmount.Add(item.PayAmount)
	}

	out := make([]WorkerSummary, 0, len(order))
	for _, id := range order {
		s := byWorker[id]
		s.RegularTime = s.RegularTime.Round(2)
		s.Overtime = s.Overtime.Round(2)
		s.PayAmount = s.PayAmount.Round(2)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WorkerName != out[j].WorkerName {
			return out[i].WorkerName < out[j].WorkerName
		}
		return out[i].WorkerID < out[j].WorkerID
	})
	return out
}
