/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract. Monetary and
  hour values are emitted as plain JSON numbers (already rounded to 2
  decimals by the engine), matching what billing clients display.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - payroll/types.go: The domain types these mirror
*/
package api

import (
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// CLOCK REQUESTS
// =============================================================================

// ClockInRequest starts a work session. DatetimeLocal is the HTML5
// datetime-local form ("2006-01-02T15:04"); TimezoneOffset is minutes
// behind UTC as reported by the client.
type ClockInRequest struct {
	WorkerID       string `json:"worker_id"`
	ProjectID      string `json:"project_id"`
	Note           string `json:"note"`
	DatetimeLocal  string `json:"datetime_local"`
	TimezoneOffset int    `json:"timezone_offset"`
}

// ClockOutRequest closes the session identified by SessionID.
type ClockOutRequest struct {
	WorkerID       string `json:"worker_id"`
	ProjectID      string `json:"project_id"`
	Note           string `json:"note"`
	DatetimeLocal  string `json:"datetime_local"`
	TimezoneOffset int    `json:"timezone_offset"`
	SessionID      string `json:"session_id"`
}

// ClockResponse acknowledges a clock event.
type ClockResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
}

// =============================================================================
// CLOCK ENTRY DTO
// =============================================================================

// ClockEntryDTO is one raw clock log row, joined with names.
type ClockEntryDTO struct {
	ID             int64   `json:"id"`
	WorkerID       string  `json:"worker_id"`
	WorkerName     string  `json:"worker_name"`
	ProjectID      string  `json:"project_id"`
	ProjectName    string  `json:"project_name"`
	Action         string  `json:"action"`
	DatetimeLocal  string  `json:"datetime_local"`
	DatetimeUTC    string  `json:"datetime_utc"`
	TimezoneOffset int     `json:"timezone_offset"`
	Note           string  `json:"note,omitempty"`
	PayRate        float64 `json:"pay_rate"`
	SessionID      string  `json:"session_id"`
	Billed         bool    `json:"billed"`
	BilledDate     string  `json:"billed_date,omitempty"`
	Paid           bool    `json:"paid"`
	PaidDate       string  `json:"paid_date,omitempty"`
}

func toClockEntryDTO(e payroll.ClockEvent) ClockEntryDTO {
	return ClockEntryDTO{
		ID:             e.ID,
		WorkerID:       string(e.WorkerID),
		WorkerName:     e.WorkerName,
		ProjectID:      string(e.ProjectID),
		ProjectName:    e.ProjectName,
		Action:         string(e.Action),
		DatetimeLocal:  timeString(e.LocalTime),
		DatetimeUTC:    timeString(e.UTCTime),
		TimezoneOffset: e.OffsetMinutes,
		Note:           e.Note,
		PayRate:        e.PayRate.InexactFloat64(),
		SessionID:      e.SessionID,
		Billed:         e.Billed,
		BilledDate:     e.BilledDate,
		Paid:           e.Paid,
		PaidDate:       e.PaidDate,
	}
}

// =============================================================================
// PAYROLL RESPONSE
// =============================================================================

// LineItemDTO is one regular- or overtime-hours bucket. Exactly one of
// regular_time / overtime is non-zero.
type LineItemDTO struct {
	ID               int64   `json:"id"`
	WorkerID         string  `json:"worker_id"`
	WorkerName       string  `json:"worker_name"`
	ProjectID        string  `json:"project_id"`
	ProjectName      string  `json:"project_name"`
	DatetimeLocal    string  `json:"datetime_local"`
	DatetimeOutLocal string  `json:"datetime_out_local"`
	RegularTime      float64 `json:"regular_time"`
	Overtime         float64 `json:"overtime"`
	OtType           string  `json:"ot_type"`
	PayRate          float64 `json:"pay_rate"`
	PayAmount        float64 `json:"pay_amount"`
	RateMissing      bool    `json:"rate_missing,omitempty"`
	Note             string  `json:"note,omitempty"`
	Billed           bool    `json:"billed"`
	BilledDate       string  `json:"billed_date,omitempty"`
	Paid             bool    `json:"paid"`
	PaidDate         string  `json:"paid_date,omitempty"`
}

func toLineItemDTO(li payroll.LineItem) LineItemDTO {
	return LineItemDTO{
		ID:               li.EventID,
		WorkerID:         string(li.WorkerID),
		WorkerName:       li.WorkerName,
		ProjectID:        string(li.ProjectID),
		ProjectName:      li.ProjectName,
		DatetimeLocal:    timeString(li.ClockIn),
		DatetimeOutLocal: timeString(li.ClockOut),
		RegularTime:      li.RegularHours.InexactFloat64(),
		Overtime:         li.OvertimeHours.InexactFloat64(),
		OtType:           string(li.OvertimeType),
		PayRate:          li.PayRate.InexactFloat64(),
		PayAmount:        li.PayAmount.InexactFloat64(),
		RateMissing:      li.RateMissing,
		Note:             li.Note,
		Billed:           li.Billed,
		BilledDate:       li.BilledDate,
		Paid:             li.Paid,
		PaidDate:         li.PaidDate,
	}
}

// WorkerSummaryDTO is one per-worker totals row.
type WorkerSummaryDTO struct {
	WorkerID    string  `json:"worker_id"`
	WorkerName  string  `json:"worker_name"`
	RegularTime float64 `json:"regular_time"`
	Overtime    float64 `json:"overtime"`
	PayAmount   float64 `json:"pay_amount"`
}

func toWorkerSummaryDTO(s payroll.WorkerSummary) WorkerSummaryDTO {
	return WorkerSummaryDTO{
		WorkerID:    string(s.WorkerID),
		WorkerName:  s.WorkerName,
		RegularTime: s.RegularTime.InexactFloat64(),
		Overtime:    s.Overtime.InexactFloat64(),
		PayAmount:   s.PayAmount.InexactFloat64(),
	}
}

// PayrollResponse is the full result of one payroll query.
type PayrollResponse struct {
	Rows       []LineItemDTO      `json:"rows"`
	WorkerSums []WorkerSummaryDTO `json:"worker_sums"`
	Warnings   []string           `json:"warnings,omitempty"`
}

// =============================================================================
// STATUS MUTATIONS
// =============================================================================

// BillRequest marks entries as billed on a date.
type BillRequest struct {
	EntryIDs   []int64 `json:"entry_ids"`
	BilledDate string  `json:"billed_date"`
}

// PaidRequest marks entries as paid on a date.
type PaidRequest struct {
	EntryIDs []int64 `json:"entry_ids"`
	PaidDate string  `json:"paid_date"`
}

// UpdateStatusRequest flips a billed/paid flag with a server-side date.
type UpdateStatusRequest struct {
	IDs   []int64 `json:"ids"`
	Field string  `json:"field"` // "billed" or "paid"
	Value bool    `json:"value"`
}

// =============================================================================
// PAY RATES
// =============================================================================

// PayRateDTO is one interval of a worker's rate history.
type PayRateDTO struct {
	WorkerID  string  `json:"worker_id"`
	Rate      float64 `json:"rate"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date,omitempty"`
}

func toPayRateDTO(r payroll.PayRateRecord) PayRateDTO {
	dto := PayRateDTO{
		WorkerID:  string(r.WorkerID),
		Rate:      r.Rate.InexactFloat64(),
		StartDate: string(r.StartDate),
	}
	if r.EndDate != nil {
		end := string(*r.EndDate)
		dto.EndDate = &end
	}
	return dto
}

// CreatePayRateRequest appends a rate record to a worker's history.
type CreatePayRateRequest struct {
	WorkerID  string  `json:"worker_id"`
	Rate      float64 `json:"rate"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date,omitempty"`
}

// =============================================================================
// WORKERS / PROJECTS
// =============================================================================

type WorkerDTO struct {
	ID   string `json:"worker_id"`
	Name string `json:"name"`
}

type ProjectDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func toWorkerDTO(w sqlite.Worker) WorkerDTO {
	return WorkerDTO{ID: string(w.ID), Name: w.Name}
}

func toProjectDTO(p sqlite.Project) ProjectDTO {
	return ProjectDTO{ID: string(p.ID), Name: p.Name}
}

func timeString(tp payroll.TimePoint) string {
	if tp.IsZero() {
		return ""
	}
	return tp.String()
}
