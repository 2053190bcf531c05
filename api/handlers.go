/*
handlers.go - HTTP API handlers for the payroll system

PURPOSE:
  Exposes the clock log, the payroll engine, and the surrounding admin
  records via REST. Handles HTTP request/response, JSON serialization, and
  delegates all computation to the payroll package.

ENDPOINTS:
  Clock:
    POST   /api/clock/in              Start a session (guards double clock-in)
    POST   /api/clock/out             Close an open session
    GET    /api/clock-entries         Raw joined clock log

  Payroll:
    GET    /api/payroll               Run the engine over filtered entries
    POST   /api/payroll/bill          Mark entries billed
    POST   /api/payroll/paid          Mark entries paid
    POST   /api/payroll/update-status Flip billed/paid with server date

  Pay rates:
    GET    /api/payrates/current/{worker_id}
    GET    /api/payrates/history/{worker_id}
    POST   /api/payrates

  Admin:
    GET/POST /api/workers, /api/projects

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call store / engine
  4. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, clock flow violations
  - 404: Resource not found
  - 500: Internal errors
  Engine warnings (skipped events, zero-rate fallbacks) are not errors;
  they are logged and returned in the payroll response body.

SECURITY NOTE:
  No authentication middleware. Session login and authorization live
  outside this service.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - payroll/engine.go: The computation behind GET /api/payroll
*/
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Engine *payroll.Engine
}

// NewHandler creates a new handler with the given store. The engine is
// stateless, so one instance serves all requests concurrently.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:  store,
		Engine: payroll.NewEngine(store),
	}
}

// =============================================================================
// CLOCK HANDLERS
// =============================================================================

// ClockIn records a clock-in event, minting a fresh session ID and
// snapshotting the worker's current pay rate onto the entry.
func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	var req ClockInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.WorkerID == "" || req.ProjectID == "" {
		writeError(w, http.StatusBadRequest, "Missing worker_id or project_id", nil)
		return
	}

	local, err := payroll.ParseTimePoint(req.DatetimeLocal)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid datetime_local", err)
		return
	}

	ctx := r.Context()

	// One open session per worker+project at a time.
	open, err := h.Store.OpenSessionID(ctx, payroll.WorkerID(req.WorkerID), payroll.ProjectID(req.ProjectID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check open sessions", err)
		return
	}
	if open != "" {
		writeError(w, http.StatusBadRequest, payroll.ErrAlreadyClockedIn.Error(), nil)
		return
	}

	// Rate snapshot at clock-in; zero stays zero and the engine falls back
	// to the rate history at computation time.
	rate, err := h.Store.RateFor(ctx, payroll.WorkerID(req.WorkerID), local.DayKey())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve pay rate", err)
		return
	}

	sessionID := uuid.NewString()
	event := payroll.ClockEvent{
		WorkerID:      payroll.WorkerID(req.WorkerID),
		ProjectID:     payroll.ProjectID(req.ProjectID),
		Action:        payroll.ActionIn,
		LocalTime:     local,
		UTCTime:       utcFromLocal(local, req.TimezoneOffset),
		OffsetMinutes: req.TimezoneOffset,
		Note:          req.Note,
		PayRate:       rate,
		SessionID:     sessionID,
	}
	if _, err := h.Store.InsertEntry(ctx, event); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record clock-in", err)
		return
	}

	writeJSON(w, http.StatusOK, ClockResponse{Success: true, SessionID: sessionID})
}

// ClockOut records a clock-out event against an open session.
func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	var req ClockOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "Missing session_id", nil)
		return
	}

	local, err := payroll.ParseTimePoint(req.DatetimeLocal)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid datetime_local", err)
		return
	}

	ctx := r.Context()
	isOpen, err := h.Store.IsSessionOpen(ctx, req.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check session", err)
		return
	}
	if !isOpen {
		writeError(w, http.StatusBadRequest, payroll.ErrNoOpenSession.Error(), nil)
		return
	}

	event := payroll.ClockEvent{
		WorkerID:      payroll.WorkerID(req.WorkerID),
		ProjectID:     payroll.ProjectID(req.ProjectID),
		Action:        payroll.ActionOut,
		LocalTime:     local,
		UTCTime:       utcFromLocal(local, req.TimezoneOffset),
		OffsetMinutes: req.TimezoneOffset,
		Note:          req.Note,
		SessionID:     req.SessionID,
	}
	if _, err := h.Store.InsertEntry(ctx, event); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record clock-out", err)
		return
	}

	writeJSON(w, http.StatusOK, ClockResponse{Success: true, SessionID: req.SessionID})
}

// ListEntries returns the raw clock log (optionally filtered), joined with
// worker and project names.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.Entries(r.Context(), filterFromQuery(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}

	dtos := make([]ClockEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toClockEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// GetPayroll loads the filtered clock entries, runs the overtime engine,
// and returns the final line items plus per-worker sums.
func (h *Handler) GetPayroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.Store.Entries(ctx, filterFromQuery(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load entries", err)
		return
	}

	result, err := h.Engine.Run(ctx, entries)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Payroll computation failed", err)
		return
	}

	resp := PayrollResponse{
		Rows:       make([]LineItemDTO, len(result.Items)),
		WorkerSums: make([]WorkerSummaryDTO, len(result.Summaries)),
	}
	for i, item := range result.Items {
		resp.Rows[i] = toLineItemDTO(item)
	}
	for i, s := range result.Summaries {
		resp.WorkerSums[i] = toWorkerSummaryDTO(s)
	}
	for _, warning := range result.Warnings {
		log.Printf("payroll: %s", warning)
		resp.Warnings = append(resp.Warnings, warning.String())
	}

	writeJSON(w, http.StatusOK, resp)
}

// BillEntries marks entries as billed on the given date.
func (h *Handler) BillEntries(w http.ResponseWriter, r *http.Request) {
	var req BillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.EntryIDs) == 0 || req.BilledDate == "" {
		writeError(w, http.StatusBadRequest, "Missing parameters", nil)
		return
	}
	if err := h.Store.MarkBilled(r.Context(), req.EntryIDs, req.BilledDate); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to mark billed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// PaidEntries marks entries as paid on the given date.
func (h *Handler) PaidEntries(w http.ResponseWriter, r *http.Request) {
	var req PaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.EntryIDs) == 0 || req.PaidDate == "" {
		writeError(w, http.StatusBadRequest, "Missing parameters", nil)
		return
	}
	if err := h.Store.MarkPaid(r.Context(), req.EntryIDs, req.PaidDate); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to mark paid", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// UpdateStatus flips a billed/paid flag using the server's clock for the
// status date.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.IDs) == 0 || (req.Field != "billed" && req.Field != "paid") {
		writeError(w, http.StatusBadRequest, "Invalid input", nil)
		return
	}

	date := time.Now().UTC().Format("2006-01-02 15:04")
	var err error
	if req.Field == "billed" {
		err = h.Store.MarkBilled(r.Context(), req.IDs, date)
	} else {
		err = h.Store.MarkPaid(r.Context(), req.IDs, date)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update entries", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// =============================================================================
// PAY RATE HANDLERS
// =============================================================================

// GetCurrentRate returns the rate in effect for a worker today.
func (h *Handler) GetCurrentRate(w http.ResponseWriter, r *http.Request) {
	workerID := payroll.WorkerID(chi.URLParam(r, "worker_id"))
	today := payroll.DayKey(time.Now().UTC().Format("2006-01-02"))

	rate, err := h.Store.RateFor(r.Context(), workerID, today)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve rate", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"rate": rate.InexactFloat64()})
}

// GetRateHistory returns all pay rate records for a worker.
func (h *Handler) GetRateHistory(w http.ResponseWriter, r *http.Request) {
	workerID := payroll.WorkerID(chi.URLParam(r, "worker_id"))

	records, err := h.Store.RatesFor(r.Context(), workerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load rate history", err)
		return
	}

	dtos := make([]PayRateDTO, len(records))
	for i, rec := range records {
		dtos[i] = toPayRateDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRate appends a rate record to a worker's history.
func (h *Handler) CreateRate(w http.ResponseWriter, r *http.Request) {
	var req CreatePayRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.WorkerID == "" || req.StartDate == "" {
		writeError(w, http.StatusBadRequest, "Missing worker_id or start_date", nil)
		return
	}
	start, err := payroll.ParseDay(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
		return
	}

	record := payroll.PayRateRecord{
		WorkerID:  payroll.WorkerID(req.WorkerID),
		Rate:      decimal.NewFromFloat(req.Rate),
		StartDate: start,
	}
	if req.EndDate != nil {
		end, err := payroll.ParseDay(*req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
			return
		}
		record.EndDate = &end
	}

	if err := h.Store.SaveRate(r.Context(), record); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save rate", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

// =============================================================================
// WORKER / PROJECT HANDLERS
// =============================================================================

// ListWorkers returns all workers.
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.Store.ListWorkers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list workers", err)
		return
	}
	dtos := make([]WorkerDTO, len(workers))
	for i, wk := range workers {
		dtos[i] = toWorkerDTO(wk)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateWorker creates or renames a worker.
func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req WorkerDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Missing worker_id or name", nil)
		return
	}
	if err := h.Store.SaveWorker(r.Context(), sqlite.Worker{ID: payroll.WorkerID(req.ID), Name: req.Name}); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save worker", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// ListProjects returns all projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ListProjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects", err)
		return
	}
	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toProjectDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateProject creates or renames a project.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Missing id or name", nil)
		return
	}
	if err := h.Store.SaveProject(r.Context(), sqlite.Project{ID: payroll.ProjectID(req.ID), Name: req.Name}); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save project", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// =============================================================================
// HELPERS
// =============================================================================

// filterFromQuery translates query parameters into a store filter.
// Supported: start_date, end_date, worker_id, project_id, billed, paid.
func filterFromQuery(r *http.Request) sqlite.EntryFilter {
	q := r.URL.Query()
	f := sqlite.EntryFilter{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		WorkerID:  payroll.WorkerID(q.Get("worker_id")),
		ProjectID: payroll.ProjectID(q.Get("project_id")),
	}
	if v := q.Get("billed"); v == "true" || v == "false" {
		b := v == "true"
		f.Billed = &b
	}
	if v := q.Get("paid"); v == "true" || v == "false" {
		b := v == "true"
		f.Paid = &b
	}
	return f
}

// utcFromLocal shifts a wall-clock time by the client-reported offset
// (minutes behind UTC, as browsers report it).
func utcFromLocal(local payroll.TimePoint, offsetMinutes int) payroll.TimePoint {
	return payroll.TimePoint{
		Time:        local.Time.Add(time.Duration(offsetMinutes) * time.Minute),
		Granularity: local.Granularity,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		log.Printf("api: %s: %v", message, err)
	}
	writeJSON(w, status, map[string]string{"error": message})
}
