/*
Package sqlite provides the SQLite-backed store for the payroll system.

PURPOSE:
  Persists workers, projects, clock entries, and pay rate history, and
  serves the already-joined event snapshots the payroll engine consumes.
  The engine itself never touches the database; this package is the
  boundary collaborator that fetches events and resolves historical rates.

KEY TABLES:
  workers:       Worker records
  projects:      Project records
  clock_entries: The raw clock-in/clock-out log (engine input)
  pay_rates:     Time-ranged rate history per worker

TIMESTAMPS:
  Clock timestamps are stored as TEXT in "YYYY-MM-DD HH:MM" form, local
  wall-clock time as submitted. ISO-formatted text compares correctly with
  <= / >=, so range filters are plain string comparisons. A row whose
  timestamp fails to parse is still returned - the engine skips it with a
  warning rather than the store failing the whole batch.

MUTATIONS:
  The engine reads billed/paid flags but never writes them; MarkBilled and
  MarkPaid are the only writers, driven by the API layer.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite is opened in WAL mode so
  readers don't block each other.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := payroll.NewEngine(store) // Store satisfies payroll.RateResolver

SEE ALSO:
  - payroll/engine.go: The computation this store feeds
  - api/handlers.go: The HTTP layer driving the mutations
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
)

// Store implements persistence for the payroll system.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workers (
		worker_id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	-- The raw clock log. Rows are written once at clock-in/out; the only
	-- later mutations are the billed/paid flags.
	CREATE TABLE IF NOT EXISTS clock_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		worker_id TEXT NOT NULL,
		project_id TEXT NOT NULL,
		action TEXT NOT NULL CHECK (action IN ('in', 'out')),
		datetime_utc TEXT,
		datetime_local TEXT,
		timezone_offset INTEGER DEFAULT 0,
		note TEXT,
		pay_rate TEXT,
		session_id TEXT,
		billed INTEGER DEFAULT 0,
		billed_date TEXT,
		paid INTEGER DEFAULT 0,
		paid_date TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_entries_worker_project
		ON clock_entries(worker_id, project_id);
	CREATE INDEX IF NOT EXISTS idx_entries_local_time
		ON clock_entries(datetime_local);
	CREATE INDEX IF NOT EXISTS idx_entries_session
		ON clock_entries(session_id);

	-- Time-ranged rate history. end_date NULL = open-ended.
	CREATE TABLE IF NOT EXISTS pay_rates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		worker_id TEXT NOT NULL,
		rate TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_pay_rates_worker_start
		ON pay_rates(worker_id, start_date DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// WORKERS / PROJECTS
// =============================================================================

type Worker struct {
	ID   payroll.WorkerID
	Name string
}

type Project struct {
	ID   payroll.ProjectID
	Name string
}

// SaveWorker inserts or updates a worker.
func (s *Store) SaveWorker(ctx context.Context, w Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workers (worker_id, name) VALUES (?, ?)
		ON CONFLICT(worker_id) DO UPDATE SET name = excluded.name`,
		string(w.ID), w.Name)
	return err
}

// GetWorker returns a worker, or nil if not found.
func (s *Store) GetWorker(ctx context.Context, id payroll.WorkerID) (*Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var w Worker
	err := s.db.QueryRowContext(ctx,
		`SELECT worker_id, name FROM workers WHERE worker_id = ?`, string(id)).
		Scan(&w.ID, &w.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListWorkers returns all workers ordered by name.
func (s *Store) ListWorkers(ctx context.Context) ([]Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT worker_id, name FROM workers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []Worker
	for rows.Next() {
		var w Worker
		if err := rows.Scan(&w.ID, &w.Name); err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

// SaveProject inserts or updates a project.
func (s *Store) SaveProject(ctx context.Context, p Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		string(p.ID), p.Name)
	return err
}

// ListProjects returns all projects ordered by name.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM projects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// =============================================================================
// CLOCK ENTRIES
// =============================================================================

// EntryFilter narrows the event load. Zero values mean "no filter".
// Date bounds compare against datetime_local, inclusive on both ends.
type EntryFilter struct {
	StartDate string
	EndDate   string
	WorkerID  payroll.WorkerID
	ProjectID payroll.ProjectID
	Billed    *bool
	Paid      *bool
}

// InsertEntry appends one clock event and returns its row ID.
func (s *Store) InsertEntry(ctx context.Context, e payroll.ClockEvent) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO clock_entries
			(worker_id, project_id, action, datetime_utc, datetime_local,
			 timezone_offset, note, pay_rate, session_id,
			 billed, billed_date, paid, paid_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(e.WorkerID), string(e.ProjectID), string(e.Action),
		timeText(e.UTCTime), timeText(e.LocalTime),
		e.OffsetMinutes, e.Note, e.PayRate.String(), e.SessionID,
		boolInt(e.Billed), nullText(e.BilledDate), boolInt(e.Paid), nullText(e.PaidDate))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Entries loads clock events matching the filter, joined with worker and
// project names, ordered by local timestamp. This is exactly the snapshot
// the payroll engine takes as input.
func (s *Store) Entries(ctx context.Context, f EntryFilter) ([]payroll.ClockEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var wheres []string
	var args []any
	if f.StartDate != "" {
		wheres = append(wheres, "ce.datetime_local >= ?")
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		wheres = append(wheres, "ce.datetime_local <= ?")
		args = append(args, f.EndDate)
	}
	if f.WorkerID != "" {
		wheres = append(wheres, "ce.worker_id = ?")
		args = append(args, string(f.WorkerID))
	}
	if f.ProjectID != "" {
		wheres = append(wheres, "ce.project_id = ?")
		args = append(args, string(f.ProjectID))
	}
	if f.Billed != nil {
		if *f.Billed {
			wheres = append(wheres, "ce.billed = 1")
		} else {
			wheres = append(wheres, "(ce.billed = 0 OR ce.billed IS NULL)")
		}
	}
	if f.Paid != nil {
		if *f.Paid {
			wheres = append(wheres, "ce.paid = 1")
		} else {
			wheres = append(wheres, "(ce.paid = 0 OR ce.paid IS NULL)")
		}
	}

	query := `
		SELECT ce.id, ce.worker_id, COALESCE(w.name, ''), ce.project_id,
		       COALESCE(p.name, ''), ce.action,
		       COALESCE(ce.datetime_utc, ''), COALESCE(ce.datetime_local, ''),
		       COALESCE(ce.timezone_offset, 0), COALESCE(ce.note, ''),
		       COALESCE(ce.pay_rate, '0'), COALESCE(ce.session_id, ''),
		       COALESCE(ce.billed, 0), COALESCE(ce.billed_date, ''),
		       COALESCE(ce.paid, 0), COALESCE(ce.paid_date, '')
		FROM clock_entries ce
		LEFT JOIN workers w ON ce.worker_id = w.worker_id
		LEFT JOIN projects p ON ce.project_id = p.id`
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY ce.datetime_local ASC, ce.id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []payroll.ClockEvent
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanEntry(rows *sql.Rows) (payroll.ClockEvent, error) {
	var e payroll.ClockEvent
	var utcStr, localStr, rateStr string
	var billed, paid int
	err := rows.Scan(&e.ID, &e.WorkerID, &e.WorkerName, &e.ProjectID,
		&e.ProjectName, &e.Action, &utcStr, &localStr, &e.OffsetMinutes,
		&e.Note, &rateStr, &e.SessionID, &billed, &e.BilledDate, &paid, &e.PaidDate)
	if err != nil {
		return e, err
	}

	// Unparseable timestamps stay zero; the engine drops the event with a
	// warning instead of this load failing.
	if tp, err := payroll.ParseTimePoint(localStr); err == nil {
		e.LocalTime = tp
	}
	if tp, err := payroll.ParseTimePoint(utcStr); err == nil {
		e.UTCTime = tp
	}
	if rate, err := decimal.NewFromString(rateStr); err == nil {
		e.PayRate = rate
	}
	e.Billed = billed != 0
	e.Paid = paid != 0
	return e, nil
}

// OpenSessionID returns the session_id of the worker's open session on a
// project (an "in" entry whose session has no "out"), or "" if none.
func (s *Store) OpenSessionID(ctx context.Context, worker payroll.WorkerID, project payroll.ProjectID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sessionID string
	err := s.db.QueryRowContext(ctx, `
		SELECT ce.session_id FROM clock_entries ce
		WHERE ce.worker_id = ? AND ce.project_id = ? AND ce.action = 'in'
		  AND NOT EXISTS (
		    SELECT 1 FROM clock_entries o
		    WHERE o.session_id = ce.session_id AND o.action = 'out'
		  )
		ORDER BY ce.datetime_local DESC LIMIT 1`,
		string(worker), string(project)).Scan(&sessionID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

// IsSessionOpen reports whether a session has an "in" entry but no "out".
func (s *Store) IsSessionOpen(ctx context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM clock_entries ce
		WHERE ce.session_id = ? AND ce.action = 'in'
		  AND NOT EXISTS (
		    SELECT 1 FROM clock_entries o
		    WHERE o.session_id = ce.session_id AND o.action = 'out'
		  )`, sessionID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkBilled sets the billed flag and date on the given entries.
func (s *Store) MarkBilled(ctx context.Context, ids []int64, date string) error {
	return s.markStatus(ctx, "billed", "billed_date", ids, date)
}

// MarkPaid sets the paid flag and date on the given entries.
func (s *Store) MarkPaid(ctx context.Context, ids []int64, date string) error {
	return s.markStatus(ctx, "paid", "paid_date", ids, date)
}

func (s *Store) markStatus(ctx context.Context, flagCol, dateCol string, ids []int64, date string) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, date)
	for _, id := range ids {
		args = append(args, id)
	}

	// flagCol/dateCol are fixed column names chosen above, never user input.
	query := fmt.Sprintf(`UPDATE clock_entries SET %s = 1, %s = ? WHERE id IN (%s)`,
		flagCol, dateCol, placeholders)
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// =============================================================================
// PAY RATES
// =============================================================================

// SaveRate appends a pay rate record to a worker's history.
func (s *Store) SaveRate(ctx context.Context, r payroll.PayRateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var end any
	if r.EndDate != nil {
		end = string(*r.EndDate)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pay_rates (worker_id, rate, start_date, end_date)
		VALUES (?, ?, ?, ?)`,
		string(r.WorkerID), r.Rate.String(), string(r.StartDate), end)
	return err
}

// RatesFor returns a worker's full rate history, most recent first.
func (s *Store) RatesFor(ctx context.Context, worker payroll.WorkerID) ([]payroll.PayRateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT worker_id, rate, start_date, end_date FROM pay_rates
		WHERE worker_id = ? ORDER BY start_date DESC`, string(worker))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []payroll.PayRateRecord
	for rows.Next() {
		var r payroll.PayRateRecord
		var rateStr string
		var end sql.NullString
		if err := rows.Scan(&r.WorkerID, &rateStr, &r.StartDate, &end); err != nil {
			return nil, err
		}
		rate, err := decimal.NewFromString(rateStr)
		if err != nil {
			return nil, fmt.Errorf("bad rate for worker %s: %w", r.WorkerID, err)
		}
		r.Rate = rate
		if end.Valid {
			day := payroll.DayKey(end.String)
			r.EndDate = &day
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// RateFor returns the rate in effect for a worker on a date: the record
// with the latest start_date <= date among records whose end_date is null
// or >= date. No match resolves to 0, never an error.
//
// Store satisfies payroll.RateResolver with this method.
func (s *Store) RateFor(ctx context.Context, worker payroll.WorkerID, day payroll.DayKey) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rateStr string
	err := s.db.QueryRowContext(ctx, `
		SELECT rate FROM pay_rates
		WHERE worker_id = ? AND start_date <= ?
		  AND (end_date IS NULL OR end_date >= ?)
		ORDER BY start_date DESC LIMIT 1`,
		string(worker), string(day), string(day)).Scan(&rateStr)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(rateStr)
}

// =============================================================================
// HELPERS
// =============================================================================

func timeText(tp payroll.TimePoint) any {
	if tp.IsZero() {
		return nil
	}
	return tp.String()
}

func nullText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
