/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:

	Implements schedule.Store and schedule.TxStore using SQLite. In production
	the same patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:

	crew_members:     Roster snapshot rows (rank, seniority, active flag)
	requests:         Requests with their full adjudication state
	renewal_items:    Expiring qualifications awaiting a period assignment
	capacity_entries: Per-category per-period renewal ceilings
	allocation_runs:  Append-only log of allocator outcomes (JSON payloads)

APPROVAL TRANSACTIONS:

	WithTx runs a function against a transactional view of the store. The API
	layer uses it to re-run the minimum-crew check against the latest approved
	set and flip the request state in one transaction, so two concurrent
	approvals cannot both pass the check against stale data.

CONCURRENCY:

	sync.RWMutex serializes writers on top of SQLite's single-writer model.
	WAL mode keeps readers unblocked.

MIGRATION:

	Schema is auto-migrated on New(). For production, use a proper migration
	tool (golang-migrate, goose) with versioned migrations.

USAGE:

	store, err := sqlite.New("./data/roster.db")
	if err != nil {
	    log.Fatal(err)
	}
	defer store.Close()

SEE ALSO:
  - schedule/store.go:        Interface definitions
  - schedule/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meridian/roster-engine/schedule"
)

// Store implements schedule.TxStore using SQLite.
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
	CREATE TABLE IF NOT EXISTS crew_members (
		id TEXT PRIMARY KEY,
		rank TEXT NOT NULL,
		seniority_rank INTEGER NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_crew_rank
		ON crew_members(rank);
	CREATE INDEX IF NOT EXISTS idx_crew_seniority
		ON crew_members(seniority_rank);

	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		crew_member_id TEXT NOT NULL,
		rank TEXT NOT NULL,
		category TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		submitted_at TEXT NOT NULL,
		state TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_crew
		ON requests(crew_member_id);
	CREATE INDEX IF NOT EXISTS idx_requests_state
		ON requests(state);

	-- Hot path: conflict detection loads same-rank requests overlapping a
	-- candidate span.
	CREATE INDEX IF NOT EXISTS idx_requests_rank_dates
		ON requests(rank, start_date, end_date);

	CREATE TABLE IF NOT EXISTS renewal_items (
		id TEXT PRIMARY KEY,
		crew_member_id TEXT NOT NULL,
		category TEXT NOT NULL,
		earliest_valid TEXT NOT NULL,
		latest_valid TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_renewals_window
		ON renewal_items(earliest_valid, latest_valid);

	CREATE TABLE IF NOT EXISTS capacity_entries (
		category TEXT NOT NULL,
		period_number INTEGER NOT NULL,
		period_year INTEGER NOT NULL,
		capacity INTEGER NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (category, period_number, period_year)
	);

	-- Append-only log of allocator outcomes.
	CREATE TABLE IF NOT EXISTS allocation_runs (
		id TEXT PRIMARY KEY,
		ran_at TEXT NOT NULL,
		assignments_json TEXT NOT NULL,
		unassignable_json TEXT NOT NULL,
		committed_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_allocation_runs_ran_at
		ON allocation_runs(ran_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx, so every query helper works
// inside and outside WithTx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// CREW (schedule.Store interface)
// =============================================================================

func (s *Store) PutCrewMember(ctx context.Context, cm schedule.CrewMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return putCrewMember(ctx, s.db, cm)
}

func putCrewMember(ctx context.Context, db dbtx, cm schedule.CrewMember) error {
	query := `
		INSERT INTO crew_members (id, rank, seniority_rank, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			rank = excluded.rank,
			seniority_rank = excluded.seniority_rank,
			active = excluded.active,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.ExecContext(ctx, query, cm.ID, cm.Rank, cm.SeniorityRank, cm.Active, now, now)
	if err != nil {
		return fmt.Errorf("failed to save crew member: %w", err)
	}
	return nil
}

func (s *Store) GetCrewMember(ctx context.Context, id schedule.CrewMemberID) (schedule.CrewMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getCrewMember(ctx, s.db, id)
}

func getCrewMember(ctx context.Context, db dbtx, id schedule.CrewMemberID) (schedule.CrewMember, error) {
	var cm schedule.CrewMember
	err := db.QueryRowContext(ctx,
		"SELECT id, rank, seniority_rank, active FROM crew_members WHERE id = ?", id,
	).Scan(&cm.ID, &cm.Rank, &cm.SeniorityRank, &cm.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.CrewMember{}, fmt.Errorf("crew member %s: %w", id, schedule.ErrNotFound)
	}
	if err != nil {
		return schedule.CrewMember{}, fmt.Errorf("failed to get crew member: %w", err)
	}
	return cm, nil
}

func (s *Store) ListCrew(ctx context.Context) ([]schedule.CrewMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listCrew(ctx, s.db)
}

func listCrew(ctx context.Context, db dbtx) ([]schedule.CrewMember, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, rank, seniority_rank, active FROM crew_members ORDER BY seniority_rank ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query crew: %w", err)
	}
	defer rows.Close()

	var roster []schedule.CrewMember
	for rows.Next() {
		var cm schedule.CrewMember
		if err := rows.Scan(&cm.ID, &cm.Rank, &cm.SeniorityRank, &cm.Active); err != nil {
			return nil, fmt.Errorf("failed to scan crew member: %w", err)
		}
		roster = append(roster, cm)
	}
	return roster, rows.Err()
}

// =============================================================================
// REQUESTS
// =============================================================================

func (s *Store) PutRequest(ctx context.Context, r schedule.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return putRequest(ctx, s.db, r)
}

func putRequest(ctx context.Context, db dbtx, r schedule.Request) error {
	query := `
		INSERT INTO requests
		(id, crew_member_id, rank, category, start_date, end_date, submitted_at, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			crew_member_id = excluded.crew_member_id,
			rank = excluded.rank,
			category = excluded.category,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			submitted_at = excluded.submitted_at,
			state = excluded.state,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.ExecContext(ctx, query,
		r.ID, r.CrewMemberID, r.Rank, r.Category,
		r.Span.Start.String(), r.Span.End.String(),
		r.SubmittedAt.UTC().Format(time.RFC3339),
		r.State, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}
	return nil
}

func (s *Store) GetRequest(ctx context.Context, id schedule.RequestID) (schedule.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getRequest(ctx, s.db, id)
}

func getRequest(ctx context.Context, db dbtx, id schedule.RequestID) (schedule.Request, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, crew_member_id, rank, category, start_date, end_date, submitted_at, state
		FROM requests WHERE id = ?`, id)

	r, err := scanRequest(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.Request{}, fmt.Errorf("request %s: %w", id, schedule.ErrNotFound)
	}
	return r, err
}

func (s *Store) ListRequests(ctx context.Context, filter schedule.RequestFilter) ([]schedule.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRequests(ctx, s.db, filter)
}

func listRequests(ctx context.Context, db dbtx, filter schedule.RequestFilter) ([]schedule.Request, error) {
	// Narrow by the indexed columns in SQL; RequestFilter.Matches applies
	// the remainder so memory and SQLite share one semantics.
	query := `
		SELECT id, crew_member_id, rank, category, start_date, end_date, submitted_at, state
		FROM requests WHERE 1=1`
	var args []any
	if filter.CrewMemberID != "" {
		query += " AND crew_member_id = ?"
		args = append(args, filter.CrewMemberID)
	}
	if filter.Rank != "" {
		query += " AND rank = ?"
		args = append(args, filter.Rank)
	}
	if filter.Overlapping != nil {
		query += " AND start_date <= ? AND end_date >= ?"
		args = append(args, filter.Overlapping.End.String(), filter.Overlapping.Start.String())
	}
	query += " ORDER BY id ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var result []schedule.Request
	for rows.Next() {
		r, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		if filter.Matches(r) {
			result = append(result, r)
		}
	}
	return result, rows.Err()
}

func scanRequest(scan func(...any) error) (schedule.Request, error) {
	var (
		r           schedule.Request
		startDate   string
		endDate     string
		submittedAt string
	)
	err := scan(&r.ID, &r.CrewMemberID, &r.Rank, &r.Category, &startDate, &endDate, &submittedAt, &r.State)
	if err != nil {
		return r, err
	}

	if r.Span.Start, err = schedule.ParseDate(startDate); err != nil {
		return r, fmt.Errorf("failed to parse start date: %w", err)
	}
	if r.Span.End, err = schedule.ParseDate(endDate); err != nil {
		return r, fmt.Errorf("failed to parse end date: %w", err)
	}
	if r.SubmittedAt, err = time.Parse(time.RFC3339, submittedAt); err != nil {
		return r, fmt.Errorf("failed to parse submission time: %w", err)
	}
	return r, nil
}

// =============================================================================
// RENEWALS
// =============================================================================

func (s *Store) PutRenewalItem(ctx context.Context, item schedule.RenewalItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return putRenewalItem(ctx, s.db, item)
}

func putRenewalItem(ctx context.Context, db dbtx, item schedule.RenewalItem) error {
	query := `
		INSERT INTO renewal_items (id, crew_member_id, category, earliest_valid, latest_valid, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			crew_member_id = excluded.crew_member_id,
			category = excluded.category,
			earliest_valid = excluded.earliest_valid,
			latest_valid = excluded.latest_valid
	`
	_, err := db.ExecContext(ctx, query,
		item.ID, item.CrewMemberID, item.Category,
		item.EarliestValid.String(), item.LatestValid.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save renewal item: %w", err)
	}
	return nil
}

func (s *Store) ListRenewalItems(ctx context.Context) ([]schedule.RenewalItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRenewalItems(ctx, s.db)
}

func listRenewalItems(ctx context.Context, db dbtx) ([]schedule.RenewalItem, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, crew_member_id, category, earliest_valid, latest_valid
		FROM renewal_items ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query renewal items: %w", err)
	}
	defer rows.Close()

	var items []schedule.RenewalItem
	for rows.Next() {
		var (
			item     schedule.RenewalItem
			earliest string
			latest   string
		)
		if err := rows.Scan(&item.ID, &item.CrewMemberID, &item.Category, &earliest, &latest); err != nil {
			return nil, fmt.Errorf("failed to scan renewal item: %w", err)
		}
		if item.EarliestValid, err = schedule.ParseDate(earliest); err != nil {
			return nil, fmt.Errorf("failed to parse earliest-valid date: %w", err)
		}
		if item.LatestValid, err = schedule.ParseDate(latest); err != nil {
			return nil, fmt.Errorf("failed to parse latest-valid date: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// =============================================================================
// CAPACITY
// =============================================================================

func (s *Store) SetCapacity(ctx context.Context, key schedule.CapacityKey, capacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setCapacity(ctx, s.db, key, capacity)
}

func setCapacity(ctx context.Context, db dbtx, key schedule.CapacityKey, capacity int) error {
	if capacity <= 0 {
		_, err := db.ExecContext(ctx,
			"DELETE FROM capacity_entries WHERE category = ? AND period_number = ? AND period_year = ?",
			key.Category, key.Period.Number, key.Period.Year)
		if err != nil {
			return fmt.Errorf("failed to clear capacity: %w", err)
		}
		return nil
	}

	query := `
		INSERT INTO capacity_entries (category, period_number, period_year, capacity, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(category, period_number, period_year) DO UPDATE SET
			capacity = excluded.capacity,
			updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query,
		key.Category, key.Period.Number, key.Period.Year, capacity,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save capacity: %w", err)
	}
	return nil
}

func (s *Store) LoadCapacity(ctx context.Context) (schedule.CapacityTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return loadCapacity(ctx, s.db)
}

func loadCapacity(ctx context.Context, db dbtx) (schedule.CapacityTable, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT category, period_number, period_year, capacity FROM capacity_entries")
	if err != nil {
		return nil, fmt.Errorf("failed to query capacity: %w", err)
	}
	defer rows.Close()

	table := make(schedule.CapacityTable)
	for rows.Next() {
		var (
			key      schedule.CapacityKey
			capacity int
		)
		if err := rows.Scan(&key.Category, &key.Period.Number, &key.Period.Year, &capacity); err != nil {
			return nil, fmt.Errorf("failed to scan capacity entry: %w", err)
		}
		table[key] = capacity
	}
	return table, rows.Err()
}

// =============================================================================
// ALLOCATION RUNS
// =============================================================================

func (s *Store) RecordAllocationRun(ctx context.Context, run schedule.AllocationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return recordAllocationRun(ctx, s.db, run)
}

func recordAllocationRun(ctx context.Context, db dbtx, run schedule.AllocationRun) error {
	// Period IDs are map keys; encode through their string form.
	assignments := make(map[string]string, len(run.Result.Assignments))
	for itemID, periodID := range run.Result.Assignments {
		assignments[string(itemID)] = periodID.String()
	}
	assignmentsJSON, err := json.Marshal(assignments)
	if err != nil {
		return fmt.Errorf("failed to encode assignments: %w", err)
	}

	unassignableJSON, err := json.Marshal(run.Result.Unassignable)
	if err != nil {
		return fmt.Errorf("failed to encode unassignable items: %w", err)
	}

	committed := make(map[string]int, len(run.Result.Committed))
	for key, count := range run.Result.Committed {
		committed[string(key.Category)+"/"+key.Period.String()] = count
	}
	committedJSON, err := json.Marshal(committed)
	if err != nil {
		return fmt.Errorf("failed to encode committed counts: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO allocation_runs (id, ran_at, assignments_json, unassignable_json, committed_json)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.RanAt.UTC().Format(time.RFC3339),
		string(assignmentsJSON), string(unassignableJSON), string(committedJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to record allocation run: %w", err)
	}
	return nil
}

func (s *Store) ListAllocationRuns(ctx context.Context, limit int) ([]schedule.AllocationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listAllocationRuns(ctx, s.db, limit)
}

func listAllocationRuns(ctx context.Context, db dbtx, limit int) ([]schedule.AllocationRun, error) {
	query := `
		SELECT id, ran_at, assignments_json, unassignable_json, committed_json
		FROM allocation_runs ORDER BY ran_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocation runs: %w", err)
	}
	defer rows.Close()

	var runs []schedule.AllocationRun
	for rows.Next() {
		run, err := scanAllocationRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanAllocationRun(rows *sql.Rows) (schedule.AllocationRun, error) {
	var (
		run              schedule.AllocationRun
		ranAt            string
		assignmentsJSON  string
		unassignableJSON string
		committedJSON    string
	)
	if err := rows.Scan(&run.ID, &ranAt, &assignmentsJSON, &unassignableJSON, &committedJSON); err != nil {
		return run, fmt.Errorf("failed to scan allocation run: %w", err)
	}

	t, err := time.Parse(time.RFC3339, ranAt)
	if err != nil {
		return run, fmt.Errorf("failed to parse run time: %w", err)
	}
	run.RanAt = t

	var assignments map[string]string
	if err := json.Unmarshal([]byte(assignmentsJSON), &assignments); err != nil {
		return run, fmt.Errorf("failed to decode assignments: %w", err)
	}
	run.Result.Assignments = make(map[schedule.RenewalItemID]schedule.PeriodID, len(assignments))
	for itemID, periodStr := range assignments {
		periodID, err := schedule.ParsePeriodID(periodStr)
		if err != nil {
			return run, fmt.Errorf("failed to decode assignment period: %w", err)
		}
		run.Result.Assignments[schedule.RenewalItemID(itemID)] = periodID
	}

	if err := json.Unmarshal([]byte(unassignableJSON), &run.Result.Unassignable); err != nil {
		return run, fmt.Errorf("failed to decode unassignable items: %w", err)
	}

	var committed map[string]int
	if err := json.Unmarshal([]byte(committedJSON), &committed); err != nil {
		return run, fmt.Errorf("failed to decode committed counts: %w", err)
	}
	run.Result.Committed = make(map[schedule.CapacityKey]int, len(committed))
	for encoded, count := range committed {
		category, periodStr, ok := strings.Cut(encoded, "/")
		if !ok {
			return run, fmt.Errorf("failed to decode committed key %q", encoded)
		}
		periodID, err := schedule.ParsePeriodID(periodStr)
		if err != nil {
			return run, fmt.Errorf("failed to decode committed key %q: %w", encoded, err)
		}
		key := schedule.CapacityKey{Category: schedule.RenewalCategory(category), Period: periodID}
		run.Result.Committed[key] = count
	}

	return run, nil
}

// =============================================================================
// TRANSACTIONAL STORE (schedule.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(schedule.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore routes every Store call through one *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) PutCrewMember(ctx context.Context, cm schedule.CrewMember) error {
	return putCrewMember(ctx, ts.tx, cm)
}

func (ts *txStore) GetCrewMember(ctx context.Context, id schedule.CrewMemberID) (schedule.CrewMember, error) {
	return getCrewMember(ctx, ts.tx, id)
}

func (ts *txStore) ListCrew(ctx context.Context) ([]schedule.CrewMember, error) {
	return listCrew(ctx, ts.tx)
}

func (ts *txStore) PutRequest(ctx context.Context, r schedule.Request) error {
	return putRequest(ctx, ts.tx, r)
}

func (ts *txStore) GetRequest(ctx context.Context, id schedule.RequestID) (schedule.Request, error) {
	return getRequest(ctx, ts.tx, id)
}

func (ts *txStore) ListRequests(ctx context.Context, filter schedule.RequestFilter) ([]schedule.Request, error) {
	return listRequests(ctx, ts.tx, filter)
}

func (ts *txStore) PutRenewalItem(ctx context.Context, item schedule.RenewalItem) error {
	return putRenewalItem(ctx, ts.tx, item)
}

func (ts *txStore) ListRenewalItems(ctx context.Context) ([]schedule.RenewalItem, error) {
	return listRenewalItems(ctx, ts.tx)
}

func (ts *txStore) SetCapacity(ctx context.Context, key schedule.CapacityKey, capacity int) error {
	return setCapacity(ctx, ts.tx, key, capacity)
}

func (ts *txStore) LoadCapacity(ctx context.Context) (schedule.CapacityTable, error) {
	return loadCapacity(ctx, ts.tx)
}

func (ts *txStore) RecordAllocationRun(ctx context.Context, run schedule.AllocationRun) error {
	return recordAllocationRun(ctx, ts.tx, run)
}

func (ts *txStore) ListAllocationRuns(ctx context.Context, limit int) ([]schedule.AllocationRun, error) {
	return listAllocationRuns(ctx, ts.tx, limit)
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Reset clears all data. Test helper; never reachable from handlers.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"crew_members", "requests", "renewal_items", "capacity_entries", "allocation_runs"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}
