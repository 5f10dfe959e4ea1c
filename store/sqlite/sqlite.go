/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements the full timeclock.Store surface (events, pay rates, users,
  vacations, change log) using SQLite. The same patterns apply to
  PostgreSQL with minor dialect differences.

MUTATION CONTRACT:
  - Events: insert, approval-flag update, explicit admin delete. Nothing else.
  - Pay rates: insert only; immutable once created.
  - Change log: insert only; write-once audit rows.
  Each mutation is a single statement, so no operation can leave the
  store partially written.

KEY TABLES:
  events:            Clock events and timepunch requests
  pay_rates:         Per-user hourly rates with effective dates
  users:             Employee records
  vacation_requests: Supervisor-reviewed time off
  change_log:        Append-only profile-edit audit

INDEXES:
  - idx_events_user_time: Timeline queries (hot path)
  - idx_events_pending:   Review queues
  - idx_rates_user_start: Rate resolution
  - idx_users_email:      Unique, lowercase-normalized lookup

WAL MODE:
  SQLite is opened with WAL for better concurrency: multiple readers
  don't block and crash recovery is cleaner.

USAGE:
  db, err := sqlite.New("./data/timeclock.db")
  if err != nil {
      log.Fatal(err)
  }
  defer db.Close()

SEE ALSO:
  - timeclock/store.go: Interface definitions
  - timeclock/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/timeclock-engine/timeclock"
)

// Store implements timeclock.Store using SQLite.
type Store struct {
	db *sql.DB
}

// Compile-time check against the full store surface.
var _ timeclock.Store = (*Store)(nil)

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

// Reset wipes all data. Used by demo scenario loaders; never called by
// the engine itself.
func (s *Store) Reset(ctx context.Context) error {
	// Child tables first so foreign keys hold throughout.
	for _, table := range []string{"change_log", "vacation_requests", "pay_rates", "events", "users"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		division TEXT NOT NULL DEFAULT '',
		tag TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'User',
		supervisor_id TEXT REFERENCES users(id),
		is_supervisor BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		clocked_in BOOLEAN NOT NULL DEFAULT FALSE,
		budget_code TEXT NOT NULL DEFAULT '',
		object_code TEXT NOT NULL DEFAULT '',
		object_name TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);
	CREATE INDEX IF NOT EXISTS idx_users_tag ON users(tag);
	CREATE INDEX IF NOT EXISTS idx_users_division ON users(division);
	CREATE INDEX IF NOT EXISTS idx_users_supervisor ON users(supervisor_id)
		WHERE supervisor_id IS NOT NULL;

	-- Clock events and timepunch requests. The only in-place mutation is
	-- the approval flag transition.
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		time TEXT NOT NULL,
		direction TEXT NOT NULL CHECK (direction IN ('in', 'out')),
		note TEXT NOT NULL DEFAULT '',
		ip TEXT NOT NULL DEFAULT '',
		approved BOOLEAN NOT NULL DEFAULT FALSE,
		pending BOOLEAN NOT NULL DEFAULT FALSE,
		timepunch_request BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_user_time ON events(user_id, time);
	CREATE INDEX IF NOT EXISTS idx_events_time ON events(time);
	CREATE INDEX IF NOT EXISTS idx_events_pending ON events(pending)
		WHERE pending = TRUE;

	-- Pay rates: insert-only, immutable once created.
	CREATE TABLE IF NOT EXISTS pay_rates (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		rate TEXT NOT NULL,
		start TEXT NOT NULL,
		"end" TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rates_user_start ON pay_rates(user_id, start);

	CREATE TABLE IF NOT EXISTS vacation_requests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		start TEXT NOT NULL,
		"end" TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		approved BOOLEAN NOT NULL DEFAULT FALSE,
		pending BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_vacations_user ON vacation_requests(user_id);
	CREATE INDEX IF NOT EXISTS idx_vacations_pending ON vacation_requests(pending)
		WHERE pending = TRUE;

	-- Append-only profile-edit audit rows. No UPDATE, no DELETE.
	CREATE TABLE IF NOT EXISTS change_log (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		field TEXT NOT NULL,
		old TEXT NOT NULL DEFAULT '',
		new TEXT NOT NULL DEFAULT '',
		changed_by TEXT NOT NULL,
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_change_log_user ON change_log(user_id, timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EVENT STORE
// =============================================================================

func (s *Store) SaveEvent(ctx context.Context, e timeclock.Event) error {
	query := `
		INSERT INTO events
		(id, user_id, time, direction, note, ip, approved, pending, timepunch_request, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.UserID, formatTime(e.Time), e.Direction, e.Note, e.IP,
		e.Approved, e.Pending, e.TimepunchRequest, formatTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	return nil
}

func (s *Store) EventByID(ctx context.Context, id timeclock.EventID) (*timeclock.Event, error) {
	row := s.db.QueryRowContext(ctx, selectEvents+" WHERE id = ?", id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, timeclock.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) FindEvents(ctx context.Context, q timeclock.EventQuery) ([]timeclock.Event, error) {
	if q.UserIDs != nil && len(q.UserIDs) == 0 {
		return []timeclock.Event{}, nil
	}

	var (
		conditions []string
		args       []any
	)
	if q.UserIDs != nil {
		placeholders := make([]string, len(q.UserIDs))
		for i, id := range q.UserIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		conditions = append(conditions, "user_id IN ("+strings.Join(placeholders, ", ")+")")
	}
	if q.From != nil {
		conditions = append(conditions, "time >= ?")
		args = append(args, formatTime(*q.From))
	}
	if q.To != nil {
		conditions = append(conditions, "time < ?")
		args = append(args, formatTime(*q.To))
	}
	if q.ApprovedOnly {
		conditions = append(conditions, "approved = TRUE AND pending = FALSE")
	}
	if q.PendingOnly {
		conditions = append(conditions, "pending = TRUE")
	}
	if q.Timepunches {
		conditions = append(conditions, "timepunch_request = TRUE")
	}

	query := selectEvents
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY time"
	if q.Descending {
		query += " DESC"
	} else {
		query += " ASC"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []timeclock.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *Store) LastEvent(ctx context.Context, userID timeclock.UserID) (*timeclock.Event, error) {
	row := s.db.QueryRowContext(ctx,
		selectEvents+" WHERE user_id = ? ORDER BY time DESC LIMIT 1", userID)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) UpdateApproval(ctx context.Context, id timeclock.EventID, approved bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE events SET approved = ?, pending = FALSE WHERE id = ?", approved, id)
	if err != nil {
		return fmt.Errorf("failed to update approval: %w", err)
	}
	return checkAffected(result)
}

func (s *Store) DeleteEvent(ctx context.Context, id timeclock.EventID) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return checkAffected(result)
}

const selectEvents = `
	SELECT id, user_id, time, direction, note, ip, approved, pending, timepunch_request, created_at
	FROM events`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (timeclock.Event, error) {
	var (
		e         timeclock.Event
		eventTime string
		createdAt string
	)
	err := row.Scan(&e.ID, &e.UserID, &eventTime, &e.Direction, &e.Note, &e.IP,
		&e.Approved, &e.Pending, &e.TimepunchRequest, &createdAt)
	if err != nil {
		return e, err
	}
	e.Time = parseTime(eventTime)
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}

// =============================================================================
// PAY RATE STORE
// =============================================================================

func (s *Store) SavePayRate(ctx context.Context, r timeclock.PayRate) error {
	query := `
		INSERT INTO pay_rates (id, user_id, rate, start, "end", created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	var end any
	if r.End != nil {
		end = formatTime(*r.End)
	}
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.UserID, r.Rate.String(), formatTime(r.Start), end, formatTime(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save pay rate: %w", err)
	}
	return nil
}

func (s *Store) PayRatesByUser(ctx context.Context, userID timeclock.UserID) ([]timeclock.PayRate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, rate, start, "end", created_at
		FROM pay_rates WHERE user_id = ? ORDER BY start ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pay rates: %w", err)
	}
	defer rows.Close()

	rates := []timeclock.PayRate{}
	for rows.Next() {
		var (
			r         timeclock.PayRate
			rate      string
			start     string
			end       sql.NullString
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &rate, &start, &end, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan pay rate: %w", err)
		}
		r.Rate, err = decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("corrupt rate value %q: %w", rate, err)
		}
		r.Start = parseTime(start)
		if end.Valid {
			t := parseTime(end.String)
			r.End = &t
		}
		r.CreatedAt = parseTime(createdAt)
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

// =============================================================================
// USER STORE
// =============================================================================

func (s *Store) SaveUser(ctx context.Context, u timeclock.User) error {
	query := `
		INSERT INTO users
		(id, email, first_name, last_name, division, tag, role, supervisor_id,
		 is_supervisor, is_active, clocked_in, budget_code, object_code, object_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Email, u.FirstName, u.LastName, u.Division, u.Tag, u.Role,
		nullUserID(u.SupervisorID), u.IsSupervisor, u.IsActive, u.ClockedIn,
		u.BudgetCode, u.ObjectCode, u.ObjectName, formatTime(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u timeclock.User) error {
	query := `
		UPDATE users SET
			email = ?, first_name = ?, last_name = ?, division = ?, tag = ?,
			role = ?, supervisor_id = ?, is_supervisor = ?, is_active = ?,
			budget_code = ?, object_code = ?, object_name = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		u.Email, u.FirstName, u.LastName, u.Division, u.Tag, u.Role,
		nullUserID(u.SupervisorID), u.IsSupervisor, u.IsActive,
		u.BudgetCode, u.ObjectCode, u.ObjectName, u.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return checkAffected(result)
}

func (s *Store) UserByID(ctx context.Context, id timeclock.UserID) (*timeclock.User, error) {
	return s.userBy(ctx, "id = ?", id)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*timeclock.User, error) {
	return s.userBy(ctx, "email = ?", timeclock.NormalizeEmail(email))
}

func (s *Store) userBy(ctx context.Context, condition string, arg any) (*timeclock.User, error) {
	row := s.db.QueryRowContext(ctx, selectUsers+" WHERE "+condition, arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, timeclock.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) UsersByTag(ctx context.Context, tag timeclock.Tag) ([]timeclock.User, error) {
	return s.usersWhere(ctx, "tag = ?", tag)
}

func (s *Store) UsersByDivision(ctx context.Context, division string) ([]timeclock.User, error) {
	return s.usersWhere(ctx, "division = ?", division)
}

func (s *Store) UsersSupervisedBy(ctx context.Context, supervisorID timeclock.UserID) ([]timeclock.User, error) {
	return s.usersWhere(ctx, "supervisor_id = ?", supervisorID)
}

func (s *Store) ClockedInUsers(ctx context.Context) ([]timeclock.User, error) {
	return s.usersWhere(ctx, "clocked_in = ?", true)
}

func (s *Store) SetClockedIn(ctx context.Context, id timeclock.UserID, clockedIn bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET clocked_in = ? WHERE id = ?", clockedIn, id)
	if err != nil {
		return fmt.Errorf("failed to set clocked-in flag: %w", err)
	}
	return checkAffected(result)
}

func (s *Store) usersWhere(ctx context.Context, condition string, arg any) ([]timeclock.User, error) {
	rows, err := s.db.QueryContext(ctx, selectUsers+" WHERE "+condition+" ORDER BY email ASC", arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []timeclock.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const selectUsers = `
	SELECT id, email, first_name, last_name, division, tag, role, supervisor_id,
	       is_supervisor, is_active, clocked_in, budget_code, object_code, object_name, created_at
	FROM users`

func scanUser(row rowScanner) (timeclock.User, error) {
	var (
		u            timeclock.User
		supervisorID sql.NullString
		createdAt    string
	)
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Division, &u.Tag,
		&u.Role, &supervisorID, &u.IsSupervisor, &u.IsActive, &u.ClockedIn,
		&u.BudgetCode, &u.ObjectCode, &u.ObjectName, &createdAt)
	if err != nil {
		return u, err
	}
	if supervisorID.Valid {
		id := timeclock.UserID(supervisorID.String)
		u.SupervisorID = &id
	}
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}

// =============================================================================
// VACATION STORE
// =============================================================================

func (s *Store) SaveVacation(ctx context.Context, v timeclock.VacationRequest) error {
	query := `
		INSERT INTO vacation_requests (id, user_id, start, "end", reason, approved, pending, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		v.ID, v.UserID, formatTime(v.Start), formatTime(v.End), v.Reason,
		v.Approved, v.Pending, formatTime(v.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save vacation request: %w", err)
	}
	return nil
}

func (s *Store) VacationByID(ctx context.Context, id timeclock.VacationID) (*timeclock.VacationRequest, error) {
	row := s.db.QueryRowContext(ctx, selectVacations+" WHERE id = ?", id)
	v, err := scanVacation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, timeclock.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Store) PendingVacations(ctx context.Context, userIDs []timeclock.UserID) ([]timeclock.VacationRequest, error) {
	if len(userIDs) == 0 {
		return []timeclock.VacationRequest{}, nil
	}

	placeholders := make([]string, len(userIDs))
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := selectVacations + " WHERE pending = TRUE AND user_id IN (" +
		strings.Join(placeholders, ", ") + ") ORDER BY created_at ASC"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vacation requests: %w", err)
	}
	defer rows.Close()

	requests := []timeclock.VacationRequest{}
	for rows.Next() {
		v, err := scanVacation(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, v)
	}
	return requests, rows.Err()
}

func (s *Store) UpdateVacationApproval(ctx context.Context, id timeclock.VacationID, approved bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE vacation_requests SET approved = ?, pending = FALSE WHERE id = ?", approved, id)
	if err != nil {
		return fmt.Errorf("failed to update vacation approval: %w", err)
	}
	return checkAffected(result)
}

const selectVacations = `
	SELECT id, user_id, start, "end", reason, approved, pending, created_at
	FROM vacation_requests`

func scanVacation(row rowScanner) (timeclock.VacationRequest, error) {
	var (
		v         timeclock.VacationRequest
		start     string
		end       string
		createdAt string
	)
	err := row.Scan(&v.ID, &v.UserID, &start, &end, &v.Reason, &v.Approved, &v.Pending, &createdAt)
	if err != nil {
		return v, err
	}
	v.Start = parseTime(start)
	v.End = parseTime(end)
	v.CreatedAt = parseTime(createdAt)
	return v, nil
}

// =============================================================================
// CHANGE LOG STORE
// =============================================================================

func (s *Store) AppendChange(ctx context.Context, entry timeclock.ChangeEntry) error {
	query := `
		INSERT INTO change_log (id, user_id, field, old, new, changed_by, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.Field, entry.Old, entry.New,
		entry.ChangedBy, formatTime(entry.Timestamp))
	if err != nil {
		return fmt.Errorf("failed to append change entry: %w", err)
	}
	return nil
}

func (s *Store) ChangesForUser(ctx context.Context, userID timeclock.UserID) ([]timeclock.ChangeEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, field, old, new, changed_by, timestamp
		FROM change_log WHERE user_id = ? ORDER BY timestamp DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query change log: %w", err)
	}
	defer rows.Close()

	entries := []timeclock.ChangeEntry{}
	for rows.Next() {
		var (
			e  timeclock.ChangeEntry
			ts string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Field, &e.Old, &e.New, &e.ChangedBy, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan change entry: %w", err)
		}
		e.Timestamp = parseTime(ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

// formatTime stores UTC RFC3339 at second precision so the TEXT column
// sorts and range-compares chronologically.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func nullUserID(id *timeclock.UserID) any {
	if id == nil {
		return nil
	}
	return *id
}

func checkAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return timeclock.ErrNotFound
	}
	return nil
}
