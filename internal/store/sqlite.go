package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// timeLayout is fixed width so created_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteRunStore implements RunStore using SQLite for persistence.
type SQLiteRunStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// NewSQLiteRunStore opens (creating if needed) the run database at dbPath.
func NewSQLiteRunStore(dbPath string) (*SQLiteRunStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRunStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteRunStore) Path() string {
	return s.dbPath
}

const insertRun = `
INSERT INTO runs (
    id, algorithm, created_at, source, input_hash,
    burst_weight, priority_weight, rr_quantum,
    process_count, avg_turnaround, avg_waiting, avg_response, makespan,
    result_json
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectRun = `
SELECT id, algorithm, created_at, source, input_hash,
       burst_weight, priority_weight, rr_quantum,
       process_count, avg_turnaround, avg_waiting, avg_response, makespan,
       result_json
FROM runs`

// SaveRun stores a run.
func (s *SQLiteRunStore) SaveRun(ctx context.Context, run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fillDefaults(&run)
	if err := insertRunRow(ctx, s.db, "", run); err != nil {
		return "", err
	}
	return run.ID, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRunRow(ctx context.Context, db execer, verb string, run Run) error {
	query := insertRun
	if verb != "" {
		query = strings.Replace(query, "INSERT", verb, 1)
	}
	res, err := db.ExecContext(ctx, query,
		run.ID, run.Algorithm, run.CreatedAt.UTC().Format(timeLayout), nullString(run.Source), run.InputHash,
		run.BurstWeight, run.PriorityWeight, run.RRQuantum,
		run.ProcessCount, run.AvgTurnaround, run.AvgWaiting, run.AvgResponse, run.Makespan,
		string(run.Result),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}
	if verb == "" {
		return nil
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errSkipped
	}
	return nil
}

var errSkipped = errors.New("skipped")

// GetRun retrieves a run by ID.
func (s *SQLiteRunStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return &run, nil
}

// ListRuns returns runs matching filter, newest first.
func (s *SQLiteRunStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if filter.Algorithm != "" {
		where = append(where, "algorithm = ?")
		args = append(args, filter.Algorithm)
	}
	if filter.InputHash != "" {
		where = append(where, "input_hash = ?")
		args = append(args, filter.InputHash)
	}

	query := selectRun
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run by ID.
func (s *SQLiteRunStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// ImportRuns inserts runs in one transaction, skipping IDs already present.
func (s *SQLiteRunStore) ImportRuns(ctx context.Context, runs []Run) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, run := range runs {
		fillDefaults(&run)
		err := insertRunRow(ctx, tx, "INSERT OR IGNORE", run)
		if errors.Is(err, errSkipped) {
			continue
		}
		if err != nil {
			return 0, err
		}
		added++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return added, nil
}

// ExportJSONL writes all runs to path as JSON lines and returns the count.
func (s *SQLiteRunStore) ExportJSONL(ctx context.Context, path string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create export file: %w", err)
	}
	n, err := WriteJSONL(ctx, s, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close export file: %w", cerr)
	}
	return n, err
}

// Close closes the database.
func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run       Run
		createdAt string
		source    sql.NullString
		result    string
	)
	err := row.Scan(
		&run.ID, &run.Algorithm, &createdAt, &source, &run.InputHash,
		&run.BurstWeight, &run.PriorityWeight, &run.RRQuantum,
		&run.ProcessCount, &run.AvgTurnaround, &run.AvgWaiting, &run.AvgResponse, &run.Makespan,
		&result,
	)
	if err != nil {
		return Run{}, err
	}
	run.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	run.Source = source.String
	run.Result = []byte(result)
	return run, nil
}

func fillDefaults(run *Run) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	if len(run.Result) == 0 {
		run.Result = []byte("null")
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
