package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/neomorfeo/hexgen/internal/domain"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// Compile-time check: RunRepository implements domain.RunRepository.
var _ domain.RunRepository = (*RunRepository)(nil)

// RunRepository implements domain.RunRepository using SQLite.
type RunRepository struct {
	db *sql.DB
}

// New opens a SQLite database, runs migrations, and returns a ready repository.
func New(dataSourceName string) (*RunRepository, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	repo, err := NewFromDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// NewFromDB wraps an existing database connection, runs migrations, and returns a ready repository.
// Use this when the *sql.DB has been pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*RunRepository, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &RunRepository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *RunRepository) Close() error {
	return r.db.Close()
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const timeFormat = "2006-01-02T15:04:05Z"

const selectColumns = `SELECT id, kind, count, path, seed, workers, memory, status, error,
	lines, sum, avg, parallel_ms, serial_ms, created_at, updated_at FROM runs`

func (r *RunRepository) Create(ctx context.Context, run domain.Run) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, count, path, seed, workers, memory, status, error,
			lines, sum, avg, parallel_ms, serial_ms, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Kind), run.Count, run.Path, seedValue(run.Seed),
		run.Workers, run.Memory, string(run.Status), run.Error,
		run.Lines, run.Sum.String(), run.Avg.String(), run.ParallelMS, run.SerialMS,
		run.CreatedAt.Format(timeFormat),
		run.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

func (r *RunRepository) GetByID(ctx context.Context, id string) (domain.Run, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Run{}, domain.ErrRunNotFound
	}
	return run, err
}

func (r *RunRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Run, error) {
	query := selectColumns + ` WHERE 1 = 1`
	var args []any

	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*filter.Status))
	}

	if filter.Kind != nil {
		query += ` AND kind = ?`
		args = append(args, string(*filter.Kind))
	}

	query += ` ORDER BY created_at DESC, id DESC`

	// SQLite only accepts OFFSET after a LIMIT; -1 means no limit.
	limit := -1
	if filter.Limit > 0 {
		limit = filter.Limit
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (r *RunRepository) Update(ctx context.Context, run domain.Run) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, lines = ?, sum = ?, avg = ?,
			parallel_ms = ?, serial_ms = ?, updated_at = ?
		 WHERE id = ?`,
		string(run.Status), run.Error, run.Lines, run.Sum.String(), run.Avg.String(),
		run.ParallelMS, run.SerialMS,
		time.Now().UTC().Format(timeFormat), run.ID,
	)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrRunNotFound
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (domain.Run, error) {
	var run domain.Run
	var kind, status, sum, avg, createdAt, updatedAt string
	var seed sql.NullString

	err := s.Scan(&run.ID, &kind, &run.Count, &run.Path, &seed, &run.Workers, &run.Memory,
		&status, &run.Error, &run.Lines, &sum, &avg, &run.ParallelMS, &run.SerialMS,
		&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Run{}, err
		}
		return domain.Run{}, fmt.Errorf("scanning run: %w", err)
	}

	run.Kind = domain.Kind(kind)
	run.Status = domain.Status(status)

	if seed.Valid {
		v, err := strconv.ParseUint(seed.String, 10, 64)
		if err != nil {
			return domain.Run{}, fmt.Errorf("parsing seed of run %s: %w", run.ID, err)
		}
		run.Seed = &v
	}
	if run.Sum, err = domain.ParseUint128(sum); err != nil {
		return domain.Run{}, fmt.Errorf("parsing sum of run %s: %w", run.ID, err)
	}
	if run.Avg, err = domain.ParseUint128(avg); err != nil {
		return domain.Run{}, fmt.Errorf("parsing avg of run %s: %w", run.ID, err)
	}

	run.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	run.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return run, nil
}

// seedValue stores seeds as decimal text; database/sql rejects uint64
// values with the high bit set.
func seedValue(seed *uint64) any {
	if seed == nil {
		return nil
	}
	return strconv.FormatUint(*seed, 10)
}
