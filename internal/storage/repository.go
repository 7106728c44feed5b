package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"timesheet/internal/core"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db *sql.DB
}

// EventRecord is one processed change event in the audit trail.
type EventRecord struct {
	ID          int64
	Type        string
	EntryID     string
	UserID      string
	EntryDate   string
	OccurredAt  time.Time
	ProcessedAt time.Time
	SheetRef    string
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations before the pool opens its first connection
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const entryColumns = `id, user_id, date, start_time, end_time, main_category_id,
	sub_category_id, description, duration_minutes, created_at, updated_at`

// List implements repo.EntryRepository. Rows come back in insertion order.
func (r *SQLiteRepository) List(ctx context.Context) ([]core.TimeEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM time_entries ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	out := make([]core.TimeEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

// Get implements repo.EntryRepository
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.TimeEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM time_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.TimeEntry{}, core.ErrEntryNotFound
	}
	return e, err
}

// Add implements repo.EntryRepository
func (r *SQLiteRepository) Add(ctx context.Context, e core.TimeEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO time_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Date, e.StartTime, e.EndTime, e.MainCategoryID,
		e.SubCategoryID, e.Description, e.Duration,
		e.CreatedAt.UTC().Format(timeLayout), e.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	slog.DebugContext(ctx, "Entry saved to SQLite",
		"id", e.ID,
		"user_id", e.UserID,
		"date", e.Date,
		"duration", e.Duration)
	return nil
}

// Update implements repo.EntryRepository. The owner and creation time of a
// stored row are never rewritten.
func (r *SQLiteRepository) Update(ctx context.Context, e core.TimeEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE time_entries SET
			date = ?, start_time = ?, end_time = ?, main_category_id = ?,
			sub_category_id = ?, description = ?, duration_minutes = ?, updated_at = ?
		WHERE id = ?`,
		e.Date, e.StartTime, e.EndTime, e.MainCategoryID, e.SubCategoryID,
		e.Description, e.Duration, e.UpdatedAt.UTC().Format(timeLayout), e.ID)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return requireOneRow(res)
}

// Delete implements repo.EntryRepository
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return requireOneRow(res)
}

// Taxonomy implements repo.TaxonomyReader. Categories are managed by
// migrations only.
func (r *SQLiteRepository) Taxonomy(ctx context.Context) (core.Taxonomy, error) {
	tax := core.Taxonomy{
		Mains: make([]core.MainCategory, 0),
		Subs:  make([]core.SubCategory, 0),
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, name, is_leave FROM main_categories ORDER BY sort_order`)
	if err != nil {
		return tax, fmt.Errorf("get main categories: %w", err)
	}
	for rows.Next() {
		var m core.MainCategory
		if err := rows.Scan(&m.ID, &m.Name, &m.IsLeave); err != nil {
			rows.Close()
			return tax, fmt.Errorf("scan main category: %w", err)
		}
		tax.Mains = append(tax.Mains, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return tax, fmt.Errorf("iterate main categories: %w", err)
	}

	rows, err = r.db.QueryContext(ctx, `SELECT id, name, main_category_id, is_leave FROM sub_categories ORDER BY sort_order`)
	if err != nil {
		return tax, fmt.Errorf("get sub categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s core.SubCategory
		if err := rows.Scan(&s.ID, &s.Name, &s.MainCategoryID, &s.IsLeave); err != nil {
			return tax, fmt.Errorf("scan sub category: %w", err)
		}
		tax.Subs = append(tax.Subs, s)
	}
	if err := rows.Err(); err != nil {
		return tax, fmt.Errorf("iterate sub categories: %w", err)
	}
	return tax, nil
}

// RecordEvent appends a processed change event to the audit trail.
func (r *SQLiteRepository) RecordEvent(ctx context.Context, ev EventRecord) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO entry_events
			(event_type, entry_id, user_id, entry_date, occurred_at, processed_at, sheet_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.Type, ev.EntryID, ev.UserID, ev.EntryDate,
		ev.OccurredAt.UTC().Format(timeLayout), ev.ProcessedAt.UTC().Format(timeLayout), ev.SheetRef)
	if err != nil {
		return 0, fmt.Errorf("insert entry event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("entry event id: %w", err)
	}
	slog.InfoContext(ctx, "Entry event recorded", "id", id, "type", ev.Type, "entry_id", ev.EntryID)
	return id, nil
}

// ListEvents returns the audit trail of one entry, oldest first. An empty
// entryID lists every event.
func (r *SQLiteRepository) ListEvents(ctx context.Context, entryID string) ([]EventRecord, error) {
	query := `SELECT id, event_type, entry_id, user_id, entry_date, occurred_at, processed_at, sheet_ref
		FROM entry_events`
	var args []any
	if entryID != "" {
		query += ` WHERE entry_id = ?`
		args = append(args, entryID)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entry events: %w", err)
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var (
			ev                  EventRecord
			occurred, processed string
		)
		if err := rows.Scan(&ev.ID, &ev.Type, &ev.EntryID, &ev.UserID, &ev.EntryDate,
			&occurred, &processed, &ev.SheetRef); err != nil {
			return nil, fmt.Errorf("scan entry event: %w", err)
		}
		if ev.OccurredAt, err = time.Parse(timeLayout, occurred); err != nil {
			return nil, fmt.Errorf("parse occurred_at: %w", err)
		}
		if ev.ProcessedAt, err = time.Parse(timeLayout, processed); err != nil {
			return nil, fmt.Errorf("parse processed_at: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (core.TimeEntry, error) {
	var (
		e                core.TimeEntry
		created, updated string
	)
	err := s.Scan(&e.ID, &e.UserID, &e.Date, &e.StartTime, &e.EndTime,
		&e.MainCategoryID, &e.SubCategoryID, &e.Description, &e.Duration,
		&created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return e, err
	}
	if err != nil {
		return e, fmt.Errorf("scan entry: %w", err)
	}
	if e.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return e, fmt.Errorf("parse created_at: %w", err)
	}
	if e.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return e, fmt.Errorf("parse updated_at: %w", err)
	}
	return e, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrEntryNotFound
	}
	return nil
}
