// Package sqlite stores ledger entries in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"kakeibo/internal/core"
)

const (
	selectColumns = `SELECT id, date, category, kind, amount, memo, created_at FROM entries`
	orderBy       = ` ORDER BY date, created_at, id`

	// createdAtLayout is fixed-width so that text order is time order.
	createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

type Repository struct {
	db *sql.DB
}

// NewRepository opens (creating if needed) the database at dbPath and runs
// migrations.
func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Single writer: SQLite serializes writes anyway and this avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) ListEntries(ctx context.Context) ([]core.Entry, error) {
	return r.query(ctx, selectColumns+orderBy)
}

func (r *Repository) ListMonth(ctx context.Context, month core.Month) ([]core.Entry, error) {
	return r.query(ctx, selectColumns+` WHERE date BETWEEN ? AND ?`+orderBy,
		month.First().String(), month.Last().String())
}

func (r *Repository) GetEntry(ctx context.Context, id uuid.UUID) (core.Entry, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id.String())
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, core.ErrNotFound
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry %s: %w", id, err)
	}
	return e, nil
}

func (r *Repository) AddEntry(ctx context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return r.mutate(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO entries (id, date, category, kind, amount, memo, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID.String(), e.Date.String(), string(e.Category), string(e.Kind),
			e.Amount.Int64(), e.Memo, e.CreatedAt.UTC().Format(createdAtLayout))
		if err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
		slog.DebugContext(ctx, "Entry saved to SQLite",
			"entry_id", e.ID, "date", e.Date.String(), "category", e.Category, "amount", e.Amount.Int64())
		return nil
	})
}

func (r *Repository) UpdateEntry(ctx context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return r.mutate(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE entries SET date = ?, category = ?, kind = ?, amount = ?, memo = ? WHERE id = ?`,
			e.Date.String(), string(e.Category), string(e.Kind), e.Amount.Int64(), e.Memo, e.ID.String())
		if err != nil {
			return fmt.Errorf("update entry: %w", err)
		}
		return mustAffect(res)
	})
}

func (r *Repository) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	return r.mutate(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id.String())
		if err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
		return mustAffect(res)
	})
}

// Version returns the mutation counter kept in ledger_meta.
func (r *Repository) Version(ctx context.Context) (uint64, error) {
	var v int64
	if err := r.db.QueryRowContext(ctx, `SELECT version FROM ledger_meta WHERE id = 1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read ledger version: %w", err)
	}
	return uint64(v), nil
}

// mutate runs fn and bumps the ledger version in one transaction.
func (r *Repository) mutate(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE ledger_meta SET version = version + 1 WHERE id = 1`); err != nil {
		return fmt.Errorf("bump ledger version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) query(ctx context.Context, q string, args ...any) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	out := make([]core.Entry, 0)
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

type scanner interface {
	Scan(dest ...any) error
}

// scanEntry converts a row and re-validates it, so a hand-edited database
// cannot feed an unknown category into the aggregator.
func scanEntry(s scanner) (core.Entry, error) {
	var (
		id, date, category, kind, memo, createdAt string
		amount                                    int64
	)
	if err := s.Scan(&id, &date, &category, &kind, &amount, &memo, &createdAt); err != nil {
		return core.Entry{}, err
	}

	var e core.Entry
	var err error
	if e.ID, err = uuid.Parse(id); err != nil {
		return core.Entry{}, fmt.Errorf("entry id %q: %w", id, err)
	}
	if e.Date, err = core.ParseDate(date); err != nil {
		return core.Entry{}, fmt.Errorf("entry %s: %w", id, err)
	}
	if e.Category, err = core.ParseCategory(category); err != nil {
		return core.Entry{}, fmt.Errorf("entry %s: %w", id, err)
	}
	if e.Kind, err = core.ParseKind(kind); err != nil {
		return core.Entry{}, fmt.Errorf("entry %s: %w", id, err)
	}
	e.Amount = core.Money(amount)
	e.Memo = memo
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return core.Entry{}, fmt.Errorf("entry %s created_at: %w", id, err)
	}
	return e, nil
}
