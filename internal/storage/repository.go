// Package storage provides the SQLite-backed expense repository.
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

	"github.com/jithinsajeev21/Smartspend/internal/core"
	"github.com/jithinsajeev21/Smartspend/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ store.Repository = (*SQLiteRepository)(nil)

// PendingExportExpense is the minimal data needed for an export queue message.
type PendingExportExpense struct {
	ID        int64
	CreatedAt time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const expenseColumns = `id, purchase_date, description, amount_cents, original_amount_cents, category, store, payer, owner`

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	var original sql.NullInt64
	if e.OriginalAmount != nil {
		original = sql.NullInt64{Int64: e.OriginalAmount.Cents, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (purchase_date, description, amount_cents, original_amount_cents, category, store, payer, owner)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Date.String(), e.Description, e.Amount.Cents, original,
		string(e.Category), e.Store, e.Payer, e.Owner)
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"description", e.Description,
		"amount_cents", e.Amount.Cents,
		"store", e.Store,
		"date", e.Date.String())

	return id, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, store.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense by id: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses ORDER BY purchase_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}

	var original sql.NullInt64
	if e.OriginalAmount != nil {
		original = sql.NullInt64{Int64: e.OriginalAmount.Cents, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET purchase_date = ?, description = ?, amount_cents = ?, original_amount_cents = ?,
		    category = ?, store = ?, payer = ?, owner = ?,
		    export_status = 'pending', updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		e.Date.String(), e.Description, e.Amount.Cents, original,
		string(e.Category), e.Store, e.Payer, e.Owner, e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// UpdateBill applies a bill-level bulk update inside one transaction so the
// whole visit changes or nothing does.
func (r *SQLiteRepository) UpdateBill(ctx context.Context, key core.BillKey, upd store.BillUpdate) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin bill update: %w", err)
	}
	defer tx.Rollback()

	set := ""
	var args []any
	appendSet := func(col string, val any) {
		if set != "" {
			set += ", "
		}
		set += col + " = ?"
		args = append(args, val)
	}
	if upd.Store != nil {
		appendSet("store", *upd.Store)
	}
	if upd.Date != nil {
		appendSet("purchase_date", upd.Date.String())
	}
	if upd.Payer != nil {
		appendSet("payer", *upd.Payer)
	}
	if upd.Owner != nil {
		appendSet("owner", *upd.Owner)
	}
	if set == "" {
		return 0, nil
	}
	set += ", export_status = 'pending', updated_at = CURRENT_TIMESTAMP"
	args = append(args, key.Store, key.Date.String())

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses SET `+set+` WHERE store = ? AND purchase_date = ?`, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk update bill: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bill update: %w", err)
	}

	slog.InfoContext(ctx, "Bill updated",
		"store", key.Store,
		"date", key.Date.String(),
		"expenses_changed", affected)

	return int(affected), nil
}

func (r *SQLiteRepository) Participants(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM participants ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *SQLiteRepository) SaveParticipants(ctx context.Context, names []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin roster update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM participants`); err != nil {
		return fmt.Errorf("clear participants: %w", err)
	}
	for i, name := range names {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO participants (position, name) VALUES (?, ?)`, i, name); err != nil {
			return fmt.Errorf("insert participant %q: %w", name, err)
		}
	}
	return tx.Commit()
}

// GetPendingExportExpenses returns expenses whose ledger export is still
// pending, oldest first.
func (r *SQLiteRepository) GetPendingExportExpenses(ctx context.Context, limit int) ([]PendingExportExpense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at FROM expenses
		WHERE export_status = 'pending'
		ORDER BY created_at
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending export expenses: %w", err)
	}
	defer rows.Close()

	var out []PendingExportExpense
	for rows.Next() {
		var (
			p       PendingExportExpense
			created string
		)
		if err := rows.Scan(&p.ID, &created); err != nil {
			return nil, fmt.Errorf("scan pending export expense: %w", err)
		}
		// SQLite stores CURRENT_TIMESTAMP as UTC text.
		if t, err := time.Parse("2006-01-02 15:04:05", created); err == nil {
			p.CreatedAt = t
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkExported marks an expense as successfully written to the ledger.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET export_status = 'exported', exported_at = CURRENT_TIMESTAMP
		WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark expense exported: %w", err)
	}
	slog.InfoContext(ctx, "Expense marked as exported", "id", id)
	return nil
}

// MarkExportError records a failed ledger export attempt.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET export_status = 'error' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark expense export error: %w", err)
	}
	slog.WarnContext(ctx, "Expense marked with export error", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e        core.Expense
		dateStr  string
		category string
		original sql.NullInt64
	)
	if err := row.Scan(&e.ID, &dateStr, &e.Description, &e.Amount.Cents, &original,
		&category, &e.Store, &e.Payer, &e.Owner); err != nil {
		return core.Expense{}, err
	}
	date, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse stored date %q: %w", dateStr, err)
	}
	e.Date = date
	e.Category = core.Category(category)
	if original.Valid {
		e.OriginalAmount = &core.Money{Cents: original.Int64}
	}
	return e, nil
}
