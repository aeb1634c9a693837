// Package store defines the ports the rest of the application uses to reach
// the expense collection, independent of which backend holds it.
package store

import (
	"context"
	"errors"

	"github.com/jithinsajeev21/Smartspend/internal/core"
)

// ErrNotFound is returned when an expense id does not exist.
var ErrNotFound = errors.New("expense not found")

// BillUpdate describes a bill-level bulk update. Nil fields are left
// untouched; the whole update applies atomically to every expense on the
// bill or not at all.
type BillUpdate struct {
	Store *string
	Date  *core.Date
	Payer *string
	Owner *string
}

// Repository is the persistence port for the expense collection and the
// participant roster.
type Repository interface {
	CreateExpense(ctx context.Context, e core.Expense) (int64, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	// ListExpenses returns the full collection ordered by date then id.
	ListExpenses(ctx context.Context) ([]core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, id int64) error
	// UpdateBill applies the update to every expense on the bill in one
	// atomic pass and returns how many records changed.
	UpdateBill(ctx context.Context, key core.BillKey, upd BillUpdate) (int, error)

	Participants(ctx context.Context) ([]string, error)
	SaveParticipants(ctx context.Context, names []string) error

	Close() error
}
