// Package sheets defines the outbound ports for the expense ledger that
// the export worker writes to.
package sheets

import (
	"context"

	"github.com/jithinsajeev21/Smartspend/internal/core"
)

type (
	// LedgerWriter upserts one expense row keyed by its expense ID.
	LedgerWriter interface {
		UpsertExpense(ctx context.Context, e core.Expense) error
	}

	// LedgerDeleter removes the row of a deleted expense.
	LedgerDeleter interface {
		DeleteExpense(ctx context.Context, id int64) error
	}

	// Ledger is the full surface the export worker needs.
	Ledger interface {
		LedgerWriter
		LedgerDeleter
	}
)
