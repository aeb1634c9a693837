// Package memory is an in-memory ledger used by tests and local runs
// without Google credentials.
package memory

import (
	"context"
	"sync"

	"github.com/jithinsajeev21/Smartspend/internal/core"
	ports "github.com/jithinsajeev21/Smartspend/internal/sheets"
)

type Ledger struct {
	mu   sync.Mutex
	rows map[int64]core.Expense
}

var _ ports.Ledger = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{rows: make(map[int64]core.Expense)}
}

func (l *Ledger) UpsertExpense(_ context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows[e.ID] = e
	return nil
}

// DeleteExpense is idempotent, removing an absent row is not an error.
func (l *Ledger) DeleteExpense(_ context.Context, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.rows, id)
	return nil
}

// Row returns the stored row for an expense ID, used by test assertions.
func (l *Ledger) Row(id int64) (core.Expense, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.rows[id]
	return e, ok
}

// Len reports the number of ledger rows.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rows)
}
