// Package worker moves locally stored expenses into the Google Sheets
// ledger. It reacts to queue messages and runs a periodic catch-up pass
// for rows that were saved while the broker was unreachable.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jithinsajeev21/Smartspend/internal/amqp"
	"github.com/jithinsajeev21/Smartspend/internal/core"
	"github.com/jithinsajeev21/Smartspend/internal/sheets"
	"github.com/jithinsajeev21/Smartspend/internal/storage"
	"github.com/jithinsajeev21/Smartspend/internal/store"
)

// ExportStorage is the slice of the SQLite repository the worker needs.
type ExportStorage interface {
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	GetPendingExportExpenses(ctx context.Context, limit int) ([]storage.PendingExportExpense, error)
	MarkExported(ctx context.Context, id int64) error
	MarkExportError(ctx context.Context, id int64) error
}

type ExportWorker struct {
	storage   ExportStorage
	ledger    sheets.Ledger
	batchSize int
}

func NewExportWorker(storage ExportStorage, ledger sheets.Ledger, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ExportWorker{
		storage:   storage,
		ledger:    ledger,
		batchSize: batchSize,
	}
}

// HandleMessage processes one export message. A returned error tells the
// consumer to requeue the delivery.
func (w *ExportWorker) HandleMessage(ctx context.Context, msg *amqp.ExportMessage) error {
	switch msg.Kind {
	case amqp.KindDelete:
		if err := w.ledger.DeleteExpense(ctx, msg.ID); err != nil {
			return fmt.Errorf("delete ledger row: %w", err)
		}
		slog.InfoContext(ctx, "Ledger row deleted", "id", msg.ID)
		return nil
	case amqp.KindUpsert:
		return w.exportExpense(ctx, msg.ID)
	default:
		// Dropped rather than requeued, a bad kind never becomes valid.
		slog.WarnContext(ctx, "Ignoring message with unknown kind", "kind", msg.Kind, "id", msg.ID)
		return nil
	}
}

func (w *ExportWorker) exportExpense(ctx context.Context, id int64) error {
	e, err := w.storage.GetExpense(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		// Deleted before the message arrived. The delete message will
		// clean up the ledger row.
		slog.InfoContext(ctx, "Expense gone before export, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	if err := w.ledger.UpsertExpense(ctx, e); err != nil {
		if markErr := w.storage.MarkExportError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to record export error", "id", id, "error", markErr)
		}
		return fmt.Errorf("write ledger row: %w", err)
	}

	if err := w.storage.MarkExported(ctx, id); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}

	slog.InfoContext(ctx, "Expense exported",
		"id", id,
		"description", e.Description,
		"amount_cents", e.Amount.Cents)
	return nil
}

// CatchUp exports every pending expense in batches and returns how many
// rows it wrote. It stops at the first storage error but keeps going
// past individual ledger failures so one bad row cannot wedge the queue.
func (w *ExportWorker) CatchUp(ctx context.Context) (int, error) {
	exported := 0
	for {
		pending, err := w.storage.GetPendingExportExpenses(ctx, w.batchSize)
		if err != nil {
			return exported, fmt.Errorf("list pending exports: %w", err)
		}
		if len(pending) == 0 {
			return exported, nil
		}

		failures := 0
		for _, p := range pending {
			if ctx.Err() != nil {
				return exported, ctx.Err()
			}
			if err := w.exportExpense(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Catch-up export failed", "id", p.ID, "error", err)
				failures++
				continue
			}
			exported++
		}
		// Everything in the batch failed, retrying now would spin.
		if failures == len(pending) {
			return exported, fmt.Errorf("all %d pending exports failed", failures)
		}
		if len(pending) < w.batchSize {
			return exported, nil
		}
	}
}

// Run performs a startup catch-up and then repeats it on the given
// interval until the context ends.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	if n, err := w.CatchUp(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup catch-up failed", "exported", n, "error", err)
	} else if n > 0 {
		slog.InfoContext(ctx, "Startup catch-up complete", "exported", n)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n, err := w.CatchUp(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic catch-up failed", "exported", n, "error", err)
			} else if n > 0 {
				slog.InfoContext(ctx, "Periodic catch-up complete", "exported", n)
			}
		}
	}
}
