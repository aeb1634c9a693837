// Package services orchestrates expense writes across storage, the
// export queue and receipt extraction.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jithinsajeev21/Smartspend/internal/amqp"
	"github.com/jithinsajeev21/Smartspend/internal/core"
	"github.com/jithinsajeev21/Smartspend/internal/store"
)

// ExportPublisher pushes export messages toward the ledger worker.
type ExportPublisher interface {
	PublishExport(ctx context.Context, msg *amqp.ExportMessage) error
}

// ExpenseService couples the expense repository with the export queue.
// Publishing is fire-and-forget: a broker outage never fails the user
// request, the worker's periodic catch-up covers the gap.
type ExpenseService struct {
	repo      store.Repository
	publisher ExportPublisher
}

func NewExpenseService(repo store.Repository, publisher ExportPublisher) *ExpenseService {
	return &ExpenseService{
		repo:      repo,
		publisher: publisher,
	}
}

// CreateExpense saves an expense locally and publishes an export message.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	id, err := s.repo.CreateExpense(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("save expense: %w", err)
	}

	s.publish(ctx, amqp.NewUpsertMessage(id))
	return id, nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	return s.repo.GetExpense(ctx, id)
}

func (s *ExpenseService) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return s.repo.ListExpenses(ctx)
}

// UpdateExpense saves the changed expense and re-exports it.
func (s *ExpenseService) UpdateExpense(ctx context.Context, e core.Expense) error {
	if err := s.repo.UpdateExpense(ctx, e); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}

	s.publish(ctx, amqp.NewUpsertMessage(e.ID))
	return nil
}

// DeleteExpense removes an expense locally and tells the worker to drop
// its ledger row.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.publish(ctx, amqp.NewDeleteMessage(id))
	return nil
}

// UpdateBill applies a bulk update to every expense of one store visit.
// The changed rows are re-queued by the repository, so the worker's
// catch-up pass re-exports them without individual messages.
func (s *ExpenseService) UpdateBill(ctx context.Context, key core.BillKey, upd store.BillUpdate) (int, error) {
	changed, err := s.repo.UpdateBill(ctx, key, upd)
	if err != nil {
		return 0, fmt.Errorf("update bill: %w", err)
	}
	return changed, nil
}

func (s *ExpenseService) Participants(ctx context.Context) ([]string, error) {
	return s.repo.Participants(ctx)
}

func (s *ExpenseService) SaveParticipants(ctx context.Context, names []string) error {
	return s.repo.SaveParticipants(ctx, names)
}

func (s *ExpenseService) publish(ctx context.Context, msg *amqp.ExportMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExport(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"kind", msg.Kind,
			"id", msg.ID,
			"error", err)
		// Don't fail the request, the expense is saved locally.
	}
}

// Close closes the underlying repository. The AMQP client is owned and
// closed by the caller that wired it.
func (s *ExpenseService) Close() error {
	return s.repo.Close()
}
