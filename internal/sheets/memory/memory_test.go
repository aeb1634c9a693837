package memory

import (
	"context"
	"testing"

	"github.com/jithinsajeev21/Smartspend/internal/core"
)

func validExpense(id int64, desc string) core.Expense {
	return core.Expense{
		ID:          id,
		Date:        core.NewDate(2024, 3, 5),
		Description: desc,
		Amount:      core.Money{Cents: 149},
		Category:    core.CategoryDairy,
		Store:       "Rewe",
		Payer:       "Me",
		Owner:       core.SharedOwner,
	}
}

func TestLedgerUpsertAndDelete(t *testing.T) {
	ctx := context.Background()
	l := New()

	if err := l.UpsertExpense(ctx, validExpense(1, "Milk")); err != nil {
		t.Fatalf("UpsertExpense: %v", err)
	}
	if err := l.UpsertExpense(ctx, validExpense(1, "Oat Milk")); err != nil {
		t.Fatalf("UpsertExpense: %v", err)
	}
	if l.Len() != 1 {
		t.Fatalf("upsert with same ID should replace, got %d rows", l.Len())
	}
	if row, ok := l.Row(1); !ok || row.Description != "Oat Milk" {
		t.Errorf("row = %+v, %v", row, ok)
	}

	if err := l.DeleteExpense(ctx, 1); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("rows after delete = %d, want 0", l.Len())
	}
	// Deleting again stays silent.
	if err := l.DeleteExpense(ctx, 1); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestLedgerRejectsInvalidExpense(t *testing.T) {
	l := New()
	e := validExpense(1, "Milk")
	e.Description = ""
	if err := l.UpsertExpense(context.Background(), e); err == nil {
		t.Error("expected validation error")
	}
}
