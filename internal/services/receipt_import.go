package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/jithinsajeev21/Smartspend/internal/ai"
	"github.com/jithinsajeev21/Smartspend/internal/core"
)

// ReceiptScanner extracts line items from a receipt image.
type ReceiptScanner interface {
	ParseReceipt(ctx context.Context, image []byte, mimeType string) (ai.ReceiptScan, error)
}

// ReceiptImporter turns a scanned receipt into stored expenses.
type ReceiptImporter struct {
	scanner  ReceiptScanner
	expenses *ExpenseService
}

func NewReceiptImporter(scanner ReceiptScanner, expenses *ExpenseService) *ReceiptImporter {
	return &ReceiptImporter{
		scanner:  scanner,
		expenses: expenses,
	}
}

// ImportReceipt scans one receipt image and creates an expense per line
// item, attributed to the given payer and owner. A scan failure creates
// nothing.
func (ri *ReceiptImporter) ImportReceipt(ctx context.Context, image []byte, mimeType, payer, owner string) ([]core.Expense, error) {
	scan, err := ri.scanner.ParseReceipt(ctx, image, mimeType)
	if err != nil {
		return nil, fmt.Errorf("parse receipt: %w", err)
	}
	if len(scan.Items) == 0 {
		return nil, fmt.Errorf("receipt scan returned no items")
	}

	created := make([]core.Expense, 0, len(scan.Items))
	for _, e := range expensesFromScan(scan, payer, owner) {
		id, err := ri.expenses.CreateExpense(ctx, e)
		if err != nil {
			return created, fmt.Errorf("save scanned item %q: %w", e.Description, err)
		}
		e.ID = id
		created = append(created, e)
	}

	slog.InfoContext(ctx, "Receipt imported",
		"store", scan.Items[0].Store,
		"items", len(created),
		"discount_cents", scan.TotalDiscountCents)

	return created, nil
}

// expensesFromScan converts scanned items into expenses, spreading a
// bill-level discount proportionally over the items by their share of
// the subtotal. A discounted amount never goes below zero; the
// pre-discount price is kept as the informational original amount.
func expensesFromScan(scan ai.ReceiptScan, payer, owner string) []core.Expense {
	var subtotal int64
	for _, item := range scan.Items {
		subtotal += item.Amount.Cents
	}

	out := make([]core.Expense, 0, len(scan.Items))
	for _, item := range scan.Items {
		e := core.Expense{
			Date:        item.Date,
			Description: item.Description,
			Amount:      item.Amount,
			Category:    item.Category,
			Store:       item.Store,
			Payer:       payer,
			Owner:       owner,
		}
		if scan.TotalDiscountCents > 0 && subtotal > 0 {
			share := int64(math.Round(float64(scan.TotalDiscountCents) * float64(item.Amount.Cents) / float64(subtotal)))
			net := item.Amount.Cents - share
			if net < 0 {
				net = 0
			}
			original := item.Amount
			e.OriginalAmount = &original
			e.Amount = core.Money{Cents: net}
		}
		out = append(out, e)
	}
	return out
}
