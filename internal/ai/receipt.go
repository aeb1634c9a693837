package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jithinsajeev21/Smartspend/internal/core"
)

// ReceiptItem is one extracted line item with its item-level discounts
// already netted out by the model.
type ReceiptItem struct {
	Description string
	Amount      core.Money
	Date        core.Date
	Store       string
	Category    core.Category
}

// ReceiptScan is the full extraction result for one receipt image.
// TotalDiscountCents carries a separate bill-level coupon or voucher only,
// never a "total savings" summary line.
type ReceiptScan struct {
	Items              []ReceiptItem
	TotalDiscountCents int64
}

const receiptPromptHeader = `You are a grocery receipt parser. Extract every purchased line item from the receipt image and respond with JSON only, matching this schema:

{
  "store": "store name",
  "date": "YYYY-MM-DD",
  "items": [
    {"description": "item name", "amount": "3.49", "category": "one of: %s"}
  ],
  "totalDiscount": "0.00"
}

Rules:
- "amount" is the net price actually paid for the item. If the receipt shows an item-level discount, subtract it from that item's amount; do not list the discount separately.
- "totalDiscount" is only for a bill-level coupon or voucher applied to the whole receipt. Never copy a "total savings" or "you saved" summary line into it. Omit it or use "0.00" when there is none.
- Skip deposit refunds, subtotal, tax and total lines.
- Use "%s" as the category when unsure.`

func receiptPrompt() string {
	return fmt.Sprintf(receiptPromptHeader, strings.Join(categoryNames(), ", "), core.CategoryOther)
}

func categoryNames() []string {
	cats := core.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return names
}

type receiptPayload struct {
	Store         string               `json:"store"`
	Date          string               `json:"date"`
	Items         []receiptItemPayload `json:"items"`
	TotalDiscount string               `json:"totalDiscount"`
}

type receiptItemPayload struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
}

// ParseReceipt extracts line items from one receipt image. The result is
// all-or-nothing: any malformed field fails the whole scan.
func (c *Client) ParseReceipt(ctx context.Context, image []byte, mimeType string) (ReceiptScan, error) {
	text, err := c.generate(ctx, []part{
		{Text: receiptPrompt()},
		imagePart(image, mimeType),
	})
	if err != nil {
		return ReceiptScan{}, fmt.Errorf("scanning receipt: %w", err)
	}
	return parseReceiptPayload(text)
}

func parseReceiptPayload(text string) (ReceiptScan, error) {
	var payload receiptPayload
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &payload); err != nil {
		return ReceiptScan{}, fmt.Errorf("decoding receipt payload: %w", err)
	}

	store := strings.TrimSpace(payload.Store)
	if store == "" {
		return ReceiptScan{}, fmt.Errorf("receipt payload has no store")
	}
	date, err := core.ParseDate(payload.Date)
	if err != nil {
		return ReceiptScan{}, fmt.Errorf("receipt date %q: %w", payload.Date, err)
	}
	if len(payload.Items) == 0 {
		return ReceiptScan{}, fmt.Errorf("receipt payload has no items")
	}

	scan := ReceiptScan{Items: make([]ReceiptItem, 0, len(payload.Items))}
	for i, item := range payload.Items {
		desc := strings.TrimSpace(item.Description)
		if desc == "" {
			return ReceiptScan{}, fmt.Errorf("item %d has no description", i)
		}
		cents, err := core.ParseDecimalToCents(item.Amount)
		if err != nil {
			return ReceiptScan{}, fmt.Errorf("item %q amount %q: %w", desc, item.Amount, err)
		}
		scan.Items = append(scan.Items, ReceiptItem{
			Description: desc,
			Amount:      core.Money{Cents: cents},
			Date:        date,
			Store:       store,
			Category:    core.ParseCategory(item.Category),
		})
	}

	if d := strings.TrimSpace(payload.TotalDiscount); d != "" {
		cents, err := core.ParseDecimalToCents(d)
		if err != nil {
			return ReceiptScan{}, fmt.Errorf("total discount %q: %w", d, err)
		}
		scan.TotalDiscountCents = cents
	}
	return scan, nil
}

// stripCodeFence tolerates models that wrap the JSON answer in a
// markdown code fence despite the response mime type.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
