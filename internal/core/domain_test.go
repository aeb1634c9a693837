package core

import (
	"errors"
	"testing"
	"time"
)

func validExpense() Expense {
	return Expense{
		Date:        NewDate(2024, 3, 15),
		Description: "Organic Milk",
		Amount:      Money{Cents: 150},
		Category:    CategoryDairy,
		Store:       "Rewe",
		Payer:       "Me",
		Owner:       SharedOwner,
	}
}

func TestExpenseValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Expense)
		wantErr error
	}{
		{name: "valid", mutate: func(e *Expense) {}},
		{name: "zero amount allowed", mutate: func(e *Expense) { e.Amount.Cents = 0 }},
		{name: "zero date", mutate: func(e *Expense) { e.Date = Date{} }, wantErr: nil},
		{name: "empty description", mutate: func(e *Expense) { e.Description = "  " }, wantErr: ErrEmptyDescription},
		{name: "negative amount", mutate: func(e *Expense) { e.Amount.Cents = -1 }, wantErr: ErrNegativeAmount},
		{name: "unknown category", mutate: func(e *Expense) { e.Category = "Gadgets" }, wantErr: ErrUnknownCategory},
		{name: "empty store", mutate: func(e *Expense) { e.Store = "" }, wantErr: ErrEmptyStore},
		{name: "empty payer", mutate: func(e *Expense) { e.Payer = "" }, wantErr: ErrEmptyPayer},
		{name: "empty owner", mutate: func(e *Expense) { e.Owner = "" }, wantErr: ErrEmptyOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExpense()
			tt.mutate(&e)
			err := e.Validate()

			switch tt.name {
			case "valid", "zero amount allowed":
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			case "zero date":
				if err == nil {
					t.Error("Validate() expected error for zero date")
				}
			default:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
				}
			}
		})
	}
}

func TestNormalizeItemKey(t *testing.T) {
	tests := []struct {
		input string
		want  ItemKey
	}{
		{input: "Organic Milk", want: "organic milk"},
		{input: "  Organic Milk  ", want: "organic milk"},
		{input: "BREAD", want: "bread"},
		{input: "  ", want: ""},
	}

	for _, tt := range tests {
		if got := NormalizeItemKey(tt.input); got != tt.want {
			t.Errorf("NormalizeItemKey(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	if got := ParseCategory("dairy"); got != CategoryDairy {
		t.Errorf("ParseCategory(dairy) = %q, want %q", got, CategoryDairy)
	}
	if got := ParseCategory("Personal care"); got != CategoryPersonalCare {
		t.Errorf("ParseCategory(Personal care) = %q, want %q", got, CategoryPersonalCare)
	}
	if got := ParseCategory("weird stuff"); got != CategoryOther {
		t.Errorf("ParseCategory falls back to Other, got %q", got)
	}
}

func TestShelfLifeDays(t *testing.T) {
	if got := ShelfLifeDays(CategoryFish); got != 3 {
		t.Errorf("ShelfLifeDays(Fish) = %d, want 3", got)
	}
	if got := ShelfLifeDays(Category("Unknown")); got != 14 {
		t.Errorf("ShelfLifeDays(unknown) = %d, want the 14-day default", got)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2023-10-26")
	if err != nil {
		t.Fatalf("ParseDate returned error: %v", err)
	}
	if d.String() != "2023-10-26" {
		t.Errorf("round trip = %q, want 2023-10-26", d.String())
	}
	if _, err := ParseDate("26/10/2023"); err == nil {
		t.Error("ParseDate should reject non-ISO input")
	}
}

func TestDateDaysUntil(t *testing.T) {
	d := NewDate(2024, 1, 1)
	now := time.Date(2024, 1, 11, 13, 30, 0, 0, time.UTC)
	if got := d.DaysUntil(now); got != 10 {
		t.Errorf("DaysUntil = %d, want 10 (floored)", got)
	}
}

func TestBillKey(t *testing.T) {
	a := validExpense()
	b := validExpense()
	b.Description = "Bread"
	if a.Bill() != b.Bill() {
		t.Error("expenses with same store and date must share a bill key")
	}
	b.Store = "Lidl"
	if a.Bill() == b.Bill() {
		t.Error("different stores must produce different bill keys")
	}
}
