package core

import (
	"errors"
	"strings"
	"time"
)

// SharedOwner is the sentinel owner meaning the cost is split evenly
// across all currently active participants.
const SharedOwner = "Shared"

const (
	CategoryProduce      Category = "Produce"
	CategoryDairy        Category = "Dairy"
	CategoryMeat         Category = "Meat"
	CategoryFish         Category = "Fish"
	CategoryBakery       Category = "Bakery"
	CategoryFrozen       Category = "Frozen"
	CategoryPantry       Category = "Pantry"
	CategorySnacks       Category = "Snacks"
	CategoryBeverages    Category = "Beverages"
	CategoryHousehold    Category = "Household"
	CategoryPersonalCare Category = "Personal Care"
	CategoryOther        Category = "Other"
)

type (
	Category string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Expense is the only persisted entity. Payer and Owner are plain
	// participant names with no referential enforcement against the
	// active roster; stale names must be tolerated downstream.
	Expense struct {
		ID          int64
		Date        Date
		Description string
		Amount      Money
		// OriginalAmount is the pre-discount amount, informational only.
		OriginalAmount *Money
		Category       Category
		Store          string
		Payer          string
		Owner          string
	}

	// BillKey identifies one shopping visit: every expense sharing the
	// same store and date belongs to the same bill.
	BillKey struct {
		Store string
		Date  Date
	}

	// ItemKey is the normalized grouping key for a grocery item.
	ItemKey string
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrNegativeAmount   = errors.New("negative amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrEmptyStore       = errors.New("empty store")
	ErrEmptyPayer       = errors.New("empty payer")
	ErrEmptyOwner       = errors.New("empty owner")
)

// Categories lists the fixed grocery category enumeration in display order.
func Categories() []Category {
	return []Category{
		CategoryProduce, CategoryDairy, CategoryMeat, CategoryFish,
		CategoryBakery, CategoryFrozen, CategoryPantry, CategorySnacks,
		CategoryBeverages, CategoryHousehold, CategoryPersonalCare, CategoryOther,
	}
}

// shelfLifeDays is the generic replenishment interval per category, used by
// the replenishment predictor when an item has too little purchase history
// to derive its own cycle.
var shelfLifeDays = map[Category]int{
	CategoryProduce:      5,
	CategoryDairy:        7,
	CategoryMeat:         4,
	CategoryFish:         3,
	CategoryBakery:       3,
	CategoryFrozen:       30,
	CategoryPantry:       60,
	CategorySnacks:       21,
	CategoryBeverages:    14,
	CategoryHousehold:    45,
	CategoryPersonalCare: 60,
	CategoryOther:        14,
}

// defaultShelfLifeDays applies to any category missing from the table.
const defaultShelfLifeDays = 14

// ShelfLifeDays returns the generic shelf life for a category in days.
func ShelfLifeDays(c Category) int {
	if d, ok := shelfLifeDays[c]; ok {
		return d
	}
	return defaultShelfLifeDays
}

func (c Category) IsValid() bool {
	_, ok := shelfLifeDays[c]
	return ok
}

// ParseCategory matches a category name case-insensitively, falling back
// to Other for anything unrecognized (receipt scans produce free text).
func ParseCategory(s string) Category {
	s = strings.TrimSpace(s)
	for _, c := range Categories() {
		if strings.EqualFold(string(c), s) {
			return c
		}
	}
	return CategoryOther
}

// NormalizeItemKey derives the grouping key for a description: trimmed and
// case-folded. Normalization happens only here, never at rest.
func NormalizeItemKey(description string) ItemKey {
	return ItemKey(strings.ToLower(strings.TrimSpace(description)))
}

// NewDate creates a new Date from year, month, day. Dates carry no time
// component; everything is midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t.UTC()}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// String renders the date in ISO form without a time component.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// DaysUntil returns the whole number of days from d to now, floored.
func (d Date) DaysUntil(now time.Time) int {
	return int(now.Sub(d.Time).Hours() / 24)
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Category.IsValid() {
		return ErrUnknownCategory
	}
	if strings.TrimSpace(e.Store) == "" {
		return ErrEmptyStore
	}
	if strings.TrimSpace(e.Payer) == "" {
		return ErrEmptyPayer
	}
	if strings.TrimSpace(e.Owner) == "" {
		return ErrEmptyOwner
	}
	return nil
}

// Bill returns the bill key of the shopping visit this expense belongs to.
func (e Expense) Bill() BillKey {
	return BillKey{Store: e.Store, Date: e.Date}
}
