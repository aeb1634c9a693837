package analytics

import (
	"sort"
	"strings"

	"github.com/jithinsajeev21/Smartspend/internal/core"
)

const (
	maxItemMatches = 5
	maxBillMatches = 3
)

type (
	// BillSummary aggregates one shopping visit: every expense sharing the
	// same (store, date) pair.
	BillSummary struct {
		Key        core.BillKey
		TotalCents int64
		ItemCount  int
	}

	// SearchResult holds the capped item and bill matches for a query.
	SearchResult struct {
		Items []core.Expense
		Bills []BillSummary
	}
)

// Search filters the collection by a free-text query: up to 5 item matches
// on description or category, and up to 3 bill matches on store name or the
// literal ISO date substring, newest bills first. A blank query matches
// nothing.
func Search(expenses []core.Expense, query string) SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return SearchResult{}
	}

	var result SearchResult
	for _, e := range expenses {
		if len(result.Items) == maxItemMatches {
			break
		}
		if strings.Contains(strings.ToLower(e.Description), q) ||
			strings.Contains(strings.ToLower(string(e.Category)), q) {
			result.Items = append(result.Items, e)
		}
	}

	bills := GroupBills(expenses)
	matched := bills[:0]
	for _, b := range bills {
		if strings.Contains(strings.ToLower(b.Key.Store), q) ||
			strings.Contains(b.Key.Date.String(), q) {
			matched = append(matched, b)
		}
	}
	if len(matched) > maxBillMatches {
		matched = matched[:maxBillMatches]
	}
	result.Bills = matched
	return result
}

// GroupBills folds the collection into bill aggregates sorted newest first,
// ties broken by store name.
func GroupBills(expenses []core.Expense) []BillSummary {
	byKey := make(map[core.BillKey]*BillSummary)
	var order []core.BillKey
	for _, e := range expenses {
		key := e.Bill()
		b, ok := byKey[key]
		if !ok {
			b = &BillSummary{Key: key}
			byKey[key] = b
			order = append(order, key)
		}
		b.TotalCents += e.Amount.Cents
		b.ItemCount++
	}

	bills := make([]BillSummary, 0, len(order))
	for _, key := range order {
		bills = append(bills, *byKey[key])
	}
	sort.SliceStable(bills, func(i, j int) bool {
		a, b := bills[i], bills[j]
		if !a.Key.Date.Equal(b.Key.Date.Time) {
			return a.Key.Date.After(b.Key.Date.Time)
		}
		return a.Key.Store < b.Key.Store
	})
	return bills
}
