package analytics

import (
	"sort"

	"github.com/jithinsajeev21/Smartspend/internal/core"
)

type (
	// NamedAmount is a total attributed to one category or store.
	NamedAmount struct {
		Name   string
		Amount core.Money
	}

	// Overview is the spending breakdown over the whole collection.
	Overview struct {
		Total      core.Money
		Expenses   int
		ByCategory []NamedAmount
		ByStore    []NamedAmount
	}
)

// Summarize folds the collection into category and store breakdowns,
// both sorted by descending amount with name as tiebreak.
func Summarize(expenses []core.Expense) Overview {
	ov := Overview{Expenses: len(expenses)}
	byCategory := make(map[string]int64)
	byStore := make(map[string]int64)

	for _, e := range expenses {
		ov.Total.Cents += e.Amount.Cents
		byCategory[string(e.Category)] += e.Amount.Cents
		byStore[e.Store] += e.Amount.Cents
	}

	ov.ByCategory = sortedAmounts(byCategory)
	ov.ByStore = sortedAmounts(byStore)
	return ov
}

func sortedAmounts(totals map[string]int64) []NamedAmount {
	out := make([]NamedAmount, 0, len(totals))
	for name, cents := range totals {
		out = append(out, NamedAmount{Name: name, Amount: core.Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}
