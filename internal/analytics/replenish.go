package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/jithinsajeev21/Smartspend/internal/core"
)

const (
	StatusStockUp    Status = "Stock Up"
	StatusRunningLow Status = "Running Low"
	StatusGood       Status = "Good"
)

type (
	// Status classifies how urgently an item needs restocking.
	Status string

	// ItemForecast is the replenishment prediction for one distinct item,
	// grouped by its normalized description.
	ItemForecast struct {
		Key           core.ItemKey
		DisplayName   string
		Category      core.Category
		Purchases     int
		LastPurchase  core.Date
		DaysSinceLast int
		// AvgCycleDays is the rounded mean gap between consecutive
		// purchases; only meaningful when CycleKnown is true.
		AvgCycleDays  int
		CycleKnown    bool
		ShelfLifeDays int
		Status        Status
	}
)

// rank orders statuses by urgency for sorting.
func (s Status) rank() int {
	switch s {
	case StatusStockUp:
		return 0
	case StatusRunningLow:
		return 1
	case StatusGood:
		return 2
	}
	return 3
}

// Needed reports whether the item belongs on the shopping list.
func (s Status) Needed() bool {
	return s == StatusStockUp || s == StatusRunningLow
}

type itemGroup struct {
	dates       []core.Date
	displayName string
	category    core.Category
	latest      core.Date
}

// Replenishment classifies every distinct item by restock urgency,
// sorted most urgent first. The caller injects now so the prediction
// stays a pure function of its inputs.
func Replenishment(expenses []core.Expense, now time.Time) []ItemForecast {
	groups := make(map[core.ItemKey]*itemGroup)
	var order []core.ItemKey

	for _, e := range expenses {
		key := core.NormalizeItemKey(e.Description)
		if key == "" {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &itemGroup{category: e.Category}
			groups[key] = g
			order = append(order, key)
		}
		g.dates = append(g.dates, e.Date)
		// Display name follows the most recent purchase.
		if g.displayName == "" || e.Date.After(g.latest.Time) {
			g.displayName = e.Description
			g.latest = e.Date
		}
	}

	forecasts := make([]ItemForecast, 0, len(groups))
	for _, key := range order {
		g := groups[key]
		sort.Slice(g.dates, func(i, j int) bool {
			return g.dates[i].After(g.dates[j].Time)
		})

		f := ItemForecast{
			Key:           key,
			DisplayName:   g.displayName,
			Category:      g.category,
			Purchases:     len(g.dates),
			LastPurchase:  g.dates[0],
			DaysSinceLast: g.dates[0].DaysUntil(now),
			ShelfLifeDays: core.ShelfLifeDays(g.category),
		}

		if len(g.dates) >= 2 {
			totalGapDays := 0.0
			for i := 0; i < len(g.dates)-1; i++ {
				totalGapDays += g.dates[i].Sub(g.dates[i+1].Time).Hours() / 24
			}
			f.AvgCycleDays = int(math.Round(totalGapDays / float64(len(g.dates)-1)))
			f.CycleKnown = true
		}

		f.Status = classify(f)
		forecasts = append(forecasts, f)
	}

	sort.SliceStable(forecasts, func(i, j int) bool {
		a, b := forecasts[i], forecasts[j]
		if a.Status.rank() != b.Status.rank() {
			return a.Status.rank() < b.Status.rank()
		}
		if a.DaysSinceLast != b.DaysSinceLast {
			return a.DaysSinceLast > b.DaysSinceLast
		}
		return a.DisplayName < b.DisplayName
	})
	return forecasts
}

// classify applies the urgency thresholds. The cycle branch flags Running
// Low at 0.8 of the cycle while the shelf-life fallback waits until 0.9;
// the asymmetry is an inherited tuning choice and must stay as is.
func classify(f ItemForecast) Status {
	days := float64(f.DaysSinceLast)
	if f.CycleKnown {
		cycle := float64(f.AvgCycleDays)
		switch {
		case days >= cycle:
			return StatusStockUp
		case days >= 0.8*cycle:
			return StatusRunningLow
		default:
			return StatusGood
		}
	}
	life := float64(f.ShelfLifeDays)
	switch {
	case days >= life:
		return StatusStockUp
	case days >= 0.9*life:
		return StatusRunningLow
	default:
		return StatusGood
	}
}

// NeededItems returns the subset of forecasts that belong on the shopping
// list. Both the replenishment dashboard and the store optimizer share this
// classification so the two views can never drift apart.
func NeededItems(expenses []core.Expense, now time.Time) []ItemForecast {
	all := Replenishment(expenses, now)
	needed := make([]ItemForecast, 0, len(all))
	for _, f := range all {
		if f.Status.Needed() {
			needed = append(needed, f)
		}
	}
	return needed
}
