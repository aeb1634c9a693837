package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jithinsajeev21/Smartspend/internal/core"
)

const (
	// ReasonExclusive marks an item only ever bought at the selected store.
	ReasonExclusive Reason = "Exclusive"
	// ReasonBestPrice marks an item whose cheapest average price is at the
	// selected store.
	ReasonBestPrice Reason = "Best Price"
)

type (
	// Reason explains why an item is a smart buy at the selected store.
	Reason string

	// SmartBuy is a needed item best bought at the selected store.
	SmartBuy struct {
		Item          ItemForecast
		Reason        Reason
		AvgPriceCents int64
	}

	// OtherNeed is a needed item better bought elsewhere, or never bought
	// at the selected store at all (PriceHereCents stays zero then).
	OtherNeed struct {
		Item               ItemForecast
		PriceHereCents     int64
		CheapestStore      string
		CheapestPriceCents int64
		// SavingsCents is the per-unit saving of buying at the cheapest
		// store instead of here; zero when the item was never bought here.
		SavingsCents int64
	}

	// StorePlan is the shopping recommendation for one selected store.
	StorePlan struct {
		Store      string
		SmartBuys  []SmartBuy
		OtherNeeds []OtherNeed
	}
)

type storeStat struct {
	store      string
	totalCents int64
	count      int
}

func (s storeStat) avg() float64 {
	return float64(s.totalCents) / float64(s.count)
}

// OptimizeStore cross-references the shopping list with per-store average
// prices and recommends where each needed item should be bought.
func OptimizeStore(expenses []core.Expense, now time.Time, store string) StorePlan {
	store = strings.TrimSpace(store)
	plan := StorePlan{Store: store}

	for _, item := range NeededItems(expenses, now) {
		stats := storeStats(expenses, item.Key)
		if len(stats) == 0 {
			// No priced purchases for this item; nothing to recommend.
			continue
		}

		cheapest := stats[0]
		for _, s := range stats[1:] {
			if s.avg() < cheapest.avg() {
				cheapest = s
			}
		}

		var here *storeStat
		for i := range stats {
			if stats[i].store == store {
				here = &stats[i]
				break
			}
		}

		switch {
		case here != nil && len(stats) == 1:
			plan.SmartBuys = append(plan.SmartBuys, SmartBuy{
				Item:          item,
				Reason:        ReasonExclusive,
				AvgPriceCents: roundCents(here.avg()),
			})
		case here != nil && here.store == cheapest.store:
			plan.SmartBuys = append(plan.SmartBuys, SmartBuy{
				Item:          item,
				Reason:        ReasonBestPrice,
				AvgPriceCents: roundCents(here.avg()),
			})
		case here != nil:
			plan.OtherNeeds = append(plan.OtherNeeds, OtherNeed{
				Item:               item,
				PriceHereCents:     roundCents(here.avg()),
				CheapestStore:      cheapest.store,
				CheapestPriceCents: roundCents(cheapest.avg()),
				SavingsCents:       roundCents(here.avg() - cheapest.avg()),
			})
		default:
			// Never bought at the selected store: still worth a reminder,
			// with the usual cheapest store noted.
			plan.OtherNeeds = append(plan.OtherNeeds, OtherNeed{
				Item:               item,
				CheapestStore:      cheapest.store,
				CheapestPriceCents: roundCents(cheapest.avg()),
			})
		}
	}

	return plan
}

// storeStats aggregates historical purchases of one item per store,
// ordered by store name for deterministic cheapest-store ties.
func storeStats(expenses []core.Expense, key core.ItemKey) []storeStat {
	byStore := make(map[string]*storeStat)
	for _, e := range expenses {
		if core.NormalizeItemKey(e.Description) != key {
			continue
		}
		s, ok := byStore[e.Store]
		if !ok {
			s = &storeStat{store: e.Store}
			byStore[e.Store] = s
		}
		s.totalCents += e.Amount.Cents
		s.count++
	}

	stats := make([]storeStat, 0, len(byStore))
	for _, s := range byStore {
		if s.count == 0 {
			continue
		}
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].store < stats[j].store })
	return stats
}

func roundCents(v float64) int64 {
	return int64(math.Round(v))
}
