package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jithinsajeev21/Smartspend/internal/analytics"
	"github.com/jithinsajeev21/Smartspend/internal/core"
)

type settlementRow struct {
	Name          string `json:"name"`
	PaidCents     int64  `json:"paidCents"`
	ConsumedCents int64  `json:"consumedCents"`
	NetCents      int64  `json:"netCents"`
	Settled       bool   `json:"settled"`
}

type forecastRow struct {
	Item          string `json:"item"`
	Category      string `json:"category"`
	Purchases     int    `json:"purchases"`
	LastPurchase  string `json:"lastPurchase"`
	DaysSinceLast int    `json:"daysSinceLast"`
	AvgCycleDays  *int   `json:"avgCycleDays,omitempty"`
	ShelfLifeDays int    `json:"shelfLifeDays"`
	Status        string `json:"status"`
}

type smartBuyRow struct {
	Item          string `json:"item"`
	Status        string `json:"status"`
	Reason        string `json:"reason"`
	AvgPriceCents int64  `json:"avgPriceCents"`
}

type otherNeedRow struct {
	Item               string `json:"item"`
	Status             string `json:"status"`
	PriceHereCents     int64  `json:"priceHereCents,omitempty"`
	CheapestStore      string `json:"cheapestStore"`
	CheapestPriceCents int64  `json:"cheapestPriceCents"`
	SavingsCents       int64  `json:"savingsCents,omitempty"`
}

type storePlanPayload struct {
	Store      string         `json:"store"`
	SmartBuys  []smartBuyRow  `json:"smartBuys"`
	OtherNeeds []otherNeedRow `json:"otherNeeds"`
}

type namedAmountRow struct {
	Name        string `json:"name"`
	AmountCents int64  `json:"amountCents"`
}

type overviewPayload struct {
	TotalCents int64            `json:"totalCents"`
	Expenses   int              `json:"expenses"`
	ByCategory []namedAmountRow `json:"byCategory"`
	ByStore    []namedAmountRow `json:"byStore"`
}

type billRow struct {
	Store      string `json:"store"`
	Date       string `json:"date"`
	TotalCents int64  `json:"totalCents"`
	ItemCount  int    `json:"itemCount"`
}

type searchPayload struct {
	Items []expensePayload `json:"items"`
	Bills []billRow        `json:"bills"`
}

// serveCachedDashboard serves the cached response for key, rebuilding it
// from the current expense list on a miss. The cache key carries the
// mutation generation so stale entries are never served.
func (s *Server) serveCachedDashboard(w http.ResponseWriter, r *http.Request, key string, build func(expenses []core.Expense) (any, error)) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	cacheKey := fmt.Sprintf("g%d:%s", s.generation.Load(), key)
	if body, ok := s.dashboardCache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write(body)
		return
	}

	expenses, err := s.expenses.ListExpenses(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	payload, err := build(expenses)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to encode response")
		return
	}
	s.dashboardCache.Set(cacheKey, body)
	slog.DebugContext(r.Context(), "Dashboard response cached", "key", cacheKey, "bytes", len(body))

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(body)
}

func (s *Server) handleSettlement(w http.ResponseWriter, r *http.Request) {
	s.serveCachedDashboard(w, r, "settlement", func(expenses []core.Expense) (any, error) {
		roster, err := s.expenses.Participants(r.Context())
		if err != nil {
			return nil, err
		}
		positions := analytics.Settle(expenses, roster)
		rows := make([]settlementRow, len(positions))
		for i, p := range positions {
			rows[i] = settlementRow{
				Name:          p.Name,
				PaidCents:     p.PaidCents,
				ConsumedCents: p.ConsumedCents,
				NetCents:      p.NetCents,
				Settled:       p.Settled(),
			}
		}
		return rows, nil
	})
}

func forecastRows(forecasts []analytics.ItemForecast) []forecastRow {
	rows := make([]forecastRow, len(forecasts))
	for i, f := range forecasts {
		rows[i] = forecastRow{
			Item:          f.DisplayName,
			Category:      string(f.Category),
			Purchases:     f.Purchases,
			LastPurchase:  f.LastPurchase.String(),
			DaysSinceLast: f.DaysSinceLast,
			ShelfLifeDays: f.ShelfLifeDays,
			Status:        string(f.Status),
		}
		if f.CycleKnown {
			cycle := f.AvgCycleDays
			rows[i].AvgCycleDays = &cycle
		}
	}
	return rows
}

func (s *Server) handleReplenishment(w http.ResponseWriter, r *http.Request) {
	s.serveCachedDashboard(w, r, "replenishment", func(expenses []core.Expense) (any, error) {
		return forecastRows(analytics.Replenishment(expenses, s.now())), nil
	})
}

// handleShoppingList returns only the items that currently need buying.
func (s *Server) handleShoppingList(w http.ResponseWriter, r *http.Request) {
	s.serveCachedDashboard(w, r, "shopping-list", func(expenses []core.Expense) (any, error) {
		return forecastRows(analytics.NeededItems(expenses, s.now())), nil
	})
}

func (s *Server) handleStoreOptimizer(w http.ResponseWriter, r *http.Request) {
	storeName := strings.TrimSpace(r.URL.Query().Get("store"))
	if storeName == "" {
		writeError(w, r, http.StatusBadRequest, "store query parameter is required")
		return
	}

	s.serveCachedDashboard(w, r, "store-optimizer:"+storeName, func(expenses []core.Expense) (any, error) {
		plan := analytics.OptimizeStore(expenses, s.now(), storeName)
		payload := storePlanPayload{
			Store:      plan.Store,
			SmartBuys:  []smartBuyRow{},
			OtherNeeds: []otherNeedRow{},
		}
		for _, b := range plan.SmartBuys {
			payload.SmartBuys = append(payload.SmartBuys, smartBuyRow{
				Item:          b.Item.DisplayName,
				Status:        string(b.Item.Status),
				Reason:        string(b.Reason),
				AvgPriceCents: b.AvgPriceCents,
			})
		}
		for _, n := range plan.OtherNeeds {
			payload.OtherNeeds = append(payload.OtherNeeds, otherNeedRow{
				Item:               n.Item.DisplayName,
				Status:             string(n.Item.Status),
				PriceHereCents:     n.PriceHereCents,
				CheapestStore:      n.CheapestStore,
				CheapestPriceCents: n.CheapestPriceCents,
				SavingsCents:       n.SavingsCents,
			})
		}
		return payload, nil
	})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	s.serveCachedDashboard(w, r, "overview", func(expenses []core.Expense) (any, error) {
		ov := analytics.Summarize(expenses)
		return overviewPayload{
			TotalCents: ov.Total.Cents,
			Expenses:   ov.Expenses,
			ByCategory: namedAmountRows(ov.ByCategory),
			ByStore:    namedAmountRows(ov.ByStore),
		}, nil
	})
}

func namedAmountRows(amounts []analytics.NamedAmount) []namedAmountRow {
	rows := make([]namedAmountRow, len(amounts))
	for i, a := range amounts {
		rows[i] = namedAmountRow{Name: a.Name, AmountCents: a.Amount.Cents}
	}
	return rows
}

// handleSearch is uncached, queries are too varied to be worth caching.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	expenses, err := s.expenses.ListExpenses(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	result := analytics.Search(expenses, r.URL.Query().Get("q"))
	payload := searchPayload{
		Items: payloadsFromExpenses(result.Items),
		Bills: []billRow{},
	}
	for _, b := range result.Bills {
		payload.Bills = append(payload.Bills, billRow{
			Store:      b.Key.Store,
			Date:       b.Key.Date.String(),
			TotalCents: b.TotalCents,
			ItemCount:  b.ItemCount,
		})
	}
	writeJSON(w, http.StatusOK, payload)
}
