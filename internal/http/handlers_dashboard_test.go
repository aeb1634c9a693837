package http

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jithinsajeev21/Smartspend/internal/ai"
	"github.com/jithinsajeev21/Smartspend/internal/core"
)

func seedExpense(t *testing.T, ts *testServer, desc, date, storeName, payer, owner string, cents int64) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/expenses", newExpenseBody(desc, date, storeName, payer, owner, cents))
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed %q = %d: %s", desc, rec.Code, rec.Body.String())
	}
}

func TestSettlementEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPut, "/participants", participantsPayload{Participants: []string{"Me", "Partner"}})
	seedExpense(t, ts, "Groceries", "2024-03-05", "Rewe", "Me", "Shared", 1000)
	seedExpense(t, ts, "More groceries", "2024-03-06", "Rewe", "Partner", "Shared", 2000)

	rec := ts.do(t, http.MethodGet, "/dashboard/settlement", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("settlement = %d", rec.Code)
	}
	var rows []settlementRow
	decodeInto(t, rec, &rows)
	if len(rows) != 2 {
		t.Fatalf("positions = %d, want 2", len(rows))
	}
	if rows[0].Name != "Me" || rows[0].NetCents != -500 {
		t.Errorf("Me = %+v, want net -500", rows[0])
	}
	if rows[1].Name != "Partner" || rows[1].NetCents != 500 {
		t.Errorf("Partner = %+v, want net +500", rows[1])
	}
	if rows[0].Settled || rows[1].Settled {
		t.Error("positions should not be settled")
	}
}

func TestReplenishmentAndShoppingList(t *testing.T) {
	ts := newTestServer(t)
	// now is fixed at 2024-03-20. Dairy (7 day shelf life) bought 10
	// days ago needs restocking; one bought yesterday does not.
	seedExpense(t, ts, "Milk", "2024-03-10", "Rewe", "Me", "Shared", 149)
	seedExpense(t, ts, "Yogurt", "2024-03-19", "Rewe", "Me", "Shared", 89)

	rec := ts.do(t, http.MethodGet, "/dashboard/replenishment", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("replenishment = %d", rec.Code)
	}
	var rows []forecastRow
	decodeInto(t, rec, &rows)
	if len(rows) != 2 {
		t.Fatalf("forecasts = %d, want 2", len(rows))
	}
	if rows[0].Item != "Milk" || rows[0].Status != "Stock Up" {
		t.Errorf("first forecast = %+v, want Milk / Stock Up", rows[0])
	}
	if rows[0].AvgCycleDays != nil {
		t.Errorf("single purchase should have no cycle, got %v", *rows[0].AvgCycleDays)
	}

	rec = ts.do(t, http.MethodGet, "/dashboard/shopping-list", nil)
	var needed []forecastRow
	decodeInto(t, rec, &needed)
	if len(needed) != 1 || needed[0].Item != "Milk" {
		t.Errorf("shopping list = %+v, want only Milk", needed)
	}
}

func TestStoreOptimizerEndpoint(t *testing.T) {
	ts := newTestServer(t)
	// Butter is needed (Dairy, last bought 10 days before the fixed
	// now) and cheaper at Lidl.
	seedExpense(t, ts, "Butter", "2024-03-01", "Rewe", "Me", "Shared", 250)
	seedExpense(t, ts, "Butter", "2024-03-10", "Lidl", "Me", "Shared", 199)

	rec := ts.do(t, http.MethodGet, "/dashboard/store-optimizer?store=Lidl", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("optimizer = %d: %s", rec.Code, rec.Body.String())
	}
	var plan storePlanPayload
	decodeInto(t, rec, &plan)
	if len(plan.SmartBuys) != 1 || plan.SmartBuys[0].Item != "Butter" || plan.SmartBuys[0].Reason != "Best Price" {
		t.Errorf("smartBuys = %+v", plan.SmartBuys)
	}

	rec = ts.do(t, http.MethodGet, "/dashboard/store-optimizer?store=Rewe", nil)
	decodeInto(t, rec, &plan)
	if len(plan.OtherNeeds) != 1 || plan.OtherNeeds[0].CheapestStore != "Lidl" {
		t.Errorf("otherNeeds = %+v", plan.OtherNeeds)
	}

	if rec := ts.do(t, http.MethodGet, "/dashboard/store-optimizer", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("missing store param = %d, want 400", rec.Code)
	}
}

func TestOverviewEndpoint(t *testing.T) {
	ts := newTestServer(t)
	seedExpense(t, ts, "Milk", "2024-03-05", "Rewe", "Me", "Shared", 150)
	seedExpense(t, ts, "Soap", "2024-03-05", "dm", "Me", "Shared", 300)

	rec := ts.do(t, http.MethodGet, "/dashboard/overview", nil)
	var ov overviewPayload
	decodeInto(t, rec, &ov)
	if ov.TotalCents != 450 || ov.Expenses != 2 {
		t.Errorf("overview = %+v", ov)
	}
	if len(ov.ByStore) != 2 || ov.ByStore[0].Name != "dm" {
		t.Errorf("byStore = %+v, want dm first (largest)", ov.ByStore)
	}
}

func TestDashboardCacheInvalidatedByMutation(t *testing.T) {
	ts := newTestServer(t)
	seedExpense(t, ts, "Milk", "2024-03-05", "Rewe", "Me", "Shared", 150)

	rec := ts.do(t, http.MethodGet, "/dashboard/overview", nil)
	var before overviewPayload
	decodeInto(t, rec, &before)

	// Same response again, now served from cache.
	rec = ts.do(t, http.MethodGet, "/dashboard/overview", nil)
	decodeInto(t, rec, &before)
	if before.TotalCents != 150 {
		t.Fatalf("cached total = %d", before.TotalCents)
	}

	seedExpense(t, ts, "Bread", "2024-03-06", "Rewe", "Me", "Shared", 220)

	rec = ts.do(t, http.MethodGet, "/dashboard/overview", nil)
	var after overviewPayload
	decodeInto(t, rec, &after)
	if after.TotalCents != 370 {
		t.Errorf("total after mutation = %d, want 370", after.TotalCents)
	}
}

func TestSearchEndpoint(t *testing.T) {
	ts := newTestServer(t)
	seedExpense(t, ts, "Organic Milk", "2024-03-05", "Rewe", "Me", "Shared", 149)
	seedExpense(t, ts, "Bread", "2024-03-05", "Rewe", "Me", "Shared", 220)

	rec := ts.do(t, http.MethodGet, "/search?q=milk", nil)
	var result searchPayload
	decodeInto(t, rec, &result)
	if len(result.Items) != 1 || result.Items[0].Description != "Organic Milk" {
		t.Errorf("items = %+v", result.Items)
	}

	rec = ts.do(t, http.MethodGet, "/search?q=rewe", nil)
	decodeInto(t, rec, &result)
	if len(result.Bills) != 1 || result.Bills[0].TotalCents != 369 || result.Bills[0].ItemCount != 2 {
		t.Errorf("bills = %+v", result.Bills)
	}

	rec = ts.do(t, http.MethodGet, "/search?q=", nil)
	decodeInto(t, rec, &result)
	if len(result.Items) != 0 || len(result.Bills) != 0 {
		t.Errorf("blank query matched: %+v", result)
	}
}

func multipartReceipt(t *testing.T, payer, owner string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if payer != "" {
		_ = mw.WriteField("payer", payer)
	}
	if owner != "" {
		_ = mw.WriteField("owner", owner)
	}
	fw, err := mw.CreateFormFile("image", "receipt.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write([]byte("fake image bytes"))
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestScanReceiptEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.scanner.scan = ai.ReceiptScan{Items: []ai.ReceiptItem{{
		Description: "Milk",
		Amount:      core.Money{Cents: 149},
		Date:        core.NewDate(2024, 3, 5),
		Store:       "Rewe",
		Category:    core.CategoryDairy,
	}}}

	body, contentType := multipartReceipt(t, "Me", "Shared")
	req := httptest.NewRequest(http.MethodPost, "/receipts/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ts.Server.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("scan = %d: %s", rec.Code, rec.Body.String())
	}
	var resp scanResponse
	decodeInto(t, rec, &resp)
	if len(resp.Created) != 1 || resp.Created[0].Description != "Milk" {
		t.Errorf("created = %+v", resp.Created)
	}

	list := ts.do(t, http.MethodGet, "/expenses", nil)
	var all []expensePayload
	decodeInto(t, list, &all)
	if len(all) != 1 {
		t.Errorf("stored expenses = %d, want 1", len(all))
	}
}

func TestScanReceiptEndpoint_MissingAttribution(t *testing.T) {
	ts := newTestServer(t)
	body, contentType := multipartReceipt(t, "", "")
	req := httptest.NewRequest(http.MethodPost, "/receipts/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ts.Server.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("scan without payer/owner = %d, want 422", rec.Code)
	}
}

func TestInsightsEndpointCaches(t *testing.T) {
	ts := newTestServer(t)
	ts.insights.insight = ai.Insight{Summary: "Steady.", Tips: []string{"Keep going."}, Sentiment: ai.SentimentPositive}

	rec := ts.do(t, http.MethodGet, "/insights", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("insights = %d", rec.Code)
	}
	var insight ai.Insight
	decodeInto(t, rec, &insight)
	if insight.Summary != "Steady." {
		t.Errorf("insight = %+v", insight)
	}

	ts.do(t, http.MethodGet, "/insights", nil)
	if ts.insights.calls != 1 {
		t.Errorf("generator calls = %d, want 1 (second hit cached)", ts.insights.calls)
	}

	// A mutation invalidates the cached analysis.
	seedExpense(t, ts, "Milk", "2024-03-05", "Rewe", "Me", "Shared", 149)
	ts.do(t, http.MethodGet, "/insights", nil)
	if ts.insights.calls != 2 {
		t.Errorf("generator calls after mutation = %d, want 2", ts.insights.calls)
	}
}

func TestAIEndpointsUnconfigured(t *testing.T) {
	svcServer := NewServer("127.0.0.1:0", newTestServer(t).expenses, nil, nil)
	t.Cleanup(func() { _ = svcServer.Close() })

	req := httptest.NewRequest(http.MethodGet, "/insights", nil)
	rec := httptest.NewRecorder()
	svcServer.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("insights unconfigured = %d, want 503", rec.Code)
	}

	body, contentType := multipartReceipt(t, "Me", "Shared")
	req = httptest.NewRequest(http.MethodPost, "/receipts/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	svcServer.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("scan unconfigured = %d, want 503", rec.Code)
	}
}
