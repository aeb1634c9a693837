package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jithinsajeev21/Smartspend/internal/ai"
	"github.com/jithinsajeev21/Smartspend/internal/core"
	"github.com/jithinsajeev21/Smartspend/internal/services"
	"github.com/jithinsajeev21/Smartspend/internal/store/snapshot"
)

type stubScanner struct {
	scan ai.ReceiptScan
	err  error
}

func (s *stubScanner) ParseReceipt(context.Context, []byte, string) (ai.ReceiptScan, error) {
	return s.scan, s.err
}

type stubInsights struct {
	insight ai.Insight
	calls   int
}

func (s *stubInsights) GenerateInsight(context.Context, []core.Expense) ai.Insight {
	s.calls++
	return s.insight
}

type testServer struct {
	*Server
	scanner  *stubScanner
	insights *stubInsights
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	svc := services.NewExpenseService(snapshot.New(t.TempDir()), nil)
	scanner := &stubScanner{}
	insights := &stubInsights{insight: ai.FallbackInsight()}
	s := NewServer("127.0.0.1:0", svc, services.NewReceiptImporter(scanner, svc), insights)
	s.now = func() time.Time { return time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return &testServer{Server: s, scanner: scanner, insights: insights}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.Server.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func newExpenseBody(desc, date, storeName, payer, owner string, cents int64) map[string]any {
	return map[string]any{
		"date":        date,
		"description": desc,
		"amountCents": cents,
		"category":    "Dairy",
		"store":       storeName,
		"payer":       payer,
		"owner":       owner,
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		if rec := ts.do(t, http.MethodGet, path, nil); rec.Code != http.StatusOK {
			t.Errorf("%s = %d, want 200", path, rec.Code)
		}
	}
}

func TestExpenseCRUD(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/expenses", newExpenseBody("Milk", "2024-03-05", "Rewe", "Me", "Shared", 149))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rec.Code, rec.Body.String())
	}
	var created expensePayload
	decodeInto(t, rec, &created)
	if created.ID == 0 || created.Description != "Milk" {
		t.Fatalf("created = %+v", created)
	}

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/expenses/%d", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get = %d", rec.Code)
	}

	update := newExpenseBody("Oat Milk", "2024-03-05", "Rewe", "Me", "Partner", 199)
	rec = ts.do(t, http.MethodPut, fmt.Sprintf("/expenses/%d", created.ID), update)
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d: %s", rec.Code, rec.Body.String())
	}
	var updated expensePayload
	decodeInto(t, rec, &updated)
	if updated.Description != "Oat Milk" || updated.Owner != "Partner" {
		t.Errorf("updated = %+v", updated)
	}

	rec = ts.do(t, http.MethodDelete, fmt.Sprintf("/expenses/%d", created.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/expenses/%d", created.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}
}

func TestCreateExpenseRejectsBadInput(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"negative amount", newExpenseBody("Milk", "2024-03-05", "Rewe", "Me", "Shared", -5), http.StatusUnprocessableEntity},
		{"blank description", newExpenseBody("  ", "2024-03-05", "Rewe", "Me", "Shared", 100), http.StatusUnprocessableEntity},
		{"bad date", newExpenseBody("Milk", "05.03.2024", "Rewe", "Me", "Shared", 100), http.StatusUnprocessableEntity},
		{"missing store", newExpenseBody("Milk", "2024-03-05", "", "Me", "Shared", 100), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := ts.do(t, http.MethodPost, "/expenses", tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	ts.Server.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON = %d, want 400", rec.Code)
	}
}

func TestExpenseByID_InvalidPath(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/expenses/abc", "/expenses/0", "/expenses/1/extra"} {
		if rec := ts.do(t, http.MethodGet, path, nil); rec.Code != http.StatusNotFound {
			t.Errorf("%s = %d, want 404", path, rec.Code)
		}
	}
}

func TestUpdateBill(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/expenses", newExpenseBody("Milk", "2024-03-05", "Rewe", "Me", "Shared", 149))
	ts.do(t, http.MethodPost, "/expenses", newExpenseBody("Bread", "2024-03-05", "Rewe", "Me", "Shared", 220))
	ts.do(t, http.MethodPost, "/expenses", newExpenseBody("Soap", "2024-03-05", "dm", "Me", "Shared", 300))

	rec := ts.do(t, http.MethodPost, "/bills/update", map[string]any{
		"store":    "Rewe",
		"date":     "2024-03-05",
		"newPayer": "Partner",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("bill update = %d: %s", rec.Code, rec.Body.String())
	}
	var resp billUpdateResponse
	decodeInto(t, rec, &resp)
	if resp.ExpensesChanged != 2 {
		t.Errorf("expensesChanged = %d, want 2", resp.ExpensesChanged)
	}

	rec = ts.do(t, http.MethodGet, "/expenses", nil)
	var all []expensePayload
	decodeInto(t, rec, &all)
	for _, e := range all {
		if e.Store == "Rewe" && e.Payer != "Partner" {
			t.Errorf("bill expense %q payer = %q, want Partner", e.Description, e.Payer)
		}
		if e.Store == "dm" && e.Payer != "Me" {
			t.Errorf("unrelated expense payer changed: %+v", e)
		}
	}
}

func TestUpdateBill_Validation(t *testing.T) {
	ts := newTestServer(t)

	if rec := ts.do(t, http.MethodPost, "/bills/update", map[string]any{"date": "2024-03-05"}); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("missing store = %d, want 422", rec.Code)
	}
	if rec := ts.do(t, http.MethodPost, "/bills/update", map[string]any{"store": "Rewe", "date": "bad"}); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad date = %d, want 422", rec.Code)
	}
}

func TestParticipants(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/participants", nil)
	var got participantsPayload
	decodeInto(t, rec, &got)
	if len(got.Participants) != 0 {
		t.Errorf("initial roster = %v, want empty", got.Participants)
	}

	rec = ts.do(t, http.MethodPut, "/participants", participantsPayload{Participants: []string{"Me", "Partner"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("save roster = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/participants", nil)
	decodeInto(t, rec, &got)
	if len(got.Participants) != 2 || got.Participants[0] != "Me" {
		t.Errorf("roster = %v", got.Participants)
	}

	rec = ts.do(t, http.MethodPut, "/participants", participantsPayload{Participants: []string{"Me", " "}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("blank name = %d, want 422", rec.Code)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/expenses", nil)
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}
