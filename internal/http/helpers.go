package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jithinsajeev21/Smartspend/internal/core"
	"github.com/jithinsajeev21/Smartspend/internal/store"
)

// expensePayload is the wire shape of an expense. Amounts travel as
// integer cents, dates as YYYY-MM-DD.
type expensePayload struct {
	ID                  int64  `json:"id,omitempty"`
	Date                string `json:"date"`
	Description         string `json:"description"`
	AmountCents         int64  `json:"amountCents"`
	OriginalAmountCents *int64 `json:"originalAmountCents,omitempty"`
	Category            string `json:"category"`
	Store               string `json:"store"`
	Payer               string `json:"payer"`
	Owner               string `json:"owner"`
}

func payloadFromExpense(e core.Expense) expensePayload {
	p := expensePayload{
		ID:          e.ID,
		Date:        e.Date.String(),
		Description: e.Description,
		AmountCents: e.Amount.Cents,
		Category:    string(e.Category),
		Store:       e.Store,
		Payer:       e.Payer,
		Owner:       e.Owner,
	}
	if e.OriginalAmount != nil {
		cents := e.OriginalAmount.Cents
		p.OriginalAmountCents = &cents
	}
	return p
}

func (p expensePayload) toExpense() (core.Expense, error) {
	date, err := core.ParseDate(p.Date)
	if err != nil {
		return core.Expense{}, err
	}
	e := core.Expense{
		ID:          p.ID,
		Date:        date,
		Description: strings.TrimSpace(p.Description),
		Amount:      core.Money{Cents: p.AmountCents},
		Category:    core.ParseCategory(p.Category),
		Store:       strings.TrimSpace(p.Store),
		Payer:       strings.TrimSpace(p.Payer),
		Owner:       strings.TrimSpace(p.Owner),
	}
	if p.OriginalAmountCents != nil {
		e.OriginalAmount = &core.Money{Cents: *p.OriginalAmountCents}
	}
	return e, e.Validate()
}

func payloadsFromExpenses(expenses []core.Expense) []expensePayload {
	out := make([]expensePayload, len(expenses))
	for i, e := range expenses {
		out[i] = payloadFromExpense(e)
	}
	return out
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if status >= 500 {
		slog.ErrorContext(r.Context(), "Request failed", "status", status, "path", r.URL.Path, "message", msg)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps repository and validation errors to statuses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "expense not found")
	case isValidationError(err):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, err.Error())
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrNegativeAmount,
		core.ErrEmptyDescription,
		core.ErrUnknownCategory,
		core.ErrEmptyStore,
		core.ErrEmptyPayer,
		core.ErrEmptyOwner,
		core.ErrInvalidAmount,
		core.ErrInvalidDay,
		core.ErrInvalidMonth,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// expenseID extracts the numeric ID from /expenses/{id} paths.
func expenseID(path string) (int64, bool) {
	rest := strings.TrimPrefix(path, "/expenses/")
	if rest == "" || strings.Contains(rest, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	w.WriteHeader(http.StatusMethodNotAllowed)
}
