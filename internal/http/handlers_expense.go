package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jithinsajeev21/Smartspend/internal/core"
	"github.com/jithinsajeev21/Smartspend/internal/store"
)

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listExpenses(w, r)
	case http.MethodPost:
		s.createExpense(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.expenses.ListExpenses(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payloadsFromExpenses(expenses))
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request) {
	var payload expensePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	payload.ID = 0
	e, err := payload.toExpense()
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.expenses.CreateExpense(r.Context(), e)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	e.ID = id
	s.bumpGeneration()

	slog.InfoContext(r.Context(), "Expense created",
		"id", id,
		"description", e.Description,
		"amount_cents", e.Amount.Cents,
		"store", e.Store)
	writeJSON(w, http.StatusCreated, payloadFromExpense(e))
}

func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	id, ok := expenseID(r.URL.Path)
	if !ok {
		writeError(w, r, http.StatusNotFound, "invalid expense id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		e, err := s.expenses.GetExpense(r.Context(), id)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, payloadFromExpense(e))
	case http.MethodPut:
		var payload expensePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid JSON body")
			return
		}
		payload.ID = id
		e, err := payload.toExpense()
		if err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if err := s.expenses.UpdateExpense(r.Context(), e); err != nil {
			writeDomainError(w, r, err)
			return
		}
		s.bumpGeneration()
		writeJSON(w, http.StatusOK, payloadFromExpense(e))
	case http.MethodDelete:
		if err := s.expenses.DeleteExpense(r.Context(), id); err != nil {
			writeDomainError(w, r, err)
			return
		}
		s.bumpGeneration()
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, "GET, PUT, DELETE")
	}
}

// billUpdatePayload identifies a bill by store and date and carries the
// fields to change on every expense of that visit.
type billUpdatePayload struct {
	Store    string  `json:"store"`
	Date     string  `json:"date"`
	NewStore *string `json:"newStore,omitempty"`
	NewDate  *string `json:"newDate,omitempty"`
	NewPayer *string `json:"newPayer,omitempty"`
	NewOwner *string `json:"newOwner,omitempty"`
}

type billUpdateResponse struct {
	ExpensesChanged int `json:"expensesChanged"`
}

func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var payload billUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(payload.Store) == "" {
		writeError(w, r, http.StatusUnprocessableEntity, "store is required")
		return
	}
	date, err := core.ParseDate(payload.Date)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "invalid bill date")
		return
	}

	upd := store.BillUpdate{
		Store: payload.NewStore,
		Payer: payload.NewPayer,
		Owner: payload.NewOwner,
	}
	if payload.NewDate != nil {
		newDate, err := core.ParseDate(*payload.NewDate)
		if err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, "invalid new bill date")
			return
		}
		upd.Date = &newDate
	}

	changed, err := s.expenses.UpdateBill(r.Context(), core.BillKey{Store: payload.Store, Date: date}, upd)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if changed > 0 {
		s.bumpGeneration()
	}
	writeJSON(w, http.StatusOK, billUpdateResponse{ExpensesChanged: changed})
}

type participantsPayload struct {
	Participants []string `json:"participants"`
}

func (s *Server) handleParticipants(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		names, err := s.expenses.Participants(r.Context())
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		if names == nil {
			names = []string{}
		}
		writeJSON(w, http.StatusOK, participantsPayload{Participants: names})
	case http.MethodPut:
		var payload participantsPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid JSON body")
			return
		}
		names := make([]string, 0, len(payload.Participants))
		for _, n := range payload.Participants {
			n = strings.TrimSpace(n)
			if n == "" {
				writeError(w, r, http.StatusUnprocessableEntity, "participant names cannot be blank")
				return
			}
			names = append(names, n)
		}
		if err := s.expenses.SaveParticipants(r.Context(), names); err != nil {
			writeDomainError(w, r, err)
			return
		}
		s.bumpGeneration()
		writeJSON(w, http.StatusOK, participantsPayload{Participants: names})
	default:
		methodNotAllowed(w, "GET, PUT")
	}
}
