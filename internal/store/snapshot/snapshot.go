// Package snapshot keeps the expense collection in memory and persists it
// best-effort as one JSON array under a single versioned key file. A corrupt
// or missing snapshot is never fatal: the collection just starts empty.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/jithinsajeev21/Smartspend/internal/core"
	"github.com/jithinsajeev21/Smartspend/internal/store"
)

const (
	// ExpensesKey versions the on-disk expense array; bump on breaking
	// format changes so older snapshots are simply ignored.
	ExpensesKey = "smartspend.expenses.v2"
	// ParticipantsKey versions the roster file.
	ParticipantsKey = "smartspend.participants.v1"
)

// record is the persisted form of one expense.
type record struct {
	ID                  int64  `json:"id"`
	Date                string `json:"date"`
	Description         string `json:"description"`
	AmountCents         int64  `json:"amountCents"`
	OriginalAmountCents *int64 `json:"originalAmountCents,omitempty"`
	Category            string `json:"category"`
	Store               string `json:"store"`
	Payer               string `json:"payer"`
	Owner               string `json:"owner"`
}

// Store holds the flat ordered collection plus the roster. All mutations
// are serialized by a single mutex; analytics always read a copy.
type Store struct {
	mu           sync.Mutex
	dir          string
	items        []core.Expense
	participants []string
	nextID       int64
	hasSnapshot  bool
}

var _ store.Repository = (*Store)(nil)

// New loads the snapshot files from dir, tolerating absence and corruption.
func New(dir string) *Store {
	s := &Store{dir: dir, nextID: 1}
	s.load()
	return s
}

func (s *Store) expensesPath() string {
	return filepath.Join(s.dir, ExpensesKey+".json")
}

func (s *Store) participantsPath() string {
	return filepath.Join(s.dir, ParticipantsKey+".json")
}

func (s *Store) load() {
	data, err := os.ReadFile(s.expensesPath())
	switch {
	case errors.Is(err, os.ErrNotExist):
		// First run.
	case err != nil:
		slog.Warn("Failed reading expense snapshot, starting empty", "path", s.expensesPath(), "error", err)
	default:
		var records []record
		if err := json.Unmarshal(data, &records); err != nil {
			slog.Warn("Corrupt expense snapshot ignored, starting empty", "path", s.expensesPath(), "error", err)
			break
		}
		s.hasSnapshot = true
		for _, r := range records {
			e, err := r.toExpense()
			if err != nil {
				slog.Warn("Skipping unreadable snapshot record", "id", r.ID, "error", err)
				continue
			}
			s.items = append(s.items, e)
			if e.ID >= s.nextID {
				s.nextID = e.ID + 1
			}
		}
		slog.Info("Loaded expense snapshot", "path", s.expensesPath(), "count", len(s.items))
	}

	data, err = os.ReadFile(s.participantsPath())
	if err == nil {
		if err := json.Unmarshal(data, &s.participants); err != nil {
			slog.Warn("Corrupt participants snapshot ignored", "path", s.participantsPath(), "error", err)
			s.participants = nil
		}
	}
}

// save persists the collection under the versioned key. The write is skipped
// while the collection is empty and no snapshot exists yet, so a fresh
// install leaves no files behind. Failures are logged, never surfaced.
func (s *Store) save() {
	if len(s.items) == 0 && !s.hasSnapshot {
		return
	}
	records := make([]record, len(s.items))
	for i, e := range s.items {
		records[i] = toRecord(e)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		slog.Error("Failed marshaling expense snapshot", "error", err)
		return
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		slog.Error("Failed creating snapshot directory", "dir", s.dir, "error", err)
		return
	}
	if err := os.WriteFile(s.expensesPath(), data, 0644); err != nil {
		slog.Error("Failed writing expense snapshot", "path", s.expensesPath(), "error", err)
		return
	}
	s.hasSnapshot = true
}

func (s *Store) saveParticipants() {
	data, err := json.Marshal(s.participants)
	if err != nil {
		slog.Error("Failed marshaling participants snapshot", "error", err)
		return
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		slog.Error("Failed creating snapshot directory", "dir", s.dir, "error", err)
		return
	}
	if err := os.WriteFile(s.participantsPath(), data, 0644); err != nil {
		slog.Error("Failed writing participants snapshot", "path", s.participantsPath(), "error", err)
	}
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID
	s.nextID++
	s.items = append(s.items, e)
	s.sortLocked()
	s.save()
	return e.ID, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.items {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, store.ErrNotFound
}

func (s *Store) ListExpenses(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == e.ID {
			s.items[i] = e
			s.sortLocked()
			s.save()
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.save()
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) UpdateBill(_ context.Context, key core.BillKey, upd store.BillUpdate) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	for i := range s.items {
		if s.items[i].Bill() != key {
			continue
		}
		if upd.Store != nil {
			s.items[i].Store = *upd.Store
		}
		if upd.Date != nil {
			s.items[i].Date = *upd.Date
		}
		if upd.Payer != nil {
			s.items[i].Payer = *upd.Payer
		}
		if upd.Owner != nil {
			s.items[i].Owner = *upd.Owner
		}
		changed++
	}
	if changed > 0 {
		s.sortLocked()
		s.save()
	}
	return changed, nil
}

func (s *Store) Participants(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.participants))
	copy(out, s.participants)
	return out, nil
}

func (s *Store) SaveParticipants(_ context.Context, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants = append([]string(nil), names...)
	s.saveParticipants()
	return nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) sortLocked() {
	sort.SliceStable(s.items, func(i, j int) bool {
		if !s.items[i].Date.Equal(s.items[j].Date.Time) {
			return s.items[i].Date.Before(s.items[j].Date.Time)
		}
		return s.items[i].ID < s.items[j].ID
	})
}

func toRecord(e core.Expense) record {
	r := record{
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
		r.OriginalAmountCents = &cents
	}
	return r
}

func (r record) toExpense() (core.Expense, error) {
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse date %q: %w", r.Date, err)
	}
	e := core.Expense{
		ID:          r.ID,
		Date:        date,
		Description: r.Description,
		Amount:      core.Money{Cents: r.AmountCents},
		Category:    core.Category(r.Category),
		Store:       r.Store,
		Payer:       r.Payer,
		Owner:       r.Owner,
	}
	if r.OriginalAmountCents != nil {
		e.OriginalAmount = &core.Money{Cents: *r.OriginalAmountCents}
	}
	return e, nil
}
