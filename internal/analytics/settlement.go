// Package analytics implements the derived views over the flat expense
// collection: fair-share settlement, replenishment prediction, store price
// optimization and free-text search. Every function here is pure: it takes
// the full collection (and an injected "now" where relevant) and recomputes
// its result in linear passes, holding no state between calls.
package analytics

import (
	"github.com/jithinsajeev21/Smartspend/internal/core"
)

// settledEpsilonCents absorbs rounding drift when deciding whether a
// participant is even.
const settledEpsilonCents = 1

// Position is one participant's settlement standing. Net positive means
// the participant is owed money, net negative means they owe.
type Position struct {
	Name          string
	PaidCents     int64
	ConsumedCents int64
	NetCents      int64
}

// Settled reports whether the position is even up to the rounding epsilon.
func (p Position) Settled() bool {
	n := p.NetCents
	if n < 0 {
		n = -n
	}
	return n < settledEpsilonCents
}

// Settle computes paid, consumed and net per participant.
//
// Positions for the active roster come first, in roster order; historical
// payer/owner names no longer on the roster get positions appended in
// first-encounter order. Expenses owned by the Shared sentinel split evenly
// across the active roster only, with leftover cents going to the first
// (amount mod n) roster members so the result is exactly zero-sum. A Shared
// expense with an empty roster has its consumption skipped.
func Settle(expenses []core.Expense, participants []string) []Position {
	positions := make([]*Position, 0, len(participants))
	index := make(map[string]*Position, len(participants))

	at := func(name string) *Position {
		if p, ok := index[name]; ok {
			return p
		}
		p := &Position{Name: name}
		index[name] = p
		positions = append(positions, p)
		return p
	}

	for _, name := range participants {
		at(name)
	}

	for _, e := range expenses {
		at(e.Payer).PaidCents += e.Amount.Cents

		if e.Owner != core.SharedOwner {
			at(e.Owner).ConsumedCents += e.Amount.Cents
			continue
		}

		n := int64(len(participants))
		if n == 0 {
			// Shared cost with nobody to share it; skip rather than divide by zero.
			continue
		}
		share := e.Amount.Cents / n
		rem := e.Amount.Cents % n
		for i, name := range participants {
			extra := int64(0)
			if int64(i) < rem {
				extra = 1
			}
			at(name).ConsumedCents += share + extra
		}
	}

	out := make([]Position, len(positions))
	for i, p := range positions {
		p.NetCents = p.PaidCents - p.ConsumedCents
		out[i] = *p
	}
	return out
}
