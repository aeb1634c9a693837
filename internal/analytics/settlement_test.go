package analytics

import (
	"testing"

	"github.com/jithinsajeev21/Smartspend/internal/core"
)

func expense(desc string, cents int64, date core.Date, cat core.Category, store, payer, owner string) core.Expense {
	return core.Expense{
		Date:        date,
		Description: desc,
		Amount:      core.Money{Cents: cents},
		Category:    cat,
		Store:       store,
		Payer:       payer,
		Owner:       owner,
	}
}

func positionByName(t *testing.T, positions []Position, name string) Position {
	t.Helper()
	for _, p := range positions {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("no position for %q", name)
	return Position{}
}

func TestSettle_SharedAndDirectOwnership(t *testing.T) {
	participants := []string{"Me", "Partner"}
	expenses := []core.Expense{
		expense("Milk", 1000, core.NewDate(2024, 3, 1), core.CategoryDairy, "Rewe", "Me", core.SharedOwner),
		expense("Steak", 2000, core.NewDate(2024, 3, 2), core.CategoryMeat, "Rewe", "Partner", "Me"),
	}

	positions := Settle(expenses, participants)
	if len(positions) != 2 {
		t.Fatalf("Settle() returned %d positions, want 2", len(positions))
	}

	me := positionByName(t, positions, "Me")
	partner := positionByName(t, positions, "Partner")

	if me.PaidCents != 1000 || partner.PaidCents != 2000 {
		t.Errorf("paid = {Me:%d, Partner:%d}, want {Me:1000, Partner:2000}", me.PaidCents, partner.PaidCents)
	}
	if me.ConsumedCents != 2500 || partner.ConsumedCents != 500 {
		t.Errorf("consumed = {Me:%d, Partner:%d}, want {Me:2500, Partner:500}", me.ConsumedCents, partner.ConsumedCents)
	}
	if me.NetCents != -1500 || partner.NetCents != 1500 {
		t.Errorf("net = {Me:%d, Partner:%d}, want {Me:-1500, Partner:1500}", me.NetCents, partner.NetCents)
	}
}

func TestSettle_ZeroSum(t *testing.T) {
	participants := []string{"A", "B", "C"}
	expenses := []core.Expense{
		expense("Bread", 1001, core.NewDate(2024, 1, 1), core.CategoryBakery, "Lidl", "A", core.SharedOwner),
		expense("Cheese", 333, core.NewDate(2024, 1, 2), core.CategoryDairy, "Lidl", "B", core.SharedOwner),
		expense("Apples", 777, core.NewDate(2024, 1, 3), core.CategoryProduce, "Aldi", "C", "A"),
		expense("Soap", 250, core.NewDate(2024, 1, 4), core.CategoryHousehold, "dm", "A", "B"),
	}

	var sum int64
	for _, p := range Settle(expenses, participants) {
		sum += p.NetCents
	}
	if sum != 0 {
		t.Errorf("sum of nets = %d cents, want 0 (settlement must be zero-sum)", sum)
	}
}

func TestSettle_SharedRemainderGoesToFirstParticipants(t *testing.T) {
	participants := []string{"A", "B", "C"}
	expenses := []core.Expense{
		expense("Wine", 1000, core.NewDate(2024, 2, 1), core.CategoryBeverages, "Rewe", "A", core.SharedOwner),
	}

	positions := Settle(expenses, participants)
	a := positionByName(t, positions, "A")
	b := positionByName(t, positions, "B")
	c := positionByName(t, positions, "C")

	// 1000 / 3 = 333 with 1 leftover cent for the first roster member.
	if a.ConsumedCents != 334 || b.ConsumedCents != 333 || c.ConsumedCents != 333 {
		t.Errorf("consumed = {A:%d, B:%d, C:%d}, want {A:334, B:333, C:333}",
			a.ConsumedCents, b.ConsumedCents, c.ConsumedCents)
	}
}

func TestSettle_UnknownNamesGetPositionsOnTheFly(t *testing.T) {
	participants := []string{"Me"}
	expenses := []core.Expense{
		expense("Eggs", 400, core.NewDate(2024, 2, 1), core.CategoryDairy, "Rewe", "OldFlatmate", "Me"),
		expense("Juice", 300, core.NewDate(2024, 2, 2), core.CategoryBeverages, "Rewe", "Me", "OtherOldFlatmate"),
	}

	positions := Settle(expenses, participants)
	if len(positions) != 3 {
		t.Fatalf("Settle() returned %d positions, want 3 (roster + 2 stale names)", len(positions))
	}
	if positions[0].Name != "Me" {
		t.Errorf("first position = %q, want roster member first", positions[0].Name)
	}
	if got := positionByName(t, positions, "OldFlatmate").PaidCents; got != 400 {
		t.Errorf("stale payer paid = %d, want 400", got)
	}
	if got := positionByName(t, positions, "OtherOldFlatmate").ConsumedCents; got != 300 {
		t.Errorf("stale owner consumed = %d, want 300", got)
	}
}

func TestSettle_EmptyRosterSkipsSharedConsumption(t *testing.T) {
	expenses := []core.Expense{
		expense("Milk", 500, core.NewDate(2024, 2, 1), core.CategoryDairy, "Rewe", "Me", core.SharedOwner),
	}

	positions := Settle(expenses, nil)
	me := positionByName(t, positions, "Me")
	if me.PaidCents != 500 {
		t.Errorf("paid = %d, want 500", me.PaidCents)
	}
	if me.ConsumedCents != 0 {
		t.Errorf("consumed = %d, want 0 (shared split undefined on empty roster)", me.ConsumedCents)
	}
}

func TestSettle_EmptyCollection(t *testing.T) {
	positions := Settle(nil, []string{"Me", "Partner"})
	for _, p := range positions {
		if p.PaidCents != 0 || p.ConsumedCents != 0 || p.NetCents != 0 {
			t.Errorf("position %q not zeroed: %+v", p.Name, p)
		}
		if !p.Settled() {
			t.Errorf("position %q should report settled", p.Name)
		}
	}
}

func TestSettle_Idempotent(t *testing.T) {
	participants := []string{"Me", "Partner"}
	expenses := []core.Expense{
		expense("Milk", 1000, core.NewDate(2024, 3, 1), core.CategoryDairy, "Rewe", "Me", core.SharedOwner),
		expense("Steak", 2000, core.NewDate(2024, 3, 2), core.CategoryMeat, "Rewe", "Partner", "Me"),
	}

	first := Settle(expenses, participants)
	second := Settle(expenses, participants)
	if len(first) != len(second) {
		t.Fatalf("recomputation changed position count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("position %d differs across recomputations: %+v vs %+v", i, first[i], second[i])
		}
	}
}
