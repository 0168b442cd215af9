package cart

import (
	"testing"

	"github.com/shopspring/decimal"
)

func price(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func assertDerived(t *testing.T, snap Snapshot) {
	t.Helper()
	total := decimal.Zero
	count := 0
	seen := map[int64]bool{}
	for _, item := range snap.Items {
		if seen[item.ID] {
			t.Fatalf("duplicate id %d in %+v", item.ID, snap.Items)
		}
		seen[item.ID] = true
		if item.Quantity < 1 {
			t.Fatalf("item %d has quantity %d", item.ID, item.Quantity)
		}
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		count += item.Quantity
	}
	if !snap.Total.Equal(total) {
		t.Fatalf("total %s, want %s", snap.Total, total)
	}
	if snap.ItemCount != count {
		t.Fatalf("item count %d, want %d", snap.ItemCount, count)
	}
}

func TestReduceMergesRepeatedAdds(t *testing.T) {
	state := Empty()
	state = Reduce(state, AddItem{Item: LineItem{ID: 1, UnitPrice: price("10.00"), Quantity: 1}})
	state = Reduce(state, AddItem{Item: LineItem{ID: 1, UnitPrice: price("10.00"), Quantity: 2}})

	if len(state.Items) != 1 || state.Items[0].Quantity != 3 {
		t.Fatalf("expected one row with quantity 3, got %+v", state.Items)
	}
	if !state.Total.Equal(price("30.00")) || state.ItemCount != 3 {
		t.Fatalf("unexpected aggregates total=%s count=%d", state.Total, state.ItemCount)
	}

	state = Reduce(state, UpdateQuantity{ID: 1, Quantity: 0})
	if len(state.Items) != 0 || !state.Total.IsZero() || state.ItemCount != 0 {
		t.Fatalf("expected empty cart, got %+v", state)
	}
}

func TestReduceSumsAcrossItems(t *testing.T) {
	state := Empty()
	state = Reduce(state, AddItem{Item: LineItem{ID: 5, UnitPrice: price("50")}, Quantity: 1})
	state = Reduce(state, AddItem{Item: LineItem{ID: 6, UnitPrice: price("25")}, Quantity: 2})

	if !state.Total.Equal(price("100")) {
		t.Fatalf("expected total 100, got %s", state.Total)
	}
	if state.ItemCount != 3 {
		t.Fatalf("expected item count 3, got %d", state.ItemCount)
	}
}

func TestAddItemQuantityDefaults(t *testing.T) {
	cases := []struct {
		name   string
		intent AddItem
		want   int
	}{
		{name: "explicit quantity wins", intent: AddItem{Item: LineItem{ID: 1, Quantity: 4}, Quantity: 2}, want: 2},
		{name: "item quantity used", intent: AddItem{Item: LineItem{ID: 1, Quantity: 4}}, want: 4},
		{name: "defaults to one", intent: AddItem{Item: LineItem{ID: 1}}, want: 1},
		{name: "negative falls back to one", intent: AddItem{Item: LineItem{ID: 1, Quantity: -3}, Quantity: -1}, want: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Reduce(Empty(), tc.intent)
			if len(got.Items) != 1 || got.Items[0].Quantity != tc.want {
				t.Fatalf("expected quantity %d, got %+v", tc.want, got.Items)
			}
		})
	}
}

func TestUpdateQuantityFloor(t *testing.T) {
	base := Reduce(Empty(), AddItem{Item: LineItem{ID: 7, UnitPrice: price("3.50")}, Quantity: 2})

	for _, q := range []int{0, -1, -100} {
		got := Reduce(base, UpdateQuantity{ID: 7, Quantity: q})
		if len(got.Items) != 0 {
			t.Fatalf("quantity %d should remove the item, got %+v", q, got.Items)
		}
	}

	got := Reduce(base, UpdateQuantity{ID: 7, Quantity: 9})
	if len(got.Items) != 1 || got.Items[0].Quantity != 9 {
		t.Fatalf("expected single row with quantity 9, got %+v", got.Items)
	}
	assertDerived(t, got)

	missing := Reduce(base, UpdateQuantity{ID: 99, Quantity: 4})
	if len(missing.Items) != 1 || missing.Items[0].ID != 7 {
		t.Fatalf("updating an absent id must not add rows, got %+v", missing.Items)
	}
}

func TestRemoveItemAbsentIsNoop(t *testing.T) {
	base := Reduce(Empty(), AddItem{Item: LineItem{ID: 1, UnitPrice: price("1")}})
	got := Reduce(base, RemoveItem{ID: 42})
	if len(got.Items) != 1 {
		t.Fatalf("expected unchanged cart, got %+v", got.Items)
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	base := Reduce(Empty(), AddItem{Item: LineItem{ID: 1, UnitPrice: price("2")}, Quantity: 1})
	_ = Reduce(base, AddItem{Item: LineItem{ID: 1, UnitPrice: price("2")}, Quantity: 5})
	_ = Reduce(base, UpdateQuantity{ID: 1, Quantity: 8})
	if base.Items[0].Quantity != 1 {
		t.Fatalf("input snapshot mutated: %+v", base.Items)
	}
}

func TestLoadCartRederivesTotalsAndNormalizes(t *testing.T) {
	state := Reduce(Empty(), LoadCart{Items: []LineItem{
		{ID: 1, UnitPrice: price("4.25"), Quantity: 2},
		{ID: 2, UnitPrice: price("1.00"), Quantity: 0},
		{ID: 1, UnitPrice: price("4.25"), Quantity: 1},
		{ID: 3, UnitPrice: price("0.10"), Quantity: 10},
	}})

	if len(state.Items) != 2 {
		t.Fatalf("expected two rows after normalization, got %+v", state.Items)
	}
	if state.Items[0].ID != 1 || state.Items[0].Quantity != 3 {
		t.Fatalf("expected merged first row, got %+v", state.Items[0])
	}
	assertDerived(t, state)
	if !state.Total.Equal(price("13.75")) {
		t.Fatalf("expected total 13.75, got %s", state.Total)
	}
}

func TestClearCartResets(t *testing.T) {
	state := Reduce(Empty(), AddItem{Item: LineItem{ID: 1, UnitPrice: price("9")}, Quantity: 3})
	state = Reduce(state, ClearCart{})
	if !state.IsEmpty() || !state.Total.IsZero() || state.ItemCount != 0 || state.Items == nil {
		t.Fatalf("expected empty snapshot with non-nil items, got %+v", state)
	}
}

func TestAggregatesHoldAcrossIntentSequence(t *testing.T) {
	intents := []Intent{
		AddItem{Item: LineItem{ID: 1, UnitPrice: price("0.10")}, Quantity: 3},
		AddItem{Item: LineItem{ID: 2, UnitPrice: price("19.99")}},
		AddItem{Item: LineItem{ID: 1, UnitPrice: price("0.10")}, Quantity: 7},
		UpdateQuantity{ID: 2, Quantity: 4},
		AddItem{Item: LineItem{ID: 3, UnitPrice: price("0.01")}, Quantity: 100},
		RemoveItem{ID: 1},
		UpdateQuantity{ID: 3, Quantity: -2},
		AddItem{Item: LineItem{ID: 2, UnitPrice: price("19.99")}, Quantity: 1},
		AddItem{Item: LineItem{ID: 4, UnitPrice: price("0")}, Quantity: 2},
	}

	state := Empty()
	for i, intent := range intents {
		state = Reduce(state, intent)
		t.Run(IntentName(intent), func(t *testing.T) {
			assertDerived(t, state)
		})
		if i == 2 && state.Items[0].Quantity != 10 {
			t.Fatalf("expected merged quantity 10, got %d", state.Items[0].Quantity)
		}
	}
	if !state.Total.Equal(price("99.95")) || state.ItemCount != 7 {
		t.Fatalf("unexpected final aggregates total=%s count=%d", state.Total, state.ItemCount)
	}
}

func TestQuantitySaturatesInsteadOfOverflowing(t *testing.T) {
	const huge = int(^uint(0) >> 1)
	state := Empty()
	state = Reduce(state, AddItem{Item: LineItem{ID: 1, UnitPrice: price("1")}, Quantity: huge})
	state = Reduce(state, AddItem{Item: LineItem{ID: 1, UnitPrice: price("1")}, Quantity: 2})
	assertDerived(t, state)
	if state.Items[0].Quantity != MaxQuantity {
		t.Fatalf("expected quantity capped at %d, got %d", MaxQuantity, state.Items[0].Quantity)
	}

	state = Reduce(state, UpdateQuantity{ID: 1, Quantity: huge})
	assertDerived(t, state)
	if state.Items[0].Quantity != MaxQuantity {
		t.Fatalf("expected update capped at %d, got %d", MaxQuantity, state.Items[0].Quantity)
	}

	loaded := Reduce(Empty(), LoadCart{Items: []LineItem{
		{ID: 2, UnitPrice: price("1"), Quantity: huge},
		{ID: 2, UnitPrice: price("1"), Quantity: huge},
	}})
	assertDerived(t, loaded)
	if len(loaded.Items) != 1 || loaded.Items[0].Quantity != MaxQuantity {
		t.Fatalf("expected merged row capped at %d, got %+v", MaxQuantity, loaded.Items)
	}
}
