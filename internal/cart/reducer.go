package cart

import "github.com/shopspring/decimal"

// MaxQuantity caps a single row. Merges and updates saturate at this value.
const MaxQuantity = 9999

func clampQuantity(qty int) int {
	if qty > MaxQuantity {
		return MaxQuantity
	}
	return qty
}

// addQuantity merges two positive quantities without overflowing past MaxQuantity.
func addQuantity(current, delta int) int {
	current, delta = clampQuantity(current), clampQuantity(delta)
	return clampQuantity(current + delta)
}

// Reduce applies intent to state and returns the next state. It never mutates state.Items,
// and Total/ItemCount are recomputed on every call. Version is left to the caller.
func Reduce(state Snapshot, intent Intent) Snapshot {
	var items []LineItem
	switch in := intent.(type) {
	case AddItem:
		items = addItem(state.Items, in)
	case RemoveItem:
		items = removeItem(state.Items, in.ID)
	case UpdateQuantity:
		if in.Quantity <= 0 {
			items = removeItem(state.Items, in.ID)
		} else {
			items = setQuantity(state.Items, in.ID, in.Quantity)
		}
	case ClearCart:
		items = []LineItem{}
	case LoadCart:
		items = normalize(in.Items)
	default:
		items = cloneItems(state.Items)
	}

	next := recompute(items)
	next.Version = state.Version
	return next
}

func addItem(items []LineItem, in AddItem) []LineItem {
	qty := clampQuantity(in.quantity())
	out := cloneItems(items)
	for i := range out {
		if out[i].ID == in.Item.ID {
			out[i].Quantity = addQuantity(out[i].Quantity, qty)
			return out
		}
	}
	added := in.Item
	added.Quantity = qty
	return append(out, added)
}

func removeItem(items []LineItem, id int64) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}

func setQuantity(items []LineItem, id int64, qty int) []LineItem {
	out := cloneItems(items)
	for i := range out {
		if out[i].ID == id {
			out[i].Quantity = clampQuantity(qty)
		}
	}
	return out
}

// normalize enforces the item invariants on externally supplied sequences:
// rows with quantity below 1 are dropped, repeated ids are merged into the first row and
// quantities are capped at MaxQuantity.
func normalize(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	index := make(map[int64]int, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			continue
		}
		if pos, ok := index[item.ID]; ok {
			out[pos].Quantity = addQuantity(out[pos].Quantity, item.Quantity)
			continue
		}
		index[item.ID] = len(out)
		item.Quantity = clampQuantity(item.Quantity)
		out = append(out, item)
	}
	return out
}

func recompute(items []LineItem) Snapshot {
	total := decimal.Zero
	count := 0
	for _, item := range items {
		total = total.Add(item.Subtotal())
		count += item.Quantity
	}
	return Snapshot{Items: items, Total: total, ItemCount: count}
}
