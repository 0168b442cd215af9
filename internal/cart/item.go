package cart

import "github.com/shopspring/decimal"

// LineItem is one product at one price point in the cart.
type LineItem struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	UnitPrice     decimal.Decimal  `json:"unitPrice"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Quantity      int              `json:"quantity"`
	Image         string           `json:"image,omitempty"`
	Store         string           `json:"store,omitempty"`
	InStock       bool             `json:"inStock"`
	VariationID   *int64           `json:"variationId,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

// Subtotal is unit price times quantity.
func (i LineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Snapshot is the full cart state. Total and ItemCount are always derived from Items.
type Snapshot struct {
	Items     []LineItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
	// Version increases with every transition applied by an Engine.
	Version uint64 `json:"version"`
}

// Empty is the zero cart.
func Empty() Snapshot {
	return Snapshot{Items: []LineItem{}, Total: decimal.Zero}
}

// IsEmpty reports whether the cart holds no items.
func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// Clone returns a copy that shares no item storage with s.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Items = cloneItems(s.Items)
	return out
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
