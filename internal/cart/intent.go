package cart

// Intent is a mutation request applied by Reduce. The set is closed.
type Intent interface {
	intentName() string
}

// AddItem merges Item into the cart. The quantity added is Quantity when positive,
// else Item.Quantity when positive, else 1.
type AddItem struct {
	Item     LineItem
	Quantity int
}

// RemoveItem deletes the row with ID. Absent ids are a no-op.
type RemoveItem struct {
	ID int64
}

// UpdateQuantity sets the row quantity; zero or less removes the row.
type UpdateQuantity struct {
	ID       int64
	Quantity int
}

// ClearCart resets to the empty cart.
type ClearCart struct{}

// LoadCart replaces the items wholesale, used to hydrate from the mirror.
type LoadCart struct {
	Items []LineItem
}

func (AddItem) intentName() string        { return "add_item" }
func (RemoveItem) intentName() string     { return "remove_item" }
func (UpdateQuantity) intentName() string { return "update_quantity" }
func (ClearCart) intentName() string      { return "clear_cart" }
func (LoadCart) intentName() string       { return "load_cart" }

// IntentName returns the metric/log label of an intent.
func IntentName(intent Intent) string {
	if intent == nil {
		return ""
	}
	return intent.intentName()
}

func (a AddItem) quantity() int {
	switch {
	case a.Quantity > 0:
		return a.Quantity
	case a.Item.Quantity > 0:
		return a.Item.Quantity
	default:
		return 1
	}
}
