package enums

// CheckoutOutcome labels the terminal result of an order submission.
type CheckoutOutcome string

const (
	CheckoutOutcomeSubmitted CheckoutOutcome = "submitted"
	CheckoutOutcomeEmptyCart CheckoutOutcome = "empty_cart"
	CheckoutOutcomeRejected  CheckoutOutcome = "rejected"
	CheckoutOutcomeFailed    CheckoutOutcome = "failed"
)

// String implements fmt.Stringer.
func (c CheckoutOutcome) String() string {
	return string(c)
}
