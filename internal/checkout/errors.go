package checkout

import (
	"fmt"

	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
)

const genericSubmissionMessage = "order submission failed"

// EmptyCartError rejects a checkout before any network call is made.
type EmptyCartError struct{}

func (EmptyCartError) Error() string { return "cart is empty" }

// SubmissionError reports a failed order submission. Message is displayable.
type SubmissionError struct {
	Message string
	// Status is the backend HTTP status, zero when no answer was received.
	Status int
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *SubmissionError) Unwrap() error { return e.Err }

func emptyCart() error {
	return pkgerrors.Wrap(pkgerrors.CodeEmptyCart, EmptyCartError{}, "cart is empty")
}

func submissionFailed(serr *SubmissionError) error {
	return pkgerrors.Wrap(pkgerrors.CodeSubmissionFailed, serr, serr.Message)
}
