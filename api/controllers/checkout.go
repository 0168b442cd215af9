package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/packfinderz-storefront/api/middleware"
	"github.com/angelmondragon/packfinderz-storefront/api/responses"
	"github.com/angelmondragon/packfinderz-storefront/api/validators"
	"github.com/angelmondragon/packfinderz-storefront/internal/checkout"
	"github.com/angelmondragon/packfinderz-storefront/pkg/backend"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

// OrderSubmitter places the current cart as an order.
type OrderSubmitter interface {
	CreateOrder(ctx context.Context, req checkout.Request) (*backend.Order, error)
}

type addressRequest struct {
	FullName   string `json:"fullName,omitempty"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required,len=2"`
	Phone      string `json:"phone,omitempty"`
}

type paymentRequest struct {
	Method    string `json:"method" validate:"required"`
	Reference string `json:"reference,omitempty"`
}

type checkoutRequest struct {
	DeliveryAddress addressRequest  `json:"deliveryAddress"`
	PaymentInfo     *paymentRequest `json:"paymentInfo,omitempty"`
	Notes           string          `json:"notes,omitempty" validate:"max=1000"`
}

func (c checkoutRequest) toRequest(buyerID string) checkout.Request {
	req := checkout.Request{
		BuyerID: buyerID,
		DeliveryAddress: backend.Address{
			FullName:   c.DeliveryAddress.FullName,
			Line1:      c.DeliveryAddress.Line1,
			Line2:      c.DeliveryAddress.Line2,
			City:       c.DeliveryAddress.City,
			State:      c.DeliveryAddress.State,
			PostalCode: c.DeliveryAddress.PostalCode,
			Country:    c.DeliveryAddress.Country,
			Phone:      c.DeliveryAddress.Phone,
		},
		Notes: c.Notes,
	}
	if c.PaymentInfo != nil {
		req.PaymentInfo = &backend.PaymentInfo{Method: c.PaymentInfo.Method, Reference: c.PaymentInfo.Reference}
	}
	return req
}

// Checkout submits the cart on behalf of the signed-in buyer.
func Checkout(gateway OrderSubmitter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.IdentityFromContext(r.Context())
		if identity == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to check out"))
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := gateway.CreateOrder(r.Context(), req.toRequest(identity.ID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
