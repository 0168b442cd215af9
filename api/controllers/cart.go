package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-storefront/api/responses"
	"github.com/angelmondragon/packfinderz-storefront/api/validators"
	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

// CartStore is the cart engine surface used by the handlers.
type CartStore interface {
	Snapshot() cart.Snapshot
	Dispatch(intent cart.Intent) cart.Snapshot
}

type addItemRequest struct {
	ID            int64  `json:"id" validate:"gt=0"`
	Name          string `json:"name" validate:"required"`
	UnitPrice     string `json:"unitPrice" validate:"required,decimal"`
	OriginalPrice string `json:"originalPrice,omitempty" validate:"omitempty,decimal"`
	Quantity      int    `json:"quantity,omitempty" validate:"gte=0,max=9999"`
	Image         string `json:"image,omitempty"`
	Store         string `json:"store,omitempty"`
	InStock       bool   `json:"inStock"`
	VariationID   *int64 `json:"variationId,omitempty"`
	Notes         string `json:"notes,omitempty" validate:"max=500"`
}

func (r addItemRequest) toIntent() (cart.AddItem, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(r.UnitPrice))
	if err != nil {
		return cart.AddItem{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unitPrice")
	}
	item := cart.LineItem{
		ID:          r.ID,
		Name:        r.Name,
		UnitPrice:   price,
		Image:       r.Image,
		Store:       r.Store,
		InStock:     r.InStock,
		VariationID: r.VariationID,
		Notes:       r.Notes,
	}
	if strings.TrimSpace(r.OriginalPrice) != "" {
		original, err := decimal.NewFromString(strings.TrimSpace(r.OriginalPrice))
		if err != nil {
			return cart.AddItem{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid originalPrice")
		}
		item.OriginalPrice = &original
	}
	return cart.AddItem{Item: item, Quantity: r.Quantity}, nil
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=9999"`
}

// CartGet returns the current snapshot.
func CartGet(store CartStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, store.Snapshot())
	}
}

// CartAddItem merges an item into the cart.
func CartAddItem(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		intent, err := req.toIntent()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.Dispatch(intent))
	}
}

// CartUpdateQuantity sets a row quantity; zero or less removes the row.
func CartUpdateQuantity(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.Dispatch(cart.UpdateQuantity{ID: id, Quantity: *req.Quantity}))
	}
}

// CartRemoveItem deletes a row; unknown ids are not an error.
func CartRemoveItem(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.Dispatch(cart.RemoveItem{ID: id}))
	}
}

// CartClear empties the cart.
func CartClear(store CartStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, store.Dispatch(cart.ClearCart{}))
	}
}

func itemIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id").WithDetails(map[string]string{"id": raw})
	}
	return id, nil
}
