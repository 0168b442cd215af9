package backend

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Credentials is the role-scoped login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the role-scoped sign-up payload.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	// StoreName is only sent for merchant sign-ups.
	StoreName string `json:"storeName,omitempty"`
}

// AuthResponse is returned by login and register. User is kept raw so the session layer owns its shape.
type AuthResponse struct {
	AccessToken string          `json:"accessToken"`
	User        json.RawMessage `json:"user"`
}

// Address is the delivery address attached to an order.
type Address struct {
	FullName   string `json:"fullName,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// PaymentInfo is forwarded to the backend untouched.
type PaymentInfo struct {
	Method    string `json:"method"`
	Reference string `json:"reference,omitempty"`
}

type OrderItem struct {
	ProductID   int64           `json:"productId"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	VariationID *int64          `json:"variationId,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

type OrderRequest struct {
	BuyerID         string          `json:"buyerId"`
	DeliveryAddress Address         `json:"deliveryAddress"`
	PaymentInfo     *PaymentInfo    `json:"paymentInfo,omitempty"`
	Discount        decimal.Decimal `json:"discount"`
	ShippingFee     decimal.Decimal `json:"shippingFee"`
	Notes           string          `json:"notes,omitempty"`
	Items           []OrderItem     `json:"items"`
}

// Order is the server-defined order representation. ID and Status are surfaced; Raw keeps the full body.
type Order struct {
	ID     string          `json:"id"`
	Status string          `json:"status,omitempty"`
	Raw    json.RawMessage `json:"-"`
}

func (o *Order) UnmarshalJSON(data []byte) error {
	var head struct {
		ID     json.RawMessage `json:"id"`
		Status string          `json:"status"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	o.ID = rawID(head.ID)
	o.Status = head.Status
	o.Raw = append(json.RawMessage(nil), data...)
	return nil
}

func (o Order) MarshalJSON() ([]byte, error) {
	if len(o.Raw) > 0 && json.Valid(o.Raw) {
		return o.Raw, nil
	}
	type plain struct {
		ID     string `json:"id"`
		Status string `json:"status,omitempty"`
	}
	return json.Marshal(plain{ID: o.ID, Status: o.Status})
}

// The backend emits numeric or string ids depending on the resource.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
