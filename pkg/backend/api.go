package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Login calls the role-scoped login endpoint.
func (c *Client) Login(ctx context.Context, role string, creds Credentials) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, authPath(role, "login"), creds, &out, requestOptions{}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register calls the role-scoped registration endpoint.
func (c *Client) Register(ctx context.Context, role string, input Registration) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, authPath(role, "register"), input, &out, requestOptions{}); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateOrder submits an order. The idempotency key lets the backend drop duplicate deliveries.
// A 2xx answer is a placed order even when its body is not an order document; the body is
// then kept in Raw and ID stays empty.
func (c *Client) CreateOrder(ctx context.Context, token string, req OrderRequest, idempotencyKey string) (*Order, error) {
	var out Order
	opts := requestOptions{idempotencyKey: idempotencyKey, bearer: token}
	if err := c.do(ctx, http.MethodPost, "orders", req, &out, opts); err != nil {
		var undecoded *DecodeError
		if errors.As(err, &undecoded) {
			return &Order{Raw: append(json.RawMessage(nil), undecoded.Body...)}, nil
		}
		return nil, err
	}
	return &out, nil
}

func authPath(role, action string) string {
	return fmt.Sprintf("auth/%s/%s", url.PathEscape(strings.ToLower(strings.TrimSpace(role))), action)
}
