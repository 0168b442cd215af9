// Package storage defines the durable key-value slots the storefront client mirrors its state into.
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrSlotNotFound is returned by ReadSlot when the slot has never been written or was deleted.
var ErrSlotNotFound = errors.New("storage slot not found")

// Well-known slot names. Implementations prefix them with their namespace.
const (
	SlotCartItems    = "cart:items"
	SlotSessionToken = "session:token"
	SlotSessionUser  = "session:user"
)

// Slots is a scoped read/write/delete surface over named values.
type Slots interface {
	ReadSlot(ctx context.Context, name string) ([]byte, error)
	WriteSlot(ctx context.Context, name string, value []byte) error
	DeleteSlot(ctx context.Context, names ...string) error
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Key joins a namespace and slot name, skipping blank parts.
func Key(namespace string, parts ...string) string {
	clean := make([]string, 0, len(parts)+1)
	if ns := strings.TrimSpace(namespace); ns != "" {
		clean = append(clean, ns)
	}
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			clean = append(clean, p)
		}
	}
	return strings.Join(clean, ":")
}
