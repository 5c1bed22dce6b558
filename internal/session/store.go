// Package session keeps each session's cart outside the request cycle.
package session

import (
	"context"
	"errors"
	"fmt"

	"freshmart/internal/domain"
)

// ErrUnavailable is returned when the backing store refuses calls.
var ErrUnavailable = errors.New("session store unavailable")

// CartStore persists carts by session id. Load never returns nil: a missing or
// expired cart comes back empty.
type CartStore interface {
	Load(ctx context.Context, sessionID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}
