package session

import (
	"context"
	"sync"
	"time"

	"freshmart/internal/domain"
)

type memEntry struct {
	cart    domain.Cart
	expires time.Time
}

// MemoryStore is used when no Redis address is configured. Carts are copied
// in and out so callers never share line slices.
type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	carts map[string]memEntry
	now   func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, carts: map[string]memEntry{}, now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.carts[sessionID]
	if !ok || !s.now().Before(e.expires) {
		delete(s.carts, sessionID)
		return domain.NewCart(sessionID), nil
	}
	c := e.cart
	c.Lines = e.cart.Snapshot()
	return &c, nil
}

func (s *MemoryStore) Save(_ context.Context, cart *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart.UpdatedAt = s.now().UTC()
	c := *cart
	c.Lines = cart.Snapshot()
	s.carts[cart.SessionID] = memEntry{cart: c, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.carts, sessionID)
	s.mu.Unlock()
	return nil
}
