package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"freshmart/internal/domain"
	applog "freshmart/internal/log"
)

// RedisStore keeps carts as JSON under cart:<sid>. Every save pushes the TTL,
// so a cart lives as long as the reservations backing it.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	cb     *gobreaker.CircuitBreaker[[]byte]
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "redis-cart",
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			applog.Info(nil, "breaker.state", map[string]any{
				"name": name, "from": from.String(), "to": to.String(),
			})
		},
	})
	return &RedisStore{client: client, ttl: ttl, cb: cb}
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	data, err := s.cb.Execute(func() ([]byte, error) {
		b, err := s.client.Get(ctx, cartKey(sessionID)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return b, err
	})
	if err != nil {
		return nil, s.wrap("redis get failed", err)
	}
	if data == nil {
		return domain.NewCart(sessionID), nil
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	cart.SessionID = sessionID
	if cart.Lines == nil {
		cart.Lines = []domain.CartLine{}
	}
	return &cart, nil
}

func (s *RedisStore) Save(ctx context.Context, cart *domain.Cart) error {
	cart.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	_, err = s.cb.Execute(func() ([]byte, error) {
		return nil, s.client.Set(ctx, cartKey(cart.SessionID), data, s.ttl).Err()
	})
	if err != nil {
		return s.wrap("redis set failed", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.cb.Execute(func() ([]byte, error) {
		return nil, s.client.Del(ctx, cartKey(sessionID)).Err()
	})
	if err != nil {
		return s.wrap("redis delete failed", err)
	}
	return nil
}

func (s *RedisStore) wrap(msg string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w: %w", msg, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
