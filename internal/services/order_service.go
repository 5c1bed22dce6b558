package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"freshmart/internal/domain"
	applog "freshmart/internal/log"
	"freshmart/internal/repos"
)

const EventOrderPlaced = "order.placed"

// OrderStore persists orders. *repos.OrderRepo is the production one.
type OrderStore interface {
	Place(ctx context.Context, sessionID string, o domain.Order, ev *repos.Event) error
	Get(ctx context.Context, orderID string) (domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
}

type OrderService struct {
	Carts  *CartService
	Orders OrderStore
	now    func() time.Time
}

func NewOrderService(carts *CartService, orders OrderStore) *OrderService {
	return &OrderService{Carts: carts, Orders: orders, now: time.Now}
}

type placedLine struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type placedEvent struct {
	OrderID   string          `json:"order_id"`
	UserID    string          `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	Lines     []placedLine    `json:"lines"`
	CreatedAt time.Time       `json:"created_at"`
}

// PlaceOrder turns the session's cart into an order. The header, the lines and
// the consumption of the cart's reservations commit together; the cart is
// cleared afterwards.
func (s *OrderService) PlaceOrder(ctx context.Context, userID, sessionID string) (string, error) {
	var orderID string
	err := s.Carts.Checkout(ctx, sessionID, func(cart *domain.Cart) error {
		if cart.IsEmpty() {
			return domain.Errorf(domain.KindEmptyCart, "cart is empty")
		}

		o := domain.Order{
			ID:        uuid.NewString(),
			UserID:    userID,
			Total:     cart.Total(),
			CreatedAt: s.now().UTC(),
			Lines:     make([]domain.OrderLine, 0, len(cart.Lines)),
		}
		ev := placedEvent{OrderID: o.ID, UserID: userID, Total: o.Total, CreatedAt: o.CreatedAt}
		for i, l := range cart.Lines {
			o.Lines = append(o.Lines, domain.OrderLine{
				OrderID:     o.ID,
				LineNo:      i + 1,
				ProductID:   l.ProductID,
				ProductName: l.Name,
				Price:       l.Price,
				Quantity:    l.Quantity,
				Image:       l.Image,
			})
			ev.Lines = append(ev.Lines, placedLine{ProductID: l.ProductID, Quantity: l.Quantity, Price: l.Price})
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			return domain.Persistence(err, "could not encode order event")
		}

		err = s.Orders.Place(ctx, sessionID, o, &repos.Event{AggregateID: o.ID, Type: EventOrderPlaced, Payload: payload})
		switch {
		case errors.Is(err, repos.ErrReservationMissing):
			return &domain.Error{Kind: domain.KindReservationExpired, Message: "cart reservation expired, please review your cart", Err: err}
		case err != nil:
			return domain.Persistence(err, "could not place order")
		}
		orderID = o.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	applog.Audit(nil, "order.placed", map[string]any{"order_id": orderID, "user_id": userID})
	return orderID, nil
}

// Get returns an order with its lines.
func (s *OrderService) Get(ctx context.Context, orderID string) (domain.Order, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		if repos.IsNoRows(err) {
			return domain.Order{}, domain.Errorf(domain.KindNotFound, "order not found")
		}
		return domain.Order{}, domain.Persistence(err, "could not read order")
	}
	return o, nil
}

// GetFor returns the order only if user placed it or is an admin.
func (s *OrderService) GetFor(ctx context.Context, u *domain.User, orderID string) (domain.Order, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if u == nil || (o.UserID != u.ID && !u.IsAdmin()) {
		return domain.Order{}, domain.Errorf(domain.KindNotFound, "order not found")
	}
	return o, nil
}

func (s *OrderService) History(ctx context.Context, userID string) ([]domain.Order, error) {
	out, err := s.Orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.Persistence(err, "could not list orders")
	}
	return out, nil
}
