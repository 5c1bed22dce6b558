package services

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"freshmart/internal/domain"
	applog "freshmart/internal/log"
	"freshmart/internal/repos"
	"freshmart/internal/session"
)

// ProductReader is the slice of the catalog the cart needs for snapshots.
type ProductReader interface {
	Get(ctx context.Context, id string) (domain.Product, error)
}

const lockStripes = 64

// CartService is the only code that mutates a cart. Every mutation keeps the
// cart and the ledger in step: either both change or neither does.
type CartService struct {
	Store session.CartStore
	Stock Ledger
	Prods ProductReader

	locks [lockStripes]sync.Mutex
	views singleflight.Group
}

func NewCartService(store session.CartStore, stock Ledger, prods ProductReader) *CartService {
	return &CartService{Store: store, Stock: stock, Prods: prods}
}

// lock serializes mutations of one session's cart.
func (s *CartService) lock(sessionID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	mu := &s.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

func (s *CartService) load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.Store.Load(ctx, sessionID)
	if err != nil {
		return nil, domain.Persistence(err, "could not load cart")
	}
	return cart, nil
}

func (s *CartService) AddItem(ctx context.Context, sessionID, productID string, qty int) (*domain.Cart, error) {
	if qty < 1 {
		return nil, domain.Errorf(domain.KindInvalidQuantity, "quantity must be at least 1")
	}
	defer s.lock(sessionID)()

	p, err := s.Prods.Get(ctx, productID)
	if err != nil {
		if repos.IsNoRows(err) {
			return nil, &domain.Error{Kind: domain.KindNotFound, Message: "product not found", Err: err}
		}
		return nil, domain.Persistence(err, "could not read product")
	}
	available, err := s.Stock.GetAvailable(ctx, productID)
	if err != nil {
		return nil, err
	}
	if available == 0 {
		return nil, domain.Errorf(domain.KindOutOfStock, "%s is out of stock", p.Name)
	}
	if qty > available {
		return nil, domain.Errorf(domain.KindInsufficientStock, "only %d of %s left", available, p.Name)
	}

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	before := cart.Snapshot()
	if i := cart.Line(productID); i >= 0 {
		if cart.Lines[i].Quantity+qty > available {
			return nil, domain.Errorf(domain.KindQuantityExceedsStock,
				"cart already has %d of %s, only %d more available", cart.Lines[i].Quantity, p.Name, available)
		}
		cart.Lines[i].Quantity += qty
	} else {
		cart.Lines = append(cart.Lines, domain.CartLine{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  qty,
			Image:     p.Image,
		})
	}

	if err := s.Stock.Reserve(ctx, sessionID, productID, qty); err != nil {
		cart.Lines = before
		return nil, err
	}
	if err := s.Store.Save(ctx, cart); err != nil {
		if _, rerr := s.Stock.Release(ctx, sessionID, productID, qty); rerr != nil {
			applog.Error(nil, "cart.add.compensate", rerr, map[string]any{"product_id": productID, "qty": qty})
		}
		return nil, domain.Persistence(err, "could not save cart")
	}
	return cart, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, productID string, qty int) (*domain.Cart, error) {
	if qty < 1 {
		return nil, domain.Errorf(domain.KindInvalidQuantity, "quantity must be at least 1")
	}
	defer s.lock(sessionID)()

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	i := cart.Line(productID)
	if i < 0 {
		return nil, domain.Errorf(domain.KindNotFound, "product is not in the cart")
	}
	held := cart.Lines[i].Quantity

	available, err := s.Stock.GetAvailable(ctx, productID)
	if err != nil {
		return nil, err
	}
	if qty > available+held {
		return nil, domain.Errorf(domain.KindInsufficientStock, "only %d of %s can be held", available+held, cart.Lines[i].Name)
	}

	delta := qty - held
	switch {
	case delta > 0:
		if err := s.Stock.Reserve(ctx, sessionID, productID, delta); err != nil {
			return nil, err
		}
	case delta < 0:
		if _, err := s.Stock.Release(ctx, sessionID, productID, -delta); err != nil {
			return nil, err
		}
	}

	cart.Lines[i].Quantity = qty
	if err := s.Store.Save(ctx, cart); err != nil {
		s.undo(ctx, sessionID, productID, delta)
		return nil, domain.Persistence(err, "could not save cart")
	}
	return cart, nil
}

// RemoveItem gives the line's units back to stock before dropping the line.
func (s *CartService) RemoveItem(ctx context.Context, sessionID, productID string) (*domain.Cart, error) {
	defer s.lock(sessionID)()

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	i := cart.Line(productID)
	if i < 0 {
		return nil, domain.Errorf(domain.KindNotFound, "product is not in the cart")
	}
	qty := cart.Lines[i].Quantity

	if _, err := s.Stock.Release(ctx, sessionID, productID, qty); err != nil {
		return nil, err
	}
	cart.Remove(productID)
	if err := s.Store.Save(ctx, cart); err != nil {
		s.undo(ctx, sessionID, productID, -qty)
		return nil, domain.Persistence(err, "could not save cart")
	}
	return cart, nil
}

// undo reverses a ledger change of delta units after the cart failed to save.
func (s *CartService) undo(ctx context.Context, sessionID, productID string, delta int) {
	var err error
	switch {
	case delta > 0:
		_, err = s.Stock.Release(ctx, sessionID, productID, delta)
	case delta < 0:
		err = s.Stock.Reserve(ctx, sessionID, productID, -delta)
	}
	if err != nil {
		applog.Error(nil, "cart.compensate", err, map[string]any{
			"session_id": sessionID, "product_id": productID, "delta": delta,
		})
	}
}

func (s *CartService) Total(ctx context.Context, sessionID string) (decimal.Decimal, error) {
	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return decimal.Zero, err
	}
	return cart.Total(), nil
}

// Clear empties the cart. Reservations are left alone.
func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	defer s.lock(sessionID)()
	if err := s.Store.Delete(ctx, sessionID); err != nil {
		return domain.Persistence(err, "could not clear cart")
	}
	return nil
}

// Expire runs release under the session lock and drops the cart if release
// returned any units. A cart mutation that loaded the cart before the sweep
// finishes first, and its refreshed holds make release a no-op.
func (s *CartService) Expire(ctx context.Context, sessionID string, release func(context.Context) (int, error)) (int, error) {
	defer s.lock(sessionID)()

	n, err := release(ctx)
	if err != nil || n == 0 {
		return n, err
	}
	if err := s.Store.Delete(ctx, sessionID); err != nil {
		applog.Warn(nil, "cart.expire", err, map[string]any{"session_id": sessionID})
	}
	return n, nil
}

// Checkout hands the cart to place while holding the session lock and clears
// the cart once place has succeeded. A failed clear is logged, not returned:
// whatever place committed stands.
func (s *CartService) Checkout(ctx context.Context, sessionID string, place func(*domain.Cart) error) error {
	defer s.lock(sessionID)()

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := place(cart); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, sessionID); err != nil {
		applog.Error(nil, "cart.clear", err, map[string]any{"session_id": sessionID})
	}
	return nil
}

type CartView struct {
	Lines []domain.CartLine `json:"lines"`
	Total decimal.Decimal   `json:"total"`
}

// View coalesces concurrent reads of the same cart.
func (s *CartService) View(ctx context.Context, sessionID string) (CartView, error) {
	v, err, _ := s.views.Do(sessionID, func() (any, error) {
		cart, err := s.load(ctx, sessionID)
		if err != nil {
			return CartView{}, err
		}
		return CartView{Lines: cart.Lines, Total: cart.Total()}, nil
	})
	if err != nil {
		return CartView{}, err
	}
	return v.(CartView), nil
}
