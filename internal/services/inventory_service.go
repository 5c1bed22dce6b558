package services

import (
	"context"
	"errors"
	"time"

	"freshmart/internal/domain"
	"freshmart/internal/repos"
)

// Ledger is the stock side of every cart mutation.
type Ledger interface {
	GetAvailable(ctx context.Context, productID string) (int, error)
	Reserve(ctx context.Context, sessionID, productID string, n int) error
	Release(ctx context.Context, sessionID, productID string, n int) (int, error)
}

// InventoryService is the Ledger over SQLite. Holds expire TTL after the
// session's last reserve or release.
type InventoryService struct {
	Inv *repos.InventoryRepo
	TTL time.Duration
	now func() time.Time
}

func NewInventoryService(inv *repos.InventoryRepo, ttl time.Duration) *InventoryService {
	return &InventoryService{Inv: inv, TTL: ttl, now: time.Now}
}

func (s *InventoryService) expiry() time.Time { return s.now().Add(s.TTL) }

func (s *InventoryService) GetAvailable(ctx context.Context, productID string) (int, error) {
	qty, err := s.Inv.Qty(ctx, productID)
	if err != nil {
		return 0, stockErr(err, productID)
	}
	return qty, nil
}

func (s *InventoryService) Reserve(ctx context.Context, sessionID, productID string, n int) error {
	if n < 1 {
		return domain.Errorf(domain.KindInvalidQuantity, "quantity must be at least 1")
	}
	if err := s.Inv.Reserve(ctx, sessionID, productID, n, s.expiry()); err != nil {
		return stockErr(err, productID)
	}
	return nil
}

// Release never returns more than the session holds.
func (s *InventoryService) Release(ctx context.Context, sessionID, productID string, n int) (int, error) {
	if n < 1 {
		return 0, nil
	}
	released, err := s.Inv.Release(ctx, sessionID, productID, n, s.expiry())
	if err != nil {
		return 0, domain.Persistence(err, "could not release stock")
	}
	return released, nil
}

// CheckAvailability converts qty to IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID string) (domain.Availability, error) {
	qty, err := s.Inv.Qty(ctx, productID)
	if err != nil {
		// unknown products are simply not for sale
		if repos.IsNoRows(err) {
			return domain.Availability{Status: "OUT_OF_STOCK", Qty: 0}, nil
		}
		return domain.Availability{}, domain.Persistence(err, "could not read stock")
	}

	status := "OUT_OF_STOCK"
	switch {
	case qty >= 5:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: qty}, nil
}

func (s *InventoryService) ListStock(ctx context.Context) ([]repos.InventoryRow, error) {
	rows, err := s.Inv.ListAll(ctx)
	if err != nil {
		return nil, domain.Persistence(err, "could not list stock")
	}
	return rows, nil
}

// SetStock overwrites the unreserved quantity of a product.
func (s *InventoryService) SetStock(ctx context.Context, productID string, qty int) error {
	if qty < 0 {
		return domain.Errorf(domain.KindInvalidQuantity, "stock cannot be negative")
	}
	if err := s.Inv.UpsertQty(ctx, productID, qty); err != nil {
		return stockErr(err, productID)
	}
	return nil
}

func stockErr(err error, productID string) error {
	switch {
	case repos.IsNoRows(err):
		return &domain.Error{Kind: domain.KindNotFound, Message: "product not found", Err: err}
	case errors.Is(err, repos.ErrInsufficientStock):
		return &domain.Error{Kind: domain.KindInsufficientStock, Message: "not enough stock for " + productID, Err: err}
	default:
		return domain.Persistence(err, "stock ledger unavailable")
	}
}
