package handlers

import (
	"github.com/jmoiron/sqlx"

	"freshmart/internal/config"
	"freshmart/internal/repos"
	"freshmart/internal/services"
	"freshmart/internal/session"
)

// Deps is the wired object graph shared by the HTTP layer and the workers.
type Deps struct {
	Auth   *services.AuthService
	Carts  *services.CartService
	Reaper *services.Reaper
	Outbox *repos.OutboxRepo
	Orders *repos.OrderRepo

	AuthHandler      *AuthHandler
	CatalogHandler   *CatalogHandler
	InventoryHandler *InventoryHandler
	ReviewHandler    *ReviewHandler
	CartHandler      *CartHandler
	OrderHandler     *OrderHandler
	AdminHandler     *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, store session.CartStore) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	reviewRepo := repos.NewReviewRepo(db)
	userRepo := repos.NewUserRepo(db)

	authSvc := services.NewAuthService(userRepo)
	catalogSvc := services.NewCatalogService(catRepo, prodRepo)
	invSvc := services.NewInventoryService(invRepo, cfg.CartTTL)
	cartSvc := services.NewCartService(store, invSvc, prodRepo)
	orderSvc := services.NewOrderService(cartSvc, orderRepo)
	reviewSvc := services.NewReviewService(reviewRepo, prodRepo)

	return &Deps{
		Auth:   authSvc,
		Carts:  cartSvc,
		Reaper: services.NewReaper(invRepo, cartSvc, cfg.ReaperInterval),
		Outbox: repos.NewOutboxRepo(db),
		Orders: orderRepo,

		AuthHandler:      &AuthHandler{Auth: authSvc},
		CatalogHandler:   &CatalogHandler{Catalog: catalogSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		ReviewHandler:    &ReviewHandler{Reviews: reviewSvc},
		CartHandler:      &CartHandler{Cart: cartSvc},
		OrderHandler:     &OrderHandler{Order: orderSvc},
		AdminHandler:     &AdminHandler{Catalog: catalogSvc, Users: authSvc},
	}
}
