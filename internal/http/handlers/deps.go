package handlers

import (
	"qashop/internal/config"
	"qashop/internal/repos"
	"qashop/internal/services"
	"qashop/internal/session"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	Auth     *services.AuthService
	Sessions *session.Manager

	AuthHandler      *AuthHandler
	ProductHandler   *ProductHandler
	CartHandler      *CartHandler
	OrderHandler     *OrderHandler
	AdminHandler     *AdminHandler
	InventoryHandler *InventoryHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, sessions *session.Manager) *Deps {
	userRepo := repos.NewUserRepo(db)
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	authSvc := &services.AuthService{Users: userRepo}
	catalogSvc := services.NewCatalogService(prodRepo)
	cartSvc := services.NewCartService(prodRepo)
	checkoutSvc := services.NewCheckoutService(db, prodRepo, orderRepo, invRepo, cfg.EnforceStock)
	orderSvc := services.NewOrderService(orderRepo)
	invSvc := services.NewInventoryService(prodRepo, invRepo, cfg.MediaDir)

	return &Deps{
		Auth:     authSvc,
		Sessions: sessions,

		AuthHandler:      &AuthHandler{Auth: authSvc, Sessions: sessions},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		CartHandler:      &CartHandler{Cart: cartSvc, Sessions: sessions},
		OrderHandler:     &OrderHandler{Cart: cartSvc, Checkout: checkoutSvc, Orders: orderSvc, Sessions: sessions},
		AdminHandler:     &AdminHandler{Catalog: catalogSvc, Orders: orderSvc, Inv: invSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
	}
}
