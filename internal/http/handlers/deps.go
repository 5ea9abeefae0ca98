package handlers

import (
	"homeshop/internal/config"
	applog "homeshop/internal/log"
	"homeshop/internal/repos"
	"homeshop/internal/services"
)

type Deps struct {
	Log     *applog.Logger
	Catalog *services.CatalogService
	Cart    *services.CartService
	Order   *services.OrderService
	Auth    *services.AuthService

	CategoryHandler *CategoryHandler
	ProductHandler  *ProductHandler
	SearchHandler   *SearchHandler
	CartHandler     *CartHandler
	OrderHandler    *OrderHandler
	AuthHandler     *AuthHandler
}

func NewDeps(store *repos.Store, cfg config.Config, mailer services.Notifier, log *applog.Logger) *Deps {
	catalogSvc := services.NewCatalogService(store.Categories, store.Products)
	cartSvc := services.NewCartService(store, catalogSvc)
	orderSvc := services.NewOrderService(store, log)
	authSvc := services.NewAuthService(store, mailer, log)

	return &Deps{
		Log:     log,
		Catalog: catalogSvc,
		Cart:    cartSvc,
		Order:   orderSvc,
		Auth:    authSvc,

		CategoryHandler: &CategoryHandler{Catalog: catalogSvc, Log: log},
		ProductHandler:  &ProductHandler{Catalog: catalogSvc, Log: log},
		SearchHandler:   &SearchHandler{Catalog: catalogSvc, Log: log},
		CartHandler:     &CartHandler{Cart: cartSvc, Log: log},
		OrderHandler:    &OrderHandler{Order: orderSvc, Log: log},
		AuthHandler:     &AuthHandler{Auth: authSvc, Log: log, CookieSecure: cfg.CookieSecure},
	}
}
