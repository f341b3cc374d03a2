package handlers

import (
	"github.com/jmoiron/sqlx"

	"supermart/internal/config"
	"supermart/internal/events"
	"supermart/internal/metrics"
	"supermart/internal/payments"
	"supermart/internal/repos"
	"supermart/internal/services"
	"supermart/internal/session"
)

type Deps struct {
	Sessions session.Store
	Auth     *services.AuthService
	Carts    *services.CartService
	Metrics  *metrics.Metrics

	AuthHandler     *AuthHandler
	ShopHandler     *ShopHandler
	CartHandler     *CartHandler
	PaymentHandler  *PaymentHandler
	AdminHandler    *AdminHandler
	FeedbackHandler *FeedbackHandler
}

// NewDeps wires repos, services and handlers. pp and qr may be nil; the PayPal
// option is then hidden and QR falls back to the offline provider.
func NewDeps(db *sqlx.DB, sessions session.Store, pp services.PayPalGateway, qr services.QRGateway, pub events.Publisher, m *metrics.Metrics) *Deps {
	prodRepo := repos.NewProductRepo(db)
	userRepo := repos.NewUserRepo(db)
	payRepo := repos.NewPaymentRepo(db)
	fbRepo := repos.NewFeedbackRepo(db)

	authSvc := &services.AuthService{Users: userRepo}
	catalogSvc := services.NewCatalogService(prodRepo)
	invSvc := services.NewInventoryService(prodRepo)
	cartSvc := services.NewCartService(prodRepo, m)
	checkoutSvc := services.NewCheckoutService(cartSvc, payRepo, pp, qr, pub, m)
	fbSvc := services.NewFeedbackService(fbRepo)

	return &Deps{
		Sessions: sessions,
		Auth:     authSvc,
		Carts:    cartSvc,
		Metrics:  m,

		AuthHandler:     &AuthHandler{Auth: authSvc, Carts: cartSvc, Sessions: sessions},
		ShopHandler:     &ShopHandler{Catalog: catalogSvc},
		CartHandler:     &CartHandler{Cart: cartSvc},
		PaymentHandler:  &PaymentHandler{Checkout: checkoutSvc, PayPalEnabled: pp != nil},
		AdminHandler:    &AdminHandler{InventorySvc: invSvc, Auth: authSvc, Checkout: checkoutSvc},
		FeedbackHandler: &FeedbackHandler{Feedback: fbSvc},
	}
}

// Gateways builds the payment clients from configuration. A nil PayPal
// gateway means PayPal is disabled.
func Gateways(cfg config.Config) (services.PayPalGateway, services.QRGateway) {
	var pp services.PayPalGateway
	if c := payments.NewPayPal(cfg.PayPalAPI, cfg.PayPalClientID, cfg.PayPalSecret, cfg.Currency, cfg.ReturnURL, cfg.PaymentTimeout); c != nil {
		pp = c
	}
	var qr services.QRGateway = payments.OfflineQR{}
	if cfg.QRAPI != "" {
		qr = payments.NewQRClient(cfg.QRAPI, cfg.QRAPIKey, cfg.QRProjectID, cfg.PaymentTimeout)
	}
	return pp, qr
}
