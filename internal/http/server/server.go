package server

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"supermart/internal/config"
	"supermart/internal/http/handlers"
	applog "supermart/internal/log"
	"supermart/internal/session"
)

// New builds the storefront app: middleware stack, static assets and routes.
func New(cfg config.Config, deps *handlers.Deps) *fiber.App {
	engine := html.New(cfg.TemplatesDir, ".html")

	app := fiber.New(fiber.Config{
		Views:     engine,
		BodyLimit: 1 << 20, // 1 MiB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Something went wrong. Please try again."
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
				if code == fiber.StatusNotFound {
					msg = "Page not found"
				}
			}
			if code >= 500 {
				applog.Error(c, "server.error", err, nil)
			}
			// Avoid leaking internals; best-effort render
			if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
				return c.Status(code).SendString(msg)
			}
			return nil
		},
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	if deps.Metrics != nil {
		app.Use(deps.Metrics.Middleware())
	}
	if cfg.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				p := c.Path()
				return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/images/")
			},
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.global.hit", nil)
				return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests")
			},
		}))
	}
	app.Use(session.Middleware(deps.Sessions))
	app.Use(handlers.AttachUser(deps.Auth, deps.Carts))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ContextKey:     "csrf",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"err": err.Error()})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	app.Static("/static", cfg.StaticDir)
	imagesDir := filepath.Join(cfg.StaticDir, "images")
	// Guarded product images to avoid traversal
	app.Get("/images/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "image.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "image.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(imagesDir, clean), true)
	})

	Routes(app, cfg, deps)

	// Health, metrics & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})
	return app
}

// Routes registers every page handler.
func Routes(app *fiber.App, cfg config.Config, d *handlers.Deps) {
	authH := d.AuthHandler

	// Public pages
	app.Get("/", d.ShopHandler.Home)
	app.Get("/register", authH.RegisterForm)
	app.Post("/register", authH.Register)
	app.Get("/login", authH.LoginForm)
	loginChain := []fiber.Handler{}
	if cfg.LoginRateLimit > 0 {
		loginChain = append(loginChain, limiter.New(limiter.Config{
			Max:        cfg.LoginRateLimit,
			Expiration: 10 * time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.login.hit", nil)
				return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
			},
		}))
	}
	app.Post("/login", append(loginChain, authH.Login)...)
	app.Post("/logout", authH.Logout)

	// Shopper pages
	user := handlers.RequireUser()
	app.Get("/shopping", user, d.ShopHandler.Shopping)
	app.Get("/product/:id", user, d.ShopHandler.Product)

	app.Post("/add-to-cart/:id", user, d.CartHandler.Add)
	app.Get("/cart", user, d.CartHandler.View)
	app.Post("/cart/update/:id", user, d.CartHandler.Update)
	app.Post("/cart/remove/:id", user, d.CartHandler.Remove)
	app.Post("/cart/clear", user, d.CartHandler.Clear)

	pay := d.PaymentHandler
	app.Get("/payment", user, pay.Page)
	app.Post("/payment", user, pay.Pay)
	app.Post("/payment/card", user, pay.Card)
	app.Post("/payment/cancel", user, pay.Cancel)
	app.Get("/paypal/capture-order", user, pay.PayPalCapture)
	app.Get("/paypal/cancel-order", user, pay.PayPalCancel)
	app.Get("/qr/success", user, pay.QRSuccess)
	app.Get("/qr/fail", user, pay.QRFail)
	app.Get("/receipt/:id", user, pay.Receipt)
	app.Get("/payments", user, pay.History)

	app.Get("/feedback", user, d.FeedbackHandler.Form)
	app.Post("/feedback", user, d.FeedbackHandler.Submit)

	// Admin
	admin := handlers.RequireAdmin()
	adminH := d.AdminHandler
	app.Get("/inventory", admin, adminH.Inventory)
	app.Get("/addProduct", admin, adminH.AddProductForm)
	app.Post("/addProduct", admin, adminH.AddProduct)
	app.Get("/editProduct/:id", admin, adminH.EditProductForm)
	app.Post("/editProduct/:id", admin, adminH.EditProduct)
	app.Post("/deleteProduct/:id", admin, adminH.DeleteProduct)
	app.Get("/users", admin, adminH.Users)
	app.Post("/deleteUser/:id", admin, adminH.DeleteUser)
	app.Get("/payments/all", admin, adminH.Payments)
	app.Get("/feedback/all", admin, d.FeedbackHandler.List)
	app.Post("/feedback/delete/:id", admin, d.FeedbackHandler.Delete)
}
