package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"supermart/internal/domain"
	applog "supermart/internal/log"
	"supermart/internal/services"
	"supermart/internal/session"
	"supermart/internal/validate"
)

type ShopHandler struct {
	Catalog *services.CatalogService
}

type productCard struct {
	domain.Product
	Stock domain.Availability
}

func cards(ps []domain.Product) []productCard {
	out := make([]productCard, 0, len(ps))
	for _, p := range ps {
		out = append(out, productCard{Product: p, Stock: services.CheckAvailability(p.Quantity)})
	}
	return out
}

// GET /
func (h *ShopHandler) Home(c *fiber.Ctx) error {
	return render(c, "home", nil)
}

// GET /shopping?q=
func (h *ShopHandler) Shopping(c *fiber.Ctx) error {
	raw := c.Query("q")
	q := ""
	if raw != "" {
		var ok bool
		if q, ok = validate.Q(raw); !ok {
			applog.Security(c, "input.invalid.search", map[string]any{"q_len": len(raw)})
			session.From(c).AddFlash(session.FlashError, "Search may only contain letters, digits and spaces")
			q = ""
		}
	}
	products, err := h.Catalog.ListProducts(c.UserContext(), q)
	if err != nil {
		return err
	}
	return render(c, "shopping", fiber.Map{"Products": cards(products), "Q": q})
}

// GET /product/:id
func (h *ShopHandler) Product(c *fiber.Ctx) error {
	id, ok := validate.ProductID(c.Params("id"))
	if !ok {
		return redirect(c, "/shopping", session.FlashError, "Product not found")
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return redirect(c, "/shopping", session.FlashError, "Product not found")
	}
	if err != nil {
		return err
	}
	return render(c, "product", fiber.Map{"Product": productCard{Product: p, Stock: services.CheckAvailability(p.Quantity)}})
}
