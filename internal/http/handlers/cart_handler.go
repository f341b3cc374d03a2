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

type CartHandler struct {
	Cart *services.CartService
}

func (h *CartHandler) fail(c *fiber.Ctx, to string, err error, productID int64) error {
	var se *domain.StockError
	switch {
	case errors.As(err, &se), errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNotInCart), errors.Is(err, services.ErrLineLimit):
		applog.Info(c, "cart.refused", map[string]any{"product_id": productID, "reason": err.Error()})
	default:
		applog.Error(c, "cart.fail", err, map[string]any{"product_id": productID})
	}
	return redirect(c, to, session.FlashError, userMessage(err))
}

// changed cancels a PayPal or QR order created for the previous cart.
func changed(c *fiber.Ctx, st *session.State) {
	if st.Checkout.Pending() {
		applog.Info(c, "checkout.cancel.cart_changed", map[string]any{"attempt_id": st.Checkout.ID})
		st.Checkout.Cancel()
	}
}

// POST /add-to-cart/:id
func (h *CartHandler) Add(c *fiber.Ctx) error {
	id, ok := validate.ProductID(c.Params("id"))
	if !ok {
		return redirect(c, "/shopping", session.FlashError, "Product not found")
	}
	qty := validate.Qty(c.FormValue("quantity"))
	st := session.From(c)
	if err := h.Cart.Add(c.UserContext(), &st.Cart, id, qty); err != nil {
		return h.fail(c, "/shopping", err, id)
	}
	changed(c, st)
	applog.Info(c, "cart.add", map[string]any{"product_id": id, "qty": qty})
	return redirect(c, "/shopping", session.FlashSuccess, "Added to cart")
}

// GET /cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	st := session.From(c)
	view, err := h.Cart.List(c.UserContext(), &st.Cart)
	if err != nil {
		return err
	}
	return render(c, "cart", fiber.Map{"Cart": view})
}

// POST /cart/update/:id
func (h *CartHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ProductID(c.Params("id"))
	if !ok {
		return redirect(c, "/cart", session.FlashError, "That item is not in your cart")
	}
	qty := validate.NewQty(c.FormValue("quantity"))
	st := session.From(c)
	err := h.Cart.Update(c.UserContext(), &st.Cart, id, qty)
	if err == nil || errors.Is(err, services.ErrRestoreFailed) {
		changed(c, st)
	}
	if errors.Is(err, services.ErrRestoreFailed) {
		return redirect(c, "/cart", session.FlashWarning, userMessage(err))
	}
	if err != nil {
		return h.fail(c, "/cart", err, id)
	}
	return redirect(c, "/cart", session.FlashSuccess, "Cart updated")
}

// POST /cart/remove/:id
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	id, ok := validate.ProductID(c.Params("id"))
	if !ok {
		return redirect(c, "/cart", session.FlashError, "That item is not in your cart")
	}
	st := session.From(c)
	err := h.Cart.Remove(c.UserContext(), &st.Cart, id)
	if err == nil || errors.Is(err, services.ErrRestoreFailed) {
		changed(c, st)
	}
	if errors.Is(err, services.ErrRestoreFailed) {
		return redirect(c, "/cart", session.FlashWarning, userMessage(err))
	}
	if err != nil {
		return h.fail(c, "/cart", err, id)
	}
	return redirect(c, "/cart", session.FlashSuccess, "Item removed")
}

// POST /cart/clear empties the cart. Reserved units are not restored.
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	st := session.From(c)
	applog.Info(c, "cart.clear", map[string]any{"units": st.Cart.Units()})
	h.Cart.Clear(&st.Cart)
	changed(c, st)
	return redirect(c, "/cart", session.FlashSuccess, "Cart cleared")
}
