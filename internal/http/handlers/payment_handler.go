package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"supermart/internal/domain"
	applog "supermart/internal/log"
	"supermart/internal/services"
	"supermart/internal/session"
)

type PaymentHandler struct {
	Checkout      *services.CheckoutService
	PayPalEnabled bool
}

func (h *PaymentHandler) fail(c *fiber.Ctx, action string, err error) error {
	var ps *domain.PaymentStatusError
	switch {
	case errors.Is(err, domain.ErrStore):
		applog.Error(c, action, err, nil)
	case errors.As(err, &ps), errors.Is(err, domain.ErrIncompleteCardDetails), errors.Is(err, domain.ErrInvalidMethod):
		applog.Info(c, action, map[string]any{"reason": err.Error()})
	default:
		applog.Error(c, action, err, nil)
	}
	if errors.Is(err, domain.ErrEmptyCart) {
		return redirect(c, "/cart", session.FlashError, userMessage(err))
	}
	return redirect(c, "/payment", session.FlashError, userMessage(err))
}

func (h *PaymentHandler) completed(c *fiber.Ctx, snap domain.OrderSnapshot) error {
	st := session.From(c)
	st.LastOrder = &snap
	applog.Audit(c, "checkout.completed", map[string]any{"payment_id": snap.Payment.ID, "method": snap.Payment.Method})
	return redirect(c, "/receipt/"+snap.Payment.ID, session.FlashSuccess, "Payment successful!")
}

// GET /payment
func (h *PaymentHandler) Page(c *fiber.Ctx) error {
	st := session.From(c)
	view, err := h.Checkout.Begin(c.UserContext(), &st.Cart, &st.Checkout)
	if errors.Is(err, domain.ErrEmptyCart) {
		return redirect(c, "/cart", session.FlashError, userMessage(err))
	}
	if err != nil {
		return err
	}
	return render(c, "payment", fiber.Map{
		"Cart":          view,
		"Total":         view.Total,
		"PayPalEnabled": h.PayPalEnabled,
		"Attempt":       st.Checkout,
	})
}

// POST /payment dispatches on the chosen method.
func (h *PaymentHandler) Pay(c *fiber.Ctx) error {
	method := c.FormValue("method")
	if method == "" {
		method = c.FormValue("paymentMethod")
	}
	st := session.From(c)
	ctx := c.UserContext()
	view, err := h.Checkout.SelectMethod(ctx, &st.Cart, &st.Checkout, method)
	if err != nil {
		return h.fail(c, "checkout.select.fail", err)
	}

	switch st.Checkout.Method {
	case domain.MethodCard:
		if err := h.Checkout.BeginCard(&st.Checkout); err != nil {
			return h.fail(c, "checkout.card.fail", err)
		}
		return render(c, "card", fiber.Map{"Cart": view, "Total": view.Total})
	case domain.MethodPayPal:
		url, err := h.Checkout.StartPayPal(ctx, &st.Cart, &st.Checkout)
		if err != nil {
			return h.fail(c, "checkout.paypal.create.fail", err)
		}
		applog.Info(c, "checkout.paypal.redirect", map[string]any{"order_id": st.Checkout.PayPalOrderID})
		return c.Redirect(url)
	default:
		req, err := h.Checkout.StartQR(ctx, &st.Cart, &st.Checkout)
		if err != nil {
			return h.fail(c, "checkout.qr.request.fail", err)
		}
		return render(c, "qr", fiber.Map{"Cart": view, "Total": view.Total, "TxnRef": req.TxnRef, "QRImage": req.QRImage})
	}
}

// POST /payment/card
func (h *PaymentHandler) Card(c *fiber.Ctx) error {
	st := session.From(c)
	u := currentUser(c)
	snap, err := h.Checkout.PayByCard(c.UserContext(), u.ID, &st.Cart, &st.Checkout, services.CardDetails{
		Holder: c.FormValue("cardName"),
		Number: c.FormValue("cardNumber"),
		Expiry: c.FormValue("expiry"),
		CVV:    c.FormValue("cvv"),
	})
	if err != nil {
		return h.fail(c, "checkout.card.fail", err)
	}
	return h.completed(c, snap)
}

// GET /paypal/capture-order?token=
func (h *PaymentHandler) PayPalCapture(c *fiber.Ctx) error {
	st := session.From(c)
	u := currentUser(c)
	snap, err := h.Checkout.CapturePayPal(c.UserContext(), u.ID, &st.Cart, &st.Checkout, c.Query("token"))
	if err != nil {
		return h.fail(c, "checkout.paypal.capture.fail", err)
	}
	return h.completed(c, snap)
}

// GET /paypal/cancel-order
func (h *PaymentHandler) PayPalCancel(c *fiber.Ctx) error {
	h.Checkout.Cancel(&session.From(c).Checkout)
	return redirect(c, "/payment", session.FlashError, "PayPal payment cancelled")
}

// GET /qr/success
func (h *PaymentHandler) QRSuccess(c *fiber.Ctx) error {
	st := session.From(c)
	u := currentUser(c)
	snap, err := h.Checkout.CompleteQR(c.UserContext(), u.ID, &st.Cart, &st.Checkout)
	if err != nil {
		return h.fail(c, "checkout.qr.fail", err)
	}
	return h.completed(c, snap)
}

// GET /qr/fail
func (h *PaymentHandler) QRFail(c *fiber.Ctx) error {
	h.Checkout.FailQR(&session.From(c).Checkout)
	return redirect(c, "/payment", session.FlashError, "QR payment failed")
}

// POST /payment/cancel
func (h *PaymentHandler) Cancel(c *fiber.Ctx) error {
	h.Checkout.Cancel(&session.From(c).Checkout)
	return redirect(c, "/cart", session.FlashSuccess, "Checkout cancelled")
}

// GET /receipt/:id
func (h *PaymentHandler) Receipt(c *fiber.Ctx) error {
	u := currentUser(c)
	id := c.Params("id")
	r, err := h.Checkout.Receipt(c.UserContext(), id, u.ID, session.From(c).LastOrder)
	if errors.Is(err, domain.ErrNotFound) {
		applog.Security(c, "receipt.denied", map[string]any{"payment_id": id})
		return redirect(c, "/", session.FlashError, "Payment not found")
	}
	if err != nil {
		applog.Error(c, "receipt.fail", err, map[string]any{"payment_id": id})
		return redirect(c, "/", session.FlashError, "Error loading receipt")
	}
	return render(c, "receipt", fiber.Map{"Payment": r.Payment, "Lines": r.Lines})
}

// GET /payments
func (h *PaymentHandler) History(c *fiber.Ctx) error {
	ps, err := h.Checkout.History(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return render(c, "payments", fiber.Map{"Payments": ps})
}
