package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"supermart/internal/domain"
	"supermart/internal/events"
	"supermart/internal/log"
	"supermart/internal/payments"
	"supermart/internal/validate"
)

// ErrUnknownOrder is returned when a provider callback does not match the
// attempt held in the session.
var ErrUnknownOrder = errors.New("unknown payment order")

// ErrCartChanged means the cart no longer matches the provider order.
var ErrCartChanged = fmt.Errorf("%w: cart changed during payment", domain.ErrInvalidTransition)

// publishTimeout bounds the event publish inside the checkout request.
const publishTimeout = 3 * time.Second

// CheckoutService turns a cart into exactly one payment record. Stock was
// already taken at reservation time, so completing a checkout only clears
// the cart and cancelling never restores anything.
type CheckoutService struct {
	Carts    *CartService
	Payments PaymentStore
	PayPal   PayPalGateway // nil when not configured
	QR       QRGateway
	Events   events.Publisher
	Metrics  Recorder
	Now      func() time.Time
}

func NewCheckoutService(carts *CartService, pays PaymentStore, pp PayPalGateway, qr QRGateway, pub events.Publisher, m Recorder) *CheckoutService {
	if pub == nil {
		pub = events.Nop{}
	}
	if m == nil {
		m = nopRecorder{}
	}
	if qr == nil {
		qr = payments.OfflineQR{}
	}
	return &CheckoutService{Carts: carts, Payments: pays, PayPal: pp, QR: qr, Events: pub, Metrics: m, Now: time.Now}
}

type CardDetails struct {
	Holder string
	Number string
	Expiry string
	CVV    string
}

type Receipt struct {
	Payment domain.Payment
	Lines   []domain.CartLine
}

// NormalizeMethod maps form values to a payment method. Both the short names
// and the long form labels ("credit-card", "qr-code") are accepted.
func NormalizeMethod(m string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(m)) {
	case "card", "credit-card":
		return domain.MethodCard, nil
	case "paypal":
		return domain.MethodPayPal, nil
	case "qr", "qr-code":
		return domain.MethodQR, nil
	}
	return "", domain.ErrInvalidMethod
}

// Begin opens the payment page. A pending provider attempt is kept so that a
// shopper returning from PayPal or the QR page does not lose it.
func (s *CheckoutService) Begin(ctx context.Context, cart *domain.Cart, a *domain.CheckoutAttempt) (CartView, error) {
	if cart.Empty() {
		return CartView{}, domain.ErrEmptyCart
	}
	view, err := s.Carts.List(ctx, cart)
	if err != nil {
		return CartView{}, err
	}
	if !a.Pending() {
		a.Reset(uuid.NewString())
		a.Total = view.Total
	}
	return view, nil
}

// SelectMethod starts a fresh attempt for method with the current cart total.
func (s *CheckoutService) SelectMethod(ctx context.Context, cart *domain.Cart, a *domain.CheckoutAttempt, method string) (CartView, error) {
	m, err := NormalizeMethod(method)
	if err != nil {
		return CartView{}, err
	}
	if cart.Empty() {
		return CartView{}, domain.ErrEmptyCart
	}
	view, err := s.Carts.List(ctx, cart)
	if err != nil {
		return CartView{}, err
	}
	a.Reset(uuid.NewString())
	a.Method = m
	a.Total = view.Total
	if err := a.Transition(domain.StateMethodSelected); err != nil {
		return CartView{}, err
	}
	return view, nil
}

// BeginCard moves a card attempt to the card capture form.
func (s *CheckoutService) BeginCard(a *domain.CheckoutAttempt) error {
	if a.Method != domain.MethodCard {
		return domain.ErrInvalidMethod
	}
	return a.Transition(domain.StateCardCapture)
}

// PayByCard validates the card form and records the payment. Only the last
// four digits of the number are kept.
func (s *CheckoutService) PayByCard(ctx context.Context, userID string, cart *domain.Cart, a *domain.CheckoutAttempt, cd CardDetails) (domain.OrderSnapshot, error) {
	if a.Current() != domain.StateCardCapture {
		return domain.OrderSnapshot{}, domain.ErrInvalidTransition
	}
	digits, ok := validate.CardDigits(cd.Number)
	if strings.TrimSpace(cd.Holder) == "" || !ok || !validate.CardExpiry(cd.Expiry) || !validate.CVV(cd.CVV) {
		s.Metrics.Checkout(domain.MethodCard, "rejected")
		return domain.OrderSnapshot{}, domain.ErrIncompleteCardDetails
	}
	if cart.Empty() {
		return domain.OrderSnapshot{}, domain.ErrEmptyCart
	}
	view, err := s.Carts.List(ctx, cart)
	if err != nil {
		return domain.OrderSnapshot{}, err
	}
	p := domain.Payment{
		Total:        view.Total,
		Method:       domain.MethodCard,
		CardLastFour: digits[len(digits)-4:],
	}
	return s.complete(ctx, userID, cart, a, p)
}

// StartPayPal creates the provider order and returns the approval URL.
func (s *CheckoutService) StartPayPal(ctx context.Context, cart *domain.Cart, a *domain.CheckoutAttempt) (string, error) {
	if s.PayPal == nil {
		return "", payments.ErrNotConfigured
	}
	if a.Method != domain.MethodPayPal || a.Current() != domain.StateMethodSelected {
		return "", domain.ErrInvalidTransition
	}
	view, err := s.Carts.List(ctx, cart)
	if err != nil {
		return "", err
	}
	if view.Empty() {
		return "", domain.ErrEmptyCart
	}
	items := make([]payments.Item, 0, len(view.Lines))
	for _, l := range view.Lines {
		items = append(items, payments.Item{Name: l.Name, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	order, err := s.PayPal.CreateOrder(ctx, view.Total, items)
	if err != nil {
		s.Metrics.Checkout(domain.MethodPayPal, "error")
		return "", err
	}
	a.Total = view.Total
	a.PayPalOrderID = order.ID
	if err := a.Transition(domain.StatePayPalRedirect); err != nil {
		return "", err
	}
	return order.ApprovalURL, nil
}

// CapturePayPal finalises the attempt identified by token. Any status other
// than COMPLETED leaves the cart intact.
func (s *CheckoutService) CapturePayPal(ctx context.Context, userID string, cart *domain.Cart, a *domain.CheckoutAttempt, token string) (domain.OrderSnapshot, error) {
	if s.PayPal == nil {
		return domain.OrderSnapshot{}, payments.ErrNotConfigured
	}
	if token == "" || a.Current() != domain.StatePayPalRedirect || token != a.PayPalOrderID {
		return domain.OrderSnapshot{}, ErrUnknownOrder
	}
	if err := s.sameCart(ctx, cart, a); err != nil {
		return domain.OrderSnapshot{}, err
	}
	capture, err := s.PayPal.CaptureOrder(ctx, token)
	if err != nil {
		s.Metrics.Checkout(domain.MethodPayPal, "error")
		return domain.OrderSnapshot{}, err
	}
	if capture.Status != payments.PayPalStatusCompleted {
		s.Metrics.Checkout(domain.MethodPayPal, "not_completed")
		return domain.OrderSnapshot{}, &domain.PaymentStatusError{Provider: domain.MethodPayPal, Status: capture.Status}
	}
	if err := a.Transition(domain.StatePayPalCaptured); err != nil {
		return domain.OrderSnapshot{}, err
	}
	txn := capture.ID
	if txn == "" {
		txn = token
	}
	// The captured amount is what the provider approved.
	p := domain.Payment{Total: a.Total, Method: domain.MethodPayPal, TransactionID: txn}
	return s.complete(ctx, userID, cart, a, p)
}

// StartQR asks the provider for a code tied to a fresh transaction reference.
func (s *CheckoutService) StartQR(ctx context.Context, cart *domain.Cart, a *domain.CheckoutAttempt) (payments.QRRequest, error) {
	if a.Method != domain.MethodQR || a.Current() != domain.StateMethodSelected {
		return payments.QRRequest{}, domain.ErrInvalidTransition
	}
	view, err := s.Carts.List(ctx, cart)
	if err != nil {
		return payments.QRRequest{}, err
	}
	if view.Empty() {
		return payments.QRRequest{}, domain.ErrEmptyCart
	}
	req, err := s.QR.Request(ctx, view.Total, "qr-"+uuid.NewString())
	if err != nil {
		s.Metrics.Checkout(domain.MethodQR, "error")
		return payments.QRRequest{}, err
	}
	a.Total = view.Total
	a.QRTxnRef = req.TxnRef
	a.QRImage = req.QRImage
	if err := a.Transition(domain.StateQRRequested); err != nil {
		return payments.QRRequest{}, err
	}
	return req, nil
}

// CompleteQR checks the provider status and records the payment when paid.
func (s *CheckoutService) CompleteQR(ctx context.Context, userID string, cart *domain.Cart, a *domain.CheckoutAttempt) (domain.OrderSnapshot, error) {
	if a.Current() != domain.StateQRRequested || a.QRTxnRef == "" {
		return domain.OrderSnapshot{}, ErrUnknownOrder
	}
	if err := s.sameCart(ctx, cart, a); err != nil {
		return domain.OrderSnapshot{}, err
	}
	st, err := s.QR.Status(ctx, a.QRTxnRef)
	if err != nil {
		s.Metrics.Checkout(domain.MethodQR, "error")
		return domain.OrderSnapshot{}, err
	}
	switch st {
	case payments.QRPaid:
	case payments.QRFailed:
		s.Metrics.Checkout(domain.MethodQR, "failed")
		s.Cancel(a)
		return domain.OrderSnapshot{}, &domain.PaymentStatusError{Provider: domain.MethodQR, Status: string(st)}
	default:
		return domain.OrderSnapshot{}, &domain.PaymentStatusError{Provider: domain.MethodQR, Status: string(st)}
	}
	if err := a.Transition(domain.StateQRCompleted); err != nil {
		return domain.OrderSnapshot{}, err
	}
	p := domain.Payment{Total: a.Total, Method: domain.MethodQR, TransactionID: a.QRTxnRef}
	return s.complete(ctx, userID, cart, a, p)
}

// FailQR records a provider failure callback and abandons the attempt.
func (s *CheckoutService) FailQR(a *domain.CheckoutAttempt) {
	if a.Current() == domain.StateQRRequested {
		s.Metrics.Checkout(domain.MethodQR, "failed")
	}
	s.Cancel(a)
}

// Cancel discards pending provider references. Reserved stock stays in the cart.
func (s *CheckoutService) Cancel(a *domain.CheckoutAttempt) { a.Cancel() }

// sameCart guards provider completions: the provider order was created for
// a.Total, so a cart that changed since then cannot be settled by it.
func (s *CheckoutService) sameCart(ctx context.Context, cart *domain.Cart, a *domain.CheckoutAttempt) error {
	view, err := s.Carts.List(ctx, cart)
	if err != nil {
		return err
	}
	if view.Empty() || !view.Total.Equal(a.Total) {
		log.Security(nil, "checkout.cart.changed", map[string]any{
			"attempt_id": a.ID, "ordered": a.Total.StringFixed(2), "cart": view.Total.StringFixed(2),
		})
		a.Cancel()
		return ErrCartChanged
	}
	return nil
}

func (s *CheckoutService) complete(ctx context.Context, userID string, cart *domain.Cart, a *domain.CheckoutAttempt, p domain.Payment) (domain.OrderSnapshot, error) {
	p.ID = uuid.NewString()
	p.UserID = userID
	p.Status = domain.PaymentCompleted
	p.Total = p.Total.Round(2)
	p.CreatedAt = s.Now().UTC()

	if err := s.Payments.Create(ctx, p); err != nil {
		s.Metrics.Checkout(p.Method, "error")
		return domain.OrderSnapshot{}, domain.StoreErr("payment create", err)
	}
	if err := a.Transition(domain.StateCompleted); err != nil {
		// Payment is already recorded; the attempt is finished either way.
		a.State = domain.StateCompleted
	}

	snap := domain.OrderSnapshot{Payment: p, Lines: append([]domain.CartLine(nil), cart.Lines...)}
	cart.Clear()

	s.Metrics.Checkout(p.Method, "completed")
	log.Audit(nil, "payment.completed", map[string]any{
		"payment_id": p.ID, "user_id": userID, "method": p.Method, "total": p.Total.StringFixed(2),
	})
	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.Events.PublishPayment(pctx, p); err != nil {
		log.Error(nil, "payment.event.fail", err, map[string]any{"payment_id": p.ID})
	}
	return snap, nil
}

// Receipt returns paymentID if it belongs to userID. When the store cannot
// produce the row, the session's last order snapshot is used if it matches.
func (s *CheckoutService) Receipt(ctx context.Context, paymentID, userID string, last *domain.OrderSnapshot) (Receipt, error) {
	fromSnapshot := last != nil && last.Payment.ID == paymentID && last.Payment.UserID == userID

	p, err := s.Payments.Get(ctx, paymentID)
	if err != nil {
		if fromSnapshot {
			return Receipt{Payment: last.Payment, Lines: last.Lines}, nil
		}
		if errors.Is(err, domain.ErrNotFound) {
			return Receipt{}, domain.ErrNotFound
		}
		return Receipt{}, domain.StoreErr("payment get", err)
	}
	if p.UserID != userID {
		return Receipt{}, domain.ErrNotFound
	}
	r := Receipt{Payment: p}
	if fromSnapshot {
		r.Lines = last.Lines
	}
	return r, nil
}

func (s *CheckoutService) History(ctx context.Context, userID string) ([]domain.Payment, error) {
	return s.Payments.ListByUser(ctx, userID)
}

func (s *CheckoutService) AllPayments(ctx context.Context) ([]domain.Payment, error) {
	return s.Payments.ListAll(ctx)
}
