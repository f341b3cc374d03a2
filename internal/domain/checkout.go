package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type CheckoutState string

const (
	StateViewing        CheckoutState = "VIEWING"
	StateMethodSelected CheckoutState = "METHOD_SELECTED"
	StateCardCapture    CheckoutState = "CARD_CAPTURE"
	StatePayPalRedirect CheckoutState = "PAYPAL_REDIRECT"
	StatePayPalCaptured CheckoutState = "PAYPAL_CAPTURED"
	StateQRRequested    CheckoutState = "QR_REQUESTED"
	StateQRCompleted    CheckoutState = "QR_COMPLETED"
	StateCompleted      CheckoutState = "COMPLETED"
	StateCancelled      CheckoutState = "CANCELLED"
)

var transitions = map[CheckoutState][]CheckoutState{
	StateViewing:        {StateMethodSelected, StateCancelled},
	StateMethodSelected: {StateCardCapture, StatePayPalRedirect, StateQRRequested, StateCancelled},
	StateCardCapture:    {StateCompleted, StateCancelled},
	StatePayPalRedirect: {StatePayPalCaptured, StateCancelled},
	StatePayPalCaptured: {StateCompleted},
	StateQRRequested:    {StateQRCompleted, StateCancelled},
	StateQRCompleted:    {StateCompleted},
}

// CheckoutAttempt is the per-session progress of one checkout. It lives in the
// session next to the cart.
type CheckoutAttempt struct {
	ID            string          `json:"id,omitempty"`
	State         CheckoutState   `json:"state,omitempty"`
	Method        string          `json:"method,omitempty"`
	Total         decimal.Decimal `json:"total"`
	PayPalOrderID string          `json:"paypal_order_id,omitempty"`
	QRTxnRef      string          `json:"qr_txn_ref,omitempty"`
	QRImage       string          `json:"qr_image,omitempty"`
}

// Current returns the state, treating a zero attempt as Viewing.
func (a *CheckoutAttempt) Current() CheckoutState {
	if a.State == "" {
		return StateViewing
	}
	return a.State
}

// Transition moves to next or returns ErrInvalidTransition.
func (a *CheckoutAttempt) Transition(next CheckoutState) error {
	cur := a.Current()
	for _, s := range transitions[cur] {
		if s == next {
			a.State = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur, next)
}

// Reset starts a fresh attempt in Viewing, dropping external references.
func (a *CheckoutAttempt) Reset(id string) {
	*a = CheckoutAttempt{ID: id, State: StateViewing}
}

// Cancel drops provider references and marks the attempt cancelled.
func (a *CheckoutAttempt) Cancel() {
	a.Reset(a.ID)
	a.State = StateCancelled
}

// Pending reports whether an external order is waiting on the provider.
func (a *CheckoutAttempt) Pending() bool {
	switch a.Current() {
	case StatePayPalRedirect, StateQRRequested:
		return true
	}
	return false
}

// OrderSnapshot is kept in the session after a completed checkout so that the
// receipt can still be shown if the payment row is not readable yet.
type OrderSnapshot struct {
	Payment Payment    `json:"payment"`
	Lines   []CartLine `json:"lines"`
}
