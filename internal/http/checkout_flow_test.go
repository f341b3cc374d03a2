package handlers_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func TestAddToCartReservesStock(t *testing.T) {
	ta := newTestApp(t)
	b := ta.browser(t)
	b.login("alice@supermart.test")

	expectRedirect(t, b.post("/add-to-cart/1", url.Values{"quantity": {"3"}}), "/shopping")
	if got := ta.stock(t, 1); got != 47 {
		t.Fatalf("expected 47 apples on the shelf, got %d", got)
	}

	// more than is left: refused, nothing reserved
	expectRedirect(t, b.post("/add-to-cart/4", url.Values{"quantity": {"31"}}), "/shopping")
	if got := ta.stock(t, 4); got != 30 {
		t.Fatalf("refused add must not touch stock, got %d", got)
	}
	if !strings.Contains(body(t, b.get("/shopping")), "Only 30 left in stock") {
		t.Fatal("stock refusal flash missing")
	}

	cart := body(t, b.get("/cart"))
	if !strings.Contains(cart, "Apples") || !strings.Contains(cart, "4.50") {
		t.Fatalf("cart should list 3 apples at 4.50; body=%s", cart)
	}

	expectRedirect(t, b.post("/cart/update/1", url.Values{"quantity": {"1"}}), "/cart")
	if got := ta.stock(t, 1); got != 49 {
		t.Fatalf("update should release the difference, got %d", got)
	}
	expectRedirect(t, b.post("/cart/remove/1", nil), "/cart")
	if got := ta.stock(t, 1); got != 50 {
		t.Fatalf("remove should restore stock, got %d", got)
	}

	// unknown product
	expectRedirect(t, b.post("/add-to-cart/999", nil), "/shopping")
}

func TestPaymentPageNeedsItems(t *testing.T) {
	ta := newTestApp(t)
	b := ta.browser(t)
	b.login("bob@supermart.test")

	expectRedirect(t, b.get("/payment"), "/cart")
	if !strings.Contains(body(t, b.get("/cart")), "Your cart is empty") {
		t.Fatal("empty cart flash missing")
	}
}

func TestCardCheckoutToReceipt(t *testing.T) {
	ta := newTestApp(t)
	alice := ta.browser(t)
	alice.login("alice@supermart.test")

	alice.post("/add-to-cart/3", url.Values{"quantity": {"2"}})
	page := alice.get("/payment")
	if page.StatusCode != http.StatusOK {
		t.Fatalf("payment page expected 200, got %d", page.StatusCode)
	}
	if !strings.Contains(body(t, page), "7.00") {
		t.Fatal("payment page should show the 7.00 total")
	}

	card := alice.post("/payment", url.Values{"method": {"card"}})
	if card.StatusCode != http.StatusOK || !strings.Contains(body(t, card), "cardNumber") {
		t.Fatalf("expected the card form, got %d", card.StatusCode)
	}

	// incomplete details keep the cart
	expectRedirect(t, alice.post("/payment/card", url.Values{"cardName": {"Alice"}}), "/payment")

	alice.post("/payment", url.Values{"method": {"card"}})
	resp := alice.post("/payment/card", url.Values{
		"cardName": {"Alice"}, "cardNumber": {"4111 1111 1111 1111"}, "expiry": {"12/30"}, "cvv": {"123"},
	})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect after payment, got %d", resp.StatusCode)
	}
	loc := resp.Header.Get("Location")
	if !strings.HasPrefix(loc, "/receipt/") {
		t.Fatalf("expected receipt redirect, got %s", loc)
	}

	receipt := body(t, alice.get(loc))
	for _, want := range []string{"Payment successful!", "**** 1111", "7.00", "Milk"} {
		if !strings.Contains(receipt, want) {
			t.Fatalf("receipt missing %q; body=%s", want, receipt)
		}
	}
	if strings.Contains(receipt, "4111 1111 1111 1111") {
		t.Fatal("full card number rendered")
	}

	var stored string
	if err := ta.db.Get(&stored, `SELECT card_last_four FROM payments WHERE user_id='u-alice'`); err != nil {
		t.Fatalf("payment not stored: %v", err)
	}
	if stored != "1111" {
		t.Fatalf("expected last four 1111, got %q", stored)
	}
	if got := ta.stock(t, 3); got != 38 {
		t.Fatalf("sold units stay off the shelf, got %d", got)
	}
	if !strings.Contains(body(t, alice.get("/cart")), "Your cart is empty") {
		t.Fatal("cart should be empty after checkout")
	}
	if !strings.Contains(body(t, alice.get("/payments")), loc) {
		t.Fatal("payment history should link the receipt")
	}

	// another shopper cannot read it
	bob := ta.browser(t)
	bob.login("bob@supermart.test")
	expectRedirect(t, bob.get(loc), "/")

	admin := ta.browser(t)
	admin.login("admin@supermart.test")
	if !strings.Contains(body(t, admin.get("/payments/all")), "u-alice") {
		t.Fatal("admin payment list should include alice's payment")
	}
}

func TestQRCheckoutOffline(t *testing.T) {
	ta := newTestApp(t)
	b := ta.browser(t)
	b.login("bob@supermart.test")
	b.post("/add-to-cart/2", url.Values{"quantity": {"4"}})

	qr := b.post("/payment", url.Values{"method": {"qr"}})
	if qr.StatusCode != http.StatusOK || !strings.Contains(body(t, qr), "Scan to pay") {
		t.Fatalf("expected the QR page, got %d", qr.StatusCode)
	}
	resp := b.get("/qr/success")
	if resp.StatusCode != http.StatusFound || !strings.HasPrefix(resp.Header.Get("Location"), "/receipt/") {
		t.Fatalf("expected receipt redirect, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}

	// a second callback has no pending attempt
	expectRedirect(t, b.get("/qr/success"), "/payment")
}

func TestCartChangeCancelsPendingQR(t *testing.T) {
	ta := newTestApp(t)
	b := ta.browser(t)
	b.login("bob@supermart.test")
	b.post("/add-to-cart/2", url.Values{"quantity": {"4"}})
	if qr := b.post("/payment", url.Values{"method": {"qr"}}); qr.StatusCode != http.StatusOK {
		t.Fatalf("expected the QR page, got %d", qr.StatusCode)
	}

	b.post("/add-to-cart/1", url.Values{"quantity": {"3"}})
	expectRedirect(t, b.get("/qr/success"), "/payment")

	var n int
	if err := ta.db.Get(&n, `SELECT COUNT(*) FROM payments`); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("no payment may be recorded for a changed cart, got %d", n)
	}
	if got := ta.stock(t, 1); got != 47 {
		t.Fatalf("cart keeps its reservation, got %d apples", got)
	}
}

func TestPayPalUnavailableWithoutCredentials(t *testing.T) {
	ta := newTestApp(t)
	b := ta.browser(t)
	b.login("alice@supermart.test")
	b.post("/add-to-cart/5", url.Values{"quantity": {"1"}})

	if strings.Contains(body(t, b.get("/payment")), `value="paypal"`) {
		t.Fatal("PayPal option shown without credentials")
	}
	expectRedirect(t, b.post("/payment", url.Values{"method": {"paypal"}}), "/payment")
	if !strings.Contains(body(t, b.get("/payment")), "currently unavailable") {
		t.Fatal("expected unavailable flash")
	}

	var n int
	if err := ta.db.Get(&n, `SELECT COUNT(*) FROM payments`); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("no payment should be recorded, got %d", n)
	}
}

func TestInvalidPaymentMethod(t *testing.T) {
	ta := newTestApp(t)
	b := ta.browser(t)
	b.login("alice@supermart.test")
	b.post("/add-to-cart/5", nil)
	expectRedirect(t, b.post("/payment", url.Values{"method": {"cash"}}), "/payment")
}

func TestFeedbackRoundTrip(t *testing.T) {
	ta := newTestApp(t)
	b := ta.browser(t)
	b.login("alice@supermart.test")
	expectRedirect(t, b.post("/feedback", url.Values{"title": {""}, "comment": {"x"}}), "/feedback")
	expectRedirect(t, b.post("/feedback", url.Values{
		"title": {"Fresh"}, "comment": {"<b>great</b> bread"}, "rating": {"4"},
	}), "/shopping")

	admin := ta.browser(t)
	admin.login("admin@supermart.test")
	list := body(t, admin.get("/feedback/all"))
	if !strings.Contains(list, "&lt;b&gt;great&lt;/b&gt;") || !strings.Contains(list, "Alice") {
		t.Fatalf("feedback list should show escaped comment and author; body=%s", list)
	}
}
