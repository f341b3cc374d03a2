package handlers_test

import (
	"net/http"
	"strings"
	"testing"
)

func TestValidationBadInputs(t *testing.T) {
	ta := newTestApp(t)
	b := ta.browser(t)
	b.login("alice@supermart.test")

	// search with invalid chars falls back to the full list
	entries := captureLogs(t, func() {
		resp := b.get("/shopping?q=%3Cscript%3E")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("bad search expected 200, got %d", resp.StatusCode)
		}
		s := body(t, resp)
		if !strings.Contains(s, "Search may only contain") || !strings.Contains(s, "Broccoli") {
			t.Fatalf("expected flash and unfiltered list; body=%s", s)
		}
	})
	if _, ok := findLog(entries, "input.invalid.search"); !ok {
		t.Fatal("expected input.invalid.search log")
	}

	expectRedirect(t, b.get("/product/abc"), "/shopping")
	expectRedirect(t, b.get("/product/-1"), "/shopping")
	expectRedirect(t, b.get("/product/999"), "/shopping")
	expectRedirect(t, b.post("/add-to-cart/abc", nil), "/shopping")
	expectRedirect(t, b.post("/cart/update/2", nil), "/cart") // not in cart
}

func TestSearchFiltersCatalog(t *testing.T) {
	ta := newTestApp(t)
	b := ta.browser(t)
	b.login("alice@supermart.test")

	s := body(t, b.get("/shopping?q=bread"))
	if !strings.Contains(s, "Bread") || strings.Contains(s, "Apples") {
		t.Fatalf("search should only list bread; body=%s", s)
	}
}

// Templates auto-escape untrusted text.
func TestTemplateAutoEscape(t *testing.T) {
	ta := newTestApp(t)
	if _, err := ta.db.Exec(`INSERT INTO products(name,price,quantity,image_ref) VALUES('<script>alert(1)</script>',9.99,3,'')`); err != nil {
		t.Fatal(err)
	}
	b := ta.browser(t)
	b.login("alice@supermart.test")

	s := body(t, b.get("/shopping"))
	if strings.Contains(s, "<script>alert(1)</script>") {
		t.Fatalf("found unescaped script tag in output")
	}
	if !strings.Contains(s, "&lt;script&gt;alert(1)&lt;/script&gt;") {
		t.Fatalf("escaped script not found; output=%s", s)
	}
}

func TestImageTraversalBlocked(t *testing.T) {
	ta := newTestApp(t)
	b := ta.browser(t)
	for _, p := range []string{"/images/..%2f..%2fgo.mod", "/images/%2e%2e/secret"} {
		if resp := b.get(p); resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s expected 404, got %d", p, resp.StatusCode)
		}
	}
}
