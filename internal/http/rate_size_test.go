package handlers_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"supermart/internal/config"
)

func TestGlobalRateLimit(t *testing.T) {
	ta := newTestApp(t, func(c *config.Config) { c.RateLimit = 3 })
	b := ta.browser(t)
	for i := 0; i < 4; i++ {
		resp := b.get("/healthz")
		if i < 3 && resp.StatusCode == http.StatusTooManyRequests {
			t.Fatalf("hit rate limit too early at %d", i)
		}
		if i == 3 && resp.StatusCode != http.StatusTooManyRequests {
			t.Fatalf("expected 429 after limit, got %d", resp.StatusCode)
		}
	}
}

// Oversized POST rejected with 413.
func TestBodySizeLimit(t *testing.T) {
	ta := newTestApp(t)
	b := ta.browser(t)
	b.csrf()

	oversize := bytes.Repeat([]byte("A"), (1<<20)+10)
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(oversize))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: b.cookies["csrf_"]})
	resp, err := ta.app.Test(req, -1)
	// Fiber returns an error instead of a response when body too large; treat that as pass
	if err != nil {
		if strings.Contains(err.Error(), "body size exceeds") || strings.Contains(err.Error(), "too large") {
			return
		}
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for oversize, got %d", resp.StatusCode)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ta := newTestApp(t)
	b := ta.browser(t)
	if resp := b.get("/healthz"); resp.StatusCode != http.StatusOK || !strings.Contains(body(t, resp), `"ok":true`) {
		t.Fatal("healthz should report ok")
	}

	b.login("alice@supermart.test")
	b.post("/add-to-cart/1", nil)

	s := body(t, b.get("/metrics"))
	for _, want := range []string{
		`supermart_http_requests_total{route="/healthz",status="200"} 1`,
		`supermart_stock_reservations_total{outcome="reserved"} 1`,
		`supermart_http_request_duration_ms_bucket`,
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("metrics missing %q; body=%s", want, s)
		}
	}
}
