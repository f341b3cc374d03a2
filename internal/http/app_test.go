package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"supermart/internal/config"
	"supermart/internal/events"
	"supermart/internal/http/handlers"
	"supermart/internal/http/server"
	"supermart/internal/metrics"
	"supermart/internal/payments"
	"supermart/internal/repos"
	"supermart/internal/session"
)

const seedPassword = "Passw0rd!"

type testApp struct {
	app *fiber.App
	db  *sqlx.DB
}

// newTestApp builds the full storefront on an in-memory database. Rate limits
// are off unless a tweak turns them on.
func newTestApp(t *testing.T, tweaks ...func(*config.Config)) *testApp {
	t.Helper()
	cfg := config.Config{
		DBDSN:        ":memory:",
		TemplatesDir: "../../web/templates",
		StaticDir:    "../../web/static",
		SessionTTL:   time.Hour,
	}
	for _, tw := range tweaks {
		tw(&cfg)
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	deps := handlers.NewDeps(db, session.NewStore(cfg.SessionTTL, nil), nil, payments.OfflineQR{}, events.Nop{}, metrics.New())
	return &testApp{app: server.New(cfg, deps), db: db}
}

func (ta *testApp) stock(t *testing.T, productID int64) int {
	t.Helper()
	var q int
	if err := ta.db.Get(&q, `SELECT quantity FROM products WHERE id=?`, productID); err != nil {
		t.Fatalf("stock %d: %v", productID, err)
	}
	return q
}

// browser replays cookies between app.Test calls.
type browser struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
}

func (ta *testApp) browser(t *testing.T) *browser {
	return &browser{t: t, app: ta.app, cookies: map[string]string{}}
}

func (b *browser) do(req *http.Request) *http.Response {
	b.t.Helper()
	for name, v := range b.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: v})
	}
	resp, err := b.app.Test(req, -1)
	if err != nil {
		b.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	for _, c := range resp.Cookies() {
		expired := c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now()))
		if c.Value == "" || expired {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c.Value
	}
	return resp
}

func (b *browser) get(path string) *http.Response {
	b.t.Helper()
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) csrf() string {
	b.t.Helper()
	if tok := b.cookies["csrf_"]; tok != "" {
		return tok
	}
	b.get("/login")
	tok := b.cookies["csrf_"]
	if tok == "" {
		b.t.Fatal("csrf token missing")
	}
	return tok
}

func (b *browser) post(path string, form url.Values) *http.Response {
	b.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf", b.csrf())
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) login(email string) *http.Response {
	b.t.Helper()
	resp := b.post("/login", url.Values{"email": {email}, "password": {seedPassword}})
	if resp.StatusCode != http.StatusFound {
		b.t.Fatalf("login %s: expected redirect, got %d", email, resp.StatusCode)
	}
	return resp
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func expectRedirect(t *testing.T, resp *http.Response, to string) {
	t.Helper()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect to %s, got %d", to, resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != to {
		t.Fatalf("expected redirect to %s, got %s", to, loc)
	}
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID string         `json:"user_id"`
	Fields map[string]any `json:"fields"`
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// captureLogs swaps the standard logger output while fn runs and returns the
// JSON entries written.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedWriter{w: &buf, mu: &mu})
	log.SetFlags(0) // remove timestamps to make JSON parseable
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
