package handlers_test

import (
	"net/url"
	"strconv"
	"strings"
	"testing"
)

func TestAuthLogging(t *testing.T) {
	ta := newTestApp(t)
	b := ta.browser(t)
	b.csrf()

	failLogs := captureLogs(t, func() {
		b.post("/login", url.Values{"email": {"alice@supermart.test"}, "password": {"badpass!"}})
	})
	e, ok := findLog(failLogs, "auth.login.fail")
	if !ok {
		t.Fatalf("auth.login.fail log not found")
	}
	if _, ok := e.Fields["email"]; !ok {
		t.Fatalf("auth.login.fail missing email field")
	}
	if e.Level != "warn" {
		t.Fatalf("auth.login.fail should be a security event, got level %q", e.Level)
	}

	successLogs := captureLogs(t, func() { b.login("alice@supermart.test") })
	e, ok = findLog(successLogs, "auth.login.success")
	if !ok {
		t.Fatalf("auth.login.success log not found")
	}
	if _, ok := e.Fields["email"]; !ok {
		t.Fatalf("auth.login.success missing email field")
	}
	for _, e := range successLogs {
		if strings.Contains(e.Action, "password") || e.Fields["password"] != nil {
			t.Fatalf("password leaked into logs: %+v", e)
		}
	}
}

// Access control denials are logged.
func TestAccessDeniedLogs(t *testing.T) {
	ta := newTestApp(t)
	b := ta.browser(t)
	b.login("bob@supermart.test")

	entries := captureLogs(t, func() { b.get("/users") })
	e, ok := findLog(entries, "access.denied.admin")
	if !ok {
		t.Fatalf("expected access.denied.admin log")
	}
	if e.UserID != "u-bob" {
		t.Fatalf("expected denial attributed to u-bob, got %q", e.UserID)
	}

	entries = captureLogs(t, func() { b.get("/receipt/does-not-exist") })
	if _, ok := findLog(entries, "receipt.denied"); !ok {
		t.Fatalf("expected receipt.denied log")
	}
}

func TestAdminInventoryAuditLogs(t *testing.T) {
	ta := newTestApp(t)
	b := ta.browser(t)
	b.login("admin@supermart.test")

	created := captureLogs(t, func() {
		resp := b.post("/addProduct", url.Values{
			"name": {"Pears"}, "price": {"2.25"}, "quantity": {"10"}, "image": {"pears.png"},
		})
		expectRedirect(t, resp, "/inventory")
	})
	e, ok := findLog(created, "admin.product.create")
	if !ok {
		t.Fatal("expected admin.product.create audit log")
	}
	if e.Level != "audit" {
		t.Fatalf("expected audit level, got %q", e.Level)
	}

	var id int64
	if err := ta.db.Get(&id, `SELECT id FROM products WHERE name='Pears'`); err != nil {
		t.Fatalf("product not stored: %v", err)
	}
	path := "/editProduct/" + strconv.FormatInt(id, 10)

	updated := captureLogs(t, func() {
		expectRedirect(t, b.post(path, url.Values{
			"name": {"Pears"}, "price": {"2.40"}, "quantity": {"12"}, "image": {"pears.png"},
		}), "/inventory")
	})
	if e, ok := findLog(updated, "admin.product.update"); !ok || e.Fields["price"] != "2.40" {
		t.Fatalf("expected admin.product.update with new price, got %+v", e)
	}
	if got := ta.stock(t, id); got != 12 {
		t.Fatalf("expected quantity 12, got %d", got)
	}

	invalid := captureLogs(t, func() {
		expectRedirect(t, b.post("/addProduct", url.Values{
			"name": {"Bad"}, "price": {"-1"}, "quantity": {"1"},
		}), "/addProduct")
	})
	if _, ok := findLog(invalid, "input.invalid.product"); !ok {
		t.Fatal("expected input.invalid.product log")
	}

	deleted := captureLogs(t, func() {
		expectRedirect(t, b.post("/deleteProduct/"+strconv.FormatInt(id, 10), nil), "/inventory")
	})
	if _, ok := findLog(deleted, "admin.product.delete"); !ok {
		t.Fatal("expected admin.product.delete audit log")
	}
}
