package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerHas(t *testing.T) {
	c := NewChecker(nil)
	if !c.Has("user", "test:create") {
		t.Fatal("user should create tests")
	}
	if c.Has("user", "bank:upload") {
		t.Fatal("user must not upload banks")
	}
	if !c.Has("admin", "bank:upload") {
		t.Fatal("admin wildcard should cover bank:upload")
	}
	if c.Has("nobody", "test:create") {
		t.Fatal("unknown role has nothing")
	}
}

func TestCheckerPrefixMatch(t *testing.T) {
	c := NewChecker(map[string][]string{"ops": {"session:*"}})
	if !c.Has("ops", "session:list") {
		t.Fatal("prefix pattern should match")
	}
	if c.Has("ops", "bank:list") {
		t.Fatal("prefix pattern must not cross concerns")
	}
}

func TestRequireMiddleware(t *testing.T) {
	h := Require("bank:upload")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("POST", "/api/admin/banks", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithRole(req.Context(), "admin")))
	if rec.Code != 200 {
		t.Fatalf("admin: status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithRole(req.Context(), "user")))
	if rec.Code != 403 {
		t.Fatalf("user: status = %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 403 {
		t.Fatalf("no role: status = %d, want 403", rec.Code)
	}
}
