package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/quizforge/quizforge/internal/rbac"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewAuthService("test-secret")
	tok, err := svc.IssueJWT("admin", "admin")
	if err != nil {
		t.Fatal(err)
	}
	c, err := svc.Parse(tok)
	if err != nil {
		t.Fatal(err)
	}
	if c.Sub != "admin" || c.Role != "admin" {
		t.Fatalf("claims = %+v", c)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tok, err := NewAuthService("secret-a").IssueJWT("admin", "admin")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewAuthService("secret-b").Parse(tok); err == nil {
		t.Fatal("token signed with another secret must not verify")
	}
}

func TestLoginHandler(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	h := LoginHandler(NewAuthService("s"), "admin", string(hash))

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest("POST", "/auth/login", strings.NewReader(body)))
		return rec
	}

	if rec := post(`{"username":"admin","password":"hunter2"}`); rec.Code != 200 {
		t.Fatalf("valid login: status = %d", rec.Code)
	}
	if rec := post(`{"username":"admin","password":"wrong"}`); rec.Code != 401 {
		t.Fatalf("bad password: status = %d", rec.Code)
	}
	if rec := post(`{"username":"other","password":"hunter2"}`); rec.Code != 401 {
		t.Fatalf("unknown user: status = %d", rec.Code)
	}
}

func TestIdentityFallsBackToClientIP(t *testing.T) {
	svc := NewAuthService("s")
	var gotSub, gotRole string
	h := Identity(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = rbac.SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/config", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	h.ServeHTTP(httptest.NewRecorder(), req)
	if gotSub != "203.0.113.9" {
		t.Fatalf("subject = %q, want client IP", gotSub)
	}
	if gotRole != "user" {
		t.Fatalf("role = %q, want user", gotRole)
	}
}

func TestIdentityUsesBearerSubject(t *testing.T) {
	svc := NewAuthService("s")
	tok, err := svc.IssueJWT("admin", "admin")
	if err != nil {
		t.Fatal(err)
	}
	var gotSub, gotRole string
	h := Identity(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = rbac.SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/config", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if gotSub != "admin" || gotRole != "admin" {
		t.Fatalf("sub=%q role=%q", gotSub, gotRole)
	}
}

func TestRequireJWT(t *testing.T) {
	svc := NewAuthService("s")
	h := RequireJWT(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/admin/banks", nil))
	if rec.Code != 401 {
		t.Fatalf("no bearer: status = %d, want 401", rec.Code)
	}

	tok, _ := svc.IssueJWT("admin", "admin")
	req := httptest.NewRequest("GET", "/api/admin/banks", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("valid bearer: status = %d, want 200", rec.Code)
	}
}
