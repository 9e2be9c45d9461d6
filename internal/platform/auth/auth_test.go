package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken(testSecret, "u-1", "asha", "nurse", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Subject != "u-1" {
		t.Errorf("expected subject u-1, got %s", claims.Subject)
	}
	if claims.Username != "asha" {
		t.Errorf("expected username asha, got %s", claims.Username)
	}
	if claims.Role != "nurse" {
		t.Errorf("expected role nurse, got %s", claims.Role)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _ := IssueToken(testSecret, "u-1", "asha", "nurse", time.Hour)
	_, err := ParseToken([]byte("another-secret-another-secret-32"), token)
	if err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestParseToken_Expired(t *testing.T) {
	token, _ := IssueToken(testSecret, "u-1", "asha", "nurse", -time.Minute)
	_, err := ParseToken(testSecret, token)
	if err == nil {
		t.Error("expected error for expired token")
	}
}

func TestMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	h := Middleware(testSecret)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	err := h(c)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestMiddleware_ValidToken(t *testing.T) {
	token, _ := IssueToken(testSecret, "u-1", "asha", "doctor", time.Hour)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	c := e.NewContext(req, httptest.NewRecorder())

	h := Middleware(testSecret)(func(c echo.Context) error {
		ctx := c.Request().Context()
		if UserIDFromContext(ctx) != "u-1" {
			t.Errorf("expected user_id u-1, got %s", UserIDFromContext(ctx))
		}
		if RoleFromContext(ctx) != "doctor" {
			t.Errorf("expected role doctor, got %s", RoleFromContext(ctx))
		}
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireRole_Allows(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), "u-1", "asha", "accountant"))
	c := e.NewContext(req, httptest.NewRecorder())

	h := RequireRole("accountant")(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRequireRole_AdminBypass(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), "u-1", "root", "admin"))
	c := e.NewContext(req, httptest.NewRecorder())

	h := RequireRole("accountant")(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRequireRole_Forbids(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), "u-1", "asha", "nurse"))
	c := e.NewContext(req, httptest.NewRecorder())

	h := RequireRole("accountant")(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}
}
