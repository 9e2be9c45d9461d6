package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hims/hims/internal/platform/auth"
)

func TestAuditRecordsMutations(t *testing.T) {
	var recorded []AuditEntry
	recorder := AuditRecorderFunc(func(e AuditEntry) error {
		recorded = append(recorded, e)
		return nil
	})

	e := echo.New()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := auth.WithUser(c.Request().Context(), "u1", "asha", "doctor")
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})
	e.Use(Audit(zerolog.Nop(), recorder))
	e.POST("/api/admissions", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	})
	e.GET("/api/admissions", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/admissions", nil)
	e.ServeHTTP(httptest.NewRecorder(), req)

	if len(recorded) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(recorded))
	}
	entry := recorded[0]
	if entry.Actor != "asha" || entry.Action != "create" || entry.Entity != "admissions" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.StatusCode != http.StatusCreated {
		t.Errorf("expected status 201, got %d", entry.StatusCode)
	}

	// Reads are not audited.
	req = httptest.NewRequest(http.MethodGet, "/api/admissions", nil)
	e.ServeHTTP(httptest.NewRecorder(), req)
	if len(recorded) != 1 {
		t.Errorf("GET should not be audited, got %d entries", len(recorded))
	}
}

// The server wires Audit globally and auth as group middleware, so the
// user identity is attached to the request after Audit has already seen
// it. The recorded actor must come from the swapped request.
func TestAuditSeesActorSetDownstream(t *testing.T) {
	var recorded []AuditEntry
	recorder := AuditRecorderFunc(func(e AuditEntry) error {
		recorded = append(recorded, e)
		return nil
	})

	e := echo.New()
	e.Use(Audit(zerolog.Nop(), recorder))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := auth.WithUser(c.Request().Context(), "u2", "alice", "accountant")
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})
	e.POST("/api/ipd-billing", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/ipd-billing", nil)
	e.ServeHTTP(httptest.NewRecorder(), req)

	if len(recorded) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(recorded))
	}
	entry := recorded[0]
	if entry.Actor != "alice" || entry.Role != "accountant" {
		t.Errorf("actor/role = %q/%q, want alice/accountant", entry.Actor, entry.Role)
	}
}

func TestAuditSkipsNonAPIPaths(t *testing.T) {
	var recorded []AuditEntry
	recorder := AuditRecorderFunc(func(e AuditEntry) error {
		recorded = append(recorded, e)
		return nil
	})

	e := echo.New()
	e.Use(Audit(zerolog.Nop(), recorder))
	e.POST("/health", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	e.ServeHTTP(httptest.NewRecorder(), req)

	if len(recorded) != 0 {
		t.Errorf("non-API paths should not be audited, got %d entries", len(recorded))
	}
}
