package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"shutsugan-server/internal/authz"
)

func elevatedProbe(t *testing.T, staff *StaffUser) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/users/create-teacher", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if staff != nil {
		c.Set("staff", staff)
	}

	next := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
	if err := RequireElevated(next)(c); err != nil {
		t.Fatalf("middleware error: %v", err)
	}
	return rec
}

func TestRequireElevated(t *testing.T) {
	if rec := elevatedProbe(t, &StaffUser{ID: 1, Role: authz.RoleAdmin}); rec.Code != http.StatusOK {
		t.Fatalf("admin refused: %d", rec.Code)
	}
	if rec := elevatedProbe(t, &StaffUser{ID: 2, Role: authz.RoleSuperAdmin}); rec.Code != http.StatusOK {
		t.Fatalf("super_admin refused: %d", rec.Code)
	}
	if rec := elevatedProbe(t, &StaffUser{ID: 3, Role: authz.RoleTeacher}); rec.Code != http.StatusForbidden {
		t.Fatalf("teacher must be refused: %d", rec.Code)
	}
	if rec := elevatedProbe(t, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("missing staff context must be refused: %d", rec.Code)
	}
}
