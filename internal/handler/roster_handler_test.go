package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"shutsugan-server/internal/authz"
	"shutsugan-server/internal/middleware"
)

func rosterContext(t *testing.T, method, target, id string, staff *middleware.StaffUser) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(`{"payload":{"school":"x"}}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	c.Set("staff", staff)
	return c, rec
}

func TestRequireStudentScopeElevatedPasses(t *testing.T) {
	c, rec := rosterContext(t, http.MethodGet, "/api/admin/teacher/students/7/plans", "7",
		&middleware.StaffUser{ID: 1, Username: "admin", Role: authz.RoleAdmin})

	staff, studentID, ok := requireStudentScope(c)
	if !ok {
		t.Fatalf("elevated caller refused")
	}
	if staff == nil || studentID != 7 {
		t.Fatalf("unexpected scope result: staff=%v id=%d", staff, studentID)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("success path must not write a response, got %q", rec.Body.String())
	}
}

func TestRequireStudentScopeInvalidIDStops(t *testing.T) {
	c, rec := rosterContext(t, http.MethodGet, "/api/admin/teacher/students/abc/plans", "abc",
		&middleware.StaffUser{ID: 1, Username: "admin", Role: authz.RoleAdmin})

	_, studentID, ok := requireStudentScope(c)
	if ok {
		t.Fatalf("invalid id must refuse scope")
	}
	if studentID != 0 {
		t.Fatalf("refused scope must not yield an id, got %d", studentID)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAddStudentPlanInvalidIDWritesSingleResponse(t *testing.T) {
	c, rec := rosterContext(t, http.MethodPost, "/api/admin/teacher/students/abc/plan", "abc",
		&middleware.StaffUser{ID: 1, Username: "admin", Role: authz.RoleAdmin})

	if err := AddStudentPlan(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	// The refusal must be the whole body: a second write would leave two
	// concatenated JSON documents behind.
	var body map[string]string
	dec := json.NewDecoder(rec.Body)
	if err := dec.Decode(&body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body["message"] != "invalid id" {
		t.Fatalf("unexpected message: %q", body["message"])
	}
	if dec.More() {
		t.Fatalf("response contains more than one JSON document")
	}
}
