package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"

	"shutsugan-server/internal/dataset"
)

func TestHealthCheck(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	if err := HealthCheck(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("unexpected status: %q", body["status"])
	}
}

func TestGetOverviewNoSnapshot(t *testing.T) {
	dir := t.TempDir()
	Snapshot = &dataset.Store{
		DataDir:   filepath.Join(dir, "data"),
		BackupDir: filepath.Join(dir, "backups"),
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/overview", nil)
	rec := httptest.NewRecorder()

	if err := GetOverview(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before first upload, got %d", rec.Code)
	}
}

func TestGetOverviewServesSnapshot(t *testing.T) {
	dir := t.TempDir()
	Snapshot = &dataset.Store{
		DataDir:   filepath.Join(dir, "data"),
		BackupDir: filepath.Join(dir, "backups"),
	}
	records := []dataset.Record{{"name": "大阪大学", "department": "医学部"}}
	if _, err := Snapshot.Refresh(records); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/overview", nil)
	rec := httptest.NewRecorder()

	if err := GetOverview(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Data []map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0]["name"] != "大阪大学" {
		t.Fatalf("unexpected payload: %+v", body.Data)
	}
}

func TestParamID(t *testing.T) {
	e := echo.New()
	newCtx := func(val string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(val)
		return c
	}

	if id, ok := paramID(newCtx("15"), "id"); !ok || id != 15 {
		t.Fatalf("valid id rejected: %d %v", id, ok)
	}
	if _, ok := paramID(newCtx("0"), "id"); ok {
		t.Fatalf("zero id accepted")
	}
	if _, ok := paramID(newCtx("abc"), "id"); ok {
		t.Fatalf("non-numeric id accepted")
	}
	if _, ok := paramID(newCtx("-3"), "id"); ok {
		t.Fatalf("negative id accepted")
	}
}
