package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Server.Port != "3000" {
		t.Fatalf("unexpected default port: %q", cfg.Server.Port)
	}
	if cfg.DB.DBName != "shutsugan" {
		t.Fatalf("unexpected default db name: %q", cfg.DB.DBName)
	}
	if cfg.Data.Dir != "data" || cfg.Data.BackupDir != "backups" {
		t.Fatalf("unexpected data dirs: %+v", cfg.Data)
	}
	if cfg.Data.MaxUploadBytes != 20*1024*1024 {
		t.Fatalf("unexpected upload cap: %d", cfg.Data.MaxUploadBytes)
	}
	if len(cfg.Analyzer.Command) == 0 {
		t.Fatalf("analyzer command must not be empty")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("JWT_EXPIRATION_HOURS", "24")
	t.Setenv("ANALYZER_TIMEOUT", "30s")
	t.Setenv("ANALYZER_COMMAND", "python3 alt/analyze.py --strict")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("env port not applied: %q", cfg.Server.Port)
	}
	if cfg.JWT.ExpirationHours != 24 {
		t.Fatalf("env expiration not applied: %d", cfg.JWT.ExpirationHours)
	}
	if cfg.Analyzer.Timeout != 30*time.Second {
		t.Fatalf("env timeout not applied: %v", cfg.Analyzer.Timeout)
	}
	want := []string{"python3", "alt/analyze.py", "--strict"}
	if len(cfg.Analyzer.Command) != len(want) {
		t.Fatalf("analyzer argv not split: %v", cfg.Analyzer.Command)
	}
	for i := range want {
		if cfg.Analyzer.Command[i] != want[i] {
			t.Fatalf("analyzer argv[%d] = %q, want %q", i, cfg.Analyzer.Command[i], want[i])
		}
	}
}

func TestGetDSNComposed(t *testing.T) {
	c := DBConfig{
		Host: "db", Port: "5433", User: "app", Password: "pw",
		DBName: "shutsugan", SSLMode: "disable",
	}
	got := c.GetDSN()
	want := "host=db port=5433 user=app password=pw dbname=shutsugan sslmode=disable"
	if got != want {
		t.Fatalf("GetDSN() = %q, want %q", got, want)
	}
}

func TestGetDSNURLOverride(t *testing.T) {
	c := DBConfig{
		URL:  "postgres://app:pw@db:5432/shutsugan",
		Host: "ignored",
	}
	if got := c.GetDSN(); got != c.URL {
		t.Fatalf("URL should override composed DSN, got %q", got)
	}
}
