package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestScoreModel(t *testing.T, script string) *ScoreModel {
	t.Helper()
	dir := t.TempDir()
	return &ScoreModel{
		DataDir:   filepath.Join(dir, "data"),
		BackupDir: filepath.Join(dir, "backups"),
		WorkDir:   dir,
		Command:   []string{"/bin/sh", "-c", script},
		Timeout:   10 * time.Second,
	}
}

func TestScoreModelUpdateRunsAnalyzer(t *testing.T) {
	model := newTestScoreModel(t, "")
	// The stub writes a model with two bunka schools and one rika school.
	model.Command = []string{"/bin/sh", "-c",
		`printf '{"bunka":{"a":{},"b":{}},"rika":{"c":{}}}' > ` + "data/admission_score_model.json"}

	info, backup, err := model.Update(context.Background(), []byte("workbook"))
	if err != nil {
		t.Fatalf("update error: %v", err)
	}
	if backup != "" {
		t.Fatalf("first update should have no backup, got %q", backup)
	}
	if info.BunkaCount != 2 || info.RikaCount != 1 {
		t.Fatalf("unexpected counts: %+v", info)
	}

	stored, err := os.ReadFile(model.ExcelPath())
	if err != nil {
		t.Fatalf("workbook not stored: %v", err)
	}
	if string(stored) != "workbook" {
		t.Fatalf("stored workbook mangled: %q", stored)
	}
}

func TestScoreModelUpdateBacksUpPriorArtifacts(t *testing.T) {
	model := newTestScoreModel(t, "")
	model.Command = []string{"/bin/sh", "-c",
		`printf '{"bunka":{},"rika":{}}' > ` + "data/admission_score_model.json"}

	if _, _, err := model.Update(context.Background(), []byte("v1")); err != nil {
		t.Fatalf("first update: %v", err)
	}
	_, backup, err := model.Update(context.Background(), []byte("v2"))
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if backup == "" {
		t.Fatalf("second update should name a backup")
	}

	raw, err := os.ReadFile(filepath.Join(model.BackupDir, backup+".xlsx"))
	if err != nil {
		t.Fatalf("workbook backup missing: %v", err)
	}
	if string(raw) != "v1" {
		t.Fatalf("backup holds wrong version: %q", raw)
	}
}

func TestScoreModelUpdateAnalyzerFailure(t *testing.T) {
	model := newTestScoreModel(t, `echo "bad workbook" >&2; exit 1`)

	_, _, err := model.Update(context.Background(), []byte("workbook"))
	if err == nil {
		t.Fatalf("expected analyzer failure")
	}
	var aerr *AnalyzerError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AnalyzerError, got %T: %v", err, err)
	}
	if !strings.Contains(aerr.Output, "bad workbook") {
		t.Fatalf("analyzer output not captured: %q", aerr.Output)
	}
}

func TestScoreModelUpdateEmptyCommand(t *testing.T) {
	model := newTestScoreModel(t, "true")
	model.Command = nil

	if _, _, err := model.Update(context.Background(), []byte("workbook")); err == nil {
		t.Fatalf("empty analyzer command must be an error")
	}
	if _, err := os.Stat(model.ExcelPath()); !os.IsNotExist(err) {
		t.Fatalf("misconfigured update must not store the workbook")
	}
}

func TestScoreModelInfoMissingModel(t *testing.T) {
	model := newTestScoreModel(t, "true")
	info, err := model.Info()
	if err != nil {
		t.Fatalf("info error: %v", err)
	}
	if info.BunkaCount != 0 || info.RikaCount != 0 {
		t.Fatalf("expected zero counts, got %+v", info)
	}
}
