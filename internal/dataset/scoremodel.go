package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const (
	scoreExcelBase = "admission_scores"
	scoreModelBase = "admission_score_model"
)

// AnalyzerError reports a failed run of the external analysis process,
// keeping its diagnostic output for the caller.
type AnalyzerError struct {
	Output string
	Err    error
}

func (e *AnalyzerError) Error() string {
	return fmt.Sprintf("analyzer failed: %v", e.Err)
}

func (e *AnalyzerError) Unwrap() error { return e.Err }

// ScoreModelInfo summarizes the generated admission-score model.
type ScoreModelInfo struct {
	BunkaCount int `json:"bunkaCount"`
	RikaCount  int `json:"rikaCount"`
}

// ScoreModel manages the admission-score pipeline: it stores the uploaded
// workbook, backs up the prior workbook and model, and delegates the
// transform to an external analysis process that reads the workbook at its
// fixed path and writes the model JSON at its fixed path, or exits non-zero.
type ScoreModel struct {
	DataDir   string
	BackupDir string
	WorkDir   string   // analyzer working directory
	Command   []string // analyzer argv
	Timeout   time.Duration
}

// ExcelPath returns the fixed location of the uploaded workbook.
func (m *ScoreModel) ExcelPath() string {
	return filepath.Join(m.DataDir, scoreExcelBase+".xlsx")
}

// ModelPath returns the fixed location of the generated model JSON.
func (m *ScoreModel) ModelPath() string {
	return filepath.Join(m.DataDir, scoreModelBase+".json")
}

// Update backs up the prior workbook and model, stores the upload, and runs
// the analyzer. Returns the summary of the generated model and the backup
// base name (empty on first run).
func (m *ScoreModel) Update(ctx context.Context, upload []byte) (ScoreModelInfo, string, error) {
	var info ScoreModelInfo

	if len(m.Command) == 0 {
		return info, "", errors.New("analyzer command is not configured")
	}
	if err := os.MkdirAll(m.DataDir, 0o755); err != nil {
		return info, "", err
	}

	backupName, err := m.backupCurrent()
	if err != nil {
		return info, "", err
	}

	if err := os.WriteFile(m.ExcelPath(), upload, 0o644); err != nil {
		return info, backupName, err
	}

	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, m.Command[0], m.Command[1:]...)
	cmd.Dir = m.WorkDir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return info, backupName, &AnalyzerError{Output: string(out), Err: err}
	}

	info, err = m.Info()
	return info, backupName, err
}

func (m *ScoreModel) backupCurrent() (string, error) {
	ts := time.Now().UTC().Format(backupTimeLayout)
	name := ""
	if _, err := os.Stat(m.ExcelPath()); err == nil {
		if err := os.MkdirAll(m.BackupDir, 0o755); err != nil {
			return "", err
		}
		name = scoreExcelBase + "_" + ts
		if err := copyFile(m.ExcelPath(), filepath.Join(m.BackupDir, name+".xlsx")); err != nil {
			return "", err
		}
	}
	if _, err := os.Stat(m.ModelPath()); err == nil {
		if err := os.MkdirAll(m.BackupDir, 0o755); err != nil {
			return "", err
		}
		if name == "" {
			name = scoreExcelBase + "_" + ts
		}
		if err := copyFile(m.ModelPath(), filepath.Join(m.BackupDir, scoreModelBase+"_"+ts+".json")); err != nil {
			return "", err
		}
	}
	return name, nil
}

// Info reads the current model and counts the schools per track. A missing
// model yields zero counts, not an error.
func (m *ScoreModel) Info() (ScoreModelInfo, error) {
	var info ScoreModelInfo
	raw, err := os.ReadFile(m.ModelPath())
	if err != nil {
		if os.IsNotExist(err) {
			return info, nil
		}
		return info, err
	}
	var doc struct {
		Bunka map[string]json.RawMessage `json:"bunka"`
		Rika  map[string]json.RawMessage `json:"rika"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return info, fmt.Errorf("model is not valid JSON: %w", err)
	}
	info.BunkaCount = len(doc.Bunka)
	info.RikaCount = len(doc.Rika)
	return info, nil
}
