package dataset

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes a single-sheet xlsx with the given rows and returns
// its bytes. Cell values may be strings or time.Time.
func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for ri, row := range rows {
		for ci, val := range row {
			axis, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, axis, val); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestParseWorkbookMapsRecognizedColumns(t *testing.T) {
	book := buildWorkbook(t, [][]interface{}{
		{"大学", "学部", "位置", "未知列"},
		{"早稲田大学", "政治経済学部", "東京", "ignored"},
		{"慶應義塾大学", "経済学部", "東京", "ignored"},
	})

	records, err := ParseWorkbook(bytes.NewReader(book))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0]["name"] != "早稲田大学" || records[0]["department"] != "政治経済学部" {
		t.Fatalf("unexpected first record: %v", records[0])
	}
	if _, ok := records[0]["未知列"]; ok {
		t.Fatalf("unrecognized header leaked into record")
	}
}

func TestParseWorkbookDropsRowsWithoutName(t *testing.T) {
	book := buildWorkbook(t, [][]interface{}{
		{"大学", "学部"},
		{"", "法学部"},
		{"上智大学", "外国語学部"},
		{"   ", "文学部"},
	})

	records, err := ParseWorkbook(bytes.NewReader(book))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0]["name"] != "上智大学" {
		t.Fatalf("wrong surviving record: %v", records[0])
	}
}

func TestParseWorkbookHeaderOnlyIsEmptySheet(t *testing.T) {
	book := buildWorkbook(t, [][]interface{}{
		{"大学", "学部"},
	})

	if _, err := ParseWorkbook(bytes.NewReader(book)); !errors.Is(err, ErrEmptySheet) {
		t.Fatalf("expected ErrEmptySheet, got %v", err)
	}
}

func TestParseWorkbookNoNamesIsNoValidRows(t *testing.T) {
	book := buildWorkbook(t, [][]interface{}{
		{"大学", "学部"},
		{"", "法学部"},
		{"", "経済学部"},
	})

	if _, err := ParseWorkbook(bytes.NewReader(book)); !errors.Is(err, ErrNoValidRows) {
		t.Fatalf("expected ErrNoValidRows, got %v", err)
	}
}

func TestParseWorkbookFormatsDateCells(t *testing.T) {
	deadline := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	book := buildWorkbook(t, [][]interface{}{
		{"大学", "邮寄截止时间"},
		{"東京大学", deadline},
	})

	records, err := ParseWorkbook(bytes.NewReader(book))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if got := records[0]["mailEndDate"]; got != "2026-02-15 00:00:00" {
		t.Fatalf("date cell not normalized, got %q", got)
	}
}

func TestParseWorkbookNumbersStayRaw(t *testing.T) {
	book := buildWorkbook(t, [][]interface{}{
		{"大学", "第几期"},
		{"東北大学", "2"},
	})

	records, err := ParseWorkbook(bytes.NewReader(book))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if got := records[0]["period"]; got != "2" {
		t.Fatalf("plain number rewritten, got %q", got)
	}
}
