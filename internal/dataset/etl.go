// Package dataset converts uploaded school-master spreadsheets into the
// on-disk JSON+CSV snapshot served to clients, and keeps timestamped backups
// of every snapshot it replaces.
package dataset

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrEmptySheet reports a workbook with no data rows below the header.
	ErrEmptySheet = errors.New("sheet is empty or contains only a header row")
	// ErrNoValidRows reports that no row carried a recognized institution name.
	ErrNoValidRows = errors.New("no rows with a recognized institution name")
)

// Record is one school/department row keyed by canonical field names.
// Absent fields are simply not present in the map.
type Record map[string]string

// ParseWorkbook reads the first sheet of an xlsx workbook: the first row is
// the header, every following row becomes a Record via columnMap. Rows whose
// mapped institution name is empty are dropped.
func ParseWorkbook(r io.Reader) ([]Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, ErrEmptySheet
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	var records []Record
	for ri := 1; ri < len(rows); ri++ {
		rec := Record{}
		for ci, header := range headers {
			field, ok := columnMap[header]
			if !ok || ci >= len(rows[ri]) {
				continue
			}
			val := normalizeCell(f, sheet, ci, ri, rows[ri][ci])
			if val != "" {
				rec[field] = val
			}
		}
		if rec[nameField] != "" {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		return nil, ErrNoValidRows
	}
	return records, nil
}

// normalizeCell turns a raw cell value into its canonical text form: date
// cells become "YYYY-MM-DD HH:MM:SS", everything else its trimmed string,
// with empty values normalizing to absent ("").
func normalizeCell(f *excelize.File, sheet string, col, row int, raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		axis, err := excelize.CoordinatesToCellName(col+1, row+1)
		if err == nil && isDateCell(f, sheet, axis) {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return t.Format("2006-01-02 15:04:05")
			}
		}
	}
	return s
}

// builtInDateFormats are the xlsx built-in number formats that render as
// dates or times.
var builtInDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true,
	19: true, 20: true, 21: true, 22: true,
	45: true, 46: true, 47: true,
}

func isDateCell(f *excelize.File, sheet, axis string) bool {
	styleID, err := f.GetCellStyle(sheet, axis)
	if err != nil {
		return false
	}
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if builtInDateFormats[style.NumFmt] {
		return true
	}
	if style.CustomNumFmt != nil {
		return strings.ContainsAny(strings.ToLower(*style.CustomNumFmt), "ymdhs")
	}
	return false
}
