// Package table reads uploaded spreadsheets into an in-memory models.Table.
package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pivolan/sales_analyzer/domain/models"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format, expected .xlsx or .csv")
	ErrEmptyFile         = errors.New("file has no rows")
)

// SupportedExtensions lists what Load understands, archives included.
var SupportedExtensions = []string{".xlsx", ".xlsm", ".csv", ".txt", ".gz", ".lz4", ".zip"}

// Load reads the whole upload into memory and returns a typed table.
func Load(fileName string, r io.Reader) (*models.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileName, err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	innerName, content, err := unpackArchive(fileName, data)
	if err != nil {
		return nil, err
	}

	var records [][]string
	switch strings.ToLower(filepath.Ext(innerName)) {
	case ".xlsx", ".xlsm":
		records, err = readExcel(content)
	case ".csv", ".txt":
		records, err = readCSV(content)
	default:
		return nil, fmt.Errorf("%s: %w", innerName, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", innerName, err)
	}

	t, err := buildTable(innerName, records)
	if err != nil {
		return nil, err
	}
	InferTypes(t)
	return t, nil
}

// readExcel reads the first sheet by stored value rather than display text.
// Cells styled with a date format hold a serial and come back as
// "2006-01-02" or "2006-01-02 15:04:05".
func readExcel(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	dateStyles := make(map[int]bool)
	for r, row := range rows {
		for c, value := range row {
			if value == "" {
				continue
			}
			serial, err := strconv.ParseFloat(value, 64)
			if err != nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			styleID, err := f.GetCellStyle(sheet, cell)
			if err != nil || styleID == 0 {
				continue
			}
			isDate, seen := dateStyles[styleID]
			if !seen {
				isDate = isDateStyle(f, styleID)
				dateStyles[styleID] = isDate
			}
			if !isDate {
				continue
			}
			t, err := excelize.ExcelDateToTime(serial, date1904)
			if err != nil {
				continue
			}
			rows[r][c] = formatExcelTime(t)
		}
	}
	return rows, nil
}

func formatExcelTime(t time.Time) string {
	t = t.Round(time.Second)
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

// isDateStyle reports whether the number format of a style renders dates or times.
func isDateStyle(f *excelize.File, styleID int) bool {
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	id := style.NumFmt
	return (id >= 14 && id <= 22) || (id >= 27 && id <= 36) || (id >= 45 && id <= 47) || (id >= 50 && id <= 58)
}

var (
	quotedRe  = regexp.MustCompile(`"[^"]*"|\\.|\[[^\]]*\]`)
	dateCodes = "ydhms"
)

// isDateFormatCode looks for date or time tokens outside quoted text and
// bracketed sections such as "[$R$-416]".
func isDateFormatCode(code string) bool {
	code = strings.ToLower(quotedRe.ReplaceAllString(code, ""))
	if code == "general" {
		return false
	}
	return strings.ContainsAny(code, dateCodes)
}

func readCSV(content []byte) ([][]string, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = sniffSeparator(content)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// sniffSeparator picks the most frequent of , ; and tab on the header line.
func sniffSeparator(content []byte) rune {
	line := content
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		line = content[:i]
	}
	best, bestCount := ',', 0
	for _, sep := range []rune{',', ';', '\t'} {
		if n := bytes.Count(line, []byte(string(sep))); n > bestCount {
			best, bestCount = sep, n
		}
	}
	return best
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func buildTable(name string, records [][]string) (*models.Table, error) {
	rows := make([][]string, 0, len(records))
	width := 0
	for _, rec := range records {
		if isBlank(rec) {
			continue
		}
		rows = append(rows, rec)
		if len(rec) > width {
			width = len(rec)
		}
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	for i, row := range rows {
		rows[i] = pad(row, width)
	}

	analysis := AnalyzeHeaders(rows[0])
	if !analysis.FirstRowIsData {
		rows = rows[1:]
	}

	t := &models.Table{
		Name:    name,
		Columns: make([]models.Column, width),
		Rows:    rows,
	}
	for i := range t.Columns {
		t.Columns[i] = models.Column{Name: analysis.Headers[i], Key: analysis.Keys[i]}
	}
	return t, nil
}

func pad(row []string, width int) []string {
	if len(row) == width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}
