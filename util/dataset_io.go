package util

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pos-insights/apperr"
	"pos-insights/models"

	"github.com/xuri/excelize/v2"
)

// ReadTable loads a raw table from disk, dispatching on the file extension.
// A file that does not exist is reported as apperr.SourceUnavailable.
func ReadTable(filePath string) (*models.RawTable, error) {
	if _, err := os.Stat(filePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &apperr.SourceUnavailable{Path: filePath, Err: err}
		}
		return nil, fmt.Errorf("failed to stat %q: %w", filePath, err)
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".xlsx", ".xlsm":
		return ReadXLSXTable(filePath)
	default:
		return ReadCSVTable(filePath)
	}
}

// ReadCSVTable loads a CSV file with a header row.
func ReadCSVTable(filePath string) (*models.RawTable, error) {
	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &apperr.SourceUnavailable{Path: filePath, Err: err}
		}
		return nil, fmt.Errorf("failed to open file %q: %w", filePath, err)
	}
	defer f.Close()

	table, err := ReadCSVTableFrom(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", filePath, err)
	}
	return table, nil
}

// ReadCSVTableFrom parses CSV from r. Ragged rows are accepted.
func ReadCSVTableFrom(r io.Reader) (*models.RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty file: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	table := &models.RawTable{Header: header}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(table.Rows)+2, err)
		}
		if isBlankRow(row) {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// ReadXLSXTable loads the first sheet of a workbook. Cells are read raw, and
// numeric cells carrying a date format are written back as ISO dates so the
// configured day/month order never applies to them.
func ReadXLSXTable(filePath string) (*models.RawTable, error) {
	book, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %q: %w", filePath, err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %q has no sheets", filePath)
	}
	sheet := sheets[0]
	rows, err := book.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	dates := newXLSXDateCells(book, sheet)
	table := &models.RawTable{Header: rows[0]}
	for r, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		for c, cell := range row {
			iso, ok, err := dates.format(c+1, r+2, cell)
			if err != nil {
				return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
			}
			if ok {
				row[c] = iso
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// builtinDateNumFmts are the built-in number formats that render a date.
var builtinDateNumFmts = map[int]bool{14: true, 15: true, 16: true, 17: true, 22: true}

// xlsxDateCells converts serial numbers in date-formatted cells, caching the
// verdict per style index.
type xlsxDateCells struct {
	book     *excelize.File
	sheet    string
	date1904 bool
	isDate   map[int]bool
}

func newXLSXDateCells(book *excelize.File, sheet string) *xlsxDateCells {
	d := &xlsxDateCells{book: book, sheet: sheet, isDate: map[int]bool{}}
	if props, err := book.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

func (d *xlsxDateCells) format(col, row int, raw string) (string, bool, error) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", false, nil
	}
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", false, err
	}
	styleID, err := d.book.GetCellStyle(d.sheet, name)
	if err != nil {
		return "", false, err
	}
	isDate, seen := d.isDate[styleID]
	if !seen {
		isDate = d.styleIsDate(styleID)
		d.isDate[styleID] = isDate
	}
	if !isDate {
		return "", false, nil
	}

	t, err := excelize.ExcelDateToTime(serial, d.date1904)
	if err != nil {
		return "", false, nil
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02"), true, nil
	}
	return t.Format("2006-01-02 15:04:05"), true, nil
}

func (d *xlsxDateCells) styleIsDate(styleID int) bool {
	style, err := d.book.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	return builtinDateNumFmts[style.NumFmt]
}

// isDateFormatCode reports whether a custom format code has a day or year
// token outside quoted literals and bracketed sections.
func isDateFormatCode(code string) bool {
	inQuote, inBracket := false, false
	for _, r := range strings.ToLower(code) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		case r == 'd' || r == 'y':
			return true
		}
	}
	return false
}

// WriteCSVTable overwrites filePath with header and rows, creating the parent
// directory when needed.
func WriteCSVTable(filePath string, header []string, rows [][]string) error {
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %q for writing: %w", filePath, err)
	}
	if err := WriteCSVTableTo(f, header, rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %q: %w", filePath, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to sync %q: %w", filePath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %q: %w", filePath, err)
	}
	return nil
}

// WriteCSVTableTo writes header and rows to w.
func WriteCSVTableTo(w io.Writer, header []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
