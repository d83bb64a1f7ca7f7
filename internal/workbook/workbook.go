package workbook

import (
	"fmt"
	"io"
	"strings"

	"github.com/andresuchdata/salesvelocity/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Sheet is the raw content of one worksheet: the first row is the header.
// Blank rows are dropped; Lines keeps the spreadsheet row number of each entry in Rows.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
	Lines  []int
}

// Line returns the 1-based spreadsheet row number of Rows[i].
func (s Sheet) Line(i int) int {
	if i >= 0 && i < len(s.Lines) {
		return s.Lines[i]
	}
	return i + 2
}

// Cell returns the trimmed cell at row/col, or "" when the row is shorter.
func (s Sheet) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// Workbook wraps an opened spreadsheet file.
type Workbook struct {
	file *excelize.File
}

// Open opens an XLSX workbook from disk.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	return &Workbook{file: f}, nil
}

// OpenReader opens an XLSX workbook from an in-memory upload.
func OpenReader(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read xlsx workbook: %w", err)
	}
	return &Workbook{file: f}, nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// SheetNames lists the worksheets in workbook order.
func (w *Workbook) SheetNames() []string {
	return w.file.GetSheetList()
}

// Sheet reads the named worksheet. A missing sheet or an empty one is a schema error.
func (w *Workbook) Sheet(name string) (Sheet, error) {
	idx, err := w.file.GetSheetIndex(name)
	if err != nil || idx < 0 {
		return Sheet{}, &domain.SchemaError{Sheet: name, Reason: "sheet not found"}
	}

	// Headers keep their displayed text; data cells are read as stored, ignoring number formats.
	display, err := w.file.GetRows(name)
	if err != nil {
		return Sheet{}, fmt.Errorf("failed to read rows from sheet %s: %w", name, err)
	}
	if len(display) == 0 {
		return Sheet{}, &domain.SchemaError{Sheet: name, Reason: "sheet has no header row"}
	}
	rows, err := w.file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return Sheet{}, fmt.Errorf("failed to read raw values from sheet %s: %w", name, err)
	}
	if len(rows) == 0 {
		rows = display[:1]
	}

	header := make([]string, len(display[0]))
	for i, h := range display[0] {
		header[i] = strings.TrimSpace(h)
	}

	body := make([][]string, 0, len(rows)-1)
	lines := make([]int, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		body = append(body, row)
		lines = append(lines, i+2)
	}

	return Sheet{Name: name, Header: header, Rows: body, Lines: lines}, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
