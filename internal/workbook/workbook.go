// Package workbook provides a read-only cell grid over xlsx files plus the
// text-matching primitives (normalization, sheet location, marker anchoring,
// value coercion) shared by all extractors.
package workbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	kerrors "kitacli/internal/errors"
)

// Sheet is an immutable 2-D grid of cell text. Rows are ragged the way
// excelize returns them; Cell tolerates out-of-range access so callers can
// address sparse regions without bounds checks.
type Sheet struct {
	Name string
	rows [][]string
}

// NewSheet builds a sheet from raw rows. Used by tests and by Open.
func NewSheet(name string, rows [][]string) *Sheet {
	return &Sheet{Name: name, rows: rows}
}

// Cell returns the raw text of the cell at (row, col), or "" when the
// coordinates fall outside the populated grid.
func (s *Sheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.rows) {
		return ""
	}
	r := s.rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// Row returns the raw cells of one row (nil when out of range).
func (s *Sheet) Row(row int) []string {
	if row < 0 || row >= len(s.rows) {
		return nil
	}
	return s.rows[row]
}

// NumRows returns the number of populated rows.
func (s *Sheet) NumRows() int {
	return len(s.rows)
}

// Workbook is an ordered, read-only collection of sheets, fully loaded into
// memory so the underlying file handle can be released immediately.
type Workbook struct {
	Path   string
	sheets []*Sheet
	byName map[string]*Sheet
}

// Open reads all sheets of an xlsx file into memory.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, kerrors.NewIO(fmt.Sprintf("failed to open workbook %s", path), err)
	}
	defer f.Close()

	wb := &Workbook{Path: path, byName: make(map[string]*Sheet)}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, kerrors.NewIO(fmt.Sprintf("failed to read sheet %q", name), err)
		}
		sheet := NewSheet(name, rows)
		wb.sheets = append(wb.sheets, sheet)
		wb.byName[name] = sheet
	}
	return wb, nil
}

// New builds an in-memory workbook, primarily for tests.
func New(path string, sheets ...*Sheet) *Workbook {
	wb := &Workbook{Path: path, byName: make(map[string]*Sheet)}
	for _, s := range sheets {
		wb.sheets = append(wb.sheets, s)
		wb.byName[s.Name] = s
	}
	return wb
}

// SheetNames returns the sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, 0, len(w.sheets))
	for _, s := range w.sheets {
		names = append(names, s.Name)
	}
	return names
}

// Sheet returns the sheet with the given name, or nil.
func (w *Workbook) Sheet(name string) *Sheet {
	return w.byName[name]
}

// Sheets returns all sheets in workbook order.
func (w *Workbook) Sheets() []*Sheet {
	return w.sheets
}
