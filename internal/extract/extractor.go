// Package extract implements the per-report-type extractors. Each extractor
// locates its sheet and section inside a submitted workbook, walks the rows
// against the declarative structure spec, and emits a flat table.
package extract

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	kerrors "kitacli/internal/errors"
	"kitacli/internal/structure"
	"kitacli/internal/workbook"
)

// Extractor pulls one report type out of a workbook.
type Extractor interface {
	// Name identifies the report type ("personalausgaben", ...). It names the
	// output table, the checkpoint file, and the problem report.
	Name() string
	// Columns is the output column order.
	Columns() []string
	// Extract processes one workbook file.
	Extract(path string) (*Table, error)
}

type factory func(spec *structure.Spec) (Extractor, error)

var registry = map[string]factory{
	"personalausgaben":      newPersonalausgaben,
	"sachausgaben":          newSachausgaben,
	"einnahmen":             newEinnahmen,
	"vermoegen":             newVermoegen,
	"verbindlichkeiten":     newVerbindlichkeiten,
	"elternbeitraege":       newElternbeitraege,
	"zusatzangaben":         newZusatzangaben,
	"schliesszeiten":        newSchliesszeiten,
	"oeffnungszeiten":       newOeffnungszeiten,
	"verteilungsschluessel": newVerteilungsschluessel,
	"anlagenverzeichnis":    newAnlagenverzeichnis,
	"deckblatt":             newDeckblatt,
}

// New builds the named extractor from its structure spec.
func New(name string, spec *structure.Spec) (Extractor, error) {
	f, ok := registry[name]
	if !ok {
		return nil, kerrors.NewConfiguration(
			fmt.Sprintf("unknown extractor %q, known: %s", name, strings.Join(Names(), ", ")), nil)
	}
	return f(spec)
}

// Names lists the registered extractor names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// sourceStem is the file identifier used in every output row: the base name
// without its extension.
func sourceStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// openWorkbook loads the file and derives its source identifier.
func openWorkbook(path string) (*workbook.Workbook, string, error) {
	wb, err := workbook.Open(path)
	if err != nil {
		return nil, "", err
	}
	return wb, sourceStem(path), nil
}

// yearColumns are the value columns of an expense-style section. Comment is
// -1 when the sheet has no comment column.
type yearColumns struct {
	Year1   int
	Year2   int
	Comment int
}

// findYearColumns scans a header row for the year labels and an optional
// KOMMENTAR column. Both year columns must be present.
func findYearColumns(sheet *workbook.Sheet, headerRow int, year1, year2 string) (yearColumns, bool) {
	cols := yearColumns{Year1: -1, Year2: -1, Comment: -1}
	for col, cell := range sheet.Row(headerRow) {
		if cell == "" {
			continue
		}
		upper := workbook.NormalizeUpper(cell)
		switch {
		case strings.Contains(upper, year1):
			cols.Year1 = col
		case strings.Contains(upper, year2):
			cols.Year2 = col
		case strings.Contains(upper, "KOMMENTAR"):
			cols.Comment = col
		}
	}
	return cols, cols.Year1 >= 0 && cols.Year2 >= 0
}

// findYearHeaderRow searches the top of the sheet for the row carrying both
// year labels.
func findYearHeaderRow(sheet *workbook.Sheet, window int, year1, year2 string) (int, yearColumns, bool) {
	limit := sheet.NumRows()
	if window > 0 && window < limit {
		limit = window
	}
	for row := 0; row < limit; row++ {
		if cols, ok := findYearColumns(sheet, row, year1, year2); ok {
			return row, cols, true
		}
	}
	return 0, yearColumns{}, false
}
