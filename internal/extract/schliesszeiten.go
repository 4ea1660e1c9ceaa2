package extract

import (
	"log/slog"
	"strings"
	"unicode"

	kerrors "kitacli/internal/errors"
	"kitacli/internal/structure"
	"kitacli/internal/workbook"
)

var schliesszeitenColumns = []string{
	"source_file",
	"kindergarten_year",
	"month",
	"closing_days",
}

// schliesszeitenExtractor reads the closing-days matrix: months run down from
// September (the kindergarten year starts in autumn), kindergarten years
// ("2022/2023") head the value columns, and each cell holds the closing days
// of that month.
type schliesszeitenExtractor struct {
	contentPatterns []string
	sectionMarker   string
	columns         []string
}

// monthsPerYear is the fixed height of the matrix, September through August.
const monthsPerYear = 12

func newSchliesszeiten(spec *structure.Spec) (Extractor, error) {
	e := &schliesszeitenExtractor{
		contentPatterns: spec.ContentPatterns,
		sectionMarker:   spec.SectionMarker,
		columns:         spec.OutputColumns,
	}
	if len(e.contentPatterns) == 0 {
		e.contentPatterns = []string{"C. SCHLIESSZEITEN"}
	}
	if e.sectionMarker == "" {
		e.sectionMarker = "C. SCHLIESSZEITEN"
	}
	if len(e.columns) == 0 {
		e.columns = schliesszeitenColumns
	}
	return e, nil
}

func (e *schliesszeitenExtractor) Name() string      { return "schliesszeiten" }
func (e *schliesszeitenExtractor) Columns() []string { return e.columns }

func (e *schliesszeitenExtractor) Extract(path string) (*Table, error) {
	wb, source, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	return e.extract(wb, source)
}

func (e *schliesszeitenExtractor) extract(wb *workbook.Workbook, source string) (*Table, error) {
	sheetName, err := workbook.FindSheet(wb, workbook.SheetQuery{
		Patterns:    e.contentPatterns,
		Mode:        workbook.MatchContains,
		ContentScan: true,
	})
	if err != nil {
		return nil, err
	}
	sheet := wb.Sheet(sheetName)

	startRow, ok := workbook.FindMarkerRow(sheet, e.sectionMarker, 0)
	if !ok {
		return nil, kerrors.NewSectionNotFound(e.sectionMarker, sheetName)
	}

	septemberRow, monthCol, ok := findSeptember(sheet, startRow)
	if !ok {
		return nil, kerrors.NewSectionNotFound("September month row", sheetName)
	}

	yearRow, yearCols := findYearHeaderCells(sheet, septemberRow)
	if len(yearCols) == 0 {
		return nil, kerrors.NewSectionNotFound("kindergarten year headers", sheetName)
	}

	months := readMonths(sheet, septemberRow, monthCol)

	table := NewTable("schliesszeiten", e.columns)
	for _, yearCol := range yearCols {
		kgYear := workbook.Normalize(sheet.Cell(yearRow, yearCol))
		for offset, month := range months {
			// Values sit one column right of the year header.
			days, ok := workbook.Int(sheet.Cell(septemberRow+offset, yearCol+1))
			if !ok {
				continue
			}
			table.Append(source, kgYear, month, formatInt(days))
		}
	}
	if table.Len() == 0 {
		return nil, kerrors.NewNoDataExtracted("Schliesszeiten", sheetName)
	}
	slog.Debug("closing days extracted",
		slog.String("source_file", source),
		slog.Int("rows", table.Len()),
		slog.Int("year_columns", len(yearCols)))
	return table, nil
}

// findSeptember locates the first month cell within 15 rows of the section
// marker.
func findSeptember(sheet *workbook.Sheet, startRow int) (row, col int, ok bool) {
	limit := startRow + 15
	if limit > sheet.NumRows() {
		limit = sheet.NumRows()
	}
	for r := startRow; r < limit; r++ {
		if c, found := workbook.FindMarkerColumn(sheet, r, "SEPTEMBER"); found {
			return r, c, true
		}
	}
	return 0, 0, false
}

// findYearHeaderCells scans up to three rows above the September row for
// kindergarten year headers, first the explicit label, then the "2022/2023"
// shape.
func findYearHeaderCells(sheet *workbook.Sheet, septemberRow int) (int, []int) {
	for offset := 1; offset <= 3; offset++ {
		row := septemberRow - offset
		if row < 0 {
			break
		}
		var cols []int
		for col, cell := range sheet.Row(row) {
			if workbook.ContainsNormalized(cell, "KINDERGARTENJAHR") {
				cols = append(cols, col)
			}
		}
		if len(cols) > 0 {
			return row, cols
		}
	}
	// Fallback: anything shaped like a year span.
	for offset := 1; offset <= 3; offset++ {
		row := septemberRow - offset
		if row < 0 {
			break
		}
		var cols []int
		for col, cell := range sheet.Row(row) {
			if looksLikeYearSpan(cell) {
				cols = append(cols, col)
			}
		}
		if len(cols) > 0 {
			return row, cols
		}
	}
	return 0, nil
}

// looksLikeYearSpan recognizes "2022/2023", "2022/23", "22/23".
func looksLikeYearSpan(cell string) bool {
	s := workbook.Normalize(cell)
	if !strings.Contains(s, "/") {
		return false
	}
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// readMonths collects up to twelve month labels running down from September.
func readMonths(sheet *workbook.Sheet, septemberRow, monthCol int) []string {
	var months []string
	for offset := 0; offset < monthsPerYear; offset++ {
		month := workbook.Normalize(sheet.Cell(septemberRow+offset, monthCol))
		if month == "" {
			break
		}
		months = append(months, month)
	}
	return months
}
