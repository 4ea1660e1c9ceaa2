package extract

import (
	kerrors "kitacli/internal/errors"
	"kitacli/internal/structure"
	"kitacli/internal/workbook"
)

// verteilungsschluesselExtractor reads the kindergarten/hort cost allocation
// percentages from the cover sheet: year rows under a two-column header, one
// output row per file.
type verteilungsschluesselExtractor struct {
	contentPatterns []string
	sectionMarker   string
	years           []string
	columns         []string
}

func newVerteilungsschluessel(spec *structure.Spec) (Extractor, error) {
	e := &verteilungsschluesselExtractor{
		contentPatterns: spec.ContentPatterns,
		sectionMarker:   spec.SectionMarker,
		years:           spec.Years,
		columns:         spec.OutputColumns,
	}
	if len(e.contentPatterns) == 0 {
		e.contentPatterns = []string{"DECKBLATT"}
	}
	if e.sectionMarker == "" {
		e.sectionMarker = "C. VERTEILUNGSSCHLÜSSEL"
	}
	if len(e.years) == 0 {
		e.years = []string{"2022", "2023", "2024"}
	}
	if len(e.columns) == 0 {
		e.columns = e.buildColumns()
	}
	return e, nil
}

func (e *verteilungsschluesselExtractor) buildColumns() []string {
	cols := []string{"source_file"}
	for _, year := range e.years {
		cols = append(cols, "kindergarten_"+year)
	}
	for _, year := range e.years {
		cols = append(cols, "hort_"+year)
	}
	return cols
}

func (e *verteilungsschluesselExtractor) Name() string      { return "verteilungsschluessel" }
func (e *verteilungsschluesselExtractor) Columns() []string { return e.columns }

func (e *verteilungsschluesselExtractor) Extract(path string) (*Table, error) {
	wb, source, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	return e.extract(wb, source)
}

func (e *verteilungsschluesselExtractor) extract(wb *workbook.Workbook, source string) (*Table, error) {
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

	kindergarten := make(map[string]string, len(e.years))
	hort := make(map[string]string, len(e.years))
	kgCol, hortCol := -1, -1
	found := false

	limit := startRow + 10
	if limit > sheet.NumRows() {
		limit = sheet.NumRows()
	}
	for row := startRow; row < limit; row++ {
		for col := range sheet.Row(row) {
			cell := workbook.Normalize(sheet.Cell(row, col))
			year, isYear := e.matchYear(cell)
			if !isYear {
				continue
			}
			// The Kindergarten/Hort headers sit in the row above the first
			// year row; reuse the columns for the following years.
			if kgCol < 0 && hortCol < 0 {
				kgCol, hortCol = findAllocationColumns(sheet, row-1)
			}
			if kgCol >= 0 {
				if v, ok := workbook.Percent(sheet.Cell(row, kgCol)); ok {
					kindergarten[year] = formatFloat(v)
					found = true
				}
			}
			if hortCol >= 0 {
				if v, ok := workbook.Percent(sheet.Cell(row, hortCol)); ok {
					hort[year] = formatFloat(v)
					found = true
				}
			}
		}
	}
	if !found {
		return nil, kerrors.NewNoDataExtracted("Verteilungsschlüssel", sheetName)
	}

	row := []string{source}
	for _, year := range e.years {
		row = append(row, kindergarten[year])
	}
	for _, year := range e.years {
		row = append(row, hort[year])
	}
	table := NewTable("verteilungsschluessel", e.columns)
	table.Append(row...)
	return table, nil
}

func (e *verteilungsschluesselExtractor) matchYear(cell string) (string, bool) {
	for _, year := range e.years {
		if cell == year {
			return year, true
		}
	}
	return "", false
}

// findAllocationColumns reads the header row above the year rows for the
// Kindergarten and Hort columns.
func findAllocationColumns(sheet *workbook.Sheet, headerRow int) (kgCol, hortCol int) {
	kgCol, hortCol = -1, -1
	if headerRow < 0 {
		return kgCol, hortCol
	}
	for col, cell := range sheet.Row(headerRow) {
		if cell == "" {
			continue
		}
		switch {
		case workbook.ContainsNormalized(cell, "KINDERGARTEN"):
			kgCol = col
		case workbook.ContainsNormalized(cell, "HORT"):
			hortCol = col
		}
	}
	return kgCol, hortCol
}
