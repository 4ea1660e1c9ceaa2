package extract

import (
	"log/slog"

	kerrors "kitacli/internal/errors"
	"kitacli/internal/structure"
	"kitacli/internal/workbook"
)

// expenseExtractor is the shared engine behind the personalausgaben,
// sachausgaben, and einnahmen report types: locate the sheet by content,
// discover the year columns from a header row, anchor the section marker, and
// walk the rows against the structure tree.
type expenseExtractor struct {
	name            string
	category        *structure.Category
	contentPatterns []string
	// sectionMarkers are tried in order; forms differ in how they label the
	// section header, so the first marker that anchors and yields data wins.
	sectionMarkers []string
	endMarkers     []string
	years          []string
	columns        []string
}

func newExpenseExtractor(name string, spec *structure.Spec, defaults expenseDefaults) (*expenseExtractor, error) {
	if err := spec.RequireFields("structure"); err != nil {
		return nil, err
	}
	cat := spec.Category(defaults.category)
	if cat == nil {
		// Single-category specs may rename the section; take the first.
		cat = &spec.Categories[0]
	}

	e := &expenseExtractor{
		name:            name,
		category:        cat,
		contentPatterns: spec.ContentPatterns,
		endMarkers:      spec.EndMarkers,
		years:           spec.Years,
		columns:         spec.OutputColumns,
	}
	if len(e.contentPatterns) == 0 {
		e.contentPatterns = defaults.contentPatterns
	}
	if spec.SectionMarker != "" {
		e.sectionMarkers = []string{spec.SectionMarker}
	} else if len(defaults.sectionMarkers) > 0 {
		e.sectionMarkers = defaults.sectionMarkers
	} else {
		e.sectionMarkers = []string{cat.Name}
	}
	if len(e.endMarkers) == 0 {
		e.endMarkers = defaults.endMarkers
	}
	if len(e.years) != 2 {
		e.years = []string{"2022", "2023"}
	}
	if len(e.columns) == 0 {
		e.columns = recordColumns
	}
	return e, nil
}

type expenseDefaults struct {
	category        string
	contentPatterns []string
	sectionMarkers  []string
	endMarkers      []string
}

func (e *expenseExtractor) Name() string      { return e.name }
func (e *expenseExtractor) Columns() []string { return e.columns }

func (e *expenseExtractor) Extract(path string) (*Table, error) {
	wb, source, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	return e.extract(wb, source)
}

func (e *expenseExtractor) extract(wb *workbook.Workbook, source string) (*Table, error) {
	sheetName, err := workbook.FindSheet(wb, workbook.SheetQuery{
		Patterns:    e.contentPatterns,
		Mode:        workbook.MatchContains,
		ContentScan: true,
	})
	if err != nil {
		return nil, err
	}
	sheet := wb.Sheet(sheetName)
	slog.Debug("matched sheet",
		slog.String("extractor", e.name),
		slog.String("source_file", source),
		slog.String("sheet", sheetName))

	headerRow, cols, ok := findYearHeaderRow(sheet, workbook.DefaultScanRows, e.years[0], e.years[1])
	if !ok {
		return nil, kerrors.NewSectionNotFound("year header row", sheetName)
	}

	var lastErr error
	for _, marker := range e.sectionMarkers {
		startRow, col, found := findSectionAnchor(sheet, marker, headerRow)
		if !found {
			lastErr = kerrors.NewSectionNotFound(marker, sheetName)
			continue
		}
		records, err := walkSection(sheet, sectionWalk{
			Category:   e.category,
			Cols:       cols,
			DescCol:    col,
			StartRow:   startRow,
			EndMarkers: e.endMarkers,
		}, source)
		if err != nil {
			lastErr = err
			continue
		}
		table := NewTable(e.name, e.columns)
		for _, rec := range records {
			table.Append(rec.row()...)
		}
		return table, nil
	}
	return nil, lastErr
}

// findSectionAnchor locates the marker at or below the header row and returns
// the row plus the column holding it; descriptions live in that same column.
func findSectionAnchor(sheet *workbook.Sheet, marker string, headerRow int) (row, col int, ok bool) {
	for r := headerRow; r < sheet.NumRows(); r++ {
		if c, found := workbook.FindMarkerColumn(sheet, r, marker); found {
			return r, c, true
		}
	}
	return 0, 0, false
}

func newPersonalausgaben(spec *structure.Spec) (Extractor, error) {
	return newExpenseExtractor("personalausgaben", spec, expenseDefaults{
		category:        "I. PERSONALAUSGABEN",
		contentPatterns: []string{"A. AUSGABEN"},
		endMarkers:      []string{"II."},
	})
}

func newSachausgaben(spec *structure.Spec) (Extractor, error) {
	return newExpenseExtractor("sachausgaben", spec, expenseDefaults{
		category:        "II. SACHAUSGABEN",
		contentPatterns: []string{"A. AUSGABEN"},
		endMarkers:      []string{"III."},
	})
}

func newEinnahmen(spec *structure.Spec) (Extractor, error) {
	return newExpenseExtractor("einnahmen", spec, expenseDefaults{
		category:        "I. BETRIEBLICHE EINNAHMEN",
		contentPatterns: []string{"REINVESTITION"},
		sectionMarkers:  []string{"I.", "I", "BETRIEBLICHE EINNAHMEN"},
		endMarkers:      []string{"II."},
	})
}
