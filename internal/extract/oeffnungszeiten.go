package extract

import (
	"strings"

	kerrors "kitacli/internal/errors"
	"kitacli/internal/structure"
	"kitacli/internal/workbook"
)

var oeffnungszeitenColumns = []string{
	"source_file",
	"group",
	"hours_per_week",
	"weekdays",
	"hours_per_day",
	"opening_hours",
}

// defaultTargetGroups are the care group types recognized on the opening-hours
// table when the structure spec does not override them.
var defaultTargetGroups = []string{
	"Kleinkindergruppe (Krippe)",
	"Familiengruppe 0 - 6",
	"Familiengruppe 2 - 6",
	"Familiengruppe 3 - 10, mit Teilhort",
	"Familiengruppe 3 - 10, ohne Teilhort",
	"Kindergartengruppe ganztags",
	"Kindergartengruppe halbtags",
	"Teilhortgruppe",
	"Hortgruppe",
	"Kindergruppe",
	"Hortkindergruppe",
	"Integrationskleinkindergruppe",
	"Integrationskindergartengruppe",
	"Heilpädagogische Kindergartengruppe",
	"Heilpädagogische Hortgruppe",
}

// openingColumns are the roles discovered from the table header row. Any role
// may be absent (-1).
type openingColumns struct {
	Group       int
	HoursWeek   int
	Weekdays    int
	HoursDay    int
	OpeningTime int
}

// oeffnungszeitenExtractor reads the opening-hours table: one row per care
// group with weekly hours, weekdays, daily hours, and the time range.
type oeffnungszeitenExtractor struct {
	contentPatterns []string
	sectionMarker   string
	targetGroups    []string
	columns         []string
}

func newOeffnungszeiten(spec *structure.Spec) (Extractor, error) {
	e := &oeffnungszeitenExtractor{
		contentPatterns: spec.ContentPatterns,
		sectionMarker:   spec.SectionMarker,
		targetGroups:    spec.TargetGroups,
		columns:         spec.OutputColumns,
	}
	if len(e.contentPatterns) == 0 {
		e.contentPatterns = []string{"D. ÖFFNUNGSZEITEN"}
	}
	if e.sectionMarker == "" {
		e.sectionMarker = "D. ÖFFNUNGSZEITEN"
	}
	if len(e.targetGroups) == 0 {
		e.targetGroups = defaultTargetGroups
	}
	if len(e.columns) == 0 {
		e.columns = oeffnungszeitenColumns
	}
	return e, nil
}

func (e *oeffnungszeitenExtractor) Name() string      { return "oeffnungszeiten" }
func (e *oeffnungszeitenExtractor) Columns() []string { return e.columns }

func (e *oeffnungszeitenExtractor) Extract(path string) (*Table, error) {
	wb, source, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	return e.extract(wb, source)
}

func (e *oeffnungszeitenExtractor) extract(wb *workbook.Workbook, source string) (*Table, error) {
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

	headerRow, cols, ok := findOpeningHeader(sheet, startRow)
	if !ok {
		return nil, kerrors.NewSectionNotFound("opening hours table header", sheetName)
	}
	cols.Group = e.findGroupColumn(sheet, headerRow)
	if cols.Group < 0 {
		return nil, kerrors.NewSectionNotFound("care group column", sheetName)
	}

	table := NewTable("oeffnungszeiten", e.columns)
	for row := headerRow + 1; row < sheet.NumRows(); row++ {
		group := workbook.Normalize(sheet.Cell(row, cols.Group))
		if group == "" || !e.isTargetGroup(group) {
			continue
		}
		table.Append(
			source,
			group,
			cellOrEmpty(sheet, row, cols.HoursWeek),
			cellOrEmpty(sheet, row, cols.Weekdays),
			cellOrEmpty(sheet, row, cols.HoursDay),
			cellOrEmpty(sheet, row, cols.OpeningTime),
		)
	}
	if table.Len() == 0 {
		return nil, kerrors.NewNoDataExtracted("Öffnungszeiten", sheetName)
	}
	return table, nil
}

// findOpeningHeader searches within 15 rows of the section marker for the row
// carrying the column headers and classifies each by role.
func findOpeningHeader(sheet *workbook.Sheet, startRow int) (int, openingColumns, bool) {
	cols := openingColumns{Group: -1, HoursWeek: -1, Weekdays: -1, HoursDay: -1, OpeningTime: -1}
	headerRow := -1
	limit := startRow + 15
	if limit > sheet.NumRows() {
		limit = sheet.NumRows()
	}
	for row := startRow; row < limit; row++ {
		for col, cell := range sheet.Row(row) {
			if cell == "" {
				continue
			}
			upper := workbook.NormalizeUpper(cell)
			switch {
			case strings.Contains(upper, "WOCHENTAG"):
				cols.Weekdays = col
				headerRow = row
			case strings.Contains(upper, "Ø STUNDEN") || strings.Contains(upper, "DURCHSCHNITT"):
				cols.HoursWeek = col
			case strings.Contains(upper, "STUNDEN"):
				cols.HoursDay = col
				headerRow = row
			case strings.Contains(upper, "UHRZEIT") ||
				(strings.Contains(upper, "VON") && strings.Contains(upper, "BIS")):
				cols.OpeningTime = col
				headerRow = row
			}
		}
	}
	return headerRow, cols, headerRow >= 0
}

// findGroupColumn looks for a known care group name in the rows right under
// the header; that column carries the group labels.
func (e *oeffnungszeitenExtractor) findGroupColumn(sheet *workbook.Sheet, headerRow int) int {
	limit := headerRow + 5
	if limit > sheet.NumRows() {
		limit = sheet.NumRows()
	}
	for row := headerRow + 1; row < limit; row++ {
		for col, cell := range sheet.Row(row) {
			if cell == "" {
				continue
			}
			if e.isTargetGroup(workbook.Normalize(cell)) {
				return col
			}
		}
	}
	return -1
}

func (e *oeffnungszeitenExtractor) isTargetGroup(name string) bool {
	for _, group := range e.targetGroups {
		if workbook.EqualNormalized(name, group) {
			return true
		}
	}
	return false
}

func cellOrEmpty(sheet *workbook.Sheet, row, col int) string {
	if col < 0 {
		return ""
	}
	return workbook.Normalize(sheet.Cell(row, col))
}
