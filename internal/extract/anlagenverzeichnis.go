package extract

import (
	"log/slog"
	"strings"
	"unicode"

	kerrors "kitacli/internal/errors"
	"kitacli/internal/structure"
	"kitacli/internal/workbook"
)

// defaultAssetColumns mirrors the asset register layout the forms ship with.
// OriginalName is matched against the header cells after footnote digits are
// stripped.
var defaultAssetColumns = []structure.ColumnSpec{
	{OriginalName: "Inventarbezeichnung", Name: "inventory_name", Type: "string"},
	{OriginalName: "Lieferant", Name: "supplier", Type: "string"},
	{OriginalName: "Anschaffung (Datum)", Name: "acquisition_date", Type: "date"},
	{OriginalName: "Anschaffungswert", Name: "acquisition_value", Type: "float"},
	{OriginalName: "Nutzungsdauer (Jahre)", Name: "useful_life_years", Type: "float"},
	{OriginalName: "kumulierte Abschreibung bis 31.12.2022", Name: "accumulated_depreciation_2022", Type: "float"},
	{OriginalName: "Buchwert 31.12.2022", Name: "book_value_2022", Type: "float"},
	{OriginalName: "Abschreibung 2023", Name: "depreciation_2023", Type: "float"},
	{OriginalName: "Buchwert 31.12.2023", Name: "book_value_2023", Type: "float"},
}

// anlagenverzeichnisExtractor reads the asset register: a header row located
// by the Inventarbezeichnung label, typed columns beneath it, GESAMT summary
// rows excluded. A workbook may carry the register on several sheets.
type anlagenverzeichnisExtractor struct {
	sheetPatterns []string
	headerMarker  string
	colSpecs      []structure.ColumnSpec
	columns       []string
}

func newAnlagenverzeichnis(spec *structure.Spec) (Extractor, error) {
	e := &anlagenverzeichnisExtractor{
		sheetPatterns: spec.SheetPatterns,
		headerMarker:  spec.HeaderMarker,
		colSpecs:      spec.Columns,
	}
	if len(e.sheetPatterns) == 0 {
		e.sheetPatterns = []string{"ANLAGENVERZEICHNIS"}
	}
	if e.headerMarker == "" {
		e.headerMarker = "Inventarbezeichnung"
	}
	if len(e.colSpecs) == 0 {
		e.colSpecs = defaultAssetColumns
	}
	e.columns = []string{"source_file"}
	for _, cs := range e.colSpecs {
		e.columns = append(e.columns, cs.Name)
	}
	return e, nil
}

func (e *anlagenverzeichnisExtractor) Name() string      { return "anlagenverzeichnis" }
func (e *anlagenverzeichnisExtractor) Columns() []string { return e.columns }

func (e *anlagenverzeichnisExtractor) Extract(path string) (*Table, error) {
	wb, source, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	return e.extract(wb, source)
}

func (e *anlagenverzeichnisExtractor) extract(wb *workbook.Workbook, source string) (*Table, error) {
	sheetNames, err := workbook.FindSheets(wb, workbook.SheetQuery{
		Patterns: e.sheetPatterns,
		Mode:     workbook.MatchContains,
	})
	if err != nil {
		return nil, err
	}

	table := NewTable("anlagenverzeichnis", e.columns)
	for _, sheetName := range sheetNames {
		if err := e.extractSheet(table, wb.Sheet(sheetName), source); err != nil {
			return nil, err
		}
	}
	if table.Len() == 0 {
		return nil, kerrors.NewNoDataExtracted("Anlagenverzeichnis", strings.Join(sheetNames, ","))
	}
	return table, nil
}

func (e *anlagenverzeichnisExtractor) extractSheet(table *Table, sheet *workbook.Sheet, source string) error {
	headerRow, ok := workbook.FindMarkerRow(sheet, e.headerMarker, 0)
	if !ok {
		return kerrors.NewSectionNotFound(e.headerMarker, sheet.Name)
	}

	colIndex := e.mapHeaderColumns(sheet, headerRow)
	nameIdx, ok := colIndex[0], len(colIndex) > 0 && colIndex[0] >= 0
	if !ok {
		return kerrors.NewSectionNotFound("asset register columns", sheet.Name)
	}

	for row := headerRow + 1; row < sheet.NumRows(); row++ {
		name := workbook.Normalize(sheet.Cell(row, nameIdx))
		if name == "" {
			continue
		}
		// Summary lines are aggregates of the rows above, not assets.
		if workbook.ContainsNormalized(name, "GESAMT") {
			continue
		}
		cells := []string{source}
		for i, cs := range e.colSpecs {
			cells = append(cells, e.typedCell(sheet, row, colIndex[i], cs))
		}
		table.Append(cells...)
	}
	slog.Debug("asset register sheet read",
		slog.String("source_file", source),
		slog.String("sheet", sheet.Name),
		slog.Int("header_row", headerRow))
	return nil
}

// mapHeaderColumns maps each column spec to its sheet column by comparing the
// cleaned header cells against the original names. Missing columns map to -1.
func (e *anlagenverzeichnisExtractor) mapHeaderColumns(sheet *workbook.Sheet, headerRow int) []int {
	index := make([]int, len(e.colSpecs))
	for i := range index {
		index[i] = -1
	}
	for col, cell := range sheet.Row(headerRow) {
		if cell == "" {
			continue
		}
		header := cleanHeader(cell)
		for i, cs := range e.colSpecs {
			if index[i] >= 0 {
				continue
			}
			if workbook.EqualNormalized(header, cs.OriginalName) ||
				workbook.ContainsNormalized(header, cs.OriginalName) {
				index[i] = col
				break
			}
		}
	}
	return index
}

// cleanHeader collapses line breaks and strips the trailing footnote digit
// the forms attach to each header ("Anschaffungswert 4)" -> "Anschaffungswert").
func cleanHeader(cell string) string {
	s := workbook.Normalize(cell)
	fields := strings.Fields(s)
	if len(fields) > 1 {
		last := fields[len(fields)-1]
		if isFootnoteRef(last) {
			fields = fields[:len(fields)-1]
		}
	}
	return strings.Join(fields, " ")
}

func isFootnoteRef(s string) bool {
	s = strings.TrimSuffix(s, ")")
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) <= 2
}

// typedCell renders a cell according to the column spec's declared type.
// Unparsable values become empty cells rather than failing the file.
func (e *anlagenverzeichnisExtractor) typedCell(sheet *workbook.Sheet, row, col int, cs structure.ColumnSpec) string {
	if col < 0 {
		return ""
	}
	raw := sheet.Cell(row, col)
	switch cs.Type {
	case "float":
		v, ok := workbook.Numeric(raw)
		if !ok {
			return ""
		}
		return formatFloat(v)
	case "date":
		t, ok := workbook.Date(raw)
		if !ok {
			return ""
		}
		return formatDate(t)
	case "bool":
		b, ok := workbook.Boolean(raw)
		if !ok {
			return ""
		}
		if b {
			return "true"
		}
		return "false"
	case "percent":
		v, ok := workbook.Percent(raw)
		if !ok {
			return ""
		}
		return formatFloat(v)
	default:
		return workbook.Normalize(raw)
	}
}
