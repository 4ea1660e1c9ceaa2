package extract

import (
	"log/slog"

	kerrors "kitacli/internal/errors"
	"kitacli/internal/structure"
	"kitacli/internal/workbook"
)

// balanceColumns is the layout of the asset/liability overview extractors:
// start-of-year value, end-of-year value, and the reported change.
var balanceColumns = []string{
	"source_file",
	"section",
	"category",
	"item",
	"value_start",
	"value_end",
	"change",
}

// balanceExtractor reads the Vermögensübersicht sheet: a two-level tree of
// categories and items where each item row carries three numeric cells to the
// right of its label.
type balanceExtractor struct {
	name            string
	section         string
	contentPatterns []string
	categories      []structure.Category
	columns         []string
}

func newBalanceExtractor(name, section string, spec *structure.Spec) (*balanceExtractor, error) {
	if err := spec.RequireFields("structure"); err != nil {
		return nil, err
	}
	e := &balanceExtractor{
		name:            name,
		section:         section,
		contentPatterns: spec.ContentPatterns,
		categories:      spec.Categories,
		columns:         spec.OutputColumns,
	}
	if len(e.contentPatterns) == 0 {
		e.contentPatterns = []string{"VERMÖGENSÜBERSICHT"}
	}
	if len(e.columns) == 0 {
		e.columns = balanceColumns
	}
	return e, nil
}

func (e *balanceExtractor) Name() string      { return e.name }
func (e *balanceExtractor) Columns() []string { return e.columns }

func (e *balanceExtractor) Extract(path string) (*Table, error) {
	wb, source, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	return e.extract(wb, source)
}

func (e *balanceExtractor) extract(wb *workbook.Workbook, source string) (*Table, error) {
	sheetName, err := workbook.FindSheet(wb, workbook.SheetQuery{
		Patterns:    e.contentPatterns,
		Mode:        workbook.MatchContains,
		ContentScan: true,
	})
	if err != nil {
		return nil, err
	}
	sheet := wb.Sheet(sheetName)

	sectionRow, ok := workbook.FindMarkerRow(sheet, e.section, 0)
	if !ok {
		return nil, kerrors.NewSectionNotFound(e.section, sheetName)
	}

	table := NewTable(e.name, e.columns)
	for _, cat := range e.categories {
		catRow, ok := workbook.FindMarkerRowFrom(sheet, cat.Name, sectionRow, 0)
		if !ok {
			slog.Debug("balance category not present",
				slog.String("extractor", e.name),
				slog.String("source_file", source),
				slog.String("category", cat.Name))
			continue
		}
		for _, sub := range cat.Subcategories {
			for _, item := range sub.Items {
				e.appendItem(table, sheet, catRow, cat.Name, item, source)
			}
		}
	}
	if table.Len() == 0 {
		return nil, kerrors.NewNoDataExtracted(e.section, sheetName)
	}
	return table, nil
}

// appendItem finds the item row below its category and reads the three value
// cells immediately right of the label cell.
func (e *balanceExtractor) appendItem(table *Table, sheet *workbook.Sheet, catRow int, category, item, source string) {
	row, ok := findExactRow(sheet, item, catRow+1)
	if !ok {
		return
	}
	col, ok := findExactColumn(sheet, row, item)
	if !ok {
		return
	}
	start, okStart := workbook.Numeric(sheet.Cell(row, col+1))
	end, okEnd := workbook.Numeric(sheet.Cell(row, col+2))
	change, okChange := workbook.Numeric(sheet.Cell(row, col+3))
	if !okStart && !okEnd && !okChange {
		return
	}
	table.Append(
		source,
		e.section,
		category,
		item,
		formatMaybe(start, okStart),
		formatMaybe(end, okEnd),
		formatMaybe(change, okChange),
	)
}

func formatMaybe(v float64, ok bool) string {
	if !ok {
		return ""
	}
	return formatFloat(v)
}

// findExactRow scans from startRow for a cell equal (after normalization) to
// the target. Exact equality, not containment: balance labels are short and
// "Kassa" must not match "Kassabestand lt. Beleg".
func findExactRow(sheet *workbook.Sheet, target string, startRow int) (int, bool) {
	for row := startRow; row < sheet.NumRows(); row++ {
		if _, ok := findExactColumn(sheet, row, target); ok {
			return row, true
		}
	}
	return 0, false
}

func findExactColumn(sheet *workbook.Sheet, row int, target string) (int, bool) {
	for col, cell := range sheet.Row(row) {
		if cell == "" {
			continue
		}
		if workbook.EqualNormalized(cell, target) {
			return col, true
		}
	}
	return 0, false
}

func newVermoegen(spec *structure.Spec) (Extractor, error) {
	return newBalanceExtractor("vermoegen", "Vermögen", spec)
}

func newVerbindlichkeiten(spec *structure.Spec) (Extractor, error) {
	return newBalanceExtractor("verbindlichkeiten", "Verbindlichkeiten", spec)
}
