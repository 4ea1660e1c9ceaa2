package extract

import (
	kerrors "kitacli/internal/errors"
	"kitacli/internal/structure"
	"kitacli/internal/workbook"
)

var deckblattColumns = []string{
	"source_file",
	"section",
	"level_1",
	"level_2",
	"value_2022",
	"value_2023",
}

// deckblattExtractor reads the cover sheet's grouped figures. Each structure
// category is one cover section (its name is the section anchor); inside a
// section, subcategory names are the first grouping level and their items the
// rows carrying the two year values right of the label.
type deckblattExtractor struct {
	contentPatterns []string
	categories      []structure.Category
	columns         []string
}

// deckblattSectionWindow caps how far below its anchor a cover section may
// extend when no following section bounds it.
const deckblattSectionWindow = 30

func newDeckblatt(spec *structure.Spec) (Extractor, error) {
	if err := spec.RequireFields("structure"); err != nil {
		return nil, err
	}
	e := &deckblattExtractor{
		contentPatterns: spec.ContentPatterns,
		categories:      spec.Categories,
		columns:         spec.OutputColumns,
	}
	if len(e.contentPatterns) == 0 {
		e.contentPatterns = []string{"DECKBLATT"}
	}
	if len(e.columns) == 0 {
		e.columns = deckblattColumns
	}
	return e, nil
}

func (e *deckblattExtractor) Name() string      { return "deckblatt" }
func (e *deckblattExtractor) Columns() []string { return e.columns }

func (e *deckblattExtractor) Extract(path string) (*Table, error) {
	wb, source, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	return e.extract(wb, source)
}

func (e *deckblattExtractor) extract(wb *workbook.Workbook, source string) (*Table, error) {
	sheetName, err := workbook.FindSheet(wb, workbook.SheetQuery{
		Patterns:    e.contentPatterns,
		Mode:        workbook.MatchContains,
		ContentScan: true,
	})
	if err != nil {
		return nil, err
	}
	sheet := wb.Sheet(sheetName)

	table := NewTable("deckblatt", e.columns)
	for i, cat := range e.categories {
		start, ok := workbook.FindMarkerRow(sheet, cat.Name, 0)
		if !ok {
			continue
		}
		end := start + deckblattSectionWindow
		if i+1 < len(e.categories) {
			if next, found := workbook.FindMarkerRowFrom(sheet, e.categories[i+1].Name, start+1, 0); found {
				end = next
			}
		}
		if end > sheet.NumRows() {
			end = sheet.NumRows()
		}
		e.extractSection(table, sheet, cat, start+1, end, source)
	}
	if table.Len() == 0 {
		return nil, kerrors.NewNoDataExtracted("Deckblatt", sheetName)
	}
	return table, nil
}

// extractSection walks one bounded cover section. A row whose label equals a
// subcategory name switches the grouping level; a row matching an item of the
// current group emits the two year values found right of the label.
func (e *deckblattExtractor) extractSection(table *Table, sheet *workbook.Sheet, cat structure.Category, start, end int, source string) {
	section := sectionTag(cat.Name)
	var current *structure.Subcategory

	for row := start; row < end; row++ {
		for col, cell := range sheet.Row(row) {
			label := workbook.Normalize(cell)
			if label == "" {
				continue
			}

			matchedGroup := false
			for i := range cat.Subcategories {
				if workbook.EqualNormalized(label, cat.Subcategories[i].Name) {
					current = &cat.Subcategories[i]
					matchedGroup = true
					break
				}
			}
			if matchedGroup || current == nil {
				continue
			}

			for _, item := range current.Items {
				if !workbook.EqualNormalized(label, item) {
					continue
				}
				v2022, ok2022 := workbook.Numeric(sheet.Cell(row, col+1))
				v2023, ok2023 := workbook.Numeric(sheet.Cell(row, col+2))
				if !ok2022 && !ok2023 {
					break
				}
				table.Append(
					source,
					section,
					current.Name,
					item,
					formatMaybe(v2022, ok2022),
					formatMaybe(v2023, ok2023),
				)
				break
			}
		}
	}
}

// sectionTag reduces a section heading to its letter ("A. Kindergarten" -> "A").
func sectionTag(name string) string {
	n := workbook.Normalize(name)
	for i, r := range n {
		if r == '.' || r == ' ' {
			return n[:i]
		}
	}
	return n
}
