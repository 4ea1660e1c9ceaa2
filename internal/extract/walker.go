package extract

import (
	"log/slog"
	"strings"

	kerrors "kitacli/internal/errors"
	"kitacli/internal/structure"
	"kitacli/internal/workbook"
)

// sectionWalk describes one pass over an expense-style section: rows from
// StartRow down, descriptions in DescCol, values in Cols, until an end marker
// or the sheet runs out.
type sectionWalk struct {
	Category   *structure.Category
	Cols       yearColumns
	DescCol    int
	StartRow   int
	EndMarkers []string
}

// walkSection runs the anchor-and-walk state machine over one section.
//
// The walker tracks the current subcategory: a row whose description matches
// a subcategory name switches state, and only rows seen while inside a
// subcategory can become items. An item row must match an expected item label
// (whitespace- and case-insensitive equality) and carry at least one numeric
// year value. Results are keyed by item label; a label appearing on several
// rows merges into one record, each year value set from the row that carries
// it. Replacing an already-set value is last-write-wins, counted and logged so
// a file full of conflicts is visible. Output order follows the structure
// spec, not the sheet.
func walkSection(sheet *workbook.Sheet, walk sectionWalk, source string) ([]Record, error) {
	byItem := make(map[string]*Record)
	var overwrites int
	var current *structure.Subcategory

	for row := walk.StartRow; row < sheet.NumRows(); row++ {
		desc := workbook.Normalize(sheet.Cell(row, walk.DescCol))

		switchedSub := false
		for i := range walk.Category.Subcategories {
			sub := &walk.Category.Subcategories[i]
			if subcategoryMatches(desc, sub.Name) {
				current = sub
				switchedSub = true
				break
			}
		}

		if current != nil && !switchedSub && desc != "" {
			matchItemRow(sheet, row, desc, walk, current, source, byItem, &overwrites)
		}

		if atSectionEnd(desc, walk.EndMarkers) {
			break
		}
	}

	if overwrites > 0 {
		slog.Warn("duplicate item rows overwritten",
			slog.String("source_file", source),
			slog.String("category", walk.Category.Name),
			slog.Int("overwrites", overwrites))
	}
	if len(byItem) == 0 {
		return nil, kerrors.NewNoDataExtracted(walk.Category.Name, sheet.Name)
	}

	// Deterministic order: the spec's declaration order, not sheet order.
	var records []Record
	for _, sub := range walk.Category.Subcategories {
		for _, item := range sub.Items {
			if rec, ok := byItem[itemKey(item)]; ok {
				records = append(records, *rec)
			}
		}
	}
	return records, nil
}

func matchItemRow(sheet *workbook.Sheet, row int, desc string, walk sectionWalk, current *structure.Subcategory, source string, byItem map[string]*Record, overwrites *int) {
	v1, ok1 := workbook.Numeric(sheet.Cell(row, walk.Cols.Year1))
	v2, ok2 := workbook.Numeric(sheet.Cell(row, walk.Cols.Year2))
	if !ok1 && !ok2 {
		return
	}

	for _, item := range current.Items {
		if !itemMatches(desc, item) {
			continue
		}
		key := itemKey(item)
		rec, dup := byItem[key]
		if !dup {
			rec = &Record{
				SourceFile:      source,
				Category:        walk.Category.Name,
				Subcategory:     current.Name,
				SubcategoryDesc: current.Description,
				Detail:          item,
			}
			byItem[key] = rec
		}

		// Rows splitting one item across several lines merge; only replacing
		// a value that was already set counts as an overwrite.
		replaced := false
		if ok1 {
			replaced = replaced || rec.Value2022 != nil
			rec.Value2022 = floatPtr(v1)
		}
		if ok2 {
			replaced = replaced || rec.Value2023 != nil
			rec.Value2023 = floatPtr(v2)
		}
		if walk.Cols.Comment >= 0 {
			if c := workbook.Normalize(sheet.Cell(row, walk.Cols.Comment)); c != "" {
				rec.Comment = c
			}
		}
		if replaced {
			*overwrites++
			slog.Debug("item value seen again, last value wins",
				slog.String("source_file", source),
				slog.String("item", item),
				slog.Int("row", row))
		}
		return
	}
}

// minSubcategoryDescLen keeps reverse containment from firing on rows so
// short the match would be meaningless ("I.", "1)").
const minSubcategoryDescLen = 4

// subcategoryMatches recognizes a subcategory header row: the expected name
// contained in the description, or the description contained in the name for
// forms that abbreviate their section headers.
func subcategoryMatches(desc, name string) bool {
	if desc == "" {
		return false
	}
	if workbook.ContainsNormalized(desc, name) {
		return true
	}
	if len([]rune(desc)) < minSubcategoryDescLen {
		return false
	}
	return workbook.ContainsNormalized(name, desc)
}

// itemMatches compares a row description against an expected item label:
// primarily normalized equality, with containment either way as a fallback for
// labels the form authors abbreviate or extend.
func itemMatches(desc, item string) bool {
	d := strings.ToLower(workbook.Normalize(desc))
	i := strings.ToLower(workbook.Normalize(item))
	if d == i {
		return true
	}
	return strings.Contains(d, i) || strings.Contains(i, d)
}

func itemKey(item string) string {
	return strings.ToLower(workbook.Normalize(item))
}

func atSectionEnd(desc string, endMarkers []string) bool {
	for _, marker := range endMarkers {
		if workbook.ContainsNormalized(desc, marker) {
			return true
		}
	}
	return false
}
