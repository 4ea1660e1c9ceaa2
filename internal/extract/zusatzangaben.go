package extract

import (
	"strings"

	kerrors "kitacli/internal/errors"
	"kitacli/internal/structure"
	"kitacli/internal/workbook"
)

var zusatzangabenColumns = []string{
	"source_file",
	"name",
	"normalized_key",
	"value",
	"explanation",
}

// zusatzangabenExtractor reads the free-form questionnaire block: one row per
// question with the entry and an optional explanation, ending at the
// Einmalzahlungen marker. Question labels also get a stable normalized key so
// downstream joins survive the forms' spelling drift.
type zusatzangabenExtractor struct {
	contentPatterns []string
	sectionMarker   string
	endMarker       string
	columns         []string
}

func newZusatzangaben(spec *structure.Spec) (Extractor, error) {
	e := &zusatzangabenExtractor{
		contentPatterns: spec.ContentPatterns,
		sectionMarker:   spec.SectionMarker,
		columns:         spec.OutputColumns,
	}
	if len(e.contentPatterns) == 0 {
		e.contentPatterns = []string{"ZUSATZANGABEN"}
	}
	if e.sectionMarker == "" {
		e.sectionMarker = "ZUSATZANGABEN"
	}
	e.endMarker = "EINMALZAHLUNGEN"
	if len(spec.EndMarkers) > 0 {
		e.endMarker = spec.EndMarkers[0]
	}
	if len(e.columns) == 0 {
		e.columns = zusatzangabenColumns
	}
	return e, nil
}

func (e *zusatzangabenExtractor) Name() string      { return "zusatzangaben" }
func (e *zusatzangabenExtractor) Columns() []string { return e.columns }

func (e *zusatzangabenExtractor) Extract(path string) (*Table, error) {
	wb, source, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	return e.extract(wb, source)
}

func (e *zusatzangabenExtractor) extract(wb *workbook.Workbook, source string) (*Table, error) {
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

	table := NewTable("zusatzangaben", e.columns)
	// Skip the marker row and the column header row beneath it.
	for row := startRow + 2; row < sheet.NumRows(); row++ {
		if _, end := workbook.FindMarkerColumn(sheet, row, e.endMarker); end {
			break
		}
		name := workbook.Normalize(sheet.Cell(row, 0))
		if name == "" || name == "-" {
			continue
		}
		table.Append(
			source,
			name,
			NormalizedKey(name),
			workbook.Normalize(sheet.Cell(row, 2)),
			workbook.Normalize(sheet.Cell(row, 5)),
		)
	}
	if table.Len() == 0 {
		return nil, kerrors.NewNoDataExtracted("Zusatzangaben", sheetName)
	}
	return table, nil
}

var umlautReplacer = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss",
)

var keyStopWords = map[string]bool{
	"der": true, "die": true, "das": true, "und": true,
	"in": true, "im": true, "fuer": true, "von": true, "pro": true,
}

// NormalizedKey derives a snake_case identifier from a German question label:
// lower-cased, umlauts transliterated, punctuation dropped, filler words
// removed. "Anzahl der Kinder" and "Anzahl Kinder" yield the same key.
func NormalizedKey(label string) string {
	s := umlautReplacer.Replace(strings.ToLower(workbook.Normalize(label)))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	var words []string
	for _, w := range strings.Fields(b.String()) {
		if keyStopWords[w] {
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, "_")
}
