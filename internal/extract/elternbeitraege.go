package extract

import (
	"log/slog"
	"strings"

	kerrors "kitacli/internal/errors"
	"kitacli/internal/structure"
	"kitacli/internal/workbook"
)

var elternbeitraegeColumns = []string{
	"source_file",
	"category",
	"type",
	"amount",
	"frequency",
}

// elternbeitraegeExtractor reads the parent-contribution sheet: a fixed list
// of Verpflegung (catering) fee rows plus a free-form Zusatzleistungen block
// that runs until the Einmalzahlungen marker.
type elternbeitraegeExtractor struct {
	contentPatterns []string
	sectionMarker   string
	verpflegung     []string
	columns         []string
}

func newElternbeitraege(spec *structure.Spec) (Extractor, error) {
	e := &elternbeitraegeExtractor{
		contentPatterns: spec.ContentPatterns,
		sectionMarker:   spec.SectionMarker,
		verpflegung:     spec.ValidTypes["verpflegung"],
		columns:         spec.OutputColumns,
	}
	if len(e.contentPatterns) == 0 {
		e.contentPatterns = []string{"ELTERNBEITRÄGE"}
	}
	if e.sectionMarker == "" {
		e.sectionMarker = "KINDERGÄRTEN UND KINDERGRUPPEN"
	}
	if len(e.verpflegung) == 0 {
		e.verpflegung = []string{
			"Verpflegung Halbtagsbetreuung",
			"Verpflegung Teilzeitbetreuung",
			"Verpflegung Ganztagsbetreuung",
		}
	}
	if len(e.columns) == 0 {
		e.columns = elternbeitraegeColumns
	}
	return e, nil
}

func (e *elternbeitraegeExtractor) Name() string      { return "elternbeitraege" }
func (e *elternbeitraegeExtractor) Columns() []string { return e.columns }

func (e *elternbeitraegeExtractor) Extract(path string) (*Table, error) {
	wb, source, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	return e.extract(wb, source)
}

func (e *elternbeitraegeExtractor) extract(wb *workbook.Workbook, source string) (*Table, error) {
	sheetName, err := workbook.FindSheet(wb, workbook.SheetQuery{
		Patterns:    e.contentPatterns,
		Mode:        workbook.MatchContains,
		ContentScan: true,
	})
	if err != nil {
		return nil, err
	}
	sheet := wb.Sheet(sheetName)

	startRow, ok := workbook.FindMarkerRow(sheet, e.sectionMarker, workbook.DefaultScanRows)
	if !ok {
		return nil, kerrors.NewSectionNotFound(e.sectionMarker, sheetName)
	}

	// The column headers sit right under the section marker.
	amountCol, frequencyCol := findFeeColumns(sheet, startRow+1)
	if amountCol < 0 {
		return nil, kerrors.NewSectionNotFound("Betrag in EUR header", sheetName)
	}

	table := NewTable("elternbeitraege", e.columns)
	sheetSum := e.appendVerpflegung(table, sheet, startRow, amountCol, frequencyCol, source)
	e.appendZusatzleistungen(table, sheet, startRow, amountCol, frequencyCol, source)

	// A sheet that carries amounts which the walk did not capture means the
	// layout drifted; flag the file instead of silently emitting zeros.
	if sheetSum > 0 && tableAmountSum(table, e.columns) == 0 {
		return nil, kerrors.NewNoDataExtracted(
			"Elternbeiträge (sheet has amounts but none were captured)", sheetName)
	}
	if table.Len() == 0 {
		return nil, kerrors.NewNoDataExtracted("Elternbeiträge", sheetName)
	}
	return table, nil
}

// findFeeColumns locates the amount and frequency columns in the header rows
// below the section marker.
func findFeeColumns(sheet *workbook.Sheet, fromRow int) (amountCol, frequencyCol int) {
	amountCol, frequencyCol = -1, -1
	limit := fromRow + 3
	if limit > sheet.NumRows() {
		limit = sheet.NumRows()
	}
	for row := fromRow; row < limit; row++ {
		for col, cell := range sheet.Row(row) {
			upper := workbook.NormalizeUpper(cell)
			switch {
			case strings.Contains(upper, "BETRAG"):
				amountCol = col
			case strings.Contains(upper, "ANZAHL PRO JAHR"):
				frequencyCol = col
			}
		}
		if amountCol >= 0 {
			return amountCol, frequencyCol
		}
	}
	return amountCol, frequencyCol
}

// appendVerpflegung collects the fixed catering fee rows and returns the sum
// of every amount cell seen in the block, captured or not.
func (e *elternbeitraegeExtractor) appendVerpflegung(table *Table, sheet *workbook.Sheet, startRow, amountCol, frequencyCol int, source string) float64 {
	var sheetSum float64
	for row := startRow; row < sheet.NumRows(); row++ {
		label := workbook.Normalize(sheet.Cell(row, 0))
		if v, ok := workbook.Numeric(sheet.Cell(row, amountCol)); ok {
			sheetSum += v
		}
		if label == "" {
			continue
		}
		for _, feeType := range e.verpflegung {
			if workbook.EqualNormalized(label, feeType) {
				table.Append(
					source,
					"Verpflegung",
					label,
					numericCell(sheet, row, amountCol),
					numericCell(sheet, row, frequencyCol),
				)
				break
			}
		}
	}
	return sheetSum
}

// appendZusatzleistungen walks the rows after the "Zusatzleistungen" label
// until the Einmalzahlungen block starts.
func (e *elternbeitraegeExtractor) appendZusatzleistungen(table *Table, sheet *workbook.Sheet, startRow, amountCol, frequencyCol int, source string) {
	zusatzRow, ok := findExactRow(sheet, "Zusatzleistungen", startRow)
	if !ok {
		slog.Debug("no Zusatzleistungen block", slog.String("source_file", source))
		return
	}
	for row := zusatzRow + 1; row < sheet.NumRows(); row++ {
		label := workbook.Normalize(sheet.Cell(row, 0))
		if label == "" {
			continue
		}
		if strings.HasPrefix(label, "Einmalzahlungen") {
			break
		}
		table.Append(
			source,
			"Zusatzleistungen",
			label,
			numericCell(sheet, row, amountCol),
			numericCell(sheet, row, frequencyCol),
		)
	}
}

// numericCell formats a cell as a float when it parses, empty otherwise.
// Column index -1 means the column was not found on this sheet.
func numericCell(sheet *workbook.Sheet, row, col int) string {
	if col < 0 {
		return ""
	}
	v, ok := workbook.Numeric(sheet.Cell(row, col))
	if !ok {
		return ""
	}
	return formatFloat(v)
}

// tableAmountSum totals the amount column of the assembled table.
func tableAmountSum(table *Table, columns []string) float64 {
	amountIdx := -1
	for i, col := range columns {
		if col == "amount" {
			amountIdx = i
			break
		}
	}
	if amountIdx < 0 {
		return 0
	}
	var sum float64
	for _, row := range table.Rows {
		if amountIdx < len(row) {
			if v, ok := workbook.Numeric(row[amountIdx]); ok {
				sum += v
			}
		}
	}
	return sum
}
