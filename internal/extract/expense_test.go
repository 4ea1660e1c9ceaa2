package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "kitacli/internal/errors"
	"kitacli/internal/structure"
	"kitacli/internal/workbook"
)

const personalausgabenSpecYAML = `
content_patterns:
  - "A. AUSGABEN"
end_markers:
  - "II."
structure:
  I. PERSONALAUSGABEN:
    1. BETREUUNGSPERSONAL:
      description: Pädagogisches Personal
      items:
        - Gehälter
        - Lohnnebenkosten
    2. VERWALTUNGSPERSONAL:
      description: Verwaltung
      items:
        - Gehälter Verwaltung
`

func personalausgabenSpec(t *testing.T) *structure.Spec {
	t.Helper()
	spec, err := structure.Parse([]byte(personalausgabenSpecYAML))
	require.NoError(t, err)
	return spec
}

// expenseSheet mirrors the real form layout: title block, year header row,
// section anchor, subcategory blocks with item rows.
func expenseSheet() *workbook.Sheet {
	rows := make([][]string, 0, 24)
	rows = append(rows,
		[]string{"Nachweis KIGA"},                    // 0
		[]string{""},                                 // 1
		[]string{"", "A. AUSGABEN"},                  // 2
		[]string{""},                                 // 3
		[]string{""},                                 // 4
		[]string{""},                                 // 5
		[]string{""},                                 // 6
		[]string{""},                                 // 7
		[]string{"", "", "", "2022", "2023", "", "Kommentar"}, // 8
		[]string{""},                                 // 9
		[]string{"", "", "I. PERSONALAUSGABEN"},      // 10
		[]string{"", "", "1. BETREUUNGSPERSONAL"},    // 11
		[]string{"", "", "Gehälter", "50000", "52000"},       // 12
		[]string{"", "", "Lohnnebenkosten", "9000", "", "", "nur 2022"}, // 13
		[]string{"", "", "Zwischensumme", "59000", "52000"},  // 14 not an expected item
		[]string{"", "", "2. VERWALTUNGSPERSONAL"},   // 15
		[]string{"", "", "Gehälter  Verwaltung", "8000", "8100"}, // 16
		[]string{"", "", "II. SACHAUSGABEN"},         // 17
		[]string{"", "", "Miete", "12000", "12500"},  // 18 past section end
	)
	return workbook.NewSheet("NB_KIGA", rows)
}

func TestPersonalausgabenExtract(t *testing.T) {
	ex, err := newPersonalausgaben(personalausgabenSpec(t))
	require.NoError(t, err)

	wb := workbook.New("NB_KIGA_001.xlsx",
		workbook.NewSheet("INFORMATION", [][]string{{"Hinweise"}}),
		expenseSheet(),
	)
	table, err := ex.(*expenseExtractor).extract(wb, "NB_KIGA_001")
	require.NoError(t, err)

	require.Equal(t, recordColumns, table.Columns)
	require.Equal(t, 3, table.Len())

	// source_file, category, subcategory, subcategory_desc, detail, 2022, 2023, comment
	assert.Equal(t, []string{
		"NB_KIGA_001", "I. PERSONALAUSGABEN", "1. BETREUUNGSPERSONAL",
		"Pädagogisches Personal", "Gehälter", "50000", "52000", "",
	}, table.Rows[0])
	assert.Equal(t, []string{
		"NB_KIGA_001", "I. PERSONALAUSGABEN", "1. BETREUUNGSPERSONAL",
		"Pädagogisches Personal", "Lohnnebenkosten", "9000", "", "nur 2022",
	}, table.Rows[1])
	assert.Equal(t, []string{
		"NB_KIGA_001", "I. PERSONALAUSGABEN", "2. VERWALTUNGSPERSONAL",
		"Verwaltung", "Gehälter Verwaltung", "8000", "8100", "",
	}, table.Rows[2])

	// Extraction is a pure read: a second pass yields identical output.
	again, err := ex.(*expenseExtractor).extract(wb, "NB_KIGA_001")
	require.NoError(t, err)
	assert.Equal(t, table.Rows, again.Rows)
}

func TestPersonalausgabenNoMatchingSheet(t *testing.T) {
	ex, err := newPersonalausgaben(personalausgabenSpec(t))
	require.NoError(t, err)

	wb := workbook.New("other.xlsx",
		workbook.NewSheet("Tabelle1", [][]string{{"ganz andere Daten"}}),
	)
	_, err = ex.(*expenseExtractor).extract(wb, "other")
	require.Error(t, err)
	assert.Equal(t, kerrors.KindNoMatchingSheet, kerrors.KindOf(err))
	assert.True(t, kerrors.IsFileError(err))
}

func TestPersonalausgabenNoDataExtracted(t *testing.T) {
	ex, err := newPersonalausgaben(personalausgabenSpec(t))
	require.NoError(t, err)

	// Section present but no expected item carries a numeric value.
	sheet := workbook.NewSheet("NB_KIGA", [][]string{
		{"", "A. AUSGABEN"},
		{"", "", "", "2022", "2023"},
		{"", "", "I. PERSONALAUSGABEN"},
		{"", "", "1. BETREUUNGSPERSONAL"},
		{"", "", "Gehälter", "siehe Anhang", "offen"},
		{"", "", "II. SACHAUSGABEN"},
	})
	_, err = ex.(*expenseExtractor).extract(workbook.New("x.xlsx", sheet), "x")
	require.Error(t, err)
	assert.Equal(t, kerrors.KindNoDataExtracted, kerrors.KindOf(err))
}

func TestPersonalausgabenDuplicateRowLastWins(t *testing.T) {
	ex, err := newPersonalausgaben(personalausgabenSpec(t))
	require.NoError(t, err)

	sheet := workbook.NewSheet("NB_KIGA", [][]string{
		{"", "A. AUSGABEN"},
		{"", "", "", "2022", "2023"},
		{"", "", "I. PERSONALAUSGABEN"},
		{"", "", "1. BETREUUNGSPERSONAL"},
		{"", "", "Gehälter", "100", "200"},
		{"", "", "Gehälter", "111", "222"},
		{"", "", "II. SACHAUSGABEN"},
	})
	table, err := ex.(*expenseExtractor).extract(workbook.New("x.xlsx", sheet), "x")
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "111", table.Rows[0][5])
	assert.Equal(t, "222", table.Rows[0][6])
}

func TestPersonalausgabenSplitYearRowsMerge(t *testing.T) {
	ex, err := newPersonalausgaben(personalausgabenSpec(t))
	require.NoError(t, err)

	// Some forms split one item over two rows, each carrying one year only;
	// the values must merge into a single record.
	sheet := workbook.NewSheet("NB_KIGA", [][]string{
		{"", "A. AUSGABEN"},
		{"", "", "", "2022", "2023"},
		{"", "", "I. PERSONALAUSGABEN"},
		{"", "", "1. BETREUUNGSPERSONAL"},
		{"", "", "Gehälter", "100", ""},
		{"", "", "Gehälter", "", "200"},
		{"", "", "II. SACHAUSGABEN"},
	})
	table, err := ex.(*expenseExtractor).extract(workbook.New("x.xlsx", sheet), "x")
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "100", table.Rows[0][5])
	assert.Equal(t, "200", table.Rows[0][6])
}

func TestPersonalausgabenAbbreviatedSubcategoryHeader(t *testing.T) {
	ex, err := newPersonalausgaben(personalausgabenSpec(t))
	require.NoError(t, err)

	// The sheet abbreviates the section header; the row text is contained in
	// the expected subcategory name rather than the other way around.
	sheet := workbook.NewSheet("NB_KIGA", [][]string{
		{"", "A. AUSGABEN"},
		{"", "", "", "2022", "2023"},
		{"", "", "I. PERSONALAUSGABEN"},
		{"", "", "BETREUUNGSPERSONAL"},
		{"", "", "Gehälter", "100", "200"},
		{"", "", "II. SACHAUSGABEN"},
	})
	table, err := ex.(*expenseExtractor).extract(workbook.New("x.xlsx", sheet), "x")
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "1. BETREUUNGSPERSONAL", table.Rows[0][2])
	assert.Equal(t, "Gehälter", table.Rows[0][4])
}

func TestEinnahmenSectionMarkerRetry(t *testing.T) {
	const einnahmenYAML = `
structure:
  I. BETRIEBLICHE EINNAHMEN:
    1. ÖFFENTLICHE FÖRDERUNGEN:
      description: Förderungen
      items:
        - Landesförderung
`
	spec, err := structure.Parse([]byte(einnahmenYAML))
	require.NoError(t, err)
	ex, err := newEinnahmen(spec)
	require.NoError(t, err)

	// The section header spells out the name instead of the roman numeral;
	// the extractor must fall through to the later identifiers.
	sheet := workbook.NewSheet("NB_Einnahmen", [][]string{
		{"", "REINVESTITION"},
		{"", "", "", "2022", "2023"},
		{"", "", "BETRIEBLICHE EINNAHMEN"},
		{"", "", "1. ÖFFENTLICHE FÖRDERUNGEN"},
		{"", "", "Landesförderung", "30000", "31000"},
		{"", "", "II. SONSTIGES"},
	})
	table, err := ex.(*expenseExtractor).extract(workbook.New("e.xlsx", sheet), "e")
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "Landesförderung", table.Rows[0][4])
}
