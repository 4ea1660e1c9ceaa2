package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "kitacli/internal/errors"
	"kitacli/internal/structure"
	"kitacli/internal/workbook"
)

const vermoegenSpecYAML = `
structure:
  Umlaufvermögen:
    Positionen:
      description: Kurzfristiges Vermögen
      items:
        - Kassa
        - Bankguthaben
  Anlagevermögen:
    Positionen:
      description: Langfristiges Vermögen
      items:
        - Betriebsausstattung
`

func vermoegenSheet() *workbook.Sheet {
	return workbook.NewSheet("NB_Vermögensübersicht", [][]string{
		{"Vermögensübersicht zum 31.12.2023"},                     // 0
		{""},                                                      // 1
		{"", "Vermögen", "01.01.2023", "31.12.2023", "Veränderung"}, // 2
		{"", "Umlaufvermögen"},                                    // 3
		{"", "Kassa", "1200", "900,50", "-299,50"},                // 4
		{"", "Bankguthaben", "15000", "17250", "2250"},            // 5
		{"", "Anlagevermögen"},                                    // 6
		{"", "Betriebsausstattung", "8000", "7000", "-1000"},      // 7
		{"", "Verbindlichkeiten"},                                 // 8
		{"", "Darlehen", "5000", "4000", "-1000"},                 // 9
	})
}

func TestVermoegenExtract(t *testing.T) {
	spec, err := structure.Parse([]byte(vermoegenSpecYAML))
	require.NoError(t, err)
	ex, err := newVermoegen(spec)
	require.NoError(t, err)

	wb := workbook.New("NB_KIGA_010.xlsx", vermoegenSheet())
	table, err := ex.(*balanceExtractor).extract(wb, "NB_KIGA_010")
	require.NoError(t, err)

	require.Equal(t, balanceColumns, table.Columns)
	require.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"NB_KIGA_010", "Vermögen", "Umlaufvermögen", "Kassa", "1200", "900.5", "-299.5"}, table.Rows[0])
	assert.Equal(t, []string{"NB_KIGA_010", "Vermögen", "Umlaufvermögen", "Bankguthaben", "15000", "17250", "2250"}, table.Rows[1])
	assert.Equal(t, []string{"NB_KIGA_010", "Vermögen", "Anlagevermögen", "Betriebsausstattung", "8000", "7000", "-1000"}, table.Rows[2])
}

func TestVerbindlichkeitenExtract(t *testing.T) {
	const verbSpec = `
structure:
  Verbindlichkeiten gegenüber Kreditinstituten:
    Positionen:
      description: Bankverbindlichkeiten
      items:
        - Darlehen
`
	spec, err := structure.Parse([]byte(verbSpec))
	require.NoError(t, err)
	ex, err := newVerbindlichkeiten(spec)
	require.NoError(t, err)

	sheet := workbook.NewSheet("NB_Vermögensübersicht", [][]string{
		{"Vermögensübersicht zum 31.12.2023"},
		{"", "Verbindlichkeiten", "01.01.2023", "31.12.2023", "Veränderung"},
		{"", "Verbindlichkeiten gegenüber Kreditinstituten"},
		{"", "Darlehen", "5000", "4000", "-1000"},
	})
	table, err := ex.(*balanceExtractor).extract(workbook.New("x.xlsx", sheet), "x")
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, []string{"x", "Verbindlichkeiten", "Verbindlichkeiten gegenüber Kreditinstituten", "Darlehen", "5000", "4000", "-1000"}, table.Rows[0])
}

func TestVermoegenSectionMissing(t *testing.T) {
	spec, err := structure.Parse([]byte(vermoegenSpecYAML))
	require.NoError(t, err)
	ex, err := newVermoegen(spec)
	require.NoError(t, err)

	sheet := workbook.NewSheet("NB_Vermögensübersicht", [][]string{
		{"Vermögensübersicht"},
		{"ganz leer"},
	})
	_, err = ex.(*balanceExtractor).extract(workbook.New("x.xlsx", sheet), "x")
	require.Error(t, err)
	assert.Equal(t, kerrors.KindNoDataExtracted, kerrors.KindOf(err))
}
