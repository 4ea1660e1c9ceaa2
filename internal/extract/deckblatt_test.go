package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "kitacli/internal/errors"
	"kitacli/internal/structure"
	"kitacli/internal/workbook"
)

const deckblattSpecYAML = `
structure:
  A. KINDERGARTEN:
    Kinderzahlen:
      description: Gruppen und Kinder im Kindergarten
      items:
        - Anzahl der Gruppen
        - Anzahl der Kinder
  B. HORT:
    Kinderzahlen:
      description: Gruppen und Kinder im Hort
      items:
        - Anzahl der Gruppen
`

func deckblattSheet() *workbook.Sheet {
	return workbook.NewSheet("NB_Deckblatt", [][]string{
		{"", "DECKBLATT"},                        // 0
		{"", "A. KINDERGARTEN", "2022", "2023"},  // 1
		{"", "Kinderzahlen"},                     // 2
		{"", "Anzahl der Gruppen", "3", "4"},     // 3
		{"", "Anzahl der Kinder", "61", "58,5"},  // 4
		{"", "Zwischensumme", "64", "62,5"},      // 5 not an item
		{"", "B. HORT"},                          // 6
		{"", "Kinderzahlen"},                     // 7
		{"", "Anzahl der Gruppen", "1", "1"},     // 8
	})
}

func TestDeckblattExtract(t *testing.T) {
	spec, err := structure.Parse([]byte(deckblattSpecYAML))
	require.NoError(t, err)
	ex, err := newDeckblatt(spec)
	require.NoError(t, err)

	wb := workbook.New("NB_KIGA_009.xlsx", deckblattSheet())
	table, err := ex.(*deckblattExtractor).extract(wb, "NB_KIGA_009")
	require.NoError(t, err)

	require.Equal(t, deckblattColumns, table.Columns)
	require.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"NB_KIGA_009", "A", "Kinderzahlen", "Anzahl der Gruppen", "3", "4"}, table.Rows[0])
	assert.Equal(t, []string{"NB_KIGA_009", "A", "Kinderzahlen", "Anzahl der Kinder", "61", "58.5"}, table.Rows[1])
	assert.Equal(t, []string{"NB_KIGA_009", "B", "Kinderzahlen", "Anzahl der Gruppen", "1", "1"}, table.Rows[2])
}

func TestDeckblattSingleYearValue(t *testing.T) {
	spec, err := structure.Parse([]byte(deckblattSpecYAML))
	require.NoError(t, err)
	ex, err := newDeckblatt(spec)
	require.NoError(t, err)

	sheet := workbook.NewSheet("NB_Deckblatt", [][]string{
		{"", "DECKBLATT"},
		{"", "A. KINDERGARTEN"},
		{"", "Kinderzahlen"},
		{"", "Anzahl der Gruppen", "", "4"},
	})
	table, err := ex.(*deckblattExtractor).extract(workbook.New("x.xlsx", sheet), "x")
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, []string{"x", "A", "Kinderzahlen", "Anzahl der Gruppen", "", "4"}, table.Rows[0])
}

func TestDeckblattNoSectionsFound(t *testing.T) {
	spec, err := structure.Parse([]byte(deckblattSpecYAML))
	require.NoError(t, err)
	ex, err := newDeckblatt(spec)
	require.NoError(t, err)

	sheet := workbook.NewSheet("NB_Deckblatt", [][]string{
		{"", "DECKBLATT"},
		{"", "ganz andere Inhalte"},
	})
	_, err = ex.(*deckblattExtractor).extract(workbook.New("x.xlsx", sheet), "x")
	require.Error(t, err)
	assert.Equal(t, kerrors.KindNoDataExtracted, kerrors.KindOf(err))
}

func TestDeckblattRequiresStructure(t *testing.T) {
	_, err := newDeckblatt(&structure.Spec{})
	require.Error(t, err)
	assert.Equal(t, kerrors.KindConfiguration, kerrors.KindOf(err))
}
