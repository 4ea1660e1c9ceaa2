package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "kitacli/internal/errors"
	"kitacli/internal/structure"
	"kitacli/internal/workbook"
)

func schliesszeitenSheet() *workbook.Sheet {
	return workbook.NewSheet("NB_KIGA", [][]string{
		{"", "C. SCHLIESSZEITEN"},                              // 0
		{""},                                                   // 1
		{"", "", "Kindergartenjahr 2022/2023", "", "Kindergartenjahr 2023/2024"}, // 2
		{"", "September", "", "", "", ""},                      // 3
		{"", "Oktober", "", "5", "", "1"},                      // 4
		{"", "November", "", "", "", ""},                       // 5
		{"", "Dezember", "", "10", "", "8"},                    // 6
		{"", "Jänner", "", "", "", ""},                         // 7
		{"", "Februar", "", "", "", ""},                        // 8
		{"", "März", "", "", "", ""},                           // 9
		{"", "April", "", "2", "", ""},                         // 10
		{"", "Mai", "", "", "", ""},                            // 11
		{"", "Juni", "", "", "", ""},                           // 12
		{"", "Juli", "", "", "", ""},                           // 13
		{"", "August", "", "15", "", "20"},                     // 14
	})
}

func newSchliesszeitenForTest(t *testing.T) *schliesszeitenExtractor {
	t.Helper()
	ex, err := newSchliesszeiten(&structure.Spec{})
	require.NoError(t, err)
	return ex.(*schliesszeitenExtractor)
}

func TestSchliesszeitenExtract(t *testing.T) {
	ex := newSchliesszeitenForTest(t)

	table, err := ex.extract(workbook.New("NB_KIGA_007.xlsx", schliesszeitenSheet()), "NB_KIGA_007")
	require.NoError(t, err)

	require.Equal(t, schliesszeitenColumns, table.Columns)
	// Blank months carry no row; both year columns contribute.
	require.Equal(t, 7, table.Len())

	assert.Equal(t, []string{"NB_KIGA_007", "Kindergartenjahr 2022/2023", "Oktober", "5"}, table.Rows[0])
	assert.Equal(t, []string{"NB_KIGA_007", "Kindergartenjahr 2022/2023", "Dezember", "10"}, table.Rows[1])
	assert.Equal(t, []string{"NB_KIGA_007", "Kindergartenjahr 2022/2023", "April", "2"}, table.Rows[2])
	assert.Equal(t, []string{"NB_KIGA_007", "Kindergartenjahr 2022/2023", "August", "15"}, table.Rows[3])
	assert.Equal(t, []string{"NB_KIGA_007", "Kindergartenjahr 2023/2024", "Oktober", "1"}, table.Rows[4])
}

func TestSchliesszeitenYearSpanFallback(t *testing.T) {
	ex := newSchliesszeitenForTest(t)

	sheet := workbook.NewSheet("NB_KIGA", [][]string{
		{"", "C. SCHLIESSZEITEN"},
		{"", "", "2022/23"},
		{"", "September", "", "3"},
		{"", "Oktober", "", ""},
	})
	table, err := ex.extract(workbook.New("x.xlsx", sheet), "x")
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, []string{"x", "2022/23", "September", "3"}, table.Rows[0])
}

func TestSchliesszeitenMissingSeptember(t *testing.T) {
	ex := newSchliesszeitenForTest(t)

	sheet := workbook.NewSheet("NB_KIGA", [][]string{
		{"", "C. SCHLIESSZEITEN"},
		{"", "Kindergartenjahr 2022/2023"},
	})
	_, err := ex.extract(workbook.New("x.xlsx", sheet), "x")
	require.Error(t, err)
	assert.Equal(t, kerrors.KindSectionNotFound, kerrors.KindOf(err))
}

func TestSchliesszeitenNoValues(t *testing.T) {
	ex := newSchliesszeitenForTest(t)

	sheet := workbook.NewSheet("NB_KIGA", [][]string{
		{"", "C. SCHLIESSZEITEN"},
		{"", "", "Kindergartenjahr 2022/2023"},
		{"", "September", ""},
		{"", "Oktober", ""},
	})
	_, err := ex.extract(workbook.New("x.xlsx", sheet), "x")
	require.Error(t, err)
	assert.Equal(t, kerrors.KindNoDataExtracted, kerrors.KindOf(err))
}
