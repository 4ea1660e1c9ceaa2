package workbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anchorSheet() *Sheet {
	return NewSheet("NB_KIGA", [][]string{
		{"", ""},
		{"", "A. AUSGABEN"},
		{"", "", "I.  PERSONALAUSGABEN"},
		{"", "", "Gehälter", "50000"},
		{"", "", "II. SACHAUSGABEN"},
		{"", "", "Miete", "12000"},
		{"", "", "GESAMT"},
	})
}

func TestFindMarkerRow(t *testing.T) {
	sheet := anchorSheet()

	row, ok := FindMarkerRow(sheet, "I. PERSONALAUSGABEN", 0)
	require.True(t, ok)
	assert.Equal(t, 2, row, "whitespace runs in the cell must not defeat the match")

	_, ok = FindMarkerRow(sheet, "III. ABSCHREIBUNGEN", 0)
	assert.False(t, ok)

	_, ok = FindMarkerRow(sheet, "II. SACHAUSGABEN", 3)
	assert.False(t, ok, "window caps the scan")
}

func TestFindMarkerRowFrom(t *testing.T) {
	sheet := anchorSheet()

	row, ok := FindMarkerRowFrom(sheet, "AUSGABEN", 2, 0)
	require.True(t, ok)
	assert.Equal(t, 2, row, "PERSONALAUSGABEN contains AUSGABEN")

	row, ok = FindMarkerRowFrom(sheet, "SACHAUSGABEN", 3, 0)
	require.True(t, ok)
	assert.Equal(t, 4, row)
}

func TestFindMarkerColumn(t *testing.T) {
	sheet := anchorSheet()

	col, ok := FindMarkerColumn(sheet, 3, "Gehälter")
	require.True(t, ok)
	assert.Equal(t, 2, col)

	_, ok = FindMarkerColumn(sheet, 3, "Miete")
	assert.False(t, ok)
}

func TestFindBoundedBlock(t *testing.T) {
	sheet := anchorSheet()

	start, end, ok := FindBoundedBlock(sheet, "I. PERSONALAUSGABEN", "II.", 0, 0)
	require.True(t, ok)
	assert.Equal(t, 2, start)
	assert.Equal(t, 4, end, "end row is exclusive")

	start, end, ok = FindBoundedBlock(sheet, "II. SACHAUSGABEN", "III.", 0, 0)
	require.True(t, ok)
	assert.Equal(t, 4, start)
	assert.Equal(t, sheet.NumRows(), end, "missing end marker extends to the sheet end")

	_, _, ok = FindBoundedBlock(sheet, "NICHT DA", "II.", 0, 0)
	assert.False(t, ok)
}

func TestSheetCellOutOfRange(t *testing.T) {
	sheet := anchorSheet()
	assert.Equal(t, "", sheet.Cell(-1, 0))
	assert.Equal(t, "", sheet.Cell(100, 0))
	assert.Equal(t, "", sheet.Cell(0, 100))
}
