package workbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text unchanged", input: "Gehälter", want: "Gehälter"},
		{name: "trims ends", input: "  Gehälter  ", want: "Gehälter"},
		{name: "collapses runs", input: "I.   PERSONALAUSGABEN", want: "I. PERSONALAUSGABEN"},
		{name: "line breaks become spaces", input: "Anzahl pro Jahr\n(z.B. 12 mal)", want: "Anzahl pro Jahr (z.B. 12 mal)"},
		{name: "tabs and newlines mixed", input: "a\t b\n\nc", want: "a b c"},
		{name: "empty", input: "", want: ""},
		{name: "whitespace only", input: " \n\t ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(got), "Normalize must be idempotent")
		})
	}
}

func TestNormalizeUpper(t *testing.T) {
	assert.Equal(t, "I. PERSONALAUSGABEN", NormalizeUpper("  i. Personalausgaben "))
}

func TestContainsNormalized(t *testing.T) {
	assert.True(t, ContainsNormalized("  xx I.  personalausgaben yy", "I. PERSONALAUSGABEN"))
	assert.True(t, ContainsNormalized("C. SCHLIESSZEITEN", "schliesszeiten"))
	assert.False(t, ContainsNormalized("I. PERSONALAUSGABEN", "SACHAUSGABEN"))
	assert.False(t, ContainsNormalized("anything", ""), "empty needle never matches")
	assert.False(t, ContainsNormalized("", "x"))
}

func TestEqualNormalized(t *testing.T) {
	assert.True(t, EqualNormalized(" Gehälter \n", "gehälter"))
	assert.False(t, EqualNormalized("Gehälter", "Gehälter und Löhne"))
}
