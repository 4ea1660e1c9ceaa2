package extract

import (
	"strconv"
	"time"
)

// Record is one extracted line item from a structured expense or income
// section. Year values are pointers: a nil value means the cell was absent or
// not numeric, which is distinct from an explicit zero.
type Record struct {
	SourceFile      string
	Category        string
	Subcategory     string
	SubcategoryDesc string
	Detail          string
	Value2022       *float64
	Value2023       *float64
	Comment         string
}

// Table is the flat output of one extractor over one or more files. Rows hold
// pre-formatted strings so the CSV and database sinks stay format-agnostic.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// NewTable returns an empty table with the given column order.
func NewTable(name string, columns []string) *Table {
	return &Table{Name: name, Columns: columns}
}

// Append adds one row. Callers pass cells in column order.
func (t *Table) Append(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Merge appends all rows of other. Column layouts must already agree.
func (t *Table) Merge(other *Table) {
	t.Rows = append(t.Rows, other.Rows...)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatFloatPtr renders a nullable value; nil becomes the empty cell.
func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func floatPtr(v float64) *float64 {
	return &v
}

// row converts a Record into the default expense-family column order.
func (r Record) row() []string {
	return []string{
		r.SourceFile,
		r.Category,
		r.Subcategory,
		r.SubcategoryDesc,
		r.Detail,
		formatFloatPtr(r.Value2022),
		formatFloatPtr(r.Value2023),
		r.Comment,
	}
}

// recordColumns is the shared layout of the expense-family extractors.
var recordColumns = []string{
	"source_file",
	"category",
	"subcategory",
	"subcategory_desc",
	"detail",
	"value_2022",
	"value_2023",
	"comment",
}
