package workbook

import (
	"strconv"
	"strings"
	"time"
)

// Value coercion for the German accounting formats used across the reports.
// Coercion never fails hard: an unparsable cell yields (zero, false) and the
// caller decides whether a null is acceptable. Accepting partial nulls is
// safer than aborting a whole file over one bad cell.

const dateLayout = "02.01.2006"

// Numeric parses a cell as a float, tolerating currency symbols, thousands
// separators, and the German decimal comma ("1.234,56 €" -> 1234.56).
func Numeric(raw string) (float64, bool) {
	s := Normalize(raw)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, "EUR", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, ",") {
		// German format: "." is a thousands separator, "," the decimal point.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Int parses a cell as an integer, accepting float-formatted whole numbers
// ("5,0" counts as 5).
func Int(raw string) (int64, bool) {
	v, ok := Numeric(raw)
	if !ok {
		return 0, false
	}
	return int64(v), true
}

// Boolean recognizes the ja/nein tokens only; anything else is a null.
func Boolean(raw string) (bool, bool) {
	switch strings.ToLower(Normalize(raw)) {
	case "ja":
		return true, true
	case "nein":
		return false, true
	}
	return false, false
}

// Date parses the single expected day-first pattern (dd.mm.yyyy).
func Date(raw string) (time.Time, bool) {
	s := Normalize(raw)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Percent parses a percentage cell and returns it as a fraction. Cells with
// an explicit "%" suffix are divided by 100 ("85%" -> 0.85); bare numbers are
// taken as already-fractional ("0.85" -> 0.85), which is how unformatted
// percentage cells come back from the grid. Whether a column is a percentage
// field at all is decided by the structure spec, not inferred from the value.
func Percent(raw string) (float64, bool) {
	s := Normalize(raw)
	hadSuffix := strings.HasSuffix(s, "%")
	v, ok := Numeric(strings.TrimSuffix(s, "%"))
	if !ok {
		return 0, false
	}
	if hadSuffix {
		return v / 100, true
	}
	return v, true
}
