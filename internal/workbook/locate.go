package workbook

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	kerrors "kitacli/internal/errors"
)

// MatchMode selects how sheet patterns are applied.
type MatchMode int

const (
	// MatchExact matches when a sheet name case-insensitively equals a pattern.
	MatchExact MatchMode = iota
	// MatchContains matches when a pattern is a case-insensitive substring of
	// the sheet name, or (with ContentScan) of any cell within the scan window.
	MatchContains
	// MatchFuzzyTokenSet matches when the token-set similarity between the
	// normalized pattern and a designated anchor cell meets the threshold.
	MatchFuzzyTokenSet
)

const (
	// DefaultScanRows caps content scans to the top of each sheet.
	DefaultScanRows = 50
	// DefaultFuzzyThreshold is the minimum token-set ratio (0-100) for a
	// fuzzy sheet match.
	DefaultFuzzyThreshold = 80

	// excludedSheetName is boilerplate present in every submission and never
	// holds data.
	excludedSheetName = "INFORMATION"
)

// SheetQuery describes what to look for and how.
type SheetQuery struct {
	Patterns    []string
	Mode        MatchMode
	ContentScan bool // MatchContains only: search cell contents, not the name
	ScanRows    int  // rows scanned per sheet for content/fuzzy modes
	Threshold   int  // MatchFuzzyTokenSet only; DefaultFuzzyThreshold when zero
	AnchorRow   int  // MatchFuzzyTokenSet only: cell compared against patterns
	AnchorCol   int
}

func (q SheetQuery) scanRows() int {
	if q.ScanRows > 0 {
		return q.ScanRows
	}
	return DefaultScanRows
}

func (q SheetQuery) threshold() int {
	if q.Threshold > 0 {
		return q.Threshold
	}
	return DefaultFuzzyThreshold
}

// FindSheet returns the first sheet (in workbook order) matching the query.
// Pattern order is a priority order: for each sheet every pattern is tried
// before moving on. Fails with a NoMatchingSheet error when nothing matches.
func FindSheet(wb *Workbook, q SheetQuery) (string, error) {
	matches := findSheets(wb, q, true)
	if len(matches) == 0 {
		return "", kerrors.NewNoMatchingSheet(q.Patterns, wb.SheetNames())
	}
	return matches[0], nil
}

// FindSheets returns all matching sheets in workbook order. Used by the
// asset-register-style extractors that process a repeated block per sheet.
func FindSheets(wb *Workbook, q SheetQuery) ([]string, error) {
	matches := findSheets(wb, q, false)
	if len(matches) == 0 {
		return nil, kerrors.NewNoMatchingSheet(q.Patterns, wb.SheetNames())
	}
	return matches, nil
}

func findSheets(wb *Workbook, q SheetQuery, firstOnly bool) []string {
	var matches []string
	for _, sheet := range wb.Sheets() {
		if strings.EqualFold(Normalize(sheet.Name), excludedSheetName) {
			continue
		}
		if sheetMatches(sheet, q) {
			matches = append(matches, sheet.Name)
			if firstOnly {
				return matches
			}
		}
	}
	return matches
}

func sheetMatches(sheet *Sheet, q SheetQuery) bool {
	switch q.Mode {
	case MatchExact:
		for _, p := range q.Patterns {
			if strings.EqualFold(Normalize(sheet.Name), Normalize(p)) {
				return true
			}
		}
	case MatchContains:
		if q.ContentScan {
			return sheetContentContains(sheet, q.Patterns, q.scanRows())
		}
		name := NormalizeUpper(sheet.Name)
		for _, p := range q.Patterns {
			if strings.Contains(name, NormalizeUpper(p)) {
				return true
			}
		}
	case MatchFuzzyTokenSet:
		anchor := Normalize(sheet.Cell(q.AnchorRow, q.AnchorCol))
		if anchor == "" {
			return false
		}
		for _, p := range q.Patterns {
			if fuzzy.TokenSetRatio(NormalizeUpper(p), strings.ToUpper(anchor)) >= q.threshold() {
				return true
			}
		}
	}
	return false
}

// sheetContentContains scans the first window rows of a sheet for any cell
// containing one of the patterns.
func sheetContentContains(sheet *Sheet, patterns []string, window int) bool {
	limit := sheet.NumRows()
	if window < limit {
		limit = window
	}
	for row := 0; row < limit; row++ {
		for _, cell := range sheet.Row(row) {
			if cell == "" {
				continue
			}
			upper := NormalizeUpper(cell)
			for _, p := range patterns {
				if strings.Contains(upper, NormalizeUpper(p)) {
					return true
				}
			}
		}
	}
	return false
}
