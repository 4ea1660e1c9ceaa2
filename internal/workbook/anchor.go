package workbook

// Marker anchoring. A marker match is substring containment on normalized,
// upper-cased text: spreadsheet authors wrap, indent, and re-case section
// headers freely, and the anchor's row matters more than its exact cell.

// FindMarkerRow scans rows (capped to window when window > 0) for any cell
// whose normalized, upper-cased text contains the marker. Returns the first
// matching row index.
func FindMarkerRow(sheet *Sheet, marker string, window int) (int, bool) {
	limit := sheet.NumRows()
	if window > 0 && window < limit {
		limit = window
	}
	for row := 0; row < limit; row++ {
		if _, ok := findInRow(sheet, row, marker); ok {
			return row, true
		}
	}
	return 0, false
}

// FindMarkerRowFrom is FindMarkerRow starting at a given row, scanning at most
// window rows from there (all remaining rows when window <= 0).
func FindMarkerRowFrom(sheet *Sheet, marker string, start, window int) (int, bool) {
	limit := sheet.NumRows()
	if window > 0 && start+window < limit {
		limit = start + window
	}
	if start < 0 {
		start = 0
	}
	for row := start; row < limit; row++ {
		if _, ok := findInRow(sheet, row, marker); ok {
			return row, true
		}
	}
	return 0, false
}

// FindMarkerColumn restricts the marker search to a single row and returns the
// matching column index.
func FindMarkerColumn(sheet *Sheet, row int, marker string) (int, bool) {
	return findInRow(sheet, row, marker)
}

// FindBoundedBlock locates a start marker, then scans forward for the end
// marker. When no end marker occurs within maxRows of the start (or maxRows is
// zero), the block extends to the end of the sheet. The returned end row is
// exclusive.
func FindBoundedBlock(sheet *Sheet, startMarker, endMarker string, window, maxRows int) (start, end int, ok bool) {
	start, ok = FindMarkerRow(sheet, startMarker, window)
	if !ok {
		return 0, 0, false
	}
	end = sheet.NumRows()
	if maxRows > 0 && start+maxRows < end {
		end = start + maxRows
	}
	if row, found := FindMarkerRowFrom(sheet, endMarker, start+1, maxRows); found {
		end = row
	}
	return start, end, true
}

func findInRow(sheet *Sheet, row int, marker string) (int, bool) {
	for col, cell := range sheet.Row(row) {
		if cell == "" {
			continue
		}
		if ContainsNormalized(cell, marker) {
			return col, true
		}
	}
	return 0, false
}
