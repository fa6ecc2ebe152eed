package workbook

// MergeRange is one merged-cell region in axis-free coordinates, rows and
// columns one-based, end inclusive.
type MergeRange struct {
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int
}

// Contains reports whether (row, col) lies inside the range.
func (m MergeRange) Contains(row, col int) bool {
	return row >= m.StartRow && row <= m.EndRow && col >= m.StartCol && col <= m.EndCol
}

// MergeAnchor resolves a cell to the top-left anchor of the merged region it
// belongs to, or to itself when unmerged. Spreadsheet renderers only show
// fills applied to the anchor of a merge, so every styling operation must go
// through this lookup first. Pure function of (row, col, ranges).
func MergeAnchor(row, col int, ranges []MergeRange) (int, int) {
	for _, m := range ranges {
		if m.Contains(row, col) {
			return m.StartRow, m.StartCol
		}
	}
	return row, col
}
