// Package workbook locates the rank/name columns of an uploaded roster
// workbook and applies computed deltas to a copy of it, preserving cell
// formatting, merged ranges, and row layout.
package workbook

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/guardia/roster-control-service/internal/domain"
	"github.com/guardia/roster-control-service/internal/normalize"
)

// Column scan bounds. Roster sheets put the rank column well inside the first
// screen of the document; scanning further only picks up footers and legends.
const (
	maxScanColumns = 20
	maxScanRows    = 40
)

// preferredSheetMarker selects the roster sheet when a workbook has several.
const preferredSheetMarker = "lista"

// Columns holds the detected rank/name column positions (zero-based) of a
// sheet.
type Columns struct {
	Sheet string `json:"sheet"`
	Rank  int    `json:"rank"`
	Name  int    `json:"name"`
}

// DetectColumns scans the roster sheet for the column with the most
// rank-synonym hits and takes the column immediately to its right as the name
// column. It returns domain.ErrColumnsNotFound when no cell in the scan
// window contains a recognizable rank.
func DetectColumns(f *excelize.File) (Columns, error) {
	sheet := pickSheet(f)
	if sheet == "" {
		return Columns{}, domain.ErrColumnsNotFound
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return Columns{}, domain.NewMutationError("read rows", err)
	}

	counts := make([]int, maxScanColumns)
	for r, row := range rows {
		if r >= maxScanRows {
			break
		}
		for c, cell := range row {
			if c >= maxScanColumns {
				break
			}
			if containsRankSynonym(cell) {
				counts[c]++
			}
		}
	}

	best, bestCount := -1, 0
	for c, n := range counts {
		if n > bestCount {
			best, bestCount = c, n
		}
	}
	if best < 0 {
		return Columns{}, domain.ErrColumnsNotFound
	}

	return Columns{Sheet: sheet, Rank: best, Name: best + 1}, nil
}

// DetectColumnsFromBytes runs DetectColumns over an in-memory workbook.
func DetectColumnsFromBytes(data []byte) (Columns, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Columns{}, domain.NewMutationError("open workbook", err)
	}
	defer func() { _ = f.Close() }()
	return DetectColumns(f)
}

// pickSheet prefers a sheet named for the roster, falling back to the first.
func pickSheet(f *excelize.File) string {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}
	for _, s := range sheets {
		if strings.Contains(strings.ToLower(s), preferredSheetMarker) {
			return s
		}
	}
	return sheets[0]
}

func containsRankSynonym(cell string) bool {
	lowered := strings.ToLower(strings.TrimSpace(cell))
	if lowered == "" {
		return false
	}
	for _, syn := range normalize.RankSynonyms() {
		if strings.Contains(lowered, syn.Pattern) {
			return true
		}
	}
	return false
}
