package workbook

import (
	"bytes"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/guardia/roster-control-service/internal/domain"
	"github.com/guardia/roster-control-service/internal/normalize"
)

// rankAbbreviations compacts canonical rank names to the convention of the
// destination sheet before they are written into inserted rows. Applied in
// order, all occurrences.
var rankAbbreviations = []struct {
	Full  string
	Short string
}{
	{"OFICIAL", "OF"},
	{"AYUDANTE", "AYTE"},
	{"PRINCIPAL", "PPAL"},
	{"INSPECTOR", "INSP"},
	{"COMANDANTE", "CDO"},
	{"PRIMERO", "1RO"},
}

// AbbreviateRank rewrites a canonical rank using the destination sheet's
// compact convention, e.g. "OFICIAL PRINCIPAL" -> "OF PPAL".
func AbbreviateRank(rank string) string {
	out := strings.ToUpper(strings.TrimSpace(rank))
	for _, a := range rankAbbreviations {
		out = strings.ReplaceAll(out, a.Full, a.Short)
	}
	return out
}

// Config holds the mutation constants.
type Config struct {
	// AnchorMarker is the fixed text of the row below which new records are
	// inserted.
	AnchorMarker string

	// HighlightColor is the ARGB fill applied to every touched cell.
	HighlightColor string
}

// DefaultConfig returns the mutation constants used in production sheets.
func DefaultConfig() Config {
	return Config{
		AnchorMarker:   "PERSONAL AGREGADO",
		HighlightColor: "FFFF00",
	}
}

// Plan describes the deltas to apply to a workbook.
type Plan struct {
	// Delete holds names to blank out, already normalized.
	Delete []string

	// Insert holds records to add below the anchor row. Empty means
	// delete-only mode; the anchor is not required then.
	Insert []domain.RawEntry
}

// Mutator applies a Plan to an uploaded workbook. Apply never modifies the
// input bytes: it operates on an in-memory copy and returns a fresh buffer,
// so repeated downloads from the same upload stay consistent.
type Mutator struct {
	cfg    Config
	logger zerolog.Logger
}

// NewMutator creates a Mutator.
func NewMutator(cfg Config, logger zerolog.Logger) *Mutator {
	if cfg.AnchorMarker == "" {
		cfg.AnchorMarker = DefaultConfig().AnchorMarker
	}
	if cfg.HighlightColor == "" {
		cfg.HighlightColor = DefaultConfig().HighlightColor
	}
	return &Mutator{
		cfg:    cfg,
		logger: logger.With().Str("component", "workbook-mutator").Logger(),
	}
}

// Apply executes the plan and returns the mutated workbook bytes. Any
// column-detection, anchor, or structural failure yields a typed error and no
// output, never a partially mutated file.
func (m *Mutator) Apply(src []byte, plan Plan) ([]byte, error) {
	f, err := excelize.OpenReader(bytes.NewReader(src))
	if err != nil {
		return nil, domain.NewMutationError("open workbook", err)
	}
	defer func() { _ = f.Close() }()

	cols, err := DetectColumns(f)
	if err != nil {
		return nil, err
	}

	type cellRef struct{ row, col int }
	var touched []cellRef

	// Insertion first so that later row scans work on final coordinates.
	insertedFrom, insertedTo := 0, -1
	if len(plan.Insert) > 0 {
		anchor, found, err := m.findAnchor(f, cols.Sheet)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, domain.ErrAnchorNotFound
		}

		if err := f.InsertRows(cols.Sheet, anchor, len(plan.Insert)); err != nil {
			return nil, domain.NewMutationError("insert rows", err)
		}
		insertedFrom, insertedTo = anchor, anchor+len(plan.Insert)-1

		templateRow := anchor - 1
		for i, rec := range plan.Insert {
			row := anchor + i
			if templateRow >= 1 {
				if err := m.copyRowLayout(f, cols.Sheet, templateRow, row); err != nil {
					return nil, err
				}
			}
			rankCell, _ := excelize.CoordinatesToCellName(cols.Rank+1, row)
			nameCell, _ := excelize.CoordinatesToCellName(cols.Name+1, row)
			if err := f.SetCellValue(cols.Sheet, rankCell, AbbreviateRank(normalize.Rank(rec.Rank))); err != nil {
				return nil, domain.NewMutationError("write rank", err)
			}
			if err := f.SetCellValue(cols.Sheet, nameCell, rec.Name); err != nil {
				return nil, domain.NewMutationError("write name", err)
			}
			touched = append(touched, cellRef{row, cols.Rank + 1}, cellRef{row, cols.Name + 1})
		}
	}

	// Deletion: blank the rank and name cells of every row whose normalized
	// name is in the deletion set. Freshly inserted rows are skipped.
	if len(plan.Delete) > 0 {
		deleteSet := make(map[string]bool, len(plan.Delete))
		for _, name := range plan.Delete {
			if n := normalize.Name(name); n != "" {
				deleteSet[n] = true
			}
		}

		rows, err := f.GetRows(cols.Sheet)
		if err != nil {
			return nil, domain.NewMutationError("read rows", err)
		}
		for r, row := range rows {
			rowNum := r + 1
			if rowNum >= insertedFrom && rowNum <= insertedTo {
				continue
			}
			if cols.Name >= len(row) {
				continue
			}
			if !deleteSet[normalize.Name(row[cols.Name])] {
				continue
			}
			rankCell, _ := excelize.CoordinatesToCellName(cols.Rank+1, rowNum)
			nameCell, _ := excelize.CoordinatesToCellName(cols.Name+1, rowNum)
			if err := f.SetCellValue(cols.Sheet, rankCell, ""); err != nil {
				return nil, domain.NewMutationError("clear rank", err)
			}
			if err := f.SetCellValue(cols.Sheet, nameCell, ""); err != nil {
				return nil, domain.NewMutationError("clear name", err)
			}
			touched = append(touched, cellRef{rowNum, cols.Rank + 1}, cellRef{rowNum, cols.Name + 1})
		}
	}

	// Highlight last, after the template-style copy, so the copied style
	// cannot overwrite the marker fill. Fills on merged cells must target the
	// merge anchor to be visible.
	merges, err := m.readMerges(f, cols.Sheet)
	if err != nil {
		return nil, err
	}
	for _, c := range touched {
		row, col := MergeAnchor(c.row, c.col, merges)
		if err := m.highlightCell(f, cols.Sheet, row, col); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, domain.NewMutationError("serialize workbook", err)
	}

	m.logger.Debug().
		Str("sheet", cols.Sheet).
		Int("deleted", len(plan.Delete)).
		Int("inserted", len(plan.Insert)).
		Int("cells_touched", len(touched)).
		Msg("workbook mutation applied")

	return buf.Bytes(), nil
}

// findAnchor returns the one-based row whose cells contain the anchor marker.
func (m *Mutator) findAnchor(f *excelize.File, sheet string) (int, bool, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, false, domain.NewMutationError("read rows", err)
	}
	marker := strings.ToUpper(m.cfg.AnchorMarker)
	for r, row := range rows {
		for _, cell := range row {
			if strings.Contains(strings.ToUpper(cell), marker) {
				return r + 1, true, nil
			}
		}
	}
	return 0, false, nil
}

// copyRowLayout copies cell styles and the row height from the template row
// onto a freshly inserted row.
func (m *Mutator) copyRowLayout(f *excelize.File, sheet string, templateRow, row int) error {
	for col := 1; col <= maxScanColumns; col++ {
		srcCell, _ := excelize.CoordinatesToCellName(col, templateRow)
		dstCell, _ := excelize.CoordinatesToCellName(col, row)
		styleID, err := f.GetCellStyle(sheet, srcCell)
		if err != nil {
			return domain.NewMutationError("read template style", err)
		}
		if err := f.SetCellStyle(sheet, dstCell, dstCell, styleID); err != nil {
			return domain.NewMutationError("copy template style", err)
		}
	}
	height, err := f.GetRowHeight(sheet, templateRow)
	if err != nil {
		return domain.NewMutationError("read template row height", err)
	}
	if err := f.SetRowHeight(sheet, row, height); err != nil {
		return domain.NewMutationError("copy row height", err)
	}
	return nil
}

// highlightCell applies the marker fill on top of the cell's existing style.
func (m *Mutator) highlightCell(f *excelize.File, sheet string, row, col int) error {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		return domain.NewMutationError("read cell style", err)
	}
	style, err := f.GetStyle(styleID)
	if err != nil {
		return domain.NewMutationError("resolve cell style", err)
	}
	if style == nil {
		style = &excelize.Style{}
	}
	style.Fill = excelize.Fill{
		Type:    "pattern",
		Pattern: 1,
		Color:   []string{m.cfg.HighlightColor},
	}
	highlighted, err := f.NewStyle(style)
	if err != nil {
		return domain.NewMutationError("create highlight style", err)
	}
	if err := f.SetCellStyle(sheet, cell, cell, highlighted); err != nil {
		return domain.NewMutationError("apply highlight", err)
	}
	return nil
}

// readMerges loads the sheet's merged ranges into coordinate form.
func (m *Mutator) readMerges(f *excelize.File, sheet string) ([]MergeRange, error) {
	cells, err := f.GetMergeCells(sheet)
	if err != nil {
		return nil, domain.NewMutationError("read merged cells", err)
	}
	ranges := make([]MergeRange, 0, len(cells))
	for _, mc := range cells {
		startCol, startRow, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
		if err != nil {
			continue
		}
		endCol, endRow, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
		if err != nil {
			continue
		}
		ranges = append(ranges, MergeRange{
			StartRow: startRow,
			StartCol: startCol,
			EndRow:   endRow,
			EndCol:   endCol,
		})
	}
	return ranges, nil
}
