package workbook

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/guardia/roster-control-service/internal/domain"
)

// buildWorkbook serializes a single-sheet workbook with the given cell grid.
func buildWorkbook(t *testing.T, sheet string, rows [][]string) []byte {
	t.Helper()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	fillSheet(t, f, sheet, rows)

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return buf.Bytes()
}

func fillSheet(t *testing.T, f *excelize.File, sheet string, rows [][]string) {
	t.Helper()
	for r, row := range rows {
		for c, val := range row {
			if val == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, val))
		}
	}
}

func TestDetectColumns(t *testing.T) {
	t.Parallel()

	data := buildWorkbook(t, "Lista Guardia", [][]string{
		{"", "JERARQUIA", "APELLIDO Y NOMBRE"},
		{"1", "CABO", "PEREZ JUAN"},
		{"2", "INSPECTOR", "GOMEZ ANA"},
		{"3", "OF AYTE", "DIAZ PEDRO"},
	})

	cols, err := DetectColumnsFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, "Lista Guardia", cols.Sheet)
	assert.Equal(t, 1, cols.Rank)
	assert.Equal(t, 2, cols.Name)
}

func TestDetectColumnsPrefersListaSheet(t *testing.T) {
	t.Parallel()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Notas"))
	_, err := f.NewSheet("lista diaria")
	require.NoError(t, err)

	// Synonyms only on the preferred sheet; the decoy sheet stays empty.
	fillSheet(t, f, "lista diaria", [][]string{
		{"CABO", "PEREZ JUAN"},
		{"AYTE", "GOMEZ ANA"},
	})

	cols, err := DetectColumns(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "lista diaria", cols.Sheet)
	assert.Equal(t, 0, cols.Rank)
	assert.Equal(t, 1, cols.Name)
}

func TestDetectColumnsMostHitsWins(t *testing.T) {
	t.Parallel()

	// One stray synonym in column A, three real ones in column C.
	data := buildWorkbook(t, "lista", [][]string{
		{"cabo suelto", "", "CABO", "PEREZ JUAN"},
		{"", "", "INSPECTOR", "GOMEZ ANA"},
		{"", "", "COMANDANTE", "DIAZ PEDRO"},
	})

	cols, err := DetectColumnsFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, 2, cols.Rank)
	assert.Equal(t, 3, cols.Name)
}

func TestDetectColumnsNotFound(t *testing.T) {
	t.Parallel()

	data := buildWorkbook(t, "lista", [][]string{
		{"numero", "apellido"},
		{"1", "PEREZ JUAN"},
	})

	_, err := DetectColumnsFromBytes(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrColumnsNotFound))
}

func TestDetectColumnsScanWindowBounded(t *testing.T) {
	t.Parallel()

	// Synonyms below the scan window must not count.
	rows := make([][]string, maxScanRows+5)
	for i := range rows {
		rows[i] = []string{"x", "y"}
	}
	rows[maxScanRows+2] = []string{"CABO", "PEREZ JUAN"}
	data := buildWorkbook(t, "lista", rows)

	_, err := DetectColumnsFromBytes(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrColumnsNotFound))
}
