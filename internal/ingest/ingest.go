// Package ingest turns pasted roster text and uploaded roster files into
// ordered (rank, name) raw pairs for the matching engine.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/xuri/excelize/v2"

	"github.com/guardia/roster-control-service/internal/domain"
	"github.com/guardia/roster-control-service/internal/workbook"
)

// Header keywords mark a first row as a header rather than data. The
// substring tier runs over every cell; the single-typo tier is positional
// (rank keywords against the rank cell, name keywords against the name cell)
// so a data cell one edit away from a keyword, like the surname "Prado"
// against "grado", is not taken for a header.
var (
	rankHeaderKeywords = []string{"jerarquia", "jerarquía", "grado"}
	nameHeaderKeywords = []string{"apellido", "nombre"}
	headerKeywords     = append(append([]string{}, rankHeaderKeywords...), nameHeaderKeywords...)
)

// candidateDelimiters are tried in order against the first line of pasted
// text. Tab first: both rosters are usually copied out of a spreadsheet.
var candidateDelimiters = []string{"\t", ";", ","}

// ParseText parses a pasted delimiter-separated block into raw roster
// entries. The first row is skipped when it looks like a header. Rows with
// fewer than two columns fail the whole source.
func ParseText(source domain.RosterSource, text string) ([]domain.RawEntry, error) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, domain.NewIngestionError(source, "empty input")
	}

	delim := detectDelimiter(lines[0])
	if delim == "" {
		return nil, domain.NewIngestionError(source, "fewer than two columns found")
	}

	entries := make([]domain.RawEntry, 0, len(lines))
	for i, line := range lines {
		fields := strings.Split(line, delim)
		if i == 0 && IsHeaderRow(fields) {
			continue
		}
		if len(fields) < 2 {
			return nil, domain.NewIngestionError(source, "fewer than two columns found")
		}
		rank := strings.TrimSpace(fields[0])
		name := strings.TrimSpace(fields[1])
		if rank == "" && name == "" {
			continue
		}
		entries = append(entries, domain.RawEntry{Rank: rank, Name: name})
	}

	if len(entries) == 0 {
		return nil, domain.NewIngestionError(source, "no data rows")
	}
	return entries, nil
}

// ParseFile parses an uploaded roster file. CSV content is read positionally
// (first two columns); spreadsheet content goes through rank-column
// auto-detection.
func ParseFile(source domain.RosterSource, filename string, data []byte) ([]domain.RawEntry, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return parseCSV(source, data)
	}
	return parseWorkbook(source, data)
}

// IsHeaderRow reports whether the row's cells look like roster column
// headers. A cell matches a keyword exactly or as a substring; the rank and
// name cells additionally match their own keywords within one edit
// (tolerating headers like "jerarqia").
func IsHeaderRow(fields []string) bool {
	for _, f := range fields {
		cell := strings.ToLower(strings.TrimSpace(f))
		if cell == "" {
			continue
		}
		for _, kw := range headerKeywords {
			if strings.Contains(cell, kw) {
				return true
			}
		}
	}
	if len(fields) > 0 && withinOneEdit(fields[0], rankHeaderKeywords) {
		return true
	}
	if len(fields) > 1 && withinOneEdit(fields[1], nameHeaderKeywords) {
		return true
	}
	return false
}

func withinOneEdit(field string, keywords []string) bool {
	cell := strings.ToLower(strings.TrimSpace(field))
	if cell == "" {
		return false
	}
	for _, kw := range keywords {
		if levenshtein.ComputeDistance(cell, kw) <= 1 {
			return true
		}
	}
	return false
}

func parseCSV(source domain.RosterSource, data []byte) ([]domain.RawEntry, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	entries := make([]domain.RawEntry, 0)
	first := true
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.NewIngestionError(source, "malformed CSV: "+err.Error())
		}
		if first {
			first = false
			if IsHeaderRow(fields) {
				continue
			}
		}
		if len(fields) < 2 {
			return nil, domain.NewIngestionError(source, "fewer than two columns found")
		}
		rank := strings.TrimSpace(fields[0])
		name := strings.TrimSpace(fields[1])
		if rank == "" && name == "" {
			continue
		}
		entries = append(entries, domain.RawEntry{Rank: rank, Name: name})
	}

	if len(entries) == 0 {
		return nil, domain.NewIngestionError(source, "no data rows")
	}
	return entries, nil
}

func parseWorkbook(source domain.RosterSource, data []byte) ([]domain.RawEntry, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, domain.NewIngestionError(source, "cannot open workbook: "+err.Error())
	}
	defer func() { _ = f.Close() }()

	cols, err := workbook.DetectColumns(f)
	if err != nil {
		// Column detection failure is reported distinctly from generic
		// ingestion failure.
		return nil, err
	}

	rows, err := f.GetRows(cols.Sheet)
	if err != nil {
		return nil, domain.NewIngestionError(source, "cannot read rows: "+err.Error())
	}

	entries := make([]domain.RawEntry, 0, len(rows))
	for _, row := range rows {
		var rank, name string
		if cols.Rank < len(row) {
			rank = strings.TrimSpace(row[cols.Rank])
		}
		if cols.Name < len(row) {
			name = strings.TrimSpace(row[cols.Name])
		}
		if rank == "" && name == "" {
			continue
		}
		entries = append(entries, domain.RawEntry{Rank: rank, Name: name})
	}

	if len(entries) == 0 {
		return nil, domain.NewIngestionError(source, "no data rows")
	}
	return entries, nil
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func detectDelimiter(firstLine string) string {
	for _, d := range candidateDelimiters {
		if strings.Contains(firstLine, d) {
			return d
		}
	}
	return ""
}
