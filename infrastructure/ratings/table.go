// Package ratings reads and writes long-format human rating tables.
//
// A ratings table has one row per (prompt, rater) judgement and at least
// the columns prompt_id, rater_id and rating. Column order is free and
// extra columns are ignored. Tables may be stored as comma-separated,
// tab-separated or Excel (.xlsx) files.
package ratings

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ahrav/gavel-rubric/internal/ports"
)

// Column names of the long ratings format.
const (
	ColumnPromptID = "prompt_id"
	ColumnRaterID  = "rater_id"
	ColumnRating   = "rating"
)

// Format identifies the on-disk encoding of a table.
type Format string

// Supported table formats.
const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// FormatFromPath infers the table format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".tsv", ".tab":
		return FormatTSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", ports.NewLoadError(path, 0, "", fmt.Errorf("%w: %q", ports.ErrUnsupportedFormat, filepath.Ext(path)))
	}
}

// record is one non-blank row together with its 1-based line in the file.
type record struct {
	line  int
	cells []string
}

// table is a header plus the raw rows that follow it. Rows may be shorter
// than the header; missing trailing cells read as empty strings.
type table struct {
	path   string
	header map[string]int
	rows   []record
}

// cell returns the trimmed value of column col in row i.
func (t *table) cell(i int, col string) string {
	idx, ok := t.header[col]
	if !ok || idx >= len(t.rows[i].cells) {
		return ""
	}
	return strings.TrimSpace(t.rows[i].cells[idx])
}

// line returns the 1-based file line of row i.
func (t *table) line(i int) int { return t.rows[i].line }

// require checks that every named column is present in the header.
func (t *table) require(cols ...string) error {
	for _, c := range cols {
		if _, ok := t.header[c]; !ok {
			return ports.NewLoadError(t.path, 1, c, ports.ErrMissingColumn)
		}
	}
	return nil
}

// readTable loads path according to its extension. sheet selects the
// worksheet of an .xlsx file; empty means the first sheet.
func readTable(ctx context.Context, path, sheet string) (*table, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	var raw []record
	switch format {
	case FormatXLSX:
		raw, err = readXLSX(path, sheet)
	case FormatTSV:
		raw, err = readDelimited(ctx, path, '\t')
	default:
		raw, err = readDelimited(ctx, path, ',')
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ports.NewLoadError(path, 0, "", ports.ErrEmptyTable)
	}

	header := make(map[string]int, len(raw[0].cells))
	for i, name := range raw[0].cells {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := header[name]; !dup && name != "" {
			header[name] = i
		}
	}
	return &table{path: path, header: header, rows: raw[1:]}, nil
}

func readDelimited(ctx context.Context, path string, comma rune) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ports.NewLoadError(path, 0, "", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	if comma == '\t' {
		r.LazyQuotes = true
	}

	var rows []record
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, ports.NewLoadError(path, perr.Line, "", perr.Err)
			}
			return nil, ports.NewLoadError(path, 0, "", err)
		}
		if isBlank(rec) {
			continue
		}
		line, _ := r.FieldPos(0)
		rows = append(rows, record{line: line, cells: rec})
	}
}

func readXLSX(path, sheet string) ([]record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, ports.NewLoadError(path, 0, "", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ports.NewLoadError(path, 0, "", ports.ErrEmptyTable)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, ports.NewLoadError(path, 0, "", fmt.Errorf("read sheet %q: %w", sheet, err))
	}

	out := make([]record, 0, len(rows))
	for i, r := range rows {
		if !isBlank(r) {
			out = append(out, record{line: i + 1, cells: r})
		}
	}
	return out, nil
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
