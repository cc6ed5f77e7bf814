// Package ingest turns uploaded file bytes into a table.Table.
//
// Accepted formats are CSV (UTF-8 with or without BOM, falling back to
// Shift_JIS), Excel 2007+ workbooks (.xlsx) and legacy Excel workbooks
// (.xls). Only the first worksheet of a workbook is read. The first row
// is the header.
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/reshape/internal/table"
)

var (
	// ErrUnsupportedFileType is returned for extensions other than .csv,
	// .xlsx and .xls.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrEmptyFile is returned when the file has no header row.
	ErrEmptyFile = errors.New("empty file")

	// ErrInvalidFile wraps decoder failures for otherwise supported types.
	ErrInvalidFile = errors.New("invalid file")
)

// Format identifies an accepted upload format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// DetectFormat maps a filename to its Format by extension, case-insensitively.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, filepath.Ext(filename))
	}
}

// Parse decodes data according to filename's extension.
func Parse(filename string, data []byte) (*table.Table, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}
	return ParseFormat(format, data)
}

// ParseFormat decodes data as the given format.
func ParseFormat(format Format, data []byte) (*table.Table, error) {
	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatCSV:
		rows, err = readCSV(data)
	case FormatXLSX:
		rows, err = readXLSX(data)
	case FormatXLS:
		rows, err = readXLS(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, format)
	}
	if err != nil {
		return nil, err
	}
	// Worksheet readers drop trailing empty cells per row, header included,
	// so a workbook is as wide as its widest row.
	return buildTable(rows, format != FormatCSV)
}

// buildTable treats rows[0] as the header and keeps every other row,
// blank ones included, so a table has exactly the file's shape. Header
// names are kept verbatim. Empty names become "Unnamed: N" with N the
// 0-based column position. When widen is set, rows longer than the header
// add unnamed columns instead of being cut.
func buildTable(rows [][]string, widen bool) (*table.Table, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	width := len(rows[0])
	if widen {
		for _, row := range rows[1:] {
			width = max(width, len(row))
		}
	}
	if width == 0 {
		return nil, ErrEmptyFile
	}

	header := make([]string, width)
	copy(header, rows[0])
	for i, h := range header {
		if h == "" {
			header[i] = UnnamedColumn(i)
		}
	}
	return table.FromRecords(header, rows[1:]), nil
}

// UnnamedColumn is the name given to a column with an empty header cell.
func UnnamedColumn(pos int) string {
	return "Unnamed: " + strconv.Itoa(pos)
}
