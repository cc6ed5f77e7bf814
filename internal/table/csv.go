package table

import (
	"encoding/csv"
	"fmt"
	"io"
)

// utf8BOM is written ahead of CSV output so spreadsheet programs detect
// the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes t as UTF-8 CSV with a leading byte order mark. The first
// record is the header; nulls are written as empty fields.
func WriteCSV(w io.Writer, t *Table) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	header, rows := t.Records()
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}
