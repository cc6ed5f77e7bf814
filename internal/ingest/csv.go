package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Encoding names the text encoding a CSV upload was decoded from.
type Encoding string

const (
	EncodingUTF8     Encoding = "utf-8"
	EncodingShiftJIS Encoding = "shift_jis"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// DecodeText returns data as UTF-8. A leading UTF-8 BOM is removed. Input
// that is not valid UTF-8 is decoded as Shift_JIS.
func DecodeText(data []byte) ([]byte, Encoding, error) {
	data = bytes.TrimPrefix(data, bom)
	if utf8.Valid(data) {
		return data, EncodingUTF8, nil
	}

	decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	if err != nil {
		return nil, "", fmt.Errorf("%w: encoding error: %v", ErrInvalidFile, err)
	}
	return decoded, EncodingShiftJIS, nil
}

// readCSV decodes and splits data into records. Rows may have differing
// field counts.
func readCSV(data []byte) ([][]string, error) {
	text, _, err := DecodeText(data)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(text)) == 0 {
		return nil, ErrEmptyFile
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: invalid csv: %v", ErrInvalidFile, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
