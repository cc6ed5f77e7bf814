package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/JonMunkholm/reshape/internal/table"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
		wantErr  bool
	}{
		{"upload.csv", FormatCSV, false},
		{"UPLOAD.CSV", FormatCSV, false},
		{"book.xlsx", FormatXLSX, false},
		{"legacy.xls", FormatXLS, false},
		{"notes.txt", "", true},
		{"archive.csv.zip", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := DetectFormat(tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFileType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_CSVWithBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("機種,検定番号\nX,1\nY,\n")...)

	tbl, err := Parse("a.csv", data)
	require.NoError(t, err)

	assert.Equal(t, []string{"機種", "検定番号"}, tbl.Names())
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, table.String("X"), tbl.Cell(0, 0))
	assert.True(t, tbl.Cell(1, 1).IsNull())
}

func TestParse_CSVShiftJISFallback(t *testing.T) {
	src := "顧客ID,商品名\nC1,りんご\n"
	sjis, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte(src))
	require.NoError(t, err)
	require.NotEqual(t, []byte(src), sjis)

	text, enc, err := DecodeText(sjis)
	require.NoError(t, err)
	assert.Equal(t, EncodingShiftJIS, enc)
	assert.Equal(t, src, string(text))

	tbl, err := Parse("sjis.csv", sjis)
	require.NoError(t, err)
	assert.Equal(t, []string{"顧客ID", "商品名"}, tbl.Names())
	assert.Equal(t, table.String("りんご"), tbl.Cell(0, 1))
}

func TestParse_CSVRaggedRows(t *testing.T) {
	tbl, err := Parse("r.csv", []byte("a,b,c\n1\n1,2,3,4\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Width())
	assert.True(t, tbl.Cell(0, 2).IsNull())
	assert.Equal(t, table.String("3"), tbl.Cell(1, 2))
}

func TestParse_CSVKeepsBlankRowsAndHeaders(t *testing.T) {
	tbl, err := Parse("t.csv", []byte(" a ,,c\n1,2,3\n,,\n,,\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{" a ", "Unnamed: 1", "c"}, tbl.Names())
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, table.String("2"), tbl.Cell(0, 1))
	for c := 0; c < 3; c++ {
		assert.True(t, tbl.Cell(2, c).IsNull())
	}
}

func TestParse_Empty(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("\xEF\xBB\xBF"), []byte("\n\n")} {
		_, err := Parse("e.csv", data)
		assert.ErrorIs(t, err, ErrEmptyFile)
	}
}

func TestParse_Unsupported(t *testing.T) {
	_, err := Parse("data.json", []byte("{}"))
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestParse_XLSXFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"ID", "Name", "Value"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"1", "alpha", 10}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"2", nil, 20}))

	_, err := f.NewSheet("Second")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Second", "A1", &[]interface{}{"ignored"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	tbl, err := Parse("book.xlsx", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "Name", "Value"}, tbl.Names())
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, table.String("10"), tbl.Cell(0, 2))
	assert.True(t, tbl.Cell(1, 1).IsNull())
}

func TestParse_XLSXWidensToLongestRow(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"ID", "Name"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"1", "a", "note"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	tbl, err := Parse("wide.xlsx", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "Name", "Unnamed: 2"}, tbl.Names())
	assert.Equal(t, table.String("note"), tbl.Cell(0, 2))
}

func TestParse_XLSFirstSheet(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "first_sheet.xls"))
	require.NoError(t, err)

	tbl, err := Parse("legacy.XLS", data)
	require.NoError(t, err)

	assert.Equal(t, []string{"ID", "名前", "Value"}, tbl.Names())
	require.Equal(t, 4, tbl.Len())

	_, records := tbl.Records()
	assert.Equal(t, [][]string{
		{"1", "alpha", "10.5"},
		{"2", "", "20"},
		{"", "", ""},
		{"", "omega", ""},
	}, records)

	// gap cell inside a row
	assert.True(t, tbl.Cell(1, 1).IsNull())
	// row with no record
	for c := 0; c < tbl.Width(); c++ {
		assert.True(t, tbl.Cell(2, c).IsNull())
	}
	// row whose first used column is not the first column
	assert.True(t, tbl.Cell(3, 0).IsNull())
	assert.Equal(t, table.String("omega"), tbl.Cell(3, 1))

	_, ok := tbl.Column("ignored")
	assert.False(t, ok, "second worksheet must not be read")
}

func TestParse_XLSGarbage(t *testing.T) {
	_, err := Parse("bad.xls", []byte("not an ole2 container, padded to a full header block"))
	assert.ErrorIs(t, err, ErrInvalidFile)
}

func TestParse_XLSXGarbage(t *testing.T) {
	_, err := Parse("bad.xlsx", []byte("not a zip"))
	assert.ErrorIs(t, err, ErrInvalidFile)
}
