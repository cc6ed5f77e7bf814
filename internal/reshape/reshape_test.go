package reshape

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/reshape/internal/table"
)

func templateTable(t *testing.T, rows int) *table.Table {
	t.Helper()
	header := []string{"店舗", "区分", "番号", "機種名", "検定番号", "備考"}
	records := make([][]string, rows)
	for i := range records {
		records[i] = []string{"双葉", "A", string(rune('0' + i)), "old", "old", "memo"}
	}
	records[0] = []string{"title", "", "", "機種", "検定", ""}
	return table.FromRecords(header, records)
}

func uploadTable(machines, certs []string) *table.Table {
	header := []string{"No", ColumnMachineType, ColumnCertificationNumber}
	records := make([][]string, len(machines))
	for i := range machines {
		records[i] = []string{"x", machines[i], certs[i]}
	}
	return table.FromRecords(header, records)
}

func TestOverwrite_PositionalRows(t *testing.T) {
	tmpl := templateTable(t, 5)
	up := uploadTable([]string{"X", "Y", "Z"}, []string{"1", "2", "3"})

	out, err := Overwrite(tmpl, up, DefaultOverwritePlan())
	require.NoError(t, err)

	assert.Equal(t, tmpl.Len(), out.Len())
	assert.Equal(t, tmpl.Names(), out.Names())

	for row := 0; row < 2; row++ {
		for col := 0; col < tmpl.Width(); col++ {
			assert.Equal(t, tmpl.Cell(row, col), out.Cell(row, col), "row %d col %d", row, col)
		}
	}

	wantMachine := []string{"X", "Y", "Z"}
	wantCert := []string{"1", "2", "3"}
	for i, row := range []int{2, 3, 4} {
		assert.Equal(t, table.String(wantMachine[i]), out.Cell(row, 3))
		assert.Equal(t, table.String(wantCert[i]), out.Cell(row, 4))
		for _, col := range []int{0, 1, 2, 5} {
			assert.Equal(t, tmpl.Cell(row, col), out.Cell(row, col))
		}
	}
}

func TestOverwrite_DoesNotMutateTemplate(t *testing.T) {
	tmpl := templateTable(t, 4)
	before := tmpl.Clone()

	_, err := Overwrite(tmpl, uploadTable([]string{"X", "Y"}, []string{"1", "2"}), DefaultOverwritePlan())
	require.NoError(t, err)
	assert.True(t, tmpl.Equal(before))
}

func TestOverwrite_ExtraUploadRowsIgnored(t *testing.T) {
	tmpl := templateTable(t, 3)
	up := uploadTable([]string{"X", "Y", "Z"}, []string{"1", "2", "3"})

	out, err := Overwrite(tmpl, up, DefaultOverwritePlan())
	require.NoError(t, err)
	assert.Equal(t, 3, out.Len())
	assert.Equal(t, table.String("X"), out.Cell(2, 3))
}

func TestOverwrite_NullsCarryOver(t *testing.T) {
	tmpl := templateTable(t, 3)
	up := table.FromRecords([]string{ColumnMachineType, ColumnCertificationNumber}, [][]string{{"", "9"}})

	out, err := Overwrite(tmpl, up, DefaultOverwritePlan())
	require.NoError(t, err)
	assert.True(t, out.Cell(2, 3).IsNull())
	assert.Equal(t, table.String("9"), out.Cell(2, 4))
}

func TestOverwrite_MissingColumn(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		missing string
	}{
		{"no machine type", []string{ColumnCertificationNumber}, ColumnMachineType},
		{"no certification number", []string{ColumnMachineType}, ColumnCertificationNumber},
		{"neither", []string{"other"}, ColumnMachineType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := table.FromRecords(tt.header, [][]string{{"a"}, {"b"}, {"c"}})
			_, err := Overwrite(templateTable(t, 5), up, DefaultOverwritePlan())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissingColumn)

			var mce *MissingColumnError
			require.True(t, errors.As(err, &mce))
			assert.Equal(t, tt.missing, mce.Column)
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestOverwrite_ShortUpload(t *testing.T) {
	_, err := Overwrite(templateTable(t, 5), uploadTable([]string{"X"}, []string{"1"}), DefaultOverwritePlan())
	assert.ErrorIs(t, err, ErrRowCount)
}

func TestOverwrite_TargetOutOfRange(t *testing.T) {
	narrow := table.FromRecords([]string{"a", "b"}, [][]string{{"1", "2"}, {"3", "4"}, {"5", "6"}})
	_, err := Overwrite(narrow, uploadTable([]string{"X"}, []string{"1"}), DefaultOverwritePlan())
	assert.ErrorIs(t, err, ErrTargetOutOfRange)
}

func TestOverwrite_TemplateShorterThanSkip(t *testing.T) {
	tmpl := templateTable(t, 1)
	out, err := Overwrite(tmpl, uploadTable(nil, nil), DefaultOverwritePlan())
	require.NoError(t, err)
	assert.True(t, out.Equal(tmpl))
}

func referenceSchema(t *testing.T) Schema {
	t.Helper()
	s, err := NewSchema([]string{"ID", "Name", "Value", "Date"}, DefaultRename())
	require.NoError(t, err)
	return s
}

func TestConform_EndToEnd(t *testing.T) {
	up := table.FromRecords(
		[]string{"顧客ID", "商品名", "数量"},
		[][]string{{"C1", "りんご", "3"}, {"C2", "みかん", "5"}},
	)

	out, report, err := Conform(up, referenceSchema(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"ID", "Name", "Value", "Date"}, out.Names())
	assert.Equal(t, 2, out.Len())

	id, _ := out.Column("ID")
	assert.Equal(t, []table.Cell{table.String("C1"), table.String("C2")}, id.Cells)
	name, _ := out.Column("Name")
	assert.Equal(t, []table.Cell{table.String("りんご"), table.String("みかん")}, name.Cells)
	value, _ := out.Column("Value")
	assert.Equal(t, []table.Cell{table.String("3"), table.String("5")}, value.Cells)

	date, _ := out.Column("Date")
	for _, c := range date.Cells {
		assert.True(t, c.IsNull())
	}

	assert.Equal(t, []string{"Date"}, report.Filled)
	assert.Empty(t, report.Dropped)
	assert.Len(t, report.Renamed, 3)
}

func TestConform_ColumnSequenceAlwaysMatches(t *testing.T) {
	schema := referenceSchema(t)
	uploads := []*table.Table{
		table.FromRecords(nil, nil),
		table.FromRecords([]string{"Date", "extra", "ID"}, [][]string{{"d", "e", "i"}}),
		table.FromRecords([]string{"Value", "Name", "Date", "ID"}, [][]string{{"1", "n", "d", "i"}}),
		table.FromRecords([]string{"unrelated"}, [][]string{{"u"}, {"v"}}),
	}

	for _, up := range uploads {
		out, _, err := Conform(up, schema)
		require.NoError(t, err)
		assert.Equal(t, schema.Columns(), out.Names())
		assert.Equal(t, up.Len(), out.Len())
	}
}

func TestConform_DropsUnknownColumns(t *testing.T) {
	up := table.FromRecords([]string{"ID", "memo", "商品名"}, [][]string{{"1", "m", "n"}})

	out, report, err := Conform(up, referenceSchema(t))
	require.NoError(t, err)
	assert.False(t, out.Has("memo"))
	assert.Equal(t, []string{"memo"}, report.Dropped)
	assert.ElementsMatch(t, []string{"Value", "Date"}, report.Filled)

	again, report2, err := Conform(out, referenceSchema(t))
	require.NoError(t, err)
	assert.True(t, again.Equal(out))
	assert.Empty(t, report2.Dropped)
}

func TestConform_IdentityOnMatchingSchema(t *testing.T) {
	up := table.FromRecords(
		[]string{"ID", "Name", "Value", "Date"},
		[][]string{{"1", "a", "10", "2024-01-01"}, {"2", "", "20", ""}},
	)

	out, report, err := Conform(up, referenceSchema(t))
	require.NoError(t, err)
	assert.True(t, out.Equal(up))
	assert.Empty(t, report.Dropped)
	assert.Empty(t, report.Filled)
}

func TestConform_RenameCollisionFirstWins(t *testing.T) {
	up := table.FromRecords([]string{"ID", "顧客ID"}, [][]string{{"direct", "renamed"}})

	out, report, err := Conform(up, referenceSchema(t))
	require.NoError(t, err)

	id, _ := out.Column("ID")
	assert.Equal(t, table.String("direct"), id.Cells[0])
	assert.Equal(t, []string{"顧客ID"}, report.Dropped)
	assert.NotContains(t, report.Renamed, "顧客ID")
}

func TestConform_DoesNotMutateUpload(t *testing.T) {
	up := table.FromRecords([]string{"顧客ID", "extra"}, [][]string{{"1", "x"}})
	before := up.Clone()

	_, _, err := Conform(up, referenceSchema(t))
	require.NoError(t, err)
	assert.True(t, up.Equal(before))
}

func TestNewSchema_RejectsDuplicates(t *testing.T) {
	_, err := NewSchema([]string{"ID", "ID"}, nil)
	assert.Error(t, err)
}

func TestSchema_ReturnsCopies(t *testing.T) {
	s := referenceSchema(t)
	cols := s.Columns()
	cols[0] = "mutated"
	s.Rename()["顧客ID"] = "mutated"

	assert.Equal(t, "ID", s.Columns()[0])
	assert.Equal(t, "ID", s.Rename()["顧客ID"])
}
