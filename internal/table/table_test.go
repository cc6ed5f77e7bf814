package table

import (
	"bytes"
	"reflect"
	"testing"
)

func TestUniqueNames(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"no duplicates", []string{"a", "b"}, []string{"a", "b"}},
		{"one duplicate", []string{"a", "a"}, []string{"a", "a.1"}},
		{"three copies", []string{"a", "b", "a", "a"}, []string{"a", "b", "a.1", "a.2"}},
		{"suffix already taken", []string{"a", "a.1", "a"}, []string{"a", "a.1", "a.2"}},
		{"empty header names", []string{"", ""}, []string{"", ".1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UniqueNames(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("UniqueNames(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFromRecords(t *testing.T) {
	tbl := FromRecords(
		[]string{"id", "name", "id"},
		[][]string{
			{"1", "alpha", "x"},
			{"2", ""},
			{"3", "gamma", "z", "overflow"},
		},
	)

	if got, want := tbl.Names(), []string{"id", "name", "id.1"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %q, want %q", got, want)
	}
	if tbl.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tbl.Len())
	}
	if !tbl.Cell(1, 1).IsNull() {
		t.Errorf("empty field should be null, got %+v", tbl.Cell(1, 1))
	}
	if !tbl.Cell(1, 2).IsNull() {
		t.Errorf("short record should pad with null, got %+v", tbl.Cell(1, 2))
	}
	if got := tbl.Cell(2, 2); got != String("z") {
		t.Errorf("Cell(2,2) = %+v, want z", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	tbl := FromRecords([]string{"a"}, [][]string{{"1"}})
	clone := tbl.Clone()

	if err := clone.Set(0, 0, String("changed")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if tbl.Cell(0, 0) != String("1") {
		t.Errorf("original mutated through clone: %+v", tbl.Cell(0, 0))
	}
}

func TestColumnReturnsCopy(t *testing.T) {
	tbl := FromRecords([]string{"a"}, [][]string{{"1"}})
	col, ok := tbl.Column("a")
	if !ok {
		t.Fatal("Column(a) not found")
	}
	col.Cells[0] = String("changed")
	if tbl.Cell(0, 0) != String("1") {
		t.Error("Column() exposed internal storage")
	}
	if _, ok := tbl.Column("missing"); ok {
		t.Error("Column(missing) should not be found")
	}
}

func TestSet_OutOfRange(t *testing.T) {
	tbl := FromRecords([]string{"a"}, [][]string{{"1"}})
	if err := tbl.Set(1, 0, String("x")); err == nil {
		t.Error("expected error for row out of range")
	}
	if err := tbl.Set(0, 1, String("x")); err == nil {
		t.Error("expected error for column out of range")
	}
}

func TestRename(t *testing.T) {
	tbl := FromRecords([]string{"x", "y", "z"}, [][]string{{"1", "2", "3"}})

	out, shadowed := tbl.Rename(map[string]string{"y": "x", "z": "w"})
	if got, want := out.Names(), []string{"x", "w"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %q, want %q", got, want)
	}
	if !reflect.DeepEqual(shadowed, []string{"y"}) {
		t.Errorf("shadowed = %q, want [y]", shadowed)
	}
	if !reflect.DeepEqual(tbl.Names(), []string{"x", "y", "z"}) {
		t.Error("Rename mutated its receiver")
	}
}

func TestSelectAndReorder(t *testing.T) {
	tbl := FromRecords([]string{"a", "b", "c"}, [][]string{{"1", "2", "3"}})

	sel := tbl.Select([]string{"c", "missing", "a"})
	if got, want := sel.Names(), []string{"c", "a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Select names = %q, want %q", got, want)
	}

	re, err := tbl.Reorder([]string{"b", "c", "a"})
	if err != nil {
		t.Fatalf("Reorder() error = %v", err)
	}
	if re.Cell(0, 0) != String("2") {
		t.Errorf("Reorder first cell = %+v, want 2", re.Cell(0, 0))
	}

	if _, err := tbl.Reorder([]string{"a", "b"}); err == nil {
		t.Error("Reorder with too few names should fail")
	}
	if _, err := tbl.Reorder([]string{"a", "b", "d"}); err == nil {
		t.Error("Reorder with unknown name should fail")
	}
	if _, err := tbl.Reorder([]string{"a", "a", "b"}); err == nil {
		t.Error("Reorder with repeated name should fail")
	}
}

func TestAppendNullColumn(t *testing.T) {
	tbl := FromRecords([]string{"a"}, [][]string{{"1"}, {"2"}})
	if err := tbl.AppendNullColumn("b"); err != nil {
		t.Fatalf("AppendNullColumn() error = %v", err)
	}
	col, _ := tbl.Column("b")
	if len(col.Cells) != 2 || !col.Cells[0].IsNull() || !col.Cells[1].IsNull() {
		t.Errorf("appended column = %+v, want two nulls", col.Cells)
	}
	if err := tbl.AppendNullColumn("a"); err == nil {
		t.Error("duplicate column name should fail")
	}
}

func TestFromColumns_LengthMismatch(t *testing.T) {
	_, err := FromColumns(
		Column{Name: "a", Cells: []Cell{String("1")}},
		Column{Name: "b", Cells: []Cell{String("1"), String("2")}},
	)
	if err == nil {
		t.Fatal("expected error for ragged columns")
	}
}

func TestWriteCSV(t *testing.T) {
	tbl := FromRecords([]string{"ID", "名前"}, [][]string{{"1", "山田"}, {"2", ""}, {"3", "a,b"}})

	var buf bytes.Buffer
	if err := WriteCSV(&buf, tbl); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	want := "\xEF\xBB\xBFID,名前\n1,山田\n2,\n3,\"a,b\"\n"
	if buf.String() != want {
		t.Errorf("WriteCSV() = %q, want %q", buf.String(), want)
	}
}
