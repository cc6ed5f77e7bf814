// Package table provides the typed, column-oriented table used by every
// reshaping step.
//
// A Table is an ordered list of named columns. Every column has the same
// number of cells and every cell is either a string value or null. Columns
// are addressable by name and by position. Tables are plain values: the
// reshaping functions never mutate their inputs, they Clone or derive.
package table

import (
	"fmt"
	"strconv"
)

// Cell is a single table value. The zero Cell is null.
type Cell struct {
	Value string
	Valid bool
}

// String returns a non-null cell holding s.
func String(s string) Cell {
	return Cell{Value: s, Valid: true}
}

// Null returns a null cell.
func Null() Cell {
	return Cell{}
}

// IsNull reports whether the cell holds no value.
func (c Cell) IsNull() bool {
	return !c.Valid
}

// Text renders the cell for CSV output. Null renders as "".
func (c Cell) Text() string {
	if !c.Valid {
		return ""
	}
	return c.Value
}

// Column is a named sequence of cells.
type Column struct {
	Name  string
	Cells []Cell
}

// Table is an ordered set of equally long columns.
type Table struct {
	columns []Column
	index   map[string]int
	rows    int
}

// New creates an empty table with the given column names and zero rows.
// Names must be unique.
func New(names ...string) (*Table, error) {
	t := &Table{index: make(map[string]int, len(names))}
	for _, name := range names {
		if err := t.appendColumn(Column{Name: name}); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// FromColumns builds a table from already constructed columns.
// All columns must have the same length and unique names.
func FromColumns(cols ...Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(cols))}
	for i, col := range cols {
		if i == 0 {
			t.rows = len(col.Cells)
		} else if len(col.Cells) != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", col.Name, len(col.Cells), t.rows)
		}
		cells := make([]Cell, len(col.Cells))
		copy(cells, col.Cells)
		if err := t.appendColumn(Column{Name: col.Name, Cells: cells}); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// FromRecords builds a table from a header and string records, as read from
// a CSV or worksheet. Empty fields become null. Short records are padded
// with null and fields beyond the header are discarded. Repeated header
// names get a ".N" suffix so every column stays addressable.
func FromRecords(header []string, records [][]string) *Table {
	names := UniqueNames(header)
	t := &Table{
		columns: make([]Column, len(names)),
		index:   make(map[string]int, len(names)),
		rows:    len(records),
	}
	for i, name := range names {
		t.columns[i] = Column{Name: name, Cells: make([]Cell, len(records))}
		t.index[name] = i
	}
	for r, rec := range records {
		for c := range names {
			if c < len(rec) && rec[c] != "" {
				t.columns[c].Cells[r] = String(rec[c])
			}
		}
	}
	return t
}

// UniqueNames returns header with repeated names suffixed ".1", ".2", ...
// in encounter order. The first occurrence keeps its name.
func UniqueNames(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	taken := make(map[string]bool, len(header))
	for _, h := range header {
		taken[h] = true
	}
	for i, h := range header {
		n, dup := seen[h]
		seen[h] = n + 1
		if !dup {
			out[i] = h
			continue
		}
		candidate := h + "." + strconv.Itoa(n)
		for taken[candidate] {
			n++
			candidate = h + "." + strconv.Itoa(n)
		}
		seen[h] = n + 1
		taken[candidate] = true
		out[i] = candidate
	}
	return out
}

func (t *Table) appendColumn(col Column) error {
	if _, exists := t.index[col.Name]; exists {
		return fmt.Errorf("duplicate column %q", col.Name)
	}
	if len(t.columns) == 0 && t.rows == 0 {
		t.rows = len(col.Cells)
	}
	if len(col.Cells) != t.rows {
		return fmt.Errorf("column %q has %d rows, want %d", col.Name, len(col.Cells), t.rows)
	}
	t.index[col.Name] = len(t.columns)
	t.columns = append(t.columns, col)
	return nil
}

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.columns) }

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.Name
	}
	return names
}

// Has reports whether a column with the given name exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.ColumnAt(i), true
}

// ColumnAt returns a copy of the column at position i. It panics if i is
// out of range, like a slice index.
func (t *Table) ColumnAt(i int) Column {
	src := t.columns[i]
	cells := make([]Cell, len(src.Cells))
	copy(cells, src.Cells)
	return Column{Name: src.Name, Cells: cells}
}

// Cell returns the cell at (row, col). It panics on out-of-range indices.
func (t *Table) Cell(row, col int) Cell {
	return t.columns[col].Cells[row]
}

// Set replaces the cell at (row, col).
func (t *Table) Set(row, col int, c Cell) error {
	if col < 0 || col >= len(t.columns) {
		return fmt.Errorf("column %d out of range [0,%d)", col, len(t.columns))
	}
	if row < 0 || row >= t.rows {
		return fmt.Errorf("row %d out of range [0,%d)", row, t.rows)
	}
	t.columns[col].Cells[row] = c
	return nil
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := &Table{
		columns: make([]Column, len(t.columns)),
		index:   make(map[string]int, len(t.columns)),
		rows:    t.rows,
	}
	for i := range t.columns {
		out.columns[i] = t.ColumnAt(i)
		out.index[out.columns[i].Name] = i
	}
	return out
}

// Rename returns a copy with columns renamed through mapping. Names absent
// from mapping are kept. When several columns end up with the same name the
// first one in column order keeps it and later ones are dropped; the dropped
// original names are returned.
func (t *Table) Rename(mapping map[string]string) (*Table, []string) {
	out := &Table{index: make(map[string]int, len(t.columns)), rows: t.rows}
	var shadowed []string
	for i := range t.columns {
		col := t.ColumnAt(i)
		orig := col.Name
		if to, ok := mapping[orig]; ok {
			col.Name = to
		}
		if _, exists := out.index[col.Name]; exists {
			shadowed = append(shadowed, orig)
			continue
		}
		out.index[col.Name] = len(out.columns)
		out.columns = append(out.columns, col)
	}
	return out, shadowed
}

// Select returns a copy holding only the named columns that exist, in the
// order given by names. Missing names are skipped.
func (t *Table) Select(names []string) *Table {
	out := &Table{index: make(map[string]int, len(names)), rows: t.rows}
	for _, name := range names {
		i, ok := t.index[name]
		if !ok {
			continue
		}
		if _, dup := out.index[name]; dup {
			continue
		}
		out.index[name] = len(out.columns)
		out.columns = append(out.columns, t.ColumnAt(i))
	}
	return out
}

// AppendNullColumn adds a column of nulls at the end.
func (t *Table) AppendNullColumn(name string) error {
	return t.appendColumn(Column{Name: name, Cells: make([]Cell, t.rows)})
}

// Reorder returns a copy whose columns follow order exactly. Every name in
// order must exist and every column must be named.
func (t *Table) Reorder(order []string) (*Table, error) {
	if len(order) != len(t.columns) {
		return nil, fmt.Errorf("reorder: got %d names for %d columns", len(order), len(t.columns))
	}
	out := t.Select(order)
	if out.Width() != len(order) {
		for _, name := range order {
			if !t.Has(name) {
				return nil, fmt.Errorf("reorder: unknown column %q", name)
			}
		}
		return nil, fmt.Errorf("reorder: repeated column names in %v", order)
	}
	return out, nil
}

// Records returns the header and the rows as strings, nulls rendered empty.
func (t *Table) Records() ([]string, [][]string) {
	header := t.Names()
	rows := make([][]string, t.rows)
	for r := 0; r < t.rows; r++ {
		rec := make([]string, len(t.columns))
		for c := range t.columns {
			rec[c] = t.columns[c].Cells[r].Text()
		}
		rows[r] = rec
	}
	return header, rows
}

// Equal reports whether both tables have the same columns, in the same
// order, with identical cells.
func (t *Table) Equal(o *Table) bool {
	if t.rows != o.rows || len(t.columns) != len(o.columns) {
		return false
	}
	for i := range t.columns {
		a, b := t.columns[i], o.columns[i]
		if a.Name != b.Name {
			return false
		}
		for r := range a.Cells {
			if a.Cells[r] != b.Cells[r] {
				return false
			}
		}
	}
	return true
}
