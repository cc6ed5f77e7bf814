package reshape

import (
	"fmt"

	"github.com/JonMunkholm/reshape/internal/table"
)

// FallbackColumns is the schema used when the reference file cannot be read.
var FallbackColumns = []string{"ID", "Name", "Value", "Date"}

// DefaultRename maps the upload headers seen in practice onto reference
// column names.
func DefaultRename() map[string]string {
	return map[string]string{
		"顧客ID": "ID",
		"商品名":  "Name",
		"数量":   "Value",
	}
}

// Schema is the read-only target of Conform. Build it once with NewSchema
// and share it between requests.
type Schema struct {
	columns []string
	rename  map[string]string
}

// NewSchema copies columns and rename into a Schema. Column names must be
// unique.
func NewSchema(columns []string, rename map[string]string) (Schema, error) {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return Schema{}, fmt.Errorf("schema: duplicate column %q", c)
		}
		seen[c] = true
	}
	s := Schema{
		columns: append([]string(nil), columns...),
		rename:  make(map[string]string, len(rename)),
	}
	for k, v := range rename {
		s.rename[k] = v
	}
	return s, nil
}

// Columns returns a copy of the reference column sequence.
func (s Schema) Columns() []string {
	return append([]string(nil), s.columns...)
}

// Rename returns a copy of the rename mapping.
func (s Schema) Rename() map[string]string {
	out := make(map[string]string, len(s.rename))
	for k, v := range s.rename {
		out[k] = v
	}
	return out
}

// ConformReport lists what Conform changed besides renaming.
type ConformReport struct {
	Renamed map[string]string // upload name -> reference name, applied only
	Dropped []string          // upload columns with no place in the schema
	Filled  []string          // schema columns filled with nulls
}

// Conform reshapes upload so its columns are exactly schema's columns in
// schema order:
//
//  1. rename upload columns found in the rename mapping
//  2. keep columns present in both, in schema order
//  3. append every missing schema column as all-null
//  4. reorder to the schema sequence
//
// Upload columns that match nothing are dropped and listed in the report.
func Conform(upload *table.Table, schema Schema) (*table.Table, ConformReport, error) {
	report := ConformReport{Renamed: make(map[string]string)}
	for _, name := range upload.Names() {
		if to, ok := schema.rename[name]; ok && to != name {
			report.Renamed[name] = to
		}
	}

	renamed, shadowed := upload.Rename(schema.rename)
	for _, name := range shadowed {
		delete(report.Renamed, name)
	}
	report.Dropped = append(report.Dropped, shadowed...)

	wanted := make(map[string]bool, len(schema.columns))
	for _, c := range schema.columns {
		wanted[c] = true
	}
	for _, name := range renamed.Names() {
		if !wanted[name] {
			report.Dropped = append(report.Dropped, originalName(name, report.Renamed))
		}
	}

	out := renamed.Select(schema.columns)
	for _, c := range schema.columns {
		if out.Has(c) {
			continue
		}
		if err := out.AppendNullColumn(c); err != nil {
			return nil, report, err
		}
		report.Filled = append(report.Filled, c)
	}

	out, err := out.Reorder(schema.columns)
	if err != nil {
		return nil, report, err
	}
	return out, report, nil
}

// originalName maps a renamed column back to its upload header.
func originalName(name string, renamed map[string]string) string {
	for from, to := range renamed {
		if to == name {
			return from
		}
	}
	return name
}
