// Package reshape maps an uploaded table onto a reference table.
//
// Two behaviours are provided. Overwrite treats the reference as a
// template and fills fixed columns of its data rows from the upload by row
// position. Conform treats the reference as a column schema and renames,
// selects, null-fills and reorders the upload to match it.
//
// Both functions are pure: inputs are never modified.
package reshape

import (
	"fmt"

	"github.com/JonMunkholm/reshape/internal/table"
)

// Upload column labels read by the default overwrite plan.
const (
	ColumnMachineType         = "機種"
	ColumnCertificationNumber = "検定番号"
)

// DefaultSkipRows is the number of leading template rows kept unchanged.
const DefaultSkipRows = 2

// Target copies one upload column into one template column position.
type Target struct {
	Source string // upload column name
	Column int    // 0-based template column position
}

// OverwritePlan describes a positional overwrite.
type OverwritePlan struct {
	SkipRows int
	Targets  []Target
}

// DefaultOverwritePlan returns the plan used by the upload endpoint:
// template rows 2.. get column 3 from the machine type and column 4 from
// the certification number.
func DefaultOverwritePlan() OverwritePlan {
	return OverwritePlan{
		SkipRows: DefaultSkipRows,
		Targets: []Target{
			{Source: ColumnMachineType, Column: 3},
			{Source: ColumnCertificationNumber, Column: 4},
		},
	}
}

// Overwrite returns a copy of template in which, for every row i at or
// after plan.SkipRows, each target column holds the upload's source value
// at row i-plan.SkipRows. Alignment is by position only.
//
// Upload rows beyond the template are ignored. An upload with fewer rows
// than the template needs fails with ErrRowCount.
func Overwrite(template, upload *table.Table, plan OverwritePlan) (*table.Table, error) {
	if plan.SkipRows < 0 {
		return nil, fmt.Errorf("skip rows %d must be non-negative", plan.SkipRows)
	}

	sources := make([]table.Column, len(plan.Targets))
	for i, tgt := range plan.Targets {
		col, ok := upload.Column(tgt.Source)
		if !ok {
			return nil, &MissingColumnError{Column: tgt.Source}
		}
		if tgt.Column < 0 || tgt.Column >= template.Width() {
			return nil, fmt.Errorf("%w: column %d, template has %d columns",
				ErrTargetOutOfRange, tgt.Column, template.Width())
		}
		sources[i] = col
	}

	need := template.Len() - plan.SkipRows
	if need > 0 && upload.Len() < need {
		return nil, fmt.Errorf("%w: template needs %d data rows, upload has %d",
			ErrRowCount, need, upload.Len())
	}

	out := template.Clone()
	for row := plan.SkipRows; row < out.Len(); row++ {
		for i, tgt := range plan.Targets {
			if err := out.Set(row, tgt.Column, sources[i].Cells[row-plan.SkipRows]); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
