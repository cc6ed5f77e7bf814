package reshape

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn matches any *MissingColumnError.
	ErrMissingColumn = errors.New("missing required column")

	// ErrRowCount is returned when the upload has fewer rows than the
	// template rows it has to fill.
	ErrRowCount = errors.New("row count mismatch")

	// ErrTargetOutOfRange is returned when an overwrite target column does
	// not exist in the template.
	ErrTargetOutOfRange = errors.New("overwrite target column out of range")
)

// MissingColumnError names an upload column the overwrite step needs.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column %q", e.Column)
}

// Is makes errors.Is(err, ErrMissingColumn) true.
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}
