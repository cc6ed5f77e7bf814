// Package reference loads the reference table that uploads are reconciled
// against.
//
// The reference lives at one configured path. The overwrite template is
// read again on every request so edits to the file take effect without a
// restart; the conform schema is read once at startup and only its column
// names are kept.
package reference

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/JonMunkholm/reshape/internal/ingest"
	"github.com/JonMunkholm/reshape/internal/reshape"
	"github.com/JonMunkholm/reshape/internal/table"
)

// ErrLoad wraps every failure to read the reference file.
var ErrLoad = errors.New("reference load failed")

// LoadTable reads the reference CSV at path.
func LoadTable(path string) (*table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	t, err := ingest.ParseFormat(ingest.FormatCSV, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoad, filepath.Base(path), err)
	}
	return t, nil
}

// Status describes the reference as seen at startup.
type Status struct {
	Path     string    `json:"path"`
	Loaded   bool      `json:"loaded"`
	Fallback bool      `json:"fallback"`
	Columns  []string  `json:"columns"`
	Rows     int       `json:"rows"`
	LoadedAt time.Time `json:"loaded_at"`
	Error    string    `json:"error,omitempty"`
}

// Store owns the reference path and the schema captured at startup.
// It is safe for concurrent use.
type Store struct {
	path   string
	rename map[string]string

	mu     sync.RWMutex
	schema reshape.Schema
	status Status
}

// Open reads the reference at path once. A missing or unreadable file is not
// fatal: a warning is logged and the schema falls back to
// reshape.FallbackColumns. Later Template calls surface the load error.
func Open(path string, rename map[string]string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if rename == nil {
		rename = reshape.DefaultRename()
	}

	s := &Store{path: path, rename: rename}
	status := Status{Path: path, LoadedAt: time.Now()}

	columns := reshape.FallbackColumns
	t, err := LoadTable(path)
	if err != nil {
		status.Fallback = true
		status.Error = err.Error()
		logger.Warn("reference file unavailable, using fallback columns",
			"path", path,
			"error", err,
			"fallback_columns", columns,
		)
	} else {
		columns = t.Names()
		status.Loaded = true
		status.Rows = t.Len()
		logger.Info("reference file loaded",
			"path", path,
			"columns", t.Width(),
			"rows", t.Len(),
		)
	}

	schema, err := reshape.NewSchema(columns, rename)
	if err != nil {
		return nil, fmt.Errorf("reference schema: %w", err)
	}
	status.Columns = schema.Columns()

	s.schema = schema
	s.status = status
	return s, nil
}

// Path returns the configured reference path.
func (s *Store) Path() string { return s.path }

// Schema returns the schema captured at startup.
func (s *Store) Schema() reshape.Schema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schema
}

// Status returns the startup status.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	st.Columns = append([]string(nil), s.status.Columns...)
	return st
}

// Template reads the reference file fresh. The returned table belongs to
// the caller.
func (s *Store) Template() (*table.Table, error) {
	return LoadTable(s.path)
}
