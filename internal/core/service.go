package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/reshape/internal/ingest"
	"github.com/JonMunkholm/reshape/internal/logging"
	"github.com/JonMunkholm/reshape/internal/metrics"
	"github.com/JonMunkholm/reshape/internal/reference"
	"github.com/JonMunkholm/reshape/internal/reshape"
	"github.com/JonMunkholm/reshape/internal/table"
)

// Mode selects how an upload is reconciled with the reference.
type Mode string

const (
	// ModeOverwrite copies the reference and overwrites two columns by
	// row position.
	ModeOverwrite Mode = "overwrite"

	// ModeConform renames, selects and reorders upload columns to match the
	// reference header.
	ModeConform Mode = "conform"
)

// ErrUnknownMode is returned by ParseMode.
var ErrUnknownMode = errors.New("unknown reshape mode")

// ParseMode accepts "overwrite" and "conform", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeOverwrite:
		return ModeOverwrite, nil
	case ModeConform:
		return ModeConform, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

func (m Mode) String() string { return string(m) }

// Request is one uploaded file to reshape.
type Request struct {
	Mode     Mode
	Filename string
	Data     []byte
}

// Result is a reshaped table ready to encode.
type Result struct {
	ID           string
	Mode         Mode
	Format       ingest.Format
	InputRows    int
	InputColumns []string
	Table        *table.Table
	Report       reshape.ConformReport // zero in overwrite mode
	Duration     time.Duration
}

// WriteCSV encodes the result as UTF-8 CSV with a BOM.
func (r *Result) WriteCSV(w io.Writer) error {
	return table.WriteCSV(w, r.Table)
}

// Options tune a Service. Zero values pick defaults.
type Options struct {
	Plan          reshape.OverwritePlan
	Metrics       *metrics.Metrics
	MaxConcurrent int
	MaxWait       time.Duration
}

// Service runs the ingest, reshape and encode pipeline against one
// reference. It is safe for concurrent use.
type Service struct {
	store   *reference.Store
	plan    reshape.OverwritePlan
	metrics *metrics.Metrics
	limiter *Limiter
}

// NewService creates a Service bound to store.
func NewService(store *reference.Store, opts Options) (*Service, error) {
	if store == nil {
		return nil, errors.New("reference store is required")
	}
	plan := opts.Plan
	if len(plan.Targets) == 0 {
		plan = reshape.DefaultOverwritePlan()
	}

	opts.Metrics.SetReferenceFallback(store.Status().Fallback)

	return &Service{
		store:   store,
		plan:    plan,
		metrics: opts.Metrics,
		limiter: NewLimiter(opts.MaxConcurrent, opts.MaxWait),
	}, nil
}

// Reshape parses req.Data and reshapes it in req.Mode. Unsupported file
// types are rejected before a processing slot is taken.
func (s *Service) Reshape(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()
	logger := logging.WithFields(ctx,
		"run_id", runID,
		"mode", req.Mode,
		"file", req.Filename,
	)

	res, err := s.run(ctx, logger, runID, req)

	elapsed := time.Since(start)
	code := "OK"
	if err != nil {
		code = MapError(err).Code
		logger.Warn("reshape failed",
			"code", code,
			"error", err,
			"duration", elapsed,
		)
	} else {
		res.Duration = elapsed
		logger.Info("reshape finished",
			"rows", res.Table.Len(),
			"columns", res.Table.Width(),
			"duration", elapsed,
		)
	}
	s.metrics.ObserveRun(req.Mode.String(), code, elapsed)
	return res, err
}

func (s *Service) run(ctx context.Context, logger *slog.Logger, runID string, req Request) (*Result, error) {
	if req.Mode != ModeOverwrite && req.Mode != ModeConform {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
	}

	format, err := ingest.DetectFormat(req.Filename)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()
	s.metrics.RunStarted()
	defer s.metrics.RunFinished()

	s.metrics.ObserveUpload(string(format), len(req.Data))

	upload, err := ingest.ParseFormat(format, req.Data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", req.Filename, err)
	}
	logger.Debug("upload parsed",
		"format", format,
		"rows", upload.Len(),
		"columns", upload.Names(),
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		ID:           runID,
		Mode:         req.Mode,
		Format:       format,
		InputRows:    upload.Len(),
		InputColumns: upload.Names(),
	}

	switch req.Mode {
	case ModeOverwrite:
		template, err := s.store.Template()
		if err != nil {
			return nil, err
		}
		out, err := reshape.Overwrite(template, upload, s.plan)
		if err != nil {
			return nil, err
		}
		res.Table = out

	case ModeConform:
		out, report, err := reshape.Conform(upload, s.store.Schema())
		if err != nil {
			return nil, err
		}
		if len(report.Dropped) > 0 || len(report.Filled) > 0 {
			logger.Info("upload columns adjusted",
				"dropped", report.Dropped,
				"filled", report.Filled,
			)
		}
		s.metrics.AddDropped(len(report.Dropped))
		res.Table = out
		res.Report = report
	}

	return res, nil
}

// Reference returns the reference status captured at startup.
func (s *Service) Reference() reference.Status {
	return s.store.Status()
}

// LimiterStatus returns current processing slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForRuns blocks until no reshape holds a slot or ctx ends.
func (s *Service) WaitForRuns(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
