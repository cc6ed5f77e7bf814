package core

import (
	"context"
)

// PreviewSummary contains the shape of the upload before and after.
type PreviewSummary struct {
	InputRows     int      `json:"inputRows"`
	InputColumns  []string `json:"inputColumns"`
	OutputRows    int      `json:"outputRows"`
	OutputColumns []string `json:"outputColumns"`
}

// RowPreview represents a single output row for preview display.
// Null cells are omitted from Values.
type RowPreview struct {
	LineNumber int               `json:"lineNumber"`
	Values     map[string]string `json:"values"`
}

// PreviewResponse describes what a reshape would return without the file.
type PreviewResponse struct {
	RunID            string            `json:"runId"`
	Mode             Mode              `json:"mode"`
	Format           string            `json:"format"`
	Summary          PreviewSummary    `json:"summary"`
	Renamed          map[string]string `json:"renamed,omitempty"`
	Dropped          []string          `json:"dropped"`
	Filled           []string          `json:"filled"`
	Samples          []RowPreview      `json:"samples"`
	ProcessingTimeMs int64             `json:"processingTimeMs"`
}

// maxRowSamples caps the rows returned in a preview.
const maxRowSamples = 10

// Preview runs req and summarises the result. Overwrite previews sample
// the first overwritten rows rather than the unchanged header rows.
func (s *Service) Preview(ctx context.Context, req Request) (*PreviewResponse, error) {
	res, err := s.Reshape(ctx, req)
	if err != nil {
		return nil, err
	}

	out := res.Table
	resp := &PreviewResponse{
		RunID:  res.ID,
		Mode:   res.Mode,
		Format: string(res.Format),
		Summary: PreviewSummary{
			InputRows:     res.InputRows,
			InputColumns:  res.InputColumns,
			OutputRows:    out.Len(),
			OutputColumns: out.Names(),
		},
		Renamed:          res.Report.Renamed,
		Dropped:          nonNil(res.Report.Dropped),
		Filled:           nonNil(res.Report.Filled),
		ProcessingTimeMs: res.Duration.Milliseconds(),
	}

	first := 0
	if res.Mode == ModeOverwrite {
		first = min(s.plan.SkipRows, out.Len())
	}
	names := out.Names()
	for row := first; row < out.Len() && len(resp.Samples) < maxRowSamples; row++ {
		values := make(map[string]string, len(names))
		for col, name := range names {
			if c := out.Cell(row, col); !c.IsNull() {
				values[name] = c.Value
			}
		}
		// Line 1 is the header.
		resp.Samples = append(resp.Samples, RowPreview{LineNumber: row + 2, Values: values})
	}
	return resp, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
