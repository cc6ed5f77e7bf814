package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/reshape/internal/core"
	"github.com/JonMunkholm/reshape/internal/reference"
	"github.com/JonMunkholm/reshape/internal/web/templates"
)

const pageTitle = "双葉店 CSV変換"

// multipartMemory is the in-memory part of a parsed form; larger files
// spill to temporary files.
const multipartMemory = 8 << 20

// Response headers describing a reshape run.
const (
	HeaderRunID          = "X-Reshape-ID"
	HeaderMode           = "X-Reshape-Mode"
	HeaderDroppedColumns = "X-Reshape-Dropped-Columns"
	HeaderFilledColumns  = "X-Reshape-Filled-Columns"
)

// handleIndex renders the upload form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.UploadPage(pageTitle, "/upload", s.mode.String()).Render(r.Context(), w); err != nil {
		s.respondError(w, r, err)
	}
}

// handleUpload reshapes the uploaded file in the configured mode. A form
// without a file sends the browser back to the upload page.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.readUpload(w, r)
	if errors.Is(err, core.ErrNoFile) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.reshape(w, r, core.Request{Mode: s.mode, Filename: name, Data: data})
}

// handleAPIReshape reshapes the uploaded file in the mode named by the path.
func (s *Server) handleAPIReshape(w http.ResponseWriter, r *http.Request) {
	mode, err := core.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	name, data, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.reshape(w, r, core.Request{Mode: mode, Filename: name, Data: data})
}

// handlePreview runs a reshape and returns a JSON summary instead of the CSV.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	mode, err := core.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	name, data, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	resp, err := s.service.Preview(r.Context(), core.Request{Mode: mode, Filename: name, Data: data})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set(HeaderRunID, resp.RunID)
	writeJSON(w, http.StatusOK, resp)
}

// reshape runs req and streams the CSV attachment.
func (s *Server) reshape(w http.ResponseWriter, r *http.Request, req core.Request) {
	res, err := s.service.Reshape(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := res.WriteCSV(&buf); err != nil {
		s.respondError(w, r, fmt.Errorf("encode csv: %w", err))
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/csv; charset=utf-8")
	h.Set("Content-Disposition", attachment(s.cfg.Reference.OutputFilename))
	h.Set(HeaderRunID, res.ID)
	h.Set(HeaderMode, res.Mode.String())
	if res.Mode == core.ModeConform {
		h.Set(HeaderDroppedColumns, headerList(res.Report.Dropped))
		h.Set(HeaderFilledColumns, headerList(res.Report.Filled))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// readUpload returns the name and contents of the "file" form field.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(min(maxSize, multipartMemory)); err != nil {
		if isTooLarge(err) {
			return "", nil, fmt.Errorf("%w: limit %d bytes", core.ErrFileTooLarge, maxSize)
		}
		return "", nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}
	defer file.Close()

	if header.Filename == "" {
		return "", nil, core.ErrNoFile
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return header.Filename, data, nil
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

// attachment builds a Content-Disposition value; non-ASCII names are
// encoded per RFC 2231.
func attachment(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}

// headerList percent-encodes column names so they survive as header values.
func headerList(names []string) string {
	escaped := make([]string, len(names))
	for i, n := range names {
		escaped[i] = url.PathEscape(n)
	}
	return strings.Join(escaped, ",")
}

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status    string             `json:"status"`
	Mode      string             `json:"mode"`
	Reference reference.Status   `json:"reference"`
	Limiter   core.LimiterStatus `json:"limiter"`
}

// handleHealth reports liveness. A fallback schema is reported as degraded
// but still answers 200 because requests can be served.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ref := s.service.Reference()
	status := "ok"
	if ref.Fallback {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    status,
		Mode:      s.mode.String(),
		Reference: ref,
		Limiter:   s.service.LimiterStatus(),
	})
}

// handleReference returns the reference status captured at startup.
func (s *Server) handleReference(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Reference())
}
