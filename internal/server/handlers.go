package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yaklabco/livetype/internal/logging"
	"github.com/yaklabco/livetype/pkg/config"
	"github.com/yaklabco/livetype/pkg/engine"
	"github.com/yaklabco/livetype/pkg/typeset"
)

// OpenRequest is the body of POST /documents. Config fields override the
// engine defaults.
type OpenRequest struct {
	Path   string          `json:"path"`
	Config json.RawMessage `json:"config,omitempty"`
}

// OpenResponse names the new document.
type OpenResponse struct {
	ID   engine.Handle `json:"id"`
	Path string        `json:"path"`
}

// TextRequest carries user text. A nil Prelude selects the server's.
type TextRequest struct {
	Text    string  `json:"text"`
	Prelude *string `json:"prelude,omitempty"`
}

// CursorRequest is the body of autocomplete and hover requests.
type CursorRequest struct {
	Cursor   int    `json:"cursor"`
	Explicit bool   `json:"explicit,omitempty"`
	Side     string `json:"side,omitempty"`
}

// ResizeRequest is the body of POST /documents/{id}/resize.
type ResizeRequest struct {
	Width        *float64 `json:"width"`
	HeightCutoff *float64 `json:"height_cutoff"`
}

// ResizeResponse reports whether the document must be compiled again.
type ResizeResponse struct {
	Changed bool `json:"changed"`
}

// HitTestResponse is the target of a click. Jump is nil when nothing was
// hit.
type HitTestResponse struct {
	Jump *engine.Jump `json:"jump"`
}

// AutocompleteResponse is nil-valued when nothing can be completed.
type AutocompleteResponse struct {
	Completions *engine.Completions `json:"completions"`
}

// HoverResponse carries sanitized HTML. Empty when there is nothing to say.
type HoverResponse struct {
	HTML string `json:"html"`
}

// HighlightResponse lists the syntax classes of a text.
type HighlightResponse struct {
	Highlights []engine.Highlight `json:"highlights"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status    string `json:"status"`
	Documents int    `json:"documents"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Documents: s.engine.Documents()})
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Path == "" {
		writeError(w, fmt.Errorf("%w: path is required", ErrBadRequest))
		return
	}

	h, err := s.engine.Open(req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	doc, err := s.engine.Document(h)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(req.Config) > 0 {
		if err := s.overrideConfig(h, doc.Render(), req.Config); err != nil {
			_ = s.engine.Close(h)
			writeError(w, err)
			return
		}
	}
	logging.FromContext(r.Context()).Debug("opened document", logging.FieldHandle, h, logging.FieldPath, doc.Path())
	writeJSON(w, http.StatusCreated, OpenResponse{ID: h, Path: string(doc.Path())})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	h := handleParam(r)
	if err := s.engine.Close(h); err != nil {
		writeError(w, err)
		return
	}
	s.locks.drop(h)
	w.WriteHeader(http.StatusNoContent)
}

// handleConfig updates the fields present in the body and keeps the rest.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	h := handleParam(r)
	doc, err := s.engine.Document(h)
	if err != nil {
		writeError(w, err)
		return
	}
	var raw json.RawMessage
	if err := decode(w, r, &raw); err != nil {
		writeError(w, err)
		return
	}
	if err := s.overrideConfig(h, doc.Render(), raw); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) overrideConfig(h engine.Handle, render config.Render, raw json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&render); err != nil {
		return fmt.Errorf("%w: decode config: %w", ErrBadRequest, err)
	}
	return s.engine.SetConfig(h, render)
}

func (s *Server) preludeOf(req TextRequest) string {
	if req.Prelude != nil {
		return *req.Prelude
	}
	return s.prelude
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	h := handleParam(r)
	var (
		res *engine.CompileResult
		err error
	)
	if s.resolver != nil {
		res, _, err = s.resolver.Resolve(r.Context(), s.engine, h, req.Text, s.preludeOf(req), s.rounds)
	} else {
		res, err = s.engine.Compile(r.Context(), h, req.Text, s.preludeOf(req))
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.engine.Check(r.Context(), handleParam(r), req.Text, s.preludeOf(req))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHitTest(w http.ResponseWriter, r *http.Request) {
	var p typeset.Point
	if err := decode(w, r, &p); err != nil {
		writeError(w, err)
		return
	}
	jump, ok, err := s.engine.HitTest(handleParam(r), p)
	if err != nil {
		writeError(w, err)
		return
	}
	var res HitTestResponse
	if ok {
		res.Jump = &jump
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	var req CursorRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	completions, ok, err := s.engine.Autocomplete(handleParam(r), req.Cursor, req.Explicit)
	if err != nil {
		writeError(w, err)
		return
	}
	var res AutocompleteResponse
	if ok {
		res.Completions = &completions
	}
	writeJSON(w, http.StatusOK, res)
}

func parseSide(s string) (typeset.Side, error) {
	switch s {
	case "", "after":
		return typeset.SideAfter, nil
	case "before":
		return typeset.SideBefore, nil
	default:
		return 0, fmt.Errorf("%w: side must be before or after, got %q", ErrBadRequest, s)
	}
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	var req CursorRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	side, err := parseSide(req.Side)
	if err != nil {
		writeError(w, err)
		return
	}
	html, _, err := s.engine.Hover(handleParam(r), req.Cursor, side)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, HoverResponse{HTML: html})
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req ResizeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	changed, err := s.engine.Resize(handleParam(r), req.Width, req.HeightCutoff)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ResizeResponse{Changed: changed})
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	highlights, err := s.engine.Highlight(handleParam(r), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	if highlights == nil {
		highlights = []engine.Highlight{}
	}
	writeJSON(w, http.StatusOK, HighlightResponse{Highlights: highlights})
}

// handlePDF answers with the PDF, or with the diagnostics as JSON when the
// compilation aborted.
func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	out, err := s.engine.RenderFixed(r.Context(), handleParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if out.PDF == nil {
		writeJSON(w, http.StatusUnprocessableEntity, out)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.PDF)
}

// filePath returns the file ID addressed by a /files/* route.
func filePath(r *http.Request) (string, error) {
	p := chi.URLParam(r, "*")
	if p == "" || strings.HasSuffix(p, "/") {
		return "", fmt.Errorf("%w: file path is required", ErrBadRequest)
	}
	return p, nil
}

// handlePutFile stores the body as a source or binary file. The kind
// query parameter selects which; without it .typ files are sources.
func (s *Server) handlePutFile(w http.ResponseWriter, r *http.Request) {
	p, err := filePath(r)
	if err != nil {
		writeError(w, err)
		return
	}

	kind := typeset.RequestKind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = typeset.RequestFile
		if path.Ext(p) == ".typ" {
			kind = typeset.RequestSource
		}
	}
	if kind != typeset.RequestSource && kind != typeset.RequestFile {
		writeError(w, fmt.Errorf("%w: kind must be source or file, got %q", ErrBadRequest, kind))
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, err)
		return
	}

	if kind == typeset.RequestSource {
		err = s.engine.InsertSource(p, string(data))
	} else {
		err = s.engine.InsertFile(p, data)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	logging.FromContext(r.Context()).Debug("stored file", logging.FieldPath, p, logging.FieldKind, kind)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	p, err := filePath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.engine.RemoveFile(p); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
