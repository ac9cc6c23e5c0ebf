package web

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/ofertas/internal/core"
	"github.com/JonMunkholm/ofertas/internal/logging"
	"github.com/JonMunkholm/ofertas/internal/web/templates"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// SessionResponse describes a session to API clients.
type SessionResponse struct {
	ID          string            `json:"id"`
	Files       []string          `json:"files"`
	Preview     *core.FilePreview `json:"preview,omitempty"`
	Columns     []string          `json:"columns"`
	PriceColumn string            `json:"price_column,omitempty"`
	Offers      int               `json:"offers"`
	Reports     []core.FileReport `json:"reports,omitempty"`
}

func sessionResponse(sess core.Session) SessionResponse {
	cols := sess.Preview.Columns()
	if cols == nil {
		cols = []string{}
	}
	return SessionResponse{
		ID:          sess.ID,
		Files:       sess.FileNames(),
		Preview:     sess.Preview,
		Columns:     cols,
		PriceColumn: sess.PriceColumn,
		Offers:      len(sess.Offers),
		Reports:     sess.Reports,
	}
}

// ProcessResponse is the body returned after a processing request.
type ProcessResponse struct {
	Status      string            `json:"status"`
	PriceColumn string            `json:"price_column,omitempty"`
	Offers      int               `json:"offers"`
	Matched     int               `json:"matched"`
	Files       []core.FileReport `json:"files,omitempty"`
	DurationMs  int64             `json:"duration_ms"`
}

// handleCreateSession accepts one or more offer files in the multipart
// field "files" and opens a session over them.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	up := s.cfg.Upload
	r.Body = http.MaxBytesReader(w, r.Body, up.MaxFileSize*int64(up.MaxFiles)+multipartMemory)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}

	files := make([]core.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := readUpload(fh, up.MaxFileSize)
		if err != nil {
			s.respondError(w, r, err, 0)
			return
		}
		files = append(files, f)
	}

	sess, err := s.service.CreateSession(r.Context(), files)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = templates.SessionPanel(sess).Render(r.Context(), w)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse(sess))
}

// readUpload reads one multipart file, failing once it passes maxSize.
func readUpload(fh *multipart.FileHeader, maxSize int64) (core.UploadedFile, error) {
	if maxSize > 0 && fh.Size > maxSize {
		return core.UploadedFile{}, fmt.Errorf("%s: %w", fh.Filename, core.ErrFileTooLarge)
	}

	f, err := fh.Open()
	if err != nil {
		return core.UploadedFile{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return core.UploadedFile{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	if int64(len(data)) > maxSize {
		return core.UploadedFile{}, fmt.Errorf("%s: %w", fh.Filename, core.ErrFileTooLarge)
	}
	return core.UploadedFile{Name: fh.Filename, Data: data}, nil
}

// handleGetSession returns a session summary.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = templates.SessionPanel(sess).Render(r.Context(), w)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(sess))
}

// handleDeleteSession discards a session.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type processRequest struct {
	PriceColumn string `json:"price_column"`
}

// handleProcess runs the offer pipeline with the chosen price column. With
// no column chosen the request succeeds with status "skipped".
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	var req processRequest
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err), http.StatusBadRequest)
			return
		}
	} else {
		req.PriceColumn = r.FormValue("price_column")
	}

	res, err := s.service.Process(r.Context(), id, req.PriceColumn)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = templates.ResultsPanel(id, res.Offers, core.FilterQuery{}).Render(r.Context(), w)
		return
	}

	if !res.Ran {
		logging.WithFields(logging.WithSession(r.Context(), id)).Debug("process request skipped")
		writeJSON(w, http.StatusOK, ProcessResponse{Status: "skipped"})
		return
	}
	writeJSON(w, http.StatusOK, ProcessResponse{
		Status:      "processed",
		PriceColumn: res.PriceColumn,
		Offers:      len(res.Offers),
		Matched:     res.Matched(),
		Files:       res.Files,
		DurationMs:  res.Duration.Milliseconds(),
	})
}
