package web

import (
	"net/http"

	"github.com/JonMunkholm/ofertas/internal/core"
	"github.com/JonMunkholm/ofertas/internal/web/templates"
)

// handleIndex renders the analyzer page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.IndexPage(s.service.ReferenceStats().Records).Render(r.Context(), w); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
	}
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status    string                `json:"status"`
	Reference core.ReferenceStats   `json:"reference"`
	Runs      core.RunLimiterStatus `json:"runs"`
}

// handleHealth reports liveness plus reference and run slot status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Reference: s.service.ReferenceStats(),
		Runs:      s.service.Limiter().Status(),
	})
}

// handleReference returns the size of the reference index.
func (s *Server) handleReference(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ReferenceStats())
}
