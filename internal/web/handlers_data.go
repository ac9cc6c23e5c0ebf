package web

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/ofertas/internal/core"
	"github.com/JonMunkholm/ofertas/internal/web/templates"
)

// OffersResponse is the JSON body of the offers endpoint.
type OffersResponse struct {
	Query  core.FilterQuery   `json:"query"`
	Count  int                `json:"count"`
	Offers []core.OfferRecord `json:"offers"`
}

func filterQuery(r *http.Request) core.FilterQuery {
	q := r.URL.Query()
	return core.FilterQuery{
		ActiveIngredient: q.Get("active_ingredient"),
		Presentation:     q.Get("presentation"),
	}
}

// handleOffers returns the session's offers narrowed by the query params
// active_ingredient and presentation.
func (s *Server) handleOffers(w http.ResponseWriter, r *http.Request) {
	q := filterQuery(r)
	offers, err := s.service.Offers(r.Context(), chi.URLParam(r, "sessionID"), q)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = templates.OffersTable(offers).Render(r.Context(), w)
		return
	}

	if offers == nil {
		offers = []core.OfferRecord{}
	}
	writeJSON(w, http.StatusOK, OffersResponse{Query: q, Count: len(offers), Offers: offers})
}

// handleExport downloads the filtered offers as CSV or XLSX.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := core.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	// Buffered so a failure can still produce a proper error response.
	var buf bytes.Buffer
	if err := s.service.Export(r.Context(), chi.URLParam(r, "sessionID"), filterQuery(r), format, &buf); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, format.FileName()))
	_, _ = buf.WriteTo(w)
}
