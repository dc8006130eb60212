package api

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"

	"github.com/svipsc/ranking/internal/site"
)

// handleOverview renders the division overview
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	page := s.overview.Load(r.Context())

	var buf bytes.Buffer
	if err := s.renderer.Overview(&buf, page); err != nil {
		s.renderFailed(w, err)
		return
	}
	writeHTML(w, http.StatusOK, &buf)
}

// handleRanking renders one division's ranking table
func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := s.ranking.Load(r.Context(), q.Get("division"), q.Get("q"))
	if page.State == site.StateRedirect {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	var buf bytes.Buffer
	if err := s.renderer.Ranking(&buf, page); err != nil {
		s.renderFailed(w, err)
		return
	}
	writeHTML(w, pageStatus(page), &buf)
}

func pageStatus(page *site.RankingPage) int {
	switch {
	case page.State != site.StateError:
		return http.StatusOK
	case page.NotFound():
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) renderFailed(w http.ResponseWriter, err error) {
	s.logger.Error("Template error", zap.Error(err))
	http.Error(w, "template error", http.StatusInternalServerError)
}

func writeHTML(w http.ResponseWriter, status int, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// legacyRedirect sends old static-site URLs to their new path, keeping the query
func legacyRedirect(target string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		to := target
		if r.URL.RawQuery != "" {
			to += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, to, http.StatusMovedPermanently)
	}
}
