package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/svipsc/ranking/internal/models"
	"github.com/svipsc/ranking/internal/site"
)

// DivisionsResponse is the body of GET /api/divisions
type DivisionsResponse struct {
	Divisions    []models.DivisionStat `json:"divisions"`
	TotalPlayers string                `json:"total_players"`
	TotalMatches string                `json:"total_matches"`
	LastUpdated  string                `json:"last_updated"`
	DataUpdated  string                `json:"data_updated,omitempty"`
}

// RankingsResponse is the body of GET /api/divisions/{division}/rankings
type RankingsResponse struct {
	Division string                      `json:"division"`
	Name     string                      `json:"name"`
	Query    string                      `json:"query"`
	Total    int                         `json:"total"`
	Filtered int                         `json:"filtered"`
	Info     string                      `json:"info"`
	Entries  []models.PlayerRankingEntry `json:"entries"`
}

// handleGetDivisions returns every division with its player count
func (s *Server) handleGetDivisions(w http.ResponseWriter, r *http.Request) {
	page := s.overview.Load(r.Context())
	respondJSON(w, http.StatusOK, DivisionsResponse{
		Divisions:    page.Stats(),
		TotalPlayers: page.TotalPlayers,
		TotalMatches: page.TotalMatches,
		LastUpdated:  page.LastUpdated,
		DataUpdated:  page.DataUpdated,
	})
}

// handleGetRankings returns a division's ranking, filtered by ?q=
func (s *Server) handleGetRankings(w http.ResponseWriter, r *http.Request) {
	division := chi.URLParam(r, "division")

	page := s.ranking.Load(r.Context(), division, r.URL.Query().Get("q"))
	switch page.State {
	case site.StateRedirect:
		respondError(w, http.StatusBadRequest, "division is required")
		return
	case site.StateError:
		if page.NotFound() {
			respondError(w, http.StatusNotFound, "Ranking data not found")
			return
		}
		respondError(w, http.StatusBadGateway, site.LoadErrorMessage)
		return
	}

	respondJSON(w, http.StatusOK, RankingsResponse{
		Division: page.Division,
		Name:     page.Name,
		Query:    page.Query,
		Total:    page.Total(),
		Filtered: len(page.Rows()),
		Info:     page.Info(),
		Entries:  page.Rows(),
	})
}
