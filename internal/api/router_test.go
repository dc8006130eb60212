package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svipsc/ranking/internal/models"
	"github.com/svipsc/ranking/internal/rankings"
	"github.com/svipsc/ranking/internal/site"
)

const openJSON = `[
  {"rank":1,"first_name":"Anna","last_name":"Svensson","alias":null,"region":"SWE",
   "conservative_rating":72.456,"percentage_of_best":98.34,"matches_played":12,"mu":70.1,"sigma":3.27},
  {"rank":2,"first_name":"Erik","last_name":"Lind","alias":"Snabben","region":"NOR",
   "conservative_rating":60.1,"percentage_of_best":82.9,"matches_played":4,"mu":66,"sigma":2}
]`

// countingSource counts loads so tests can assert that none happened
type countingSource struct {
	*rankings.DirSource
	loads atomic.Int32
}

func (c *countingSource) Load(ctx context.Context, division string) ([]models.PlayerRankingEntry, error) {
	c.loads.Add(1)
	return c.DirSource.Load(ctx, division)
}

func newTestServer(t *testing.T) (*Server, *countingSource) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"ipsc_ranking_open.json":     openJSON,
		"ipsc_ranking_combined.json": openJSON,
		"ipsc_ranking_standard.json": `{"not":"a list"}`,
		"metadata.json":              `{"update_date":"2024-05-01"}`,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	src := &countingSource{DirSource: rankings.NewDirSource(os.DirFS(dir))}
	srv, err := New(Options{Source: src, DataDir: dir})
	require.NoError(t, err)
	return srv, src
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestNewRequiresSource(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestOverviewPage(t *testing.T) {
	srv, src := newTestServer(t)

	rec := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `id="count-open">2 skyttar</span>`)
	assert.Contains(t, body, `id="count-combined">2 skyttar</span>`)
	assert.Contains(t, body, `id="count-standard"></span>`)
	assert.Contains(t, body, `id="count-production-optics"></span>`)
	assert.Contains(t, body, `<strong id="total-players">2</strong>`)
	assert.Contains(t, body, `<span id="last-updated">`+site.FormatDate(time.Now())[:4])
	assert.Contains(t, body, `<span id="data-updated">2024-05-01</span>`)
	assert.Equal(t, int32(8), src.loads.Load())
}

func TestRankingRedirectsWithoutDivision(t *testing.T) {
	srv, src := newTestServer(t)

	rec := get(t, srv, "/ranking")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, int32(0), src.loads.Load())

	rec = get(t, srv, "/ranking?division=")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, int32(0), src.loads.Load())
}

func TestRankingPage(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, "/ranking?division=open")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Open - Svenska IPSC Ranking</title>")
	assert.Contains(t, body, "Visar 2 skyttar")
	assert.Contains(t, body, ">72.5<")
	assert.Contains(t, body, ">98.3%<")
	assert.Contains(t, body, `style="width: 98.34%"`)
	assert.Contains(t, body, ">70.1 ± 3.3<")
	assert.Contains(t, body, `id="search-box"`)
}

func TestRankingPageWithSearch(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, "/ranking?division=open&q=+snabb+")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Visar 1 av 2 skyttar")
	assert.Contains(t, body, `value=" snabb "`)
	assert.Contains(t, body, "<tr class=\"ranking-row\" data-search=\"erik\nlind\nsnabben\nnor\">")
	assert.Contains(t, body, "<tr class=\"ranking-row is-hidden\" data-search=\"anna\nsvensson\nswe\">")
}

func TestRankingPageErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, "/ranking?division=shotgun")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), site.LoadErrorMessage)
	assert.Contains(t, rec.Body.String(), "<title>shotgun - Svenska IPSC Ranking</title>")
	assert.Contains(t, rec.Body.String(), `<a href="/" class="back-button">`)

	rec = get(t, srv, "/ranking?division=standard")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), site.LoadErrorMessage)
}

func TestRankingPageLoadsOncePerView(t *testing.T) {
	srv, src := newTestServer(t)

	rec := get(t, srv, "/ranking?division=open&q=anna")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, int32(1), src.loads.Load())

	// every row ships with the page; searching only toggles visibility
	assert.Equal(t, 1, strings.Count(body, `<tr class="ranking-row" `))
	assert.Equal(t, 1, strings.Count(body, `<tr class="ranking-row is-hidden" `))
	assert.Contains(t, body, `id="ranking-info"`)

	for _, q := range []string{"a", "an", "ann"} {
		assert.Equal(t, http.StatusNotFound, get(t, srv, "/ranking/rows?division=open&q="+q).Code)
	}
	assert.Equal(t, int32(1), src.loads.Load())
}

func TestLegacyRedirects(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, "/ranking.html?division=open")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/ranking?division=open", rec.Header().Get("Location"))

	rec = get(t, srv, "/index.html")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestAPIDivisions(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, "/api/divisions")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DivisionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Divisions, 8)
	assert.Equal(t, "combined", resp.Divisions[0].Key)
	require.NotNil(t, resp.Divisions[0].Count)
	assert.Equal(t, 2, *resp.Divisions[0].Count)
	assert.Nil(t, resp.Divisions[1].Count)
	assert.Equal(t, "2", resp.TotalPlayers)
	assert.Equal(t, "1000+", resp.TotalMatches)
	assert.NotEmpty(t, resp.LastUpdated)
	assert.Equal(t, "2024-05-01", resp.DataUpdated)
}

func TestAPIRankings(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, "/api/divisions/open/rankings?q=nor")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RankingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "open", resp.Division)
	assert.Equal(t, "Open", resp.Name)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Filtered)
	assert.Equal(t, "Visar 1 av 2 skyttar", resp.Info)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "Snabben", resp.Entries[0].Alias)

	rec = get(t, srv, "/api/divisions/open/rankings?q=zzz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"entries":[]`)
}

func TestAPIRankingsErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, "/api/divisions/shotgun/rankings")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Ranking data not found"}`, rec.Body.String())

	rec = get(t, srv, "/api/divisions/standard/rankings")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestAPICORS(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/divisions", nil)
	req.Header.Set("Origin", "http://example.org")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestDataFilesAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, "/data/ipsc_ranking_open.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, openJSON, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/data/ipsc_ranking_shotgun.json").Code)

	rec = get(t, srv, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
