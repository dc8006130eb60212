package site

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/svipsc/ranking/internal/models"
	"github.com/svipsc/ranking/internal/rankings"
)

// Page texts for the ranking view
const (
	SiteName         = "Svenska IPSC Ranking"
	LoadErrorTitle   = "Fel vid laddning"
	LoadErrorMessage = "Kunde inte ladda rankingdata. Kontrollera att datafiler finns tillgängliga."
	BackLinkText     = "← Tillbaka till startsidan"
)

// State is where a ranking page ended up
type State int

const (
	// StateRedirect means no division was given; send the visitor to the overview
	StateRedirect State = iota
	// StateLoaded means the dataset is loaded and the filtered view is current
	StateLoaded
	// StateError means the dataset could not be loaded
	StateError
)

func (s State) String() string {
	switch s {
	case StateRedirect:
		return "redirect"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	}
	return "unknown"
}

// RankingPage holds one division's dataset and the current search view
type RankingPage struct {
	State    State
	Division string
	Name     string
	Query    string
	Err      error

	dataset  []models.PlayerRankingEntry
	filtered []models.PlayerRankingEntry
}

// Title is the document title
func (p *RankingPage) Title() string { return p.Name + " - " + SiteName }

// Heading is the page heading
func (p *RankingPage) Heading() string { return p.Name + " Ranking" }

// Total is the size of the full dataset
func (p *RankingPage) Total() int { return len(p.dataset) }

// Dataset returns the full ranking list as loaded
func (p *RankingPage) Dataset() []models.PlayerRankingEntry { return p.dataset }

// Rows returns the current filtered view
func (p *RankingPage) Rows() []models.PlayerRankingEntry { return p.filtered }

// RowView is one table row. Every dataset entry is rendered once; rows
// outside the current view are hidden so the search box can filter in
// the browser without another load.
type RowView struct {
	models.PlayerRankingEntry
	Hidden bool
	Search string
}

// RowViews returns the whole dataset in order, marked against the current query
func (p *RankingPage) RowViews() []RowView {
	term := models.NormalizeTerm(p.Query)
	views := make([]RowView, len(p.dataset))
	for i, e := range p.dataset {
		views[i] = RowView{PlayerRankingEntry: e, Hidden: !e.Matches(term), Search: e.SearchText()}
	}
	return views
}

// Info returns the "Visar ..." line for the current view
func (p *RankingPage) Info() string { return InfoLine(len(p.filtered), len(p.dataset)) }

// Failed reports whether the page is in the error state
func (p *RankingPage) Failed() bool { return p.State == StateError }

// NotFound reports whether the load failed because the division has no data
func (p *RankingPage) NotFound() bool { return errors.Is(p.Err, rankings.ErrNotFound) }

// Filter recomputes the filtered view from the full dataset
func (p *RankingPage) Filter(query string) {
	p.Query = query
	p.filtered = models.Filter(p.dataset, query)
}

// Ranking loads and filters one division's ranking
type Ranking struct {
	Registry *models.Registry
	Source   rankings.Source
	Logger   *zap.Logger
}

// NewRanking creates a ranking controller
func NewRanking(registry *models.Registry, source rankings.Source, logger *zap.Logger) *Ranking {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ranking{Registry: registry, Source: source, Logger: logger}
}

// Load resolves the page for a division and search term. Unknown divisions
// are not rejected here; they fail at load time like any missing file.
func (c *Ranking) Load(ctx context.Context, division, query string) *RankingPage {
	if division == "" {
		return &RankingPage{State: StateRedirect}
	}

	page := &RankingPage{
		Division: division,
		Name:     c.Registry.DisplayName(division),
		Query:    query,
	}

	entries, err := c.Source.Load(ctx, division)
	if err != nil {
		c.Logger.Error("Error loading ranking data",
			zap.String("division", division), zap.Error(err))
		page.State = StateError
		page.Err = err
		return page
	}

	page.State = StateLoaded
	page.dataset = entries
	page.Filter(query)
	return page
}
