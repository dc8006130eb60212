package site

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/svipsc/ranking/internal/models"
	"github.com/svipsc/ranking/internal/rankings"
)

// TotalMatchesPlaceholder is shown until match counts are published with the data
const TotalMatchesPlaceholder = "1000+"

// maxParallelLoads bounds the overview fan-out
const maxParallelLoads = 8

// DivisionCard is one division tile on the overview page
type DivisionCard struct {
	Key        string
	ElementKey string
	Name       string
	Count      *int // nil when the division could not be loaded
}

// CountText returns "<n> skyttar", or "" when the count is unknown
func (c DivisionCard) CountText() string {
	if c.Count == nil {
		return ""
	}
	return PlayerCount(*c.Count)
}

// OverviewPage is everything the overview template shows
type OverviewPage struct {
	Divisions    []DivisionCard
	TotalPlayers string // "" until the combined division loads
	TotalMatches string
	LastUpdated  string // render date
	DataUpdated  string // metadata.json update_date, "" when not published
}

// Stats returns the per-division counts for the JSON API
func (p *OverviewPage) Stats() []models.DivisionStat {
	stats := make([]models.DivisionStat, 0, len(p.Divisions))
	for _, d := range p.Divisions {
		stats = append(stats, models.DivisionStat{Key: d.Key, Name: d.Name, Count: d.Count})
	}
	return stats
}

// Overview populates the per-division player counts
type Overview struct {
	Registry *models.Registry
	Source   rankings.Source
	Logger   *zap.Logger
	Now      func() time.Time
}

// NewOverview creates an overview controller
func NewOverview(registry *models.Registry, source rankings.Source, logger *zap.Logger) *Overview {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Overview{Registry: registry, Source: source, Logger: logger, Now: time.Now}
}

// Load fetches every division independently. A failed division keeps a nil
// count and is logged; it never fails the page.
func (o *Overview) Load(ctx context.Context) *OverviewPage {
	divisions := o.Registry.Divisions()
	page := &OverviewPage{
		Divisions:    make([]DivisionCard, len(divisions)),
		TotalMatches: TotalMatchesPlaceholder,
	}

	var g errgroup.Group
	g.SetLimit(maxParallelLoads)
	for i, d := range divisions {
		i, d := i, d
		page.Divisions[i] = DivisionCard{Key: d.Key, ElementKey: models.ElementKey(d.Key), Name: d.Name}
		g.Go(func() error {
			entries, err := o.Source.Load(ctx, d.Key)
			if err != nil {
				o.Logger.Warn("Could not load stats for division",
					zap.String("division", d.Key), zap.Error(err))
				return nil
			}
			n := len(entries)
			page.Divisions[i].Count = &n
			return nil
		})
	}
	_ = g.Wait()

	for _, d := range page.Divisions {
		if d.Key == models.CombinedKey && d.Count != nil {
			page.TotalPlayers = FormatInt(*d.Count)
		}
	}
	page.LastUpdated = FormatDate(o.Now())
	page.DataUpdated = o.dataUpdated(ctx)
	return page
}

// dataUpdated returns the publish date from the source's metadata, if any
func (o *Overview) dataUpdated(ctx context.Context) string {
	ms, ok := o.Source.(rankings.MetadataSource)
	if !ok {
		return ""
	}
	meta, err := ms.Metadata(ctx)
	if err != nil {
		o.Logger.Debug("No data metadata", zap.Error(err))
		return ""
	}
	if meta == nil {
		return ""
	}
	return meta.UpdateDate
}
