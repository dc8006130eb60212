package site

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svipsc/ranking/internal/models"
	"github.com/svipsc/ranking/internal/rankings"
)

func TestRankingRedirectsWithoutDivision(t *testing.T) {
	src := &fakeSource{}
	page := NewRanking(models.DefaultRegistry(), src, nil).Load(context.Background(), "", "anna")

	assert.Equal(t, StateRedirect, page.State)
	assert.Empty(t, src.loaded())
}

func TestRankingLoaded(t *testing.T) {
	src := &fakeSource{datasets: map[string][]models.PlayerRankingEntry{"production_optics": makeEntries(150)}}
	page := NewRanking(models.DefaultRegistry(), src, nil).Load(context.Background(), "production_optics", "")

	require.Equal(t, StateLoaded, page.State)
	assert.Equal(t, "Production Optics - Svenska IPSC Ranking", page.Title())
	assert.Equal(t, "Production Optics Ranking", page.Heading())
	assert.Equal(t, 150, page.Total())
	assert.Equal(t, page.Dataset(), page.Rows())
	assert.Equal(t, "Visar 150 skyttar", page.Info())
	assert.Equal(t, []string{"production_optics"}, src.loaded())
}

func TestRankingFilter(t *testing.T) {
	src := &fakeSource{datasets: map[string][]models.PlayerRankingEntry{"open": makeEntries(150)}}
	page := NewRanking(models.DefaultRegistry(), src, nil).Load(context.Background(), "open", "skytt1")

	// Skytt1, Skytt10-19, Skytt100-150
	want := 1 + 10 + 51
	require.Len(t, page.Rows(), want)
	assert.Equal(t, fmt.Sprintf("Visar %d av 150 skyttar", want), page.Info())
	for i := 1; i < len(page.Rows()); i++ {
		assert.Less(t, page.Rows()[i-1].Rank, page.Rows()[i].Rank)
	}

	page.Filter("   ")
	assert.Equal(t, "Visar 150 skyttar", page.Info())
	assert.Len(t, page.Rows(), 150)
	assert.Len(t, src.loaded(), 1)
}

func TestRankingUnknownDivisionFails(t *testing.T) {
	src := &fakeSource{}
	page := NewRanking(models.DefaultRegistry(), src, nil).Load(context.Background(), "shotgun", "")

	assert.Equal(t, StateError, page.State)
	assert.True(t, page.Failed())
	assert.True(t, page.NotFound())
	assert.Equal(t, "shotgun Ranking", page.Heading())
	assert.Equal(t, []string{"shotgun"}, src.loaded())
}

func TestRankingLoadErrorIsNotNotFound(t *testing.T) {
	src := &fakeSource{failures: map[string]error{"open": rankings.ErrMalformed}}
	page := NewRanking(models.DefaultRegistry(), src, nil).Load(context.Background(), "open", "")

	assert.Equal(t, StateError, page.State)
	assert.False(t, page.NotFound())
	assert.Equal(t, 0, page.Total())
}

func TestRankingRowViewsCoverWholeDataset(t *testing.T) {
	src := &fakeSource{datasets: map[string][]models.PlayerRankingEntry{"open": makeEntries(30)}}
	page := NewRanking(models.DefaultRegistry(), src, nil).Load(context.Background(), "open", " SKYTT2 ")

	views := page.RowViews()
	require.Len(t, views, 30)
	visible := 0
	for i, v := range views {
		assert.Equal(t, i+1, v.Rank)
		assert.Equal(t, v.SearchText(), v.Search)
		if !v.Hidden {
			visible++
		}
	}
	// Skytt2, Skytt20-29
	assert.Equal(t, len(page.Rows()), visible)
	assert.Equal(t, 11, visible)
	assert.Len(t, src.loaded(), 1)
}
