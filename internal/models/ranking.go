package models

import "strings"

// PlayerRankingEntry is one row of a division's ranking file
type PlayerRankingEntry struct {
	Rank               int     `json:"rank"` // 1-based, ascending = better
	FirstName          string  `json:"first_name"`
	LastName           string  `json:"last_name"`
	Alias              string  `json:"alias,omitempty"` // empty = no nickname
	Region             string  `json:"region"`
	ConservativeRating float64 `json:"conservative_rating"`
	PercentageOfBest   float64 `json:"percentage_of_best"` // 0-100
	MatchesPlayed      int     `json:"matches_played"`
	Mu                 float64 `json:"mu"`
	Sigma              float64 `json:"sigma"`
}

// FullName returns "First Last"
func (e PlayerRankingEntry) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// HasAlias reports whether the player has a nickname
func (e PlayerRankingEntry) HasAlias() bool { return e.Alias != "" }

// Matches reports whether a normalised search term is a substring of the
// first name, last name, alias or region, ignoring case.
func (e PlayerRankingEntry) Matches(term string) bool {
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(e.FirstName), term) ||
		strings.Contains(strings.ToLower(e.LastName), term) ||
		strings.Contains(strings.ToLower(e.Region), term) {
		return true
	}
	return e.HasAlias() && strings.Contains(strings.ToLower(e.Alias), term)
}

// SearchText returns the searchable fields lower-cased, one per line.
// The alias is left out when empty.
func (e PlayerRankingEntry) SearchText() string {
	fields := []string{e.FirstName, e.LastName}
	if e.HasAlias() {
		fields = append(fields, e.Alias)
	}
	fields = append(fields, e.Region)
	return strings.ToLower(strings.Join(fields, "\n"))
}

// NormalizeTerm lower-cases and trims a raw search box value
func NormalizeTerm(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Filter returns the entries matching the raw search term, in dataset order.
// An empty or whitespace-only term yields a full copy.
func Filter(entries []PlayerRankingEntry, raw string) []PlayerRankingEntry {
	term := NormalizeTerm(raw)
	out := make([]PlayerRankingEntry, 0, len(entries))
	for _, e := range entries {
		if e.Matches(term) {
			out = append(out, e)
		}
	}
	return out
}
