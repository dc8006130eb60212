package rankings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/svipsc/ranking/internal/models"
)

var (
	// ErrNotFound means the division has no ranking file
	ErrNotFound = errors.New("ranking data not found")
	// ErrMalformed means the ranking file does not have the expected shape
	ErrMalformed = errors.New("malformed ranking data")
)

// StatusError is returned by HTTPSource for non-2xx responses
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP status %d", e.URL, e.Code)
}

// Is makes a 404 match ErrNotFound
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == 404
}

// wireEntry mirrors the generator output. Pointers detect missing keys.
// Division files carry division_rank, the combined file combined_rank.
type wireEntry struct {
	Rank               *int     `json:"rank"`
	CombinedRank       *int     `json:"combined_rank"`
	DivisionRank       *int     `json:"division_rank"`
	FirstName          *string  `json:"first_name"`
	LastName           *string  `json:"last_name"`
	Alias              *string  `json:"alias"`
	Region             *string  `json:"region"`
	ConservativeRating *float64 `json:"conservative_rating"`
	PercentageOfBest   *float64 `json:"percentage_of_best"`
	MatchesPlayed      *int     `json:"matches_played"`
	Mu                 *float64 `json:"mu"`
	Sigma              *float64 `json:"sigma"`
}

// Decode parses and validates a ranking file. The payload must be a single
// JSON array of entries with strictly ascending positive ranks.
func Decode(r io.Reader) ([]models.PlayerRankingEntry, error) {
	dec := json.NewDecoder(r)
	var wire []wireEntry
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if wire == nil {
		return nil, fmt.Errorf("%w: not an array", ErrMalformed)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after array", ErrMalformed)
	}

	entries := make([]models.PlayerRankingEntry, 0, len(wire))
	prev := 0
	for i, w := range wire {
		e, err := w.entry()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformed, i, err)
		}
		if e.Rank <= prev {
			return nil, fmt.Errorf("%w: entry %d: rank %d after %d", ErrMalformed, i, e.Rank, prev)
		}
		prev = e.Rank
		entries = append(entries, e)
	}
	return entries, nil
}

func (w wireEntry) entry() (models.PlayerRankingEntry, error) {
	rank := w.Rank
	if rank == nil {
		rank = w.CombinedRank
	}
	if rank == nil {
		rank = w.DivisionRank
	}
	switch {
	case rank == nil:
		return models.PlayerRankingEntry{}, errors.New("missing rank")
	case w.FirstName == nil || w.LastName == nil:
		return models.PlayerRankingEntry{}, errors.New("missing name")
	case w.Region == nil:
		return models.PlayerRankingEntry{}, errors.New("missing region")
	case w.ConservativeRating == nil || w.PercentageOfBest == nil:
		return models.PlayerRankingEntry{}, errors.New("missing rating")
	case w.Mu == nil || w.Sigma == nil:
		return models.PlayerRankingEntry{}, errors.New("missing mu/sigma")
	case w.MatchesPlayed == nil:
		return models.PlayerRankingEntry{}, errors.New("missing matches_played")
	case *w.MatchesPlayed < 0:
		return models.PlayerRankingEntry{}, fmt.Errorf("negative matches_played %d", *w.MatchesPlayed)
	}

	e := models.PlayerRankingEntry{
		Rank:               *rank,
		FirstName:          *w.FirstName,
		LastName:           *w.LastName,
		Region:             *w.Region,
		ConservativeRating: *w.ConservativeRating,
		PercentageOfBest:   *w.PercentageOfBest,
		MatchesPlayed:      *w.MatchesPlayed,
		Mu:                 *w.Mu,
		Sigma:              *w.Sigma,
	}
	if w.Alias != nil {
		e.Alias = *w.Alias
	}
	return e, nil
}
