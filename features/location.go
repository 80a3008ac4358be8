package features

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// PricedLocation is one fit-corpus observation for the LocationScorer.
type PricedLocation struct {
	Municipality string
	PricePerArea float64
}

// LocationRank is one row of the fitted ranking.
type LocationRank struct {
	Municipality string  `json:"municipality"`
	MeanPrice    float64 `json:"mean_price_per_area"`
	Listings     int     `json:"listings"`
	Score        int     `json:"score"`
}

// LocationScorer learns a desirability score per municipality. With K
// municipalities the most expensive one scores K and the cheapest 1;
// unseen municipalities score 0.
type LocationScorer struct {
	scores  map[string]int
	ranking []LocationRank
}

// NewLocationScorer returns an empty scorer; every lookup scores 0 until Fit.
func NewLocationScorer() *LocationScorer {
	return &LocationScorer{scores: map[string]int{}}
}

// Fit ranks municipalities by mean price-per-area, descending. Ties are
// broken by name so repeated fits are identical.
func (s *LocationScorer) Fit(rows []PricedLocation) {
	groups := make(map[string][]float64)
	for _, r := range rows {
		groups[r.Municipality] = append(groups[r.Municipality], r.PricePerArea)
	}

	ranking := make([]LocationRank, 0, len(groups))
	for m, prices := range groups {
		ranking = append(ranking, LocationRank{
			Municipality: m,
			MeanPrice:    stat.Mean(prices, nil),
			Listings:     len(prices),
		})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].MeanPrice != ranking[j].MeanPrice {
			return ranking[i].MeanPrice > ranking[j].MeanPrice
		}
		return ranking[i].Municipality < ranking[j].Municipality
	})

	k := len(ranking)
	scores := make(map[string]int, k)
	for rank := range ranking {
		ranking[rank].Score = k - rank
		scores[ranking[rank].Municipality] = k - rank
	}

	s.scores = scores
	s.ranking = ranking
}

// Score returns the fitted score for municipality, or 0 if it was not seen.
func (s *LocationScorer) Score(municipality string) int {
	return s.scores[municipality]
}

// Scores returns a copy of the score table.
func (s *LocationScorer) Scores() map[string]int {
	out := make(map[string]int, len(s.scores))
	for k, v := range s.scores {
		out[k] = v
	}
	return out
}

// Ranking returns the municipalities from highest to lowest score.
func (s *LocationScorer) Ranking() []LocationRank {
	out := make([]LocationRank, len(s.ranking))
	copy(out, s.ranking)
	return out
}
