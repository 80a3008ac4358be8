package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationScorer_Ordering(t *testing.T) {
	s := NewLocationScorer()
	s.Fit([]PricedLocation{
		{"Vračar", 4000}, {"Vračar", 3800},
		{"Zemun", 2100}, {"Zemun", 1900},
		{"Savski venac", 5200},
		{"Rakovica", 1500}, {"Rakovica", 1700},
	})

	assert.Equal(t, 4, s.Score("Savski venac"))
	assert.Equal(t, 3, s.Score("Vračar"))
	assert.Equal(t, 2, s.Score("Zemun"))
	assert.Equal(t, 1, s.Score("Rakovica"))

	ranking := s.Ranking()
	require.Len(t, ranking, 4)
	for i := 1; i < len(ranking); i++ {
		assert.Greater(t, ranking[i-1].MeanPrice, ranking[i].MeanPrice)
		assert.Greater(t, ranking[i-1].Score, ranking[i].Score)
	}
	assert.Equal(t, 2, ranking[1].Listings)
	assert.InDelta(t, 3900, ranking[1].MeanPrice, 1e-9)
}

func TestLocationScorer_Unseen(t *testing.T) {
	s := NewLocationScorer()
	assert.Equal(t, 0, s.Score("Zvezdara"))

	s.Fit([]PricedLocation{{"Zemun", 2000}})
	for _, m := range []string{"Zvezdara", "", "zemun"} {
		assert.Equal(t, 0, s.Score(m), m)
	}
}

func TestLocationScorer_SingleMunicipality(t *testing.T) {
	s := NewLocationScorer()
	assert.NotPanics(t, func() {
		s.Fit([]PricedLocation{{"Zemun", 2000}, {"Zemun", 2000}, {"Zemun", 2600}})
	})

	assert.Equal(t, map[string]int{"Zemun": 1}, s.Scores())
}

func TestLocationScorer_TiesAreStable(t *testing.T) {
	rows := []PricedLocation{{"B", 1000}, {"A", 1000}, {"C", 900}}

	s := NewLocationScorer()
	s.Fit(rows)
	assert.Equal(t, 3, s.Score("A"))
	assert.Equal(t, 2, s.Score("B"))
	assert.Equal(t, 1, s.Score("C"))
}

func TestLocationScorer_ScoresIsCopy(t *testing.T) {
	s := NewLocationScorer()
	s.Fit([]PricedLocation{{"Zemun", 2000}})

	scores := s.Scores()
	scores["Zemun"] = 99
	assert.Equal(t, 1, s.Score("Zemun"))
}
