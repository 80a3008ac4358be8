package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreTable_Canonical(t *testing.T) {
	tables := DefaultScoreTables()

	tests := []struct {
		name  string
		table *ScoreTable
		raw   string
		want  string
	}{
		{"exact", tables.Condition, "Lux", "Lux"},
		{"case and diacritics", tables.Condition, "  ODRZAVANO ", "Održavano"},
		{"alias", tables.Heating, "centralno grejanje", "CG"},
		{"blank", tables.Type, "   ", FallbackCategory},
		{"ostalo", tables.Type, "Ostalo", FallbackCategory},
		{"unknown keeps text", tables.Heating, "Toplotna  pumpa", "Toplotna pumpa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.table.Canonical(tt.raw))
		})
	}
}

func TestScoreTable_Score(t *testing.T) {
	tables := DefaultScoreTables()

	assert.Equal(t, 5, tables.Condition.Score("lux"))
	assert.Equal(t, 1, tables.Condition.Score("Za renoviranje"))
	assert.Greater(t, tables.Condition.Score("Renovirano"), tables.Condition.Score("Izvorno stanje"))
	assert.Equal(t, 0, tables.Condition.Score("kao nov"))
	assert.Equal(t, 0, tables.Heating.Score(""))
	assert.Equal(t, 3, tables.Type.Score("Novogradnja"))
}

func TestScoreTable_Known(t *testing.T) {
	tables := DefaultScoreTables()
	known := tables.Type.Known()
	assert.Equal(t, []string{"Stara gradnja", "U izgradnji", "Novogradnja"}, known)

	known[0] = "mutated"
	assert.Equal(t, "Stara gradnja", tables.Type.Known()[0])
}
