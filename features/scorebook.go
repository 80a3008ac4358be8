package features

import "strings"

// FallbackCategory replaces missing categorical values and is scored by
// every table.
const FallbackCategory = "Other"

// ScoreTable maps a fixed categorical vocabulary to ordinal scores.
// Lookups are case-insensitive and tolerate the usual spelling variants
// found in listing data.
type ScoreTable struct {
	name     string
	order    []string
	scores   map[string]int
	aliases  map[string]string
	fallback int
}

type scoreEntry struct {
	canonical string
	score     int
	aliases   []string
}

func newScoreTable(name string, fallback int, entries ...scoreEntry) *ScoreTable {
	t := &ScoreTable{
		name:     name,
		scores:   make(map[string]int, len(entries)+1),
		aliases:  make(map[string]string),
		fallback: fallback,
	}
	for _, e := range entries {
		t.order = append(t.order, e.canonical)
		t.scores[e.canonical] = e.score
		t.aliases[foldCategory(e.canonical)] = e.canonical
		for _, a := range e.aliases {
			t.aliases[foldCategory(a)] = e.canonical
		}
	}
	t.scores[FallbackCategory] = fallback
	t.aliases[foldCategory(FallbackCategory)] = FallbackCategory
	t.aliases["ostalo"] = FallbackCategory
	return t
}

// Name is the feature group the table scores.
func (t *ScoreTable) Name() string { return t.name }

// Known lists the canonical vocabulary in score-table order.
func (t *ScoreTable) Known() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Canonical returns the canonical spelling of a known value, the trimmed
// input for values outside the table, and FallbackCategory for blanks.
func (t *ScoreTable) Canonical(raw string) string {
	v := strings.Join(strings.Fields(raw), " ")
	if v == "" {
		return FallbackCategory
	}
	if c, ok := t.aliases[foldCategory(v)]; ok {
		return c
	}
	return v
}

// Score returns the ordinal score of raw, or the fallback score when the
// value is not part of the vocabulary.
func (t *ScoreTable) Score(raw string) int {
	if s, ok := t.scores[t.Canonical(raw)]; ok {
		return s
	}
	return t.fallback
}

// foldCategory lower-cases and strips Serbian diacritics so that
// "Održavano" and "odrzavano" meet.
func foldCategory(s string) string {
	return diacritics.Replace(strings.ToLower(strings.TrimSpace(s)))
}

var diacritics = strings.NewReplacer("š", "s", "đ", "dj", "č", "c", "ć", "c", "ž", "z")

// CategoryScoreTables bundles the condition, heating and type tables.
type CategoryScoreTables struct {
	Condition *ScoreTable
	Heating   *ScoreTable
	Type      *ScoreTable
}

// DefaultScoreTables returns the vocabulary used by Belgrade listing portals.
func DefaultScoreTables() CategoryScoreTables {
	return CategoryScoreTables{
		Condition: newScoreTable("Condition", 0,
			scoreEntry{"Za renoviranje", 1, []string{"potrebno renoviranje", "za adaptaciju"}},
			scoreEntry{"Izvorno stanje", 2, []string{"izvorno", "original"}},
			scoreEntry{"Održavano", 3, []string{"odrzavan", "dobro stanje"}},
			scoreEntry{"Renovirano", 4, []string{"renoviran", "adaptirano", "adaptiran"}},
			scoreEntry{"Lux", 5, []string{"luks", "lux stanje", "luksuzno"}},
		),
		Heating: newScoreTable("Heating", 0,
			scoreEntry{"Struja", 1, []string{"električno", "elektricno grejanje"}},
			scoreEntry{"TA", 2, []string{"ta peć", "ta pec"}},
			scoreEntry{"Gas", 3, []string{"gasno"}},
			scoreEntry{"EG", 3, []string{"etažno", "etazno grejanje"}},
			scoreEntry{"CG", 4, []string{"centralno", "centralno grejanje"}},
			scoreEntry{"Podno", 4, []string{"podno grejanje"}},
		),
		Type: newScoreTable("Type", 0,
			scoreEntry{"Stara gradnja", 1, []string{"starogradnja"}},
			scoreEntry{"U izgradnji", 2, []string{"izgradnja"}},
			scoreEntry{"Novogradnja", 3, []string{"nova gradnja", "novo"}},
		),
	}
}
