package services

import (
	"io"
	"testing"

	"apartment-estimator/models"
	"apartment-estimator/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLoggerWith(io.Discard, "debug", "console") }

func TestCleanerParseRooms(t *testing.T) {
	c := NewCleaner(newTestLogger())

	tests := []struct {
		raw  string
		want float64
	}{
		{"2", 2},
		{"2.5", 2.5},
		{"1,5", 1.5},
		{"5+", 5},
		{" 3 ", 3},
		{"", 0},
		{"garsonjera", 0},
	}

	for _, tt := range tests {
		got := c.parseRooms(tt.raw)
		if got != tt.want {
			t.Errorf("parseRooms(%q) = %.2f; want %.2f", tt.raw, got, tt.want)
		}
	}
}

func TestCleanerParseParkingFlag(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"0", 0},
		{"1", 1},
		{"", 1},
		{"Garaža", 0},
		{"parking mesto", 0},
		{"DA", 0},
		{"yes", 0},
		{"true", 0},
		{"nema", 1},
		{"2", 1},
	}

	for _, tt := range tests {
		got := parseParkingFlag(tt.raw)
		if got != tt.want {
			t.Errorf("parseParkingFlag(%q) = %d; want %d", tt.raw, got, tt.want)
		}
	}
}

func TestCleanerKeepsRowsWithoutURL(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.RawListing{
		{Price: "100.000 €", AreaM2: "50"},
		{Price: "120.000 €", AreaM2: "60"},
	}

	cleaned := c.Clean(raw)
	if len(cleaned) != 2 {
		t.Errorf("expected 2 listings, got %d", len(cleaned))
	}
}

func TestCleanerDeduplicatesURL(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.RawListing{
		{Title: "A", URL: "https://example.rs/stan/1"},
		{Title: "B", URL: " https://example.rs/stan/1 "},
		nil,
	}

	cleaned := c.Clean(raw)
	if len(cleaned) != 1 {
		t.Errorf("expected 1 listing after deduplication, got %d", len(cleaned))
	}
}

func TestCleanerNormalisesFields(t *testing.T) {
	c := NewCleaner(newTestLogger())
	cleaned := c.Clean([]*models.RawListing{{
		Municipality:   "  Ostalo ",
		Type:           " Stara   gradnja ",
		Floor:          " IV/8",
		Rooms:          "2.5",
		ParkingGarage:  "0",
		ParkingOutdoor: "1",
	}})

	got := cleaned[0]
	if got.Municipality != "Other" {
		t.Errorf("Municipality: got %q, want Other", got.Municipality)
	}
	if got.Type != "Stara gradnja" {
		t.Errorf("Type: got %q", got.Type)
	}
	if got.Floor != "IV/8" {
		t.Errorf("Floor: got %q", got.Floor)
	}
	if got.Rooms != 2.5 || got.ParkingGarage != 0 || got.ParkingOutdoor != 1 {
		t.Errorf("unexpected numeric fields %+v", got)
	}
}
