package services

import (
	"testing"

	"apartment-estimator/models"
)

func sampleListings() []*models.ListingRecord {
	return []*models.ListingRecord{
		{Title: "Stan A", Price: "200.000 €", AreaM2: "50", Municipality: "Vračar", Type: "Novogradnja"},
		{Title: "Stan B", Price: "150.000 €", AreaM2: "50", Municipality: "Vračar", Type: "Stara gradnja"},
		{Title: "Stan C", Price: "90.000 €", AreaM2: "45", Municipality: "Zemun", Type: "Stara gradnja"},
		{Title: "Stan D", Price: "na upit", AreaM2: "60", Municipality: "Zemun", Type: ""},
		{Title: "Stan E", Price: "300.000 €", AreaM2: "60", Municipality: "Savski venac", Type: "Novogradnja"},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings())
	if r.TotalListings != 5 {
		t.Errorf("TotalListings: got %d, want 5", r.TotalListings)
	}
	if r.PricedListings != 4 {
		t.Errorf("PricedListings: got %d, want 4", r.PricedListings)
	}
	if r.ByType["Stara gradnja"] != 2 || r.ByType["Other"] != 1 {
		t.Errorf("ByType: got %v", r.ByType)
	}
}

func TestInsightPrices(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings())
	// price per m²: 4000, 3000, 2000, 5000
	if r.AveragePrice != 3500 {
		t.Errorf("AveragePrice: got %.2f, want 3500", r.AveragePrice)
	}
	if r.MinPrice != 2000 {
		t.Errorf("MinPrice: got %.2f, want 2000", r.MinPrice)
	}
	if r.MaxPrice != 5000 {
		t.Errorf("MaxPrice: got %.2f, want 5000", r.MaxPrice)
	}
}

func TestInsightMostExpensive(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings())
	if r.MostExpensive == nil {
		t.Fatal("MostExpensive should not be nil")
	}
	if r.MostExpensive.Title != "Stan E" {
		t.Errorf("MostExpensive: got %q, want %q", r.MostExpensive.Title, "Stan E")
	}
}

func TestInsightMunicipalityRanking(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings())

	want := []models.MunicipalityStat{
		{Municipality: "Savski venac", Listings: 1, AvgPrice: 5000},
		{Municipality: "Vračar", Listings: 2, AvgPrice: 3500},
		{Municipality: "Zemun", Listings: 1, AvgPrice: 2000},
	}
	if len(r.ByMunicipality) != len(want) {
		t.Fatalf("ByMunicipality len: got %d, want %d", len(r.ByMunicipality), len(want))
	}
	for i := range want {
		if r.ByMunicipality[i] != want[i] {
			t.Errorf("ByMunicipality[%d]: got %+v, want %+v", i, r.ByMunicipality[i], want[i])
		}
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(nil)
	if r.TotalListings != 0 {
		t.Errorf("expected 0 total listings for empty input")
	}
}
