package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RawListing holds one corpus row exactly as read from CSV or the database.
// The Cleaner turns it into a ListingRecord.
type RawListing struct {
	URL            string
	Title          string
	Price          string
	AreaM2         string
	Municipality   string
	Rooms          string
	Floor          string
	Type           string
	Condition      string
	Heating        string
	ParkingGarage  string
	ParkingOutdoor string
}

// ListingRecord is one cleaned listing. Price and AreaM2 keep their source
// formatting; the feature encoder parses them. Parking flags use the source
// convention: 0 means the amenity is present, 1 that it is absent.
type ListingRecord struct {
	URL            string  `json:"url,omitempty"`
	Title          string  `json:"title,omitempty"`
	Price          string  `json:"price,omitempty"`
	AreaM2         string  `json:"area_m2"`
	Municipality   string  `json:"municipality"`
	Rooms          float64 `json:"rooms"`
	Floor          string  `json:"floor"`
	Type           string  `json:"type"`
	Condition      string  `json:"condition"`
	Heating        string  `json:"heating"`
	ParkingGarage  int     `json:"parking_garage"`
	ParkingOutdoor int     `json:"parking_outdoor"`
}

// Estimate is the result of pricing one listing.
type Estimate struct {
	Municipality   string          `json:"municipality"`
	AreaM2         float64         `json:"area_m2"`
	PricePerArea   decimal.Decimal `json:"price_per_area"`
	Total          decimal.Decimal `json:"total"`
	Currency       string          `json:"currency"`
	Strategy       string          `json:"strategy"`
	GroundDiscount bool            `json:"ground_discount,omitempty"`
}

// CurrencySymbol returns the display symbol for the estimate currency.
func (e Estimate) CurrencySymbol() string {
	switch e.Currency {
	case "EUR", "":
		return "€"
	case "USD":
		return "$"
	default:
		return e.Currency
	}
}

func (e Estimate) String() string {
	sym := e.CurrencySymbol()
	return fmt.Sprintf("%s %s/m² · %s %s",
		e.PricePerArea.StringFixed(2), sym, e.Total.StringFixed(2), sym)
}

// EvaluationReport describes one training run and its held-out metrics.
type EvaluationReport struct {
	RunID          string    `json:"run_id"`
	Strategy       string    `json:"strategy"`
	Degree         int       `json:"degree,omitempty"`
	Alpha          float64   `json:"alpha,omitempty"`
	RMSE           float64   `json:"rmse"`
	R2             float64   `json:"r2"`
	AveragePrice   float64   `json:"average_price_per_area"`
	MinPrice       float64   `json:"min_price_per_area"`
	MaxPrice       float64   `json:"max_price_per_area"`
	CorpusRows     int       `json:"corpus_rows"`
	DroppedRows    int       `json:"dropped_rows"`
	TrainRows      int       `json:"train_rows"`
	TestRows       int       `json:"test_rows"`
	Features       int       `json:"features"`
	GroundPolicy   string    `json:"ground_floor_policy"`
	TrainedAt      time.Time `json:"trained_at"`
	TrainingMillis int64     `json:"training_ms"`
}

// MunicipalityStat aggregates the corpus for one municipality.
type MunicipalityStat struct {
	Municipality string
	Listings     int
	AvgPrice     float64
}

// CorpusReport holds the computed analytics over the cleaned corpus.
type CorpusReport struct {
	TotalListings   int
	PricedListings  int
	AveragePrice    float64
	MinPrice        float64
	MaxPrice        float64
	AverageArea     float64
	MostExpensive   *ListingRecord
	MostExpensivePA float64
	ByMunicipality  []MunicipalityStat
	ByType          map[string]int
}
