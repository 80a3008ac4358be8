package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"apartment-estimator/models"
	"apartment-estimator/utils"
)

// ListingColumns must be present in any listing CSV header.
var ListingColumns = []string{
	"Area_m2", "Municipality", "Rooms", "Floor",
	"Type", "Condition", "Heating", "Parking_garage", "Parking_outdoor",
}

// CorpusColumns must be present in a training corpus header.
var CorpusColumns = append([]string{"Price"}, ListingColumns...)

// CSVReader reads a corpus CSV with a header row. Columns are matched by
// name, so extra columns (City, Price_per_m2, ...) are ignored. Rows that
// cannot be read are skipped.
type CSVReader struct {
	path     string
	required []string
	logger   *utils.Logger
}

// NewCSVReader returns a reader for the training corpus at path.
func NewCSVReader(path string, logger *utils.Logger) *CSVReader {
	return &CSVReader{path: path, required: CorpusColumns, logger: logger}
}

// NewListingCSVReader returns a reader for listings to be priced. The
// Price column is optional.
func NewListingCSVReader(path string, logger *utils.Logger) *CSVReader {
	return &CSVReader{path: path, required: ListingColumns, logger: logger}
}

// ReadRaw implements RawListingReader.
func (r *CSVReader) ReadRaw() ([]*models.RawListing, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", r.path, err)
	}
	defer f.Close()

	listings, skipped, err := ParseCSV(f, r.required)
	if err != nil {
		return nil, fmt.Errorf("csv: %q: %w", r.path, err)
	}
	if skipped > 0 && r.logger != nil {
		r.logger.Warn("[csv] Skipped %d malformed rows in %s", skipped, r.path)
	}
	return listings, nil
}

// ParseCSV decodes listing rows from src and reports how many rows were
// skipped. The header must name every column in required.
func ParseCSV(src io.Reader, required []string) ([]*models.RawListing, int, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		col[strings.TrimSpace(h)] = i
	}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, 0, fmt.Errorf("missing column %q", name)
		}
	}

	var (
		out     []*models.RawListing
		skipped int
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skipped++
				continue
			}
			return nil, skipped, err
		}
		if len(rec) < len(header) {
			skipped++
			continue
		}

		get := func(name string) string {
			if i, ok := col[name]; ok && i < len(rec) {
				return rec[i]
			}
			return ""
		}
		out = append(out, &models.RawListing{
			URL:            get("URL"),
			Title:          get("Title"),
			Price:          get("Price"),
			AreaM2:         get("Area_m2"),
			Municipality:   get("Municipality"),
			Rooms:          get("Rooms"),
			Floor:          get("Floor"),
			Type:           get("Type"),
			Condition:      get("Condition"),
			Heating:        get("Heating"),
			ParkingGarage:  get("Parking_garage"),
			ParkingOutdoor: get("Parking_outdoor"),
		})
	}
	return out, skipped, nil
}
