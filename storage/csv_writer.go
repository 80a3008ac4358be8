package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// CSVWriter writes batch estimates to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	// Write header
	if err := w.Write([]string{
		"url", "municipality", "area_m2", "rooms", "floor",
		"price_per_m2", "total", "currency", "strategy", "error", "estimated_at",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteEstimates appends one row per estimate. Failed rows keep their
// input columns and carry the error text.
func (c *CSVWriter) WriteEstimates(rows []EstimateRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().Format(time.RFC3339)
	for _, r := range rows {
		row := make([]string, 0, 11)
		if r.Listing != nil {
			row = append(row,
				r.Listing.URL,
				r.Listing.Municipality,
				r.Listing.AreaM2,
				strconv.FormatFloat(r.Listing.Rooms, 'f', -1, 64),
				r.Listing.Floor,
			)
		} else {
			row = append(row, "", "", "", "", "")
		}
		if r.Err != nil {
			row = append(row, "", "", "", "", r.Err.Error())
		} else {
			row = append(row,
				r.Estimate.PricePerArea.StringFixed(2),
				r.Estimate.Total.StringFixed(2),
				r.Estimate.Currency,
				r.Estimate.Strategy,
				"",
			)
		}
		row = append(row, now)
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
