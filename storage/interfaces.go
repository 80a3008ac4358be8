package storage

import (
	"context"

	"apartment-estimator/models"
)

// RawListingReader is the interface for corpus files in the ETL format.
type RawListingReader interface {
	ReadRaw() ([]*models.RawListing, error)
}

// ListingStore is the interface any database backend must satisfy.
type ListingStore interface {
	ReplaceAll(ctx context.Context, listings []*models.ListingRecord) (int, error)
	FetchAll(ctx context.Context) ([]*models.ListingRecord, error)
	SaveRun(ctx context.Context, run models.EvaluationReport) error
	Runs(ctx context.Context, limit int) ([]models.EvaluationReport, error)
	Close() error
}

// EstimateWriter is the interface for persisting batch predictions.
type EstimateWriter interface {
	WriteEstimates(rows []EstimateRow) error
	Close() error
}

// EstimateRow pairs an input listing with its estimate or error.
type EstimateRow struct {
	Listing  *models.ListingRecord
	Estimate models.Estimate
	Err      error
}
