package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apartment-estimator/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "apartments.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func listing(url, municipality string) *models.ListingRecord {
	return &models.ListingRecord{
		URL:            url,
		Price:          "100000",
		AreaM2:         "50",
		Municipality:   municipality,
		Rooms:          2,
		Floor:          "II/4",
		Type:           "Novogradnja",
		Condition:      "Lux",
		Heating:        "CG",
		ParkingGarage:  0,
		ParkingOutdoor: 1,
	}
}

func TestSQLiteReplaceAllAndFetch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	n, err := s.ReplaceAll(ctx, []*models.ListingRecord{
		listing("u1", "Vračar"),
		listing("u2", "Zemun"),
		listing("u1", "Vračar"),
		listing("", "Zvezdara"),
		listing("", "Zvezdara"),
		nil,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	got, err := s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, *listing("u1", "Vračar"), *got[0])
	assert.Equal(t, "", got[2].URL)
	assert.Equal(t, "Zvezdara", got[3].Municipality)
}

func TestSQLiteReplaceAllClearsPreviousRows(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.ReplaceAll(ctx, []*models.ListingRecord{listing("u1", "Vračar"), listing("u2", "Zemun")})
	require.NoError(t, err)
	_, err = s.ReplaceAll(ctx, []*models.ListingRecord{listing("u3", "Čukarica")})
	require.NoError(t, err)

	got, err := s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "u3", got[0].URL)
}

func TestSQLiteReplaceAllLargeBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var many []*models.ListingRecord
	for i := 0; i < 3*insertBatchSize+7; i++ {
		many = append(many, listing("", "Vračar"))
	}
	n, err := s.ReplaceAll(ctx, many)
	require.NoError(t, err)
	assert.Equal(t, len(many), n)
}

func TestSQLiteRuns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		require.NoError(t, s.SaveRun(ctx, models.EvaluationReport{
			RunID:        id,
			Strategy:     "polynomial",
			Degree:       2,
			Alpha:        10,
			RMSE:         120.5,
			R2:           0.81,
			AveragePrice: 2100,
			CorpusRows:   100,
			TrainRows:    80,
			TestRows:     20,
			Features:     14,
			GroundPolicy: "exclude",
			TrainedAt:    base.Add(time.Duration(i) * time.Hour),
		}))
	}

	runs, err := s.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-c", runs[0].RunID)
	assert.Equal(t, "run-b", runs[1].RunID)
	assert.Equal(t, 14, runs[0].Features)
	assert.InDelta(t, 0.81, runs[0].R2, 1e-12)
	assert.True(t, runs[0].TrainedAt.Equal(base.Add(2*time.Hour)))
}

func TestSQLiteDuplicateRunID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	run := models.EvaluationReport{RunID: "dup", Strategy: "linear", TrainedAt: time.Now()}
	require.NoError(t, s.SaveRun(ctx, run))
	assert.Error(t, s.SaveRun(ctx, run))
}
