package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apartment-estimator/apperrors"
	"apartment-estimator/config"
	"apartment-estimator/features"
	"apartment-estimator/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const corpusHeader = "URL,Price,Area_m2,Municipality,Rooms,Floor,Type,Condition,Heating,Parking_garage,Parking_outdoor\n"

func writeCorpus(t *testing.T, rows int) string {
	t.Helper()
	munis := []string{"Vračar", "Zvezdara", "Zemun"}
	base := map[string]float64{"Vračar": 3200, "Zvezdara": 2200, "Zemun": 1700}
	floors := []string{"I/8", "II/5", "III/4", "PR/3"}

	var b strings.Builder
	b.WriteString(corpusHeader)
	for i := 0; i < rows; i++ {
		m := munis[i%3]
		area := 35 + (i*9)%50
		ppa := base[m] + float64((i*31)%120)
		fmt.Fprintf(&b, "https://example.rs/%d,%.0f €,%d,%s,%d,%s,%s,%s,%s,%d,%d\n",
			i, ppa*float64(area), area, m, 1+i%3, floors[i%len(floors)],
			[]string{"Novogradnja", "Stara gradnja"}[i%2],
			[]string{"Lux", "Renovirano", "Održavano"}[i%3],
			[]string{"CG", "EG"}[(i/2)%2], i%2, (i/3)%2)
	}

	path := filepath.Join(t.TempDir(), "corpus.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func testEnv(corpusPath string) *appEnv {
	return &appEnv{
		cfg: &config.Config{
			CorpusSource:      config.SourceCSV,
			CorpusCSVPath:     corpusPath,
			ModelStrategy:     "linear",
			RidgeAlpha:        10,
			TestFraction:      0.2,
			RandomSeed:        42,
			GroundFloorPolicy: "exclude",
			ConditionEncoding: "onehot",
			Currency:          "EUR",
			HTTPAddr:          ":0",
		},
		logger: utils.NewLoggerWith(io.Discard, "error", "console"),
	}
}

func TestNewAPIServer_InitialTrainingFailureIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte(corpusHeader), 0o600))

	srv, err := testEnv(path).newAPIServer(context.Background(), ":0")
	require.Error(t, err)
	assert.Nil(t, srv)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CategoryConfiguration, appErr.Category)
	assert.ErrorIs(t, err, features.ErrEmptyCorpus)
}

func TestNewAPIServer_MissingCorpusIsFatal(t *testing.T) {
	env := testEnv(filepath.Join(t.TempDir(), "missing.csv"))

	_, err := env.newAPIServer(context.Background(), ":0")
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CategoryConfiguration, appErr.Category)
}

func TestNewAPIServer_BadStrategyIsFatal(t *testing.T) {
	env := testEnv(writeCorpus(t, 30))
	env.cfg.ModelStrategy = "forest"

	_, err := env.newAPIServer(context.Background(), ":0")
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CategoryConfiguration, appErr.Category)
}

func TestNewAPIServer_ServesTrainedModel(t *testing.T) {
	srv, err := testEnv(writeCorpus(t, 45)).newAPIServer(context.Background(), ":0")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
