package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestScaler_RoundTrip(t *testing.T) {
	enc := NewEncoder(EncoderConfig{Noise: true, Seed: 42})
	ds, _, err := enc.FitTransform(syntheticCorpus(24))
	require.NoError(t, err)

	scaler := NewScaler(enc.ScaledColumns()...)
	require.NoError(t, scaler.Fit(ds.Schema, ds.X))

	rec, err := enc.Transform(inferenceRecord())
	require.NoError(t, err)

	scaled := scaler.Transform(rec.Vector)
	back := scaler.Inverse(scaled)
	assert.InDeltaSlice(t, rec.Vector, back, 1e-9)

	for _, name := range enc.ScaledColumns() {
		j, _ := ds.Schema.Index(name)
		assert.NotEqual(t, rec.Vector[j], scaled[j], name)
	}
	j, _ := ds.Schema.Index("Type_Novogradnja")
	assert.Equal(t, rec.Vector[j], scaled[j])
}

func TestScaler_MatrixIsStandardised(t *testing.T) {
	enc := NewEncoder(EncoderConfig{})
	ds, _, err := enc.FitTransform(syntheticCorpus(24))
	require.NoError(t, err)

	scaler := NewScaler(ColArea, ColMunicipality)
	require.NoError(t, scaler.Fit(ds.Schema, ds.X))
	scaled := scaler.TransformMatrix(ds.X)

	for _, name := range []string{ColArea, ColMunicipality} {
		j, _ := ds.Schema.Index(name)
		mean, std := stat.PopMeanStdDev(mat.Col(nil, j, scaled), nil)
		assert.InDelta(t, 0, mean, 1e-9, name)
		assert.InDelta(t, 1, std, 1e-9, name)
	}
	assert.NotSame(t, ds.X, scaled)
}

func TestScaler_ConstantColumn(t *testing.T) {
	schema := newSchema([]Column{numericColumn("a"), numericColumn("b")})
	x := mat.NewDense(3, 2, []float64{
		5, 1,
		5, 2,
		5, 3,
	})

	scaler := NewScaler("a", "b")
	require.NoError(t, scaler.Fit(schema, x))

	stats := scaler.Stats()
	assert.Equal(t, ColumnStats{Column: "a", Mean: 5, Std: 1}, stats[0])
	assert.Equal(t, []float64{0, 0}, scaler.Transform([]float64{5, 2}))
}

func TestScaler_Preconditions(t *testing.T) {
	schema := newSchema([]Column{numericColumn("a")})
	x := mat.NewDense(2, 1, []float64{1, 2})

	scaler := NewScaler("a")
	assert.PanicsWithValue(t, ErrScalerNotFitted, func() { scaler.Transform([]float64{1}) })

	require.NoError(t, scaler.Fit(schema, x))
	assert.ErrorIs(t, scaler.Fit(schema, x), ErrAlreadyFitted)

	assert.Error(t, NewScaler("missing").Fit(schema, x))
}
