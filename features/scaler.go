package features

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrScalerNotFitted is the panic value for Scaler use before Fit.
var ErrScalerNotFitted = errors.New("features: scaler used before fit")

// ColumnStats is the captured mean and population standard deviation of
// one scaled column.
type ColumnStats struct {
	Column string  `json:"column"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
}

// Scaler standardises a fixed subset of columns to zero mean and unit
// variance. Columns outside the subset pass through untouched.
type Scaler struct {
	columns []string
	idx     []int
	mean    []float64
	std     []float64
	fitted  bool
}

// NewScaler returns a scaler for the named columns.
func NewScaler(columns ...string) *Scaler {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Scaler{columns: cols}
}

// Fit captures per-column statistics from x, laid out by schema. A scaler
// fits exactly once. Constant columns get a standard deviation of 1.
func (s *Scaler) Fit(schema *Schema, x mat.Matrix) error {
	if s.fitted {
		return ErrAlreadyFitted
	}
	rows, _ := x.Dims()
	if rows == 0 {
		return ErrEmptyCorpus
	}

	idx := make([]int, len(s.columns))
	mean := make([]float64, len(s.columns))
	std := make([]float64, len(s.columns))
	for k, name := range s.columns {
		j, ok := schema.Index(name)
		if !ok {
			return fmt.Errorf("features: scaled column %q not in schema", name)
		}
		col := mat.Col(nil, j, x)
		m, sd := stat.PopMeanStdDev(col, nil)
		if sd == 0 {
			sd = 1
		}
		idx[k], mean[k], std[k] = j, m, sd
	}

	s.idx, s.mean, s.std = idx, mean, std
	s.fitted = true
	return nil
}

// Transform returns a standardised copy of v.
func (s *Scaler) Transform(v []float64) []float64 {
	s.mustBeFitted()
	out := make([]float64, len(v))
	copy(out, v)
	for k, j := range s.idx {
		out[j] = (out[j] - s.mean[k]) / s.std[k]
	}
	return out
}

// TransformMatrix returns a standardised copy of x.
func (s *Scaler) TransformMatrix(x mat.Matrix) *mat.Dense {
	s.mustBeFitted()
	out := mat.DenseCopyOf(x)
	rows, _ := out.Dims()
	for k, j := range s.idx {
		for i := 0; i < rows; i++ {
			out.Set(i, j, (out.At(i, j)-s.mean[k])/s.std[k])
		}
	}
	return out
}

// Inverse undoes Transform on a copy of v.
func (s *Scaler) Inverse(v []float64) []float64 {
	s.mustBeFitted()
	out := make([]float64, len(v))
	copy(out, v)
	for k, j := range s.idx {
		out[j] = out[j]*s.std[k] + s.mean[k]
	}
	return out
}

// Stats returns the captured statistics in column order.
func (s *Scaler) Stats() []ColumnStats {
	out := make([]ColumnStats, len(s.columns))
	for k, name := range s.columns {
		out[k] = ColumnStats{Column: name}
		if s.fitted {
			out[k].Mean, out[k].Std = s.mean[k], s.std[k]
		}
	}
	return out
}

// Fitted reports whether Fit has completed.
func (s *Scaler) Fitted() bool { return s.fitted }

func (s *Scaler) mustBeFitted() {
	if !s.fitted {
		panic(ErrScalerNotFitted)
	}
}
