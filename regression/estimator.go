// Package regression fits price-per-area models on encoded feature matrices.
package regression

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrEmptyTrainingSet is returned when Train receives no rows.
	ErrEmptyTrainingSet = errors.New("regression: empty training set")
	// ErrDimensionMismatch is returned when shapes of inputs disagree.
	ErrDimensionMismatch = errors.New("regression: dimension mismatch")
	// ErrInsufficientData is returned when a corpus is too small to split.
	ErrInsufficientData = errors.New("regression: need at least two rows to split")
	// ErrNotTrained is the panic value for Predict before Train.
	ErrNotTrained = errors.New("regression: predict called before train")
	// ErrSingular is returned when the normal equations cannot be solved.
	ErrSingular = errors.New("regression: system is singular")
)

// Strategy names a regression model family.
type Strategy string

const (
	StrategyLinear     Strategy = "linear"
	StrategyPolynomial Strategy = "polynomial"
)

// DefaultAlpha is the ridge penalty used when none is configured.
const DefaultAlpha = 10.0

// ParseStrategy validates a configured strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear", "ols":
		return StrategyLinear, nil
	case "polynomial", "poly", "ridge", "":
		return StrategyPolynomial, nil
	default:
		return "", fmt.Errorf("regression: unknown strategy %q", s)
	}
}

// Description summarises a model for reports.
type Description struct {
	Strategy Strategy `json:"strategy"`
	Degree   int      `json:"degree"`
	Alpha    float64  `json:"alpha,omitempty"`
	Inputs   int      `json:"inputs"`
	Terms    int      `json:"terms"`
}

// Estimator is the contract shared by every strategy. Train fits the
// parameters once; Predict is a pure read of them.
type Estimator interface {
	Train(x mat.Matrix, y []float64) error
	Predict(x []float64) (float64, error)
	Describe() Description
}

// Options tune the polynomial strategy.
type Options struct {
	Alpha float64
}

// New builds an untrained estimator for strategy.
func New(strategy Strategy, opts Options) (Estimator, error) {
	switch strategy {
	case StrategyLinear:
		return NewLinear(), nil
	case StrategyPolynomial:
		alpha := opts.Alpha
		if alpha == 0 {
			alpha = DefaultAlpha
		}
		if alpha < 0 {
			return nil, fmt.Errorf("regression: alpha must be positive, got %g", alpha)
		}
		return NewPolynomialRidge(alpha), nil
	default:
		return nil, fmt.Errorf("regression: unknown strategy %q", strategy)
	}
}

// checkTrainingShape validates x and y and returns the dimensions of x.
func checkTrainingShape(x mat.Matrix, y []float64) (int, int, error) {
	r, c := x.Dims()
	if r == 0 || len(y) == 0 {
		return 0, 0, ErrEmptyTrainingSet
	}
	if len(y) != r {
		return 0, 0, fmt.Errorf("%w: %d rows but %d targets", ErrDimensionMismatch, r, len(y))
	}
	return r, c, nil
}

// center subtracts column means from x in place and returns the means.
func center(x *mat.Dense) []float64 {
	r, c := x.Dims()
	means := make([]float64, c)
	for j := 0; j < c; j++ {
		var sum float64
		for i := 0; i < r; i++ {
			sum += x.At(i, j)
		}
		means[j] = sum / float64(r)
		for i := 0; i < r; i++ {
			x.Set(i, j, x.At(i, j)-means[j])
		}
	}
	return means
}

// centerVec returns y minus its mean, and the mean.
func centerVec(y []float64) (*mat.VecDense, float64) {
	var sum float64
	for _, v := range y {
		sum += v
	}
	mean := sum / float64(len(y))
	out := mat.NewVecDense(len(y), nil)
	for i, v := range y {
		out.SetVec(i, v-mean)
	}
	return out, mean
}

// interceptFor recovers the intercept of a model fit on centred data.
func interceptFor(yMean float64, xMeans []float64, coef *mat.VecDense) float64 {
	return yMean - mat.Dot(mat.NewVecDense(len(xMeans), xMeans), coef)
}
