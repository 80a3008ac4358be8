package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Linear is ordinary least squares with an intercept. Collinear columns,
// such as a full one-hot group, get the minimum-norm solution.
type Linear struct {
	coef      *mat.VecDense
	intercept float64
	trained   bool
}

// NewLinear returns an untrained OLS model.
func NewLinear() *Linear {
	return &Linear{}
}

// Train fits coefficients through the SVD pseudo-inverse of the centred
// design matrix.
func (l *Linear) Train(x mat.Matrix, y []float64) error {
	r, c, err := checkTrainingShape(x, y)
	if err != nil {
		return err
	}

	xc := mat.DenseCopyOf(x)
	xMeans := center(xc)
	yc, yMean := centerVec(y)

	var svd mat.SVD
	if ok := svd.Factorize(xc, mat.SVDThin); !ok {
		return fmt.Errorf("regression: svd failed to factorize %dx%d design", r, c)
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	sv := svd.Values(nil)

	tol := 0.0
	if len(sv) > 0 {
		tol = float64(max(r, c)) * sv[0] * (math.Nextafter(1, 2) - 1)
	}

	uty := mat.NewVecDense(len(sv), nil)
	uty.MulVec(u.T(), yc)
	for i, s := range sv {
		if s > tol {
			uty.SetVec(i, uty.AtVec(i)/s)
		} else {
			uty.SetVec(i, 0)
		}
	}

	coef := mat.NewVecDense(c, nil)
	coef.MulVec(&v, uty)

	l.coef = coef
	l.intercept = interceptFor(yMean, xMeans, coef)
	if math.IsNaN(l.intercept) {
		return ErrSingular
	}
	l.trained = true
	return nil
}

// Predict returns the fitted value for one feature vector.
func (l *Linear) Predict(x []float64) (float64, error) {
	if !l.trained {
		panic(ErrNotTrained)
	}
	if len(x) != l.coef.Len() {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrDimensionMismatch, len(x), l.coef.Len())
	}
	return l.intercept + mat.Dot(mat.NewVecDense(len(x), x), l.coef), nil
}

// Coefficients returns a copy of the fitted weights and the intercept.
func (l *Linear) Coefficients() ([]float64, float64) {
	if !l.trained {
		panic(ErrNotTrained)
	}
	return mat.Col(nil, 0, l.coef), l.intercept
}

// Describe implements Estimator.
func (l *Linear) Describe() Description {
	d := Description{Strategy: StrategyLinear, Degree: 1}
	if l.trained {
		d.Inputs = l.coef.Len()
		d.Terms = l.coef.Len()
	}
	return d
}
