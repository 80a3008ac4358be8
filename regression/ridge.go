package regression

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// PolynomialRidge expands inputs to degree-2 interaction terms (every
// input, then every product x_i*x_j with i<j; no bias, no squares) and
// fits a ridge regression with a fixed penalty. The intercept is not
// penalised.
type PolynomialRidge struct {
	alpha     float64
	inputs    int
	pairs     [][2]int
	coef      *mat.VecDense
	intercept float64
	trained   bool
}

// NewPolynomialRidge returns an untrained model with penalty alpha.
func NewPolynomialRidge(alpha float64) *PolynomialRidge {
	return &PolynomialRidge{alpha: alpha}
}

// interactionPairs lists the index pairs of the interaction terms.
func interactionPairs(n int) [][2]int {
	pairs := make([][2]int, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	return pairs
}

// expand writes the interaction expansion of x into dst.
func expand(dst, x []float64, pairs [][2]int) []float64 {
	dst = append(dst[:0], x...)
	for _, p := range pairs {
		dst = append(dst, x[p[0]]*x[p[1]])
	}
	return dst
}

// Train fits the ridge weights by Cholesky on the centred normal equations.
func (p *PolynomialRidge) Train(x mat.Matrix, y []float64) error {
	r, c, err := checkTrainingShape(x, y)
	if err != nil {
		return err
	}

	pairs := interactionPairs(c)
	terms := c + len(pairs)

	z := mat.NewDense(r, terms, nil)
	row := make([]float64, c)
	buf := make([]float64, 0, terms)
	for i := 0; i < r; i++ {
		mat.Row(row, i, x)
		buf = expand(buf, row, pairs)
		z.SetRow(i, buf)
	}

	zMeans := center(z)
	yc, yMean := centerVec(y)

	gram := mat.NewSymDense(terms, nil)
	gram.SymOuterK(1, z.T())
	for i := 0; i < terms; i++ {
		gram.SetSym(i, i, gram.At(i, i)+p.alpha)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(gram); !ok {
		return ErrSingular
	}

	rhs := mat.NewVecDense(terms, nil)
	rhs.MulVec(z.T(), yc)

	coef := mat.NewVecDense(terms, nil)
	if err := chol.SolveVecTo(coef, rhs); err != nil {
		return fmt.Errorf("regression: ridge solve: %w", err)
	}

	p.inputs = c
	p.pairs = pairs
	p.coef = coef
	p.intercept = interceptFor(yMean, zMeans, coef)
	p.trained = true
	return nil
}

// Predict returns the fitted value for one feature vector.
func (p *PolynomialRidge) Predict(x []float64) (float64, error) {
	if !p.trained {
		panic(ErrNotTrained)
	}
	if len(x) != p.inputs {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrDimensionMismatch, len(x), p.inputs)
	}
	z := expand(make([]float64, 0, p.coef.Len()), x, p.pairs)
	return p.intercept + mat.Dot(mat.NewVecDense(len(z), z), p.coef), nil
}

// Alpha is the ridge penalty.
func (p *PolynomialRidge) Alpha() float64 { return p.alpha }

// Describe implements Estimator.
func (p *PolynomialRidge) Describe() Description {
	d := Description{Strategy: StrategyPolynomial, Degree: 2, Alpha: p.alpha}
	if p.trained {
		d.Inputs = p.inputs
		d.Terms = p.coef.Len()
	}
	return d
}
