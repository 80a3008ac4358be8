package regression

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// DefaultTestFraction is the held-out share of the corpus.
const DefaultTestFraction = 0.2

// SplitConfig fixes the train/test partition.
type SplitConfig struct {
	TestFraction float64
	Seed         int64
}

// Split partitions row indices 0..n-1 into train and test sets. The same
// n and config always give the same partition. The test set holds
// ceil(TestFraction*n) rows, clamped so neither side is empty.
func Split(n int, cfg SplitConfig) (train, test []int, err error) {
	if n < 2 {
		return nil, nil, ErrInsufficientData
	}
	frac := cfg.TestFraction
	if frac == 0 {
		frac = DefaultTestFraction
	}
	if frac <= 0 || frac >= 1 {
		return nil, nil, fmt.Errorf("regression: test fraction %g outside (0, 1)", frac)
	}

	nTest := int(math.Ceil(frac * float64(n)))
	nTest = min(max(nTest, 1), n-1)

	perm := rand.New(rand.NewSource(cfg.Seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// selectRows copies the listed rows of x and their targets.
func selectRows(x mat.Matrix, y []float64, idx []int) (*mat.Dense, []float64) {
	_, c := x.Dims()
	out := mat.NewDense(len(idx), c, nil)
	ys := make([]float64, len(idx))
	row := make([]float64, c)
	for k, i := range idx {
		mat.Row(row, i, x)
		out.SetRow(k, row)
		ys[k] = y[i]
	}
	return out, ys
}
