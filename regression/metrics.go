package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Metrics is the held-out evaluation of a trained estimator.
type Metrics struct {
	RMSE         float64 `json:"rmse"`
	R2           float64 `json:"r2"`
	AveragePrice float64 `json:"average_price"`
	TrainRows    int     `json:"train_rows"`
	TestRows     int     `json:"test_rows"`
}

// RMSE is the root-mean-squared error of pred against truth.
func RMSE(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	d := make([]float64, len(truth))
	floats.SubTo(d, truth, pred)
	return math.Sqrt(floats.Dot(d, d) / float64(len(d)))
}

// R2 is the coefficient of determination. A constant truth scores 1 when
// predicted exactly and 0 otherwise.
func R2(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	mean := stat.Mean(truth, nil)
	var ssRes, ssTot float64
	for i, t := range truth {
		ssRes += (t - pred[i]) * (t - pred[i])
		ssTot += (t - mean) * (t - mean)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

// Evaluate predicts every row of x and scores the result against y.
func Evaluate(est Estimator, x mat.Matrix, y []float64) (rmse, r2 float64, err error) {
	r, c := x.Dims()
	if r != len(y) {
		return 0, 0, fmt.Errorf("%w: %d rows but %d targets", ErrDimensionMismatch, r, len(y))
	}
	pred := make([]float64, r)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, x)
		if pred[i], err = est.Predict(row); err != nil {
			return 0, 0, err
		}
	}
	return RMSE(y, pred), R2(y, pred), nil
}

// Fit splits the corpus, trains est on the training part and evaluates it
// on the held-out part. AveragePrice is the mean target over the whole
// corpus.
func Fit(est Estimator, x mat.Matrix, y []float64, cfg SplitConfig) (Metrics, error) {
	r, _ := x.Dims()
	if r != len(y) {
		return Metrics{}, fmt.Errorf("%w: %d rows but %d targets", ErrDimensionMismatch, r, len(y))
	}
	trainIdx, testIdx, err := Split(r, cfg)
	if err != nil {
		return Metrics{}, err
	}

	xTrain, yTrain := selectRows(x, y, trainIdx)
	xTest, yTest := selectRows(x, y, testIdx)

	if err := est.Train(xTrain, yTrain); err != nil {
		return Metrics{}, fmt.Errorf("regression: train: %w", err)
	}
	rmse, r2, err := Evaluate(est, xTest, yTest)
	if err != nil {
		return Metrics{}, fmt.Errorf("regression: evaluate: %w", err)
	}

	return Metrics{
		RMSE:         rmse,
		R2:           r2,
		AveragePrice: stat.Mean(y, nil),
		TrainRows:    len(trainIdx),
		TestRows:     len(testIdx),
	}, nil
}
