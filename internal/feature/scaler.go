package feature

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Scaler centers and scales feature columns. Fit computes per-column mean
// and standard deviation from the Training matrix only; Transform applies
// them read-only, so Test data never changes the fitted statistics.
type Scaler struct {
	mean []float64
	std  []float64
}

// NewScaler creates an unfitted scaler
func NewScaler() *Scaler {
	return &Scaler{}
}

// Fit computes column means and standard deviations
func (s *Scaler) Fit(x mat.Matrix) error {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return fmt.Errorf("cannot fit scaler on %dx%d matrix", rows, cols)
	}

	s.mean = make([]float64, cols)
	s.std = make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)
		s.mean[j] = stat.Mean(col, nil)
		s.std[j] = stat.StdDev(col, nil)
	}
	return nil
}

// Fitted reports whether Fit has run
func (s *Scaler) Fitted() bool {
	return s.mean != nil
}

// Transform returns a new matrix with the fitted statistics applied.
// Columns with zero standard deviation are centered but not divided.
func (s *Scaler) Transform(x mat.Matrix) (*mat.Dense, error) {
	if !s.Fitted() {
		return nil, fmt.Errorf("scaler is not fitted")
	}
	rows, cols := x.Dims()
	if cols != len(s.mean) {
		return nil, fmt.Errorf("matrix has %d columns, scaler was fitted on %d", cols, len(s.mean))
	}

	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := x.At(i, j) - s.mean[j]
			if s.std[j] > 0 {
				v /= s.std[j]
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// Mean returns a copy of the fitted column means
func (s *Scaler) Mean() []float64 {
	return append([]float64(nil), s.mean...)
}

// StdDev returns a copy of the fitted column standard deviations
func (s *Scaler) StdDev() []float64 {
	return append([]float64(nil), s.std...)
}
