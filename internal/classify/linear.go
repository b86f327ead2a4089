package classify

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/namo507/stancer/internal/feature"
	"github.com/namo507/stancer/internal/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SVMTrainer fits a linear maximum-margin classifier by stochastic
// subgradient descent on the hinge loss (Pegasos step schedule). Multi-class
// problems are handled one-vs-rest: one hyperplane per class, prediction by
// largest margin.
type SVMTrainer struct {
	Cost   float64 // Regularization strength; larger = softer margin
	Epochs int     // Passes over the training set
	Scale  bool    // Center/scale columns with Training statistics
	Seed   int64
}

// Name returns the family name
func (t *SVMTrainer) Name() string { return "svm" }

// Fit trains one hyperplane per class
func (t *SVMTrainer) Fit(x *mat.Dense, labels []string) (Model, error) {
	if t.Cost <= 0 {
		return nil, fmt.Errorf("cost must be > 0, got %v", t.Cost)
	}
	if err := checkFit(x, labels); err != nil {
		return nil, err
	}
	epochs := t.Epochs
	if epochs <= 0 {
		epochs = 50
	}

	classes := model.ClassSet(labels)
	if len(classes) < 2 {
		return nil, fmt.Errorf("need at least 2 classes, got %d", len(classes))
	}

	input := x
	var scaler *feature.Scaler
	if t.Scale {
		scaler = feature.NewScaler()
		if err := scaler.Fit(x); err != nil {
			return nil, fmt.Errorf("fit scaler: %w", err)
		}
		scaled, err := scaler.Transform(x)
		if err != nil {
			return nil, fmt.Errorf("scale training matrix: %w", err)
		}
		input = scaled
	}

	rows, cols := input.Dims()
	m := &svmModel{
		classes: classes,
		weights: make([][]float64, len(classes)),
		biases:  make([]float64, len(classes)),
		scaler:  scaler,
		cols:    cols,
	}

	rng := rand.New(rand.NewSource(t.Seed))
	y := make([]float64, rows)
	for ci, class := range classes {
		for i, l := range labels {
			if l == class {
				y[i] = 1
			} else {
				y[i] = -1
			}
		}
		w, b := trainHyperplane(input, y, t.Cost, epochs, rng)
		m.weights[ci] = w
		m.biases[ci] = b
	}
	return m, nil
}

// trainHyperplane runs the Pegasos subgradient schedule for one binary
// problem with y in {-1, +1}
func trainHyperplane(x *mat.Dense, y []float64, cost float64, epochs int, rng *rand.Rand) ([]float64, float64) {
	rows, cols := x.Dims()
	lambda := 1.0 / (cost * float64(rows))

	w := make([]float64, cols)
	b := 0.0
	xi := make([]float64, cols)
	t := 0
	for e := 0; e < epochs; e++ {
		for _, i := range rng.Perm(rows) {
			t++
			eta := 1.0 / (lambda * float64(t))
			mat.Row(xi, i, x)
			margin := y[i] * (floats.Dot(w, xi) + b)

			shrink := 1 - eta*lambda
			if shrink < 0 {
				shrink = 0
			}
			floats.Scale(shrink, w)
			if margin < 1 {
				floats.AddScaled(w, eta*y[i], xi)
				b += eta * y[i]
			}
		}
	}
	return w, b
}

type svmModel struct {
	classes []string
	weights [][]float64
	biases  []float64
	scaler  *feature.Scaler
	cols    int
}

// margins computes each class hyperplane's margin for every query row
func (m *svmModel) margins(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if cols != m.cols {
		return nil, fmt.Errorf("query has %d features, model was trained on %d", cols, m.cols)
	}

	input := mat.Matrix(x)
	if m.scaler != nil {
		scaled, err := m.scaler.Transform(x)
		if err != nil {
			return nil, fmt.Errorf("scale query matrix: %w", err)
		}
		input = scaled
	}

	out := mat.NewDense(rows, len(m.classes), nil)
	xi := make([]float64, cols)
	for i := 0; i < rows; i++ {
		for j := range xi {
			xi[j] = input.At(i, j)
		}
		for ci := range m.classes {
			out.Set(i, ci, floats.Dot(m.weights[ci], xi)+m.biases[ci])
		}
	}
	return out, nil
}

// Predict labels each query row by the class with the largest margin.
// Exact ties go to the first class in canonical order.
func (m *svmModel) Predict(x *mat.Dense) ([]string, error) {
	margins, err := m.margins(x)
	if err != nil {
		return nil, err
	}
	rows, _ := margins.Dims()
	predicted := make([]string, rows)
	for i := 0; i < rows; i++ {
		best := 0
		for ci := 1; ci < len(m.classes); ci++ {
			if margins.At(i, ci) > margins.At(i, best) {
				best = ci
			}
		}
		predicted[i] = m.classes[best]
	}
	return predicted, nil
}

// PosProb maps the positive-class margin through a logistic link. Only
// valid for models trained on the binary label set.
func (m *svmModel) PosProb(x *mat.Dense) ([]float64, error) {
	if err := requireBinary(m.classes); err != nil {
		return nil, err
	}
	posIdx := -1
	for ci, c := range m.classes {
		if c == PositiveLabel {
			posIdx = ci
		}
	}
	if posIdx < 0 {
		return nil, fmt.Errorf("model has no %q class", PositiveLabel)
	}

	margins, err := m.margins(x)
	if err != nil {
		return nil, err
	}
	rows, _ := margins.Dims()
	probs := make([]float64, rows)
	for i := 0; i < rows; i++ {
		probs[i] = sigmoid(margins.At(i, posIdx))
	}
	return probs, nil
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}
