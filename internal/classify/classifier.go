// Package classify implements the classifier families and the multi-class
// machinery around them: k-nearest-neighbors, a linear max-margin model,
// gradient-boosted trees, a naive-bayes baseline, class balancing, the
// one-vs-all dispatcher, and cross-validated grid search.
//
// Every family implements the same strategy interface: a Trainer fits a
// Model on a feature matrix and labels, and the Model predicts labels for
// new matrices built from the same fitted vocabulary. Binary models
// additionally score the probability of the positive class, which is what
// the one-vs-all dispatcher aggregates.
package classify

import (
	"fmt"

	"github.com/namo507/stancer/internal/model"
	"gonum.org/v1/gonum/mat"
)

// Binary sub-problem labels used by the one-vs-all dispatcher
const (
	PositiveLabel = "pos"
	NegativeLabel = "neg"
)

// Trainer fits a model on a labeled feature matrix
type Trainer interface {
	Name() string
	Fit(x *mat.Dense, labels []string) (Model, error)
}

// Model predicts labels for feature matrices built from the same fitted
// vocabulary the model was trained on
type Model interface {
	Predict(x *mat.Dense) ([]string, error)
}

// BinaryModel scores the probability of the positive class. Models trained
// on exactly the {pos, neg} label set implement this for the dispatcher.
type BinaryModel interface {
	Model
	PosProb(x *mat.Dense) ([]float64, error)
}

// TrainerFactory builds a fresh trainer per sub-problem, so fitted state is
// never shared between one-vs-all classes or cross-validation folds
type TrainerFactory func() Trainer

// NewTrainer builds a trainer for the configured family
func NewTrainer(cfg model.TrainConfig, seed int64) (Trainer, error) {
	switch cfg.Family {
	case "knn":
		return &KNNTrainer{K: cfg.KNN.K}, nil
	case "svm":
		return &SVMTrainer{
			Cost:   cfg.SVM.Cost,
			Epochs: cfg.SVM.Epochs,
			Scale:  cfg.SVM.Scale,
			Seed:   seed,
		}, nil
	case "boost":
		return &BoostTrainer{
			Rounds:         cfg.Boost.Rounds,
			MaxDepth:       cfg.Boost.MaxDepth,
			LearningRate:   cfg.Boost.LearningRate,
			Subsample:      cfg.Boost.Subsample,
			ColSample:      cfg.Boost.ColSample,
			MinChildWeight: cfg.Boost.MinChildWeight,
			Seed:           seed,
		}, nil
	case "bayes":
		return &BayesTrainer{}, nil
	default:
		return nil, fmt.Errorf("unknown classifier family %q", cfg.Family)
	}
}

// NewTrainerFactory returns a factory producing fresh trainers for the
// configured family
func NewTrainerFactory(cfg model.TrainConfig, seed int64) (TrainerFactory, error) {
	// Validate once up front; the factory itself cannot fail
	if _, err := NewTrainer(cfg, seed); err != nil {
		return nil, err
	}
	return func() Trainer {
		t, _ := NewTrainer(cfg, seed)
		return t
	}, nil
}

// rowAt copies row i of x into a new slice
func rowAt(x *mat.Dense, i int) []float64 {
	_, cols := x.Dims()
	row := make([]float64, cols)
	mat.Row(row, i, x)
	return row
}

// subsetRows builds a new matrix from the given rows of x, in order, with
// the matching labels
func subsetRows(x *mat.Dense, labels []string, indices []int) (*mat.Dense, []string) {
	_, cols := x.Dims()
	out := mat.NewDense(len(indices), cols, nil)
	outLabels := make([]string, len(indices))
	for i, idx := range indices {
		out.SetRow(i, rowAt(x, idx))
		outLabels[i] = labels[idx]
	}
	return out, outLabels
}

// checkFit validates the common Fit preconditions
func checkFit(x *mat.Dense, labels []string) error {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return fmt.Errorf("cannot fit on %dx%d matrix", rows, cols)
	}
	if rows != len(labels) {
		return fmt.Errorf("matrix has %d rows but %d labels", rows, len(labels))
	}
	for i, l := range labels {
		if l == "" {
			return fmt.Errorf("record %d has no label", i)
		}
	}
	return nil
}
