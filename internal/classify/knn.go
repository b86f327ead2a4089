package classify

import (
	"fmt"
	"sort"

	"github.com/namo507/stancer/internal/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// KNNTrainer configures k-nearest-neighbors. There is no explicit training
// step: Fit retains the Training matrix and prediction compares each query
// against all retained vectors by Euclidean distance.
type KNNTrainer struct {
	K int
}

// Name returns the family name
func (t *KNNTrainer) Name() string { return "knn" }

// Fit retains the Training matrix and labels
func (t *KNNTrainer) Fit(x *mat.Dense, labels []string) (Model, error) {
	if t.K < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", t.K)
	}
	if err := checkFit(x, labels); err != nil {
		return nil, err
	}
	rows, _ := x.Dims()
	if t.K > rows {
		return nil, fmt.Errorf("k=%d exceeds training size %d", t.K, rows)
	}

	return &knnModel{
		train:   mat.DenseCopyOf(x),
		labels:  append([]string(nil), labels...),
		classes: model.ClassSet(labels),
		k:       t.K,
	}, nil
}

type knnModel struct {
	train   *mat.Dense
	labels  []string
	classes []string
	k       int
}

// neighbor pairs a training row with its distance to the query
type neighbor struct {
	index    int
	distance float64
}

// nearest returns the k training rows closest to the query, ordered by
// distance with index as the deterministic secondary key
func (m *knnModel) nearest(query []float64) []neighbor {
	rows, _ := m.train.Dims()
	all := make([]neighbor, rows)
	row := make([]float64, len(query))
	for i := 0; i < rows; i++ {
		mat.Row(row, i, m.train)
		all[i] = neighbor{index: i, distance: floats.Distance(query, row, 2)}
	}
	sort.Slice(all, func(a, b int) bool {
		if all[a].distance != all[b].distance {
			return all[a].distance < all[b].distance
		}
		return all[a].index < all[b].index
	})
	return all[:m.k]
}

// vote picks the majority label among the neighbors. Ties are broken by the
// smallest total distance rank, then by class order.
func (m *knnModel) vote(nearest []neighbor) string {
	votes := make(map[string]int)
	rankSum := make(map[string]int)
	for rank, nb := range nearest {
		label := m.labels[nb.index]
		votes[label]++
		rankSum[label] += rank
	}

	best := ""
	for _, class := range m.classes {
		count, ok := votes[class]
		if !ok {
			continue
		}
		if best == "" {
			best = class
			continue
		}
		switch {
		case count > votes[best]:
			best = class
		case count == votes[best] && rankSum[class] < rankSum[best]:
			best = class
		}
	}
	return best
}

// checkQuery validates that the query matrix matches the trained width
func (m *knnModel) checkQuery(x *mat.Dense) error {
	_, cols := x.Dims()
	_, trainCols := m.train.Dims()
	if cols != trainCols {
		return fmt.Errorf("query has %d features, model was trained on %d", cols, trainCols)
	}
	return nil
}

// Predict labels each query row by majority vote among its k nearest
// training vectors
func (m *knnModel) Predict(x *mat.Dense) ([]string, error) {
	if err := m.checkQuery(x); err != nil {
		return nil, err
	}

	rows, cols := x.Dims()
	predicted := make([]string, rows)
	query := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(query, i, x)
		predicted[i] = m.vote(m.nearest(query))
	}
	return predicted, nil
}

// PosProb returns the fraction of the k nearest neighbors carrying the
// positive label. Only valid for models trained on the binary label set.
func (m *knnModel) PosProb(x *mat.Dense) ([]float64, error) {
	if err := requireBinary(m.classes); err != nil {
		return nil, err
	}
	if err := m.checkQuery(x); err != nil {
		return nil, err
	}
	rows, cols := x.Dims()
	probs := make([]float64, rows)
	query := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(query, i, x)
		pos := 0
		for _, nb := range m.nearest(query) {
			if m.labels[nb.index] == PositiveLabel {
				pos++
			}
		}
		probs[i] = float64(pos) / float64(m.k)
	}
	return probs, nil
}

// requireBinary checks that the model was trained on the {pos, neg} label
// set used by the one-vs-all dispatcher
func requireBinary(classes []string) error {
	if len(classes) > 2 {
		return fmt.Errorf("positive-class probability requires a binary model, got %d classes", len(classes))
	}
	for _, c := range classes {
		if c != PositiveLabel && c != NegativeLabel {
			return fmt.Errorf("binary model must be trained on %q/%q labels, got %q", PositiveLabel, NegativeLabel, c)
		}
	}
	return nil
}
