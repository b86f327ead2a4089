package classify

import (
	"fmt"
	"math"
	"strconv"

	"github.com/navossoc/bayesian"

	"github.com/namo507/stancer/internal/model"
	"gonum.org/v1/gonum/mat"
)

// BayesTrainer fits a multinomial naive-bayes baseline over the term-count
// matrix. Counts are expanded back into pseudo-documents of synthetic column
// terms, so the family only makes sense on raw counts (not TF-IDF weights).
type BayesTrainer struct{}

// Name returns the family name
func (t *BayesTrainer) Name() string { return "bayes" }

// Fit learns class-conditional term frequencies
func (t *BayesTrainer) Fit(x *mat.Dense, labels []string) (Model, error) {
	if err := checkFit(x, labels); err != nil {
		return nil, err
	}
	classes := model.ClassSet(labels)
	if len(classes) < 2 {
		return nil, fmt.Errorf("need at least 2 classes, got %d", len(classes))
	}

	bayesClasses := make([]bayesian.Class, len(classes))
	for i, c := range classes {
		bayesClasses[i] = bayesian.Class(c)
	}
	classifier := bayesian.NewClassifier(bayesClasses...)

	rows, cols := x.Dims()
	for i := 0; i < rows; i++ {
		doc := pseudoDocument(x, i, cols)
		classifier.Learn(doc, bayesian.Class(labels[i]))
	}

	return &bayesModel{
		classifier: classifier,
		classes:    classes,
		cols:       cols,
	}, nil
}

// pseudoDocument expands row i's counts into a token list, one synthetic
// term per column repeated count times
func pseudoDocument(x *mat.Dense, i, cols int) []string {
	var doc []string
	for j := 0; j < cols; j++ {
		count := int(math.Round(x.At(i, j)))
		for n := 0; n < count; n++ {
			doc = append(doc, "t"+strconv.Itoa(j))
		}
	}
	return doc
}

type bayesModel struct {
	classifier *bayesian.Classifier
	classes    []string
	cols       int
}

// Predict labels each query row by the largest log posterior. Ties go to
// the first class in canonical order, which is how the underlying scorer
// resolves equal scores.
func (m *bayesModel) Predict(x *mat.Dense) ([]string, error) {
	rows, cols := x.Dims()
	if cols != m.cols {
		return nil, fmt.Errorf("query has %d features, model was trained on %d", cols, m.cols)
	}

	predicted := make([]string, rows)
	for i := 0; i < rows; i++ {
		doc := pseudoDocument(x, i, cols)
		_, inx, _ := m.classifier.LogScores(doc)
		predicted[i] = m.classes[inx]
	}
	return predicted, nil
}

// PosProb returns the posterior probability of the positive class. Only
// valid for models trained on the binary label set.
func (m *bayesModel) PosProb(x *mat.Dense) ([]float64, error) {
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

	rows, cols := x.Dims()
	if cols != m.cols {
		return nil, fmt.Errorf("query has %d features, model was trained on %d", cols, m.cols)
	}
	probs := make([]float64, rows)
	for i := 0; i < rows; i++ {
		doc := pseudoDocument(x, i, cols)
		scores, _, _ := m.classifier.ProbScores(doc)
		probs[i] = scores[posIdx]
	}
	return probs, nil
}
