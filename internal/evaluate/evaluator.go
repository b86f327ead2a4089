// Package evaluate computes the confusion matrix and derived metrics for a
// predicted/actual label pair. The matrix axes span the full label set, so
// classes absent from the predictions still get a row and column. Metrics
// with a zero denominator are reported as NaN with a false Defined flag
// rather than crashing.
package evaluate

import (
	"fmt"
	"math"

	"github.com/bsm/mlmetrics"

	"github.com/namo507/stancer/internal/model"
)

// Evaluate compares predicted against actual labels over the given class
// set. The sequences must have equal length and every label must belong to
// the class set.
func Evaluate(actual, predicted, classes []string) (model.Metrics, error) {
	if len(actual) != len(predicted) {
		return model.Metrics{}, fmt.Errorf("actual (%d) and predicted (%d) lengths differ", len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return model.Metrics{}, fmt.Errorf("nothing to evaluate")
	}
	index := model.ClassIndex(classes)

	confusion := make([][]int, len(classes))
	for i := range confusion {
		confusion[i] = make([]int, len(classes))
	}

	cm := mlmetrics.NewConfusionMatrix()
	// Zero-weight observations grow the matrix to the full label set, so
	// classes with no instances still occupy their axis position.
	for i := range classes {
		cm.ObserveWeight(i, i, 0)
	}

	for i := range actual {
		ai, ok := index[actual[i]]
		if !ok {
			return model.Metrics{}, fmt.Errorf("actual label %q not in class set", actual[i])
		}
		pi, ok := index[predicted[i]]
		if !ok {
			return model.Metrics{}, fmt.Errorf("predicted label %q not in class set", predicted[i])
		}
		confusion[ai][pi]++
		cm.Observe(ai, pi)
	}

	metrics := model.Metrics{
		Confusion: confusion,
		Accuracy:  cm.Accuracy(),
		Kappa:     cm.Kappa(),
		Evaluated: len(actual),
	}

	recallSum := 0.0
	recallCount := 0
	for ci, class := range classes {
		actualCount, predictedCount := 0, 0
		for j := range classes {
			actualCount += confusion[ci][j]
			predictedCount += confusion[j][ci]
		}

		score := model.ClassScore{
			Class:     class,
			Actual:    actualCount,
			Predicted: predictedCount,
			Precision: math.NaN(),
			Recall:    math.NaN(),
			F1:        math.NaN(),
		}
		if predictedCount > 0 {
			score.Precision = cm.Precision(ci)
			score.PrecisionDefined = true
		}
		if actualCount > 0 {
			score.Recall = cm.Sensitivity(ci)
			score.RecallDefined = true
			recallSum += score.Recall
			recallCount++
		}
		if score.PrecisionDefined && score.RecallDefined && score.Precision+score.Recall > 0 {
			score.F1 = cm.F1(ci)
			score.F1Defined = true
		}
		metrics.PerClass = append(metrics.PerClass, score)
	}

	if recallCount > 0 {
		metrics.BalancedAccuracy = recallSum / float64(recallCount)
	} else {
		metrics.BalancedAccuracy = math.NaN()
	}

	return metrics, nil
}

// Accuracy is the fraction of predictions matching the actual label
func Accuracy(actual, predicted []string) (float64, error) {
	if len(actual) != len(predicted) {
		return 0, fmt.Errorf("actual (%d) and predicted (%d) lengths differ", len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return 0, fmt.Errorf("nothing to evaluate")
	}
	correct := 0
	for i := range actual {
		if actual[i] == predicted[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(actual)), nil
}

// BalancedAccuracy is the mean per-class recall over classes that actually
// occur
func BalancedAccuracy(actual, predicted []string) (float64, error) {
	if len(actual) != len(predicted) {
		return 0, fmt.Errorf("actual (%d) and predicted (%d) lengths differ", len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return 0, fmt.Errorf("nothing to evaluate")
	}

	actualCount := make(map[string]int)
	correctCount := make(map[string]int)
	for i := range actual {
		actualCount[actual[i]]++
		if actual[i] == predicted[i] {
			correctCount[actual[i]]++
		}
	}

	sum := 0.0
	for class, count := range actualCount {
		sum += float64(correctCount[class]) / float64(count)
	}
	return sum / float64(len(actualCount)), nil
}
