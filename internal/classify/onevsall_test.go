package classify

import (
	"errors"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// threeClasses returns three separated 2D clusters, slightly imbalanced
func threeClasses() (*mat.Dense, []string) {
	x := mat.NewDense(10, 2, []float64{
		0, 0, 1, 0, 0, 1, 1, 1,
		10, 10, 11, 10, 10, 11,
		0, 10, 1, 10, 0, 11,
	})
	labels := []string{
		"against", "against", "against", "against",
		"favor", "favor", "favor",
		"neutral", "neutral", "neutral",
	}
	return x, labels
}

func knnFactory(k int) TrainerFactory {
	return func() Trainer { return &KNNTrainer{K: k} }
}

func TestDispatcherFitPredict(t *testing.T) {
	x, labels := threeClasses()
	d := NewDispatcher(knnFactory(3), 3, 1)

	multi, err := d.Fit(x, labels)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if got := multi.Classes(); !reflect.DeepEqual(got, []string{"against", "favor", "neutral"}) {
		t.Errorf("classes = %v", got)
	}

	results := multi.SubModelResults()
	if len(results) != 3 {
		t.Fatalf("got %d sub-model results, want 3", len(results))
	}
	for _, r := range results {
		if r.Error != "" {
			t.Errorf("sub-model %q failed: %s", r.Class, r.Error)
		}
		if r.TrainPos+r.TrainNeg != len(labels) {
			t.Errorf("sub-model %q counts %d+%d do not cover %d records",
				r.Class, r.TrainPos, r.TrainNeg, len(labels))
		}
		if r.Balanced == "" {
			t.Errorf("sub-model %q reports no balancing strategy", r.Class)
		}
	}

	queries := mat.NewDense(3, 2, []float64{
		0.5, 0.5,
		10.5, 10.5,
		0.5, 10.5,
	})
	predicted, err := multi.Predict(queries)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	want := []string{"against", "favor", "neutral"}
	if !reflect.DeepEqual(predicted, want) {
		t.Errorf("Predict = %v, want %v", predicted, want)
	}
}

// failingTrainer fails to fit when asked
type failingTrainer struct {
	fitErr bool
	inner  Trainer
}

func (t *failingTrainer) Name() string { return "failing" }

func (t *failingTrainer) Fit(x *mat.Dense, labels []string) (Model, error) {
	if t.fitErr {
		return nil, errors.New("deliberate fit failure")
	}
	return t.inner.Fit(x, labels)
}

func TestDispatcherIsolatesSubModelFailure(t *testing.T) {
	x, labels := threeClasses()

	// Fail every other fit; at least one sub-model survives. One worker
	// keeps the factory call order deterministic.
	calls := 0
	factory := func() Trainer {
		calls++
		return &failingTrainer{fitErr: calls%2 == 1, inner: &KNNTrainer{K: 3}}
	}

	d := NewDispatcher(factory, 3, 1)
	d.Workers = 1
	multi, err := d.Fit(x, labels)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	failed := 0
	for _, r := range multi.SubModelResults() {
		if r.Error != "" {
			failed++
		}
	}
	if failed == 0 {
		t.Fatal("expected at least one sub-model failure")
	}

	// Prediction still works on the surviving sub-models
	predicted, failures, err := multi.PredictWithFailures(x)
	if err != nil {
		t.Fatalf("PredictWithFailures: %v", err)
	}
	if len(predicted) != len(labels) {
		t.Errorf("got %d predictions for %d rows", len(predicted), len(labels))
	}
	if len(failures) != failed {
		t.Errorf("got %d predict-time failures, want %d", len(failures), failed)
	}
}

func TestDispatcherAllSubModelsFail(t *testing.T) {
	x, labels := threeClasses()
	factory := func() Trainer { return &failingTrainer{fitErr: true} }

	if _, err := NewDispatcher(factory, 3, 1).Fit(x, labels); err == nil {
		t.Error("expected error when every sub-model fails")
	}
}

// noProbTrainer fits a model that lacks positive-class probabilities
type noProbModel struct{}

func (m *noProbModel) Predict(x *mat.Dense) ([]string, error) { return nil, nil }

type noProbTrainer struct{}

func (t *noProbTrainer) Name() string { return "noprob" }
func (t *noProbTrainer) Fit(x *mat.Dense, labels []string) (Model, error) {
	return &noProbModel{}, nil
}

func TestDispatcherRequiresBinaryModel(t *testing.T) {
	x, labels := threeClasses()
	factory := func() Trainer { return &noProbTrainer{} }

	if _, err := NewDispatcher(factory, 3, 1).Fit(x, labels); err == nil {
		t.Error("expected error for family without positive-class probabilities")
	}
}

func TestDispatcherSingleClass(t *testing.T) {
	x := mat.NewDense(2, 1, []float64{1, 2})
	if _, err := NewDispatcher(knnFactory(1), 3, 1).Fit(x, []string{"favor", "favor"}); err == nil {
		t.Error("expected error for single-class input")
	}
}

func TestMultiModelTieBreak(t *testing.T) {
	// Two sub-models scoring identically: the first class in canonical
	// order wins
	m := &MultiModel{
		classes: []string{"against", "favor"},
		models: map[string]BinaryModel{
			"against": constProbModel{0.5},
			"favor":   constProbModel{0.5},
		},
	}
	predicted, _, err := m.PredictWithFailures(mat.NewDense(1, 1, []float64{0}))
	if err != nil {
		t.Fatalf("PredictWithFailures: %v", err)
	}
	if predicted[0] != "against" {
		t.Errorf("tie resolved to %q, want against", predicted[0])
	}
}

// constProbModel scores every row with a fixed positive probability
type constProbModel struct {
	prob float64
}

func (m constProbModel) Predict(x *mat.Dense) ([]string, error) { return nil, nil }

func (m constProbModel) PosProb(x *mat.Dense) ([]float64, error) {
	rows, _ := x.Dims()
	probs := make([]float64, rows)
	for i := range probs {
		probs[i] = m.prob
	}
	return probs, nil
}
