package classify

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// cvData returns two separated clusters, large enough for 4 folds
func cvData() (*mat.Dense, []string) {
	values := make([]float64, 0, 40)
	labels := make([]string, 0, 20)
	for i := 0; i < 10; i++ {
		values = append(values, float64(i%3), float64(i%2))
		labels = append(labels, "against")
	}
	for i := 0; i < 10; i++ {
		values = append(values, 10+float64(i%3), 10+float64(i%2))
		labels = append(labels, "favor")
	}
	return mat.NewDense(20, 2, values), labels
}

func cvOptions() CVOptions {
	return CVOptions{
		Folds:   4,
		Repeats: 2,
		Metric:  "accuracy",
		Seed:    1,
		Workers: 4,
	}
}

func TestCrossValidate(t *testing.T) {
	x, labels := cvData()
	candidates := []Candidate{
		{Name: "knn k=1", Factory: knnFactory(1)},
		{Name: "knn k=3", Factory: knnFactory(3)},
	}

	results, err := CrossValidate(x, labels, candidates, cvOptions())
	if err != nil {
		t.Fatalf("CrossValidate: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	for _, r := range results {
		// 4 folds x 2 repeats
		if len(r.Scores)+len(r.Errors) != 8 {
			t.Errorf("%s: %d scores + %d errors, want 8 evaluations",
				r.Candidate, len(r.Scores), len(r.Errors))
		}
		if len(r.Errors) > 0 {
			t.Errorf("%s: unexpected fold errors: %v", r.Candidate, r.Errors)
		}
		// The clusters are trivially separable
		if r.Mean != 1.0 {
			t.Errorf("%s: mean = %v, want 1.0", r.Candidate, r.Mean)
		}
	}
}

func TestCrossValidateSortsBestFirst(t *testing.T) {
	x, labels := cvData()
	candidates := []Candidate{
		{Name: "constant", Factory: func() Trainer { return constTrainer{} }},
		{Name: "knn k=1", Factory: knnFactory(1)},
	}

	results, err := CrossValidate(x, labels, candidates, cvOptions())
	if err != nil {
		t.Fatalf("CrossValidate: %v", err)
	}
	if results[0].Candidate != "knn k=1" {
		t.Errorf("best candidate = %q, want knn k=1", results[0].Candidate)
	}
	if results[0].Mean < results[1].Mean {
		t.Errorf("results not sorted: %v then %v", results[0].Mean, results[1].Mean)
	}
}

func TestCrossValidateDeterminism(t *testing.T) {
	x, labels := cvData()
	candidates := []Candidate{{Name: "knn k=3", Factory: knnFactory(3)}}

	a, err := CrossValidate(x, labels, candidates, cvOptions())
	if err != nil {
		t.Fatalf("CrossValidate: %v", err)
	}
	b, err := CrossValidate(x, labels, candidates, cvOptions())
	if err != nil {
		t.Fatalf("CrossValidate: %v", err)
	}
	if a[0].Mean != b[0].Mean {
		t.Errorf("same seed gave different means: %v vs %v", a[0].Mean, b[0].Mean)
	}
}

func TestCrossValidateFailingCandidate(t *testing.T) {
	x, labels := cvData()
	candidates := []Candidate{
		{Name: "broken", Factory: func() Trainer { return &failingTrainer{fitErr: true} }},
		{Name: "knn k=1", Factory: knnFactory(1)},
	}

	results, err := CrossValidate(x, labels, candidates, cvOptions())
	if err != nil {
		t.Fatalf("CrossValidate: %v", err)
	}

	byName := make(map[string]CVResult)
	for _, r := range results {
		byName[r.Candidate] = r
	}

	broken := byName["broken"]
	if len(broken.Errors) != 8 {
		t.Errorf("broken candidate has %d errors, want 8", len(broken.Errors))
	}
	if !math.IsNaN(broken.Mean) {
		t.Errorf("broken candidate mean = %v, want NaN", broken.Mean)
	}

	// NaN sorts last
	if results[len(results)-1].Candidate != "broken" {
		t.Errorf("broken candidate should sort last, got order %v, %v",
			results[0].Candidate, results[1].Candidate)
	}
}

func TestCrossValidateValidation(t *testing.T) {
	x, labels := cvData()
	good := []Candidate{{Name: "knn k=1", Factory: knnFactory(1)}}

	if _, err := CrossValidate(x, labels, nil, cvOptions()); err == nil {
		t.Error("expected error for empty grid")
	}

	opts := cvOptions()
	opts.Folds = 1
	if _, err := CrossValidate(x, labels, good, opts); err == nil {
		t.Error("expected error for folds < 2")
	}

	opts = cvOptions()
	opts.Metric = "f1"
	if _, err := CrossValidate(x, labels, good, opts); err == nil {
		t.Error("expected error for unknown metric")
	}

	dup := []Candidate{
		{Name: "knn", Factory: knnFactory(1)},
		{Name: "knn", Factory: knnFactory(3)},
	}
	if _, err := CrossValidate(x, labels, dup, cvOptions()); err == nil {
		t.Error("expected error for duplicate candidate names")
	}
}

func TestCrossValidateBalancedMetric(t *testing.T) {
	x, labels := cvData()
	opts := cvOptions()
	opts.Metric = "balanced_accuracy"
	opts.Balance = "down"

	results, err := CrossValidate(x, labels, []Candidate{{Name: "knn k=1", Factory: knnFactory(1)}}, opts)
	if err != nil {
		t.Fatalf("CrossValidate: %v", err)
	}
	if results[0].Mean != 1.0 {
		t.Errorf("mean balanced accuracy = %v, want 1.0", results[0].Mean)
	}
}

// constTrainer always predicts "against"
type constTrainer struct{}

func (t constTrainer) Name() string { return "constant" }

func (t constTrainer) Fit(x *mat.Dense, labels []string) (Model, error) {
	return constModel{}, nil
}

type constModel struct{}

func (m constModel) Predict(x *mat.Dense) ([]string, error) {
	rows, _ := x.Dims()
	out := make([]string, rows)
	for i := range out {
		out[i] = "against"
	}
	return out, nil
}
