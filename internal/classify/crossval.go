package classify

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/namo507/stancer/internal/evaluate"
	"github.com/namo507/stancer/internal/split"
	"github.com/namo507/stancer/internal/worker"
	"gonum.org/v1/gonum/mat"
)

// Candidate is one hyperparameter combination under evaluation
type Candidate struct {
	Name    string // Human-readable, e.g. "knn k=5"
	Factory TrainerFactory
}

// CVOptions controls cross-validated grid search
type CVOptions struct {
	Folds     int
	Repeats   int
	Metric    string // accuracy or balanced_accuracy
	Balance   string // Applied inside each fold, on the training portion only
	Neighbors int
	Seed      int64
	Workers   int
}

// CVResult aggregates one candidate's scores across folds and repeats
type CVResult struct {
	Candidate string
	Scores    []float64 // One per successful fold evaluation
	Mean      float64
	Errors    []string // Failed fold evaluations
}

// CrossValidate scores every candidate by repeated K-fold cross-validation
// and returns the results sorted best-first. Fold evaluations run on the
// worker pool; completion order does not affect the outcome.
func CrossValidate(x *mat.Dense, labels []string, candidates []Candidate, opts CVOptions) ([]CVResult, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("empty hyperparameter grid")
	}
	if opts.Folds < 2 {
		return nil, fmt.Errorf("fold count must be >= 2, got %d", opts.Folds)
	}
	if opts.Repeats < 1 {
		opts.Repeats = 1
	}
	switch opts.Metric {
	case "accuracy", "balanced_accuracy":
	default:
		return nil, fmt.Errorf("metric must be accuracy or balanced_accuracy, got %q", opts.Metric)
	}
	rows, _ := x.Dims()
	if rows != len(labels) {
		return nil, fmt.Errorf("matrix has %d rows but %d labels", rows, len(labels))
	}

	assignments, err := split.RepeatedKFold(rows, opts.Folds, opts.Repeats, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("deal folds: %w", err)
	}

	pool := worker.NewPool(opts.Workers)
	pool.Start()
	for _, candidate := range candidates {
		for r, folds := range assignments {
			for f, fold := range folds {
				pool.Submit(&foldJob{
					candidate: candidate,
					x:         x,
					labels:    labels,
					fold:      fold,
					opts:      opts,
					seed:      opts.Seed + int64(r*opts.Folds+f),
				})
			}
		}
	}
	results := pool.Wait()

	byName := make(map[string]*CVResult, len(candidates))
	order := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := byName[c.Name]; ok {
			return nil, fmt.Errorf("duplicate candidate name %q", c.Name)
		}
		byName[c.Name] = &CVResult{Candidate: c.Name}
		order = append(order, c.Name)
	}
	for _, r := range results {
		fr := r.(*foldResult)
		agg := byName[fr.candidate]
		if fr.err != nil {
			agg.Errors = append(agg.Errors, fr.err.Error())
			continue
		}
		agg.Scores = append(agg.Scores, fr.score)
	}

	out := make([]CVResult, 0, len(order))
	for _, name := range order {
		agg := byName[name]
		agg.Mean = mean(agg.Scores)
		out = append(out, *agg)
	}
	sort.SliceStable(out, func(i, j int) bool {
		mi, mj := out[i].Mean, out[j].Mean
		if math.IsNaN(mi) {
			return false
		}
		if math.IsNaN(mj) {
			return true
		}
		return mi > mj
	})
	return out, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// foldJob trains a candidate on the fold complement and scores it on the
// held-out fold
type foldJob struct {
	candidate Candidate
	x         *mat.Dense
	labels    []string
	fold      []int
	opts      CVOptions
	seed      int64
}

type foldResult struct {
	candidate string
	score     float64
	err       error
}

func (r *foldResult) GetError() error { return r.err }

func (j *foldJob) Execute(ctx context.Context) worker.Result {
	if err := ctx.Err(); err != nil {
		return &foldResult{candidate: j.candidate.Name, err: err}
	}

	rows, _ := j.x.Dims()
	trainIdx := split.Complement(rows, j.fold)
	trainX, trainLabels := subsetRows(j.x, j.labels, trainIdx)
	heldX, heldLabels := subsetRows(j.x, j.labels, j.fold)

	// Balancing stays inside the fold: held-out rows never influence it
	balancedX, balancedLabels, err := Balance(j.opts.Balance, trainX, trainLabels, j.opts.Neighbors, j.seed)
	if err != nil {
		return &foldResult{candidate: j.candidate.Name, err: fmt.Errorf("balance: %w", err)}
	}

	fitted, err := j.candidate.Factory().Fit(balancedX, balancedLabels)
	if err != nil {
		return &foldResult{candidate: j.candidate.Name, err: fmt.Errorf("fit: %w", err)}
	}
	predicted, err := fitted.Predict(heldX)
	if err != nil {
		return &foldResult{candidate: j.candidate.Name, err: fmt.Errorf("predict: %w", err)}
	}

	var score float64
	switch j.opts.Metric {
	case "balanced_accuracy":
		score, err = evaluate.BalancedAccuracy(heldLabels, predicted)
	default:
		score, err = evaluate.Accuracy(heldLabels, predicted)
	}
	if err != nil {
		return &foldResult{candidate: j.candidate.Name, err: fmt.Errorf("score: %w", err)}
	}
	return &foldResult{candidate: j.candidate.Name, score: score}
}
