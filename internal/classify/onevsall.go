package classify

import (
	"context"
	"fmt"

	"github.com/namo507/stancer/internal/model"
	"github.com/namo507/stancer/internal/worker"
	"gonum.org/v1/gonum/mat"
)

// Dispatcher trains one balanced binary classifier per class and combines
// their positive-class probabilities into a multi-class prediction.
//
// Balancing prefers synthetic oversampling and falls back deterministically
// to under-sampling when interpolation cannot run (too few minority
// samples). A class whose sub-model cannot be fit or queried is isolated:
// it scores zero and is reported, but never aborts the other classes.
type Dispatcher struct {
	base      TrainerFactory
	neighbors int
	seed      int64

	// Workers bounds the per-class fit parallelism; <= 0 means one worker
	// per class
	Workers int
}

// NewDispatcher creates a dispatcher around the given trainer factory
func NewDispatcher(base TrainerFactory, neighbors int, seed int64) *Dispatcher {
	return &Dispatcher{base: base, neighbors: neighbors, seed: seed}
}

// Fit trains the per-class sub-models on the worker pool. It fails outright
// only when the base family does not expose positive-class probabilities or
// when every sub-model fails; individual sub-model failures are carried in
// the results.
func (d *Dispatcher) Fit(x *mat.Dense, labels []string) (*MultiModel, error) {
	if err := checkFit(x, labels); err != nil {
		return nil, err
	}
	classes := model.ClassSet(labels)
	if len(classes) < 2 {
		return nil, fmt.Errorf("need at least 2 classes, got %d", len(classes))
	}

	workers := d.Workers
	if workers <= 0 {
		workers = len(classes)
	}
	pool := worker.NewPool(workers)
	pool.Start()
	for ci, class := range classes {
		pool.Submit(&classJob{
			dispatcher: d,
			class:      class,
			index:      ci,
			x:          x,
			labels:     labels,
		})
	}
	raw := pool.Wait()

	byIndex := make([]*classResult, len(classes))
	for _, r := range raw {
		cr := r.(*classResult)
		if cr.fatal != nil {
			return nil, cr.fatal
		}
		byIndex[cr.index] = cr
	}

	m := &MultiModel{
		classes: classes,
		models:  make(map[string]BinaryModel, len(classes)),
	}
	for _, cr := range byIndex {
		m.results = append(m.results, cr.result)
		if cr.model != nil {
			m.models[cr.result.Class] = cr.model
		}
	}

	if len(m.models) == 0 {
		return nil, fmt.Errorf("every sub-model failed to fit")
	}
	return m, nil
}

// classJob fits one balanced binary sub-problem
type classJob struct {
	dispatcher *Dispatcher
	class      string
	index      int
	x          *mat.Dense
	labels     []string
}

type classResult struct {
	index  int
	result model.SubModelResult
	model  BinaryModel
	fatal  error
}

func (r *classResult) GetError() error { return r.fatal }

func (j *classJob) Execute(ctx context.Context) worker.Result {
	d := j.dispatcher
	out := &classResult{index: j.index, result: model.SubModelResult{Class: j.class}}
	if err := ctx.Err(); err != nil {
		out.result.Error = err.Error()
		return out
	}

	binary := make([]string, len(j.labels))
	for i, l := range j.labels {
		if l == j.class {
			binary[i] = PositiveLabel
			out.result.TrainPos++
		} else {
			binary[i] = NegativeLabel
			out.result.TrainNeg++
		}
	}

	balancedX, balancedLabels, strategy, err := d.balance(j.x, binary, int64(j.index))
	if err != nil {
		out.result.Error = fmt.Sprintf("balance: %v", err)
		return out
	}
	out.result.Balanced = strategy

	fitted, err := d.base().Fit(balancedX, balancedLabels)
	if err != nil {
		out.result.Error = fmt.Sprintf("fit: %v", err)
		return out
	}
	bin, ok := fitted.(BinaryModel)
	if !ok {
		out.fatal = fmt.Errorf("family %q does not expose positive-class probabilities", d.base().Name())
		return out
	}

	out.model = bin
	return out
}

// balance runs synthetic oversampling with a deterministic fallback to
// under-sampling
func (d *Dispatcher) balance(x *mat.Dense, labels []string, offset int64) (*mat.Dense, []string, string, error) {
	balancedX, balancedLabels, err := Synthetic(x, labels, d.neighbors, d.seed+offset)
	if err == nil {
		return balancedX, balancedLabels, "synthetic", nil
	}

	balancedX, balancedLabels, downErr := Downsample(x, labels, d.seed+offset)
	if downErr != nil {
		return nil, nil, "", fmt.Errorf("synthetic oversampling failed (%v) and under-sampling failed (%v)", err, downErr)
	}
	return balancedX, balancedLabels, "down", nil
}

// MultiModel is the fitted one-vs-all ensemble
type MultiModel struct {
	classes []string
	models  map[string]BinaryModel
	results []model.SubModelResult
}

// Classes returns the canonical class order
func (m *MultiModel) Classes() []string {
	return append([]string(nil), m.classes...)
}

// SubModelResults returns the fit-time outcome of every sub-model
func (m *MultiModel) SubModelResults() []model.SubModelResult {
	return append([]model.SubModelResult(nil), m.results...)
}

// ClassFailure records a per-class prediction failure
type ClassFailure struct {
	Class string
	Err   string
}

// Predict labels each query row by the class whose sub-model reports the
// highest positive probability
func (m *MultiModel) Predict(x *mat.Dense) ([]string, error) {
	predicted, _, err := m.PredictWithFailures(x)
	return predicted, err
}

// PredictWithFailures additionally reports classes whose sub-model failed
// to produce probabilities. A failing class scores zero for every row; the
// prediction proceeds on the remaining classes. Ties on the maximum score
// go to the first class in canonical order.
func (m *MultiModel) PredictWithFailures(x *mat.Dense) ([]string, []ClassFailure, error) {
	rows, _ := x.Dims()
	scores := make(map[string][]float64, len(m.classes))
	var failures []ClassFailure

	for _, class := range m.classes {
		sub, ok := m.models[class]
		if !ok {
			failures = append(failures, ClassFailure{Class: class, Err: "no fitted sub-model"})
			scores[class] = make([]float64, rows)
			continue
		}
		probs, err := sub.PosProb(x)
		if err != nil {
			failures = append(failures, ClassFailure{Class: class, Err: err.Error()})
			scores[class] = make([]float64, rows)
			continue
		}
		scores[class] = probs
	}

	if len(failures) == len(m.classes) {
		return nil, failures, fmt.Errorf("every sub-model failed to score")
	}

	predicted := make([]string, rows)
	for i := 0; i < rows; i++ {
		best := m.classes[0]
		for _, class := range m.classes[1:] {
			if scores[class][i] > scores[best][i] {
				best = class
			}
		}
		predicted[i] = best
	}
	return predicted, failures, nil
}
