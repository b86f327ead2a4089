package classify

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/namo507/stancer/internal/model"
	"gonum.org/v1/gonum/mat"
)

// BoostTrainer fits an ensemble of shallow regression trees on the logistic
// loss, each round correcting the residual error of the ensemble so far.
// Multi-class problems are handled one-vs-rest with one ensemble per class.
type BoostTrainer struct {
	Rounds         int
	MaxDepth       int
	LearningRate   float64
	Subsample      float64 // Row subsample ratio per round
	ColSample      float64 // Feature subsample ratio per tree
	MinChildWeight float64 // Minimum hessian sum per leaf
	Seed           int64
}

// regLambda is the fixed L2 penalty on leaf weights
const regLambda = 1.0

// Name returns the family name
func (t *BoostTrainer) Name() string { return "boost" }

// Fit trains one boosted ensemble per class
func (t *BoostTrainer) Fit(x *mat.Dense, labels []string) (Model, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	if err := checkFit(x, labels); err != nil {
		return nil, err
	}
	classes := model.ClassSet(labels)
	if len(classes) < 2 {
		return nil, fmt.Errorf("need at least 2 classes, got %d", len(classes))
	}

	rows, cols := x.Dims()
	rng := rand.New(rand.NewSource(t.Seed))
	m := &boostModel{
		classes:      classes,
		ensembles:    make([][]*treeNode, len(classes)),
		learningRate: t.LearningRate,
		cols:         cols,
	}

	y := make([]float64, rows)
	for ci, class := range classes {
		for i, l := range labels {
			if l == class {
				y[i] = 1
			} else {
				y[i] = 0
			}
		}
		m.ensembles[ci] = t.fitEnsemble(x, y, rng)
	}
	return m, nil
}

func (t *BoostTrainer) validate() error {
	if t.Rounds < 1 {
		return fmt.Errorf("rounds must be >= 1, got %d", t.Rounds)
	}
	if t.MaxDepth < 1 {
		return fmt.Errorf("max depth must be >= 1, got %d", t.MaxDepth)
	}
	if t.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be > 0, got %v", t.LearningRate)
	}
	if t.Subsample <= 0 || t.Subsample > 1 {
		return fmt.Errorf("row subsample ratio must be in (0, 1], got %v", t.Subsample)
	}
	if t.ColSample <= 0 || t.ColSample > 1 {
		return fmt.Errorf("feature subsample ratio must be in (0, 1], got %v", t.ColSample)
	}
	return nil
}

// fitEnsemble boosts one binary target with y in {0, 1}
func (t *BoostTrainer) fitEnsemble(x *mat.Dense, y []float64, rng *rand.Rand) []*treeNode {
	rows, cols := x.Dims()
	score := make([]float64, rows) // Raw ensemble output, starts at 0 (p = 0.5)
	grad := make([]float64, rows)
	hess := make([]float64, rows)

	trees := make([]*treeNode, 0, t.Rounds)
	for round := 0; round < t.Rounds; round++ {
		for i := 0; i < rows; i++ {
			p := sigmoid(score[i])
			grad[i] = p - y[i]
			hess[i] = p * (1 - p)
		}

		sampleRows := sampleIndices(rows, t.Subsample, rng)
		sampleCols := sampleIndices(cols, t.ColSample, rng)

		tree := t.buildTree(x, sampleRows, sampleCols, grad, hess, 0)
		trees = append(trees, tree)

		for i := 0; i < rows; i++ {
			score[i] += t.LearningRate * tree.predict(x, i)
		}
	}
	return trees
}

// sampleIndices draws ratio*n indices without replacement, sorted
func sampleIndices(n int, ratio float64, rng *rand.Rand) []int {
	count := int(ratio * float64(n))
	if count < 1 {
		count = 1
	}
	if count >= n {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	perm := rng.Perm(n)[:count]
	sort.Ints(perm)
	return perm
}

// treeNode is one node of a depth-limited regression tree
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	leaf      bool
	value     float64
}

// predict evaluates the tree for row i of x
func (n *treeNode) predict(x *mat.Dense, i int) float64 {
	node := n
	for !node.leaf {
		if x.At(i, node.feature) < node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

// buildTree grows a tree greedily on the sampled rows and columns using
// first and second order gradients
func (t *BoostTrainer) buildTree(x *mat.Dense, rows, cols []int, grad, hess []float64, depth int) *treeNode {
	sumG, sumH := 0.0, 0.0
	for _, i := range rows {
		sumG += grad[i]
		sumH += hess[i]
	}
	leaf := &treeNode{leaf: true, value: -sumG / (sumH + regLambda)}

	if depth >= t.MaxDepth || len(rows) < 2 {
		return leaf
	}

	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0
	parentScore := sumG * sumG / (sumH + regLambda)

	sorted := make([]int, len(rows))
	for _, j := range cols {
		copy(sorted, rows)
		sort.Slice(sorted, func(a, b int) bool {
			return x.At(sorted[a], j) < x.At(sorted[b], j)
		})

		leftG, leftH := 0.0, 0.0
		for pos := 0; pos < len(sorted)-1; pos++ {
			i := sorted[pos]
			leftG += grad[i]
			leftH += hess[i]

			v, next := x.At(i, j), x.At(sorted[pos+1], j)
			if v == next {
				continue // Cannot split between identical values
			}
			rightG, rightH := sumG-leftG, sumH-leftH
			if leftH < t.MinChildWeight || rightH < t.MinChildWeight {
				continue
			}

			gain := leftG*leftG/(leftH+regLambda) + rightG*rightG/(rightH+regLambda) - parentScore
			if gain > bestGain {
				bestGain = gain
				bestFeature = j
				bestThreshold = (v + next) / 2
			}
		}
	}

	if bestFeature < 0 {
		return leaf
	}

	var leftRows, rightRows []int
	for _, i := range rows {
		if x.At(i, bestFeature) < bestThreshold {
			leftRows = append(leftRows, i)
		} else {
			rightRows = append(rightRows, i)
		}
	}
	if len(leftRows) == 0 || len(rightRows) == 0 {
		return leaf
	}

	return &treeNode{
		feature:   bestFeature,
		threshold: bestThreshold,
		left:      t.buildTree(x, leftRows, cols, grad, hess, depth+1),
		right:     t.buildTree(x, rightRows, cols, grad, hess, depth+1),
	}
}

type boostModel struct {
	classes      []string
	ensembles    [][]*treeNode
	learningRate float64
	cols         int
}

// scores computes the raw ensemble output per class for every query row
func (m *boostModel) scores(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if cols != m.cols {
		return nil, fmt.Errorf("query has %d features, model was trained on %d", cols, m.cols)
	}
	out := mat.NewDense(rows, len(m.classes), nil)
	for i := 0; i < rows; i++ {
		for ci, trees := range m.ensembles {
			score := 0.0
			for _, tree := range trees {
				score += m.learningRate * tree.predict(x, i)
			}
			out.Set(i, ci, score)
		}
	}
	return out, nil
}

// Predict labels each query row by the class whose ensemble scores highest.
// Exact ties go to the first class in canonical order.
func (m *boostModel) Predict(x *mat.Dense) ([]string, error) {
	scores, err := m.scores(x)
	if err != nil {
		return nil, err
	}
	rows, _ := scores.Dims()
	predicted := make([]string, rows)
	for i := 0; i < rows; i++ {
		best := 0
		for ci := 1; ci < len(m.classes); ci++ {
			if scores.At(i, ci) > scores.At(i, best) {
				best = ci
			}
		}
		predicted[i] = m.classes[best]
	}
	return predicted, nil
}

// PosProb returns the sigmoid of the positive-class ensemble output. Only
// valid for models trained on the binary label set.
func (m *boostModel) PosProb(x *mat.Dense) ([]float64, error) {
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

	scores, err := m.scores(x)
	if err != nil {
		return nil, err
	}
	rows, _ := scores.Dims()
	probs := make([]float64, rows)
	for i := 0; i < rows; i++ {
		probs[i] = sigmoid(scores.At(i, posIdx))
	}
	return probs, nil
}
