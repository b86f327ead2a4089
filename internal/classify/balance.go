package classify

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/namo507/stancer/internal/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Balance applies the configured class-imbalance strategy to a labeled
// matrix and returns the rebalanced copy. "none" returns the input
// unchanged. The strategy runs before fitting, on Training data only.
func Balance(method string, x *mat.Dense, labels []string, neighbors int, seed int64) (*mat.Dense, []string, error) {
	switch method {
	case "", "none":
		return x, labels, nil
	case "down":
		return Downsample(x, labels, seed)
	case "up":
		return Upsample(x, labels, seed)
	case "synthetic":
		return Synthetic(x, labels, neighbors, seed)
	default:
		return nil, nil, fmt.Errorf("unknown balance method %q", method)
	}
}

// Downsample reduces every class to the size of the smallest class by
// sampling without replacement
func Downsample(x *mat.Dense, labels []string, seed int64) (*mat.Dense, []string, error) {
	byClass, classes, err := groupByClass(labels)
	if err != nil {
		return nil, nil, err
	}

	target := len(byClass[classes[0]])
	for _, c := range classes[1:] {
		if len(byClass[c]) < target {
			target = len(byClass[c])
		}
	}

	rng := rand.New(rand.NewSource(seed))
	var keep []int
	for _, c := range classes {
		indices := byClass[c]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		keep = append(keep, indices[:target]...)
	}
	sort.Ints(keep)

	out, outLabels := subsetRows(x, labels, keep)
	return out, outLabels, nil
}

// Upsample grows every class to the size of the largest class by sampling
// with replacement
func Upsample(x *mat.Dense, labels []string, seed int64) (*mat.Dense, []string, error) {
	byClass, classes, err := groupByClass(labels)
	if err != nil {
		return nil, nil, err
	}

	target := len(byClass[classes[0]])
	for _, c := range classes[1:] {
		if len(byClass[c]) > target {
			target = len(byClass[c])
		}
	}

	rng := rand.New(rand.NewSource(seed))
	var keep []int
	for _, c := range classes {
		indices := byClass[c]
		keep = append(keep, indices...)
		for n := len(indices); n < target; n++ {
			keep = append(keep, indices[rng.Intn(len(indices))])
		}
	}

	out, outLabels := subsetRows(x, labels, keep)
	return out, outLabels, nil
}

// Synthetic grows every minority class to the size of the largest class by
// interpolating between same-class nearest neighbors. A class with fewer
// than two samples cannot be interpolated, which is an error the caller may
// recover from by falling back to Downsample.
func Synthetic(x *mat.Dense, labels []string, neighbors int, seed int64) (*mat.Dense, []string, error) {
	byClass, classes, err := groupByClass(labels)
	if err != nil {
		return nil, nil, err
	}
	if neighbors < 1 {
		neighbors = 5
	}

	target := len(byClass[classes[0]])
	for _, c := range classes[1:] {
		if len(byClass[c]) > target {
			target = len(byClass[c])
		}
	}
	for _, c := range classes {
		if len(byClass[c]) < target && len(byClass[c]) < 2 {
			return nil, nil, fmt.Errorf("class %q has %d sample(s), need at least 2 for synthetic oversampling", c, len(byClass[c]))
		}
	}

	rows, cols := x.Dims()
	var synthetic [][]float64
	var syntheticLabels []string
	rng := rand.New(rand.NewSource(seed))

	for _, c := range classes {
		indices := byClass[c]
		for n := len(indices); n < target; n++ {
			a := indices[rng.Intn(len(indices))]
			b := sameClassNeighbor(x, a, indices, neighbors, rng)

			rowA, rowB := rowAt(x, a), rowAt(x, b)
			u := rng.Float64()
			sample := make([]float64, cols)
			for j := range sample {
				sample[j] = rowA[j] + u*(rowB[j]-rowA[j])
			}
			synthetic = append(synthetic, sample)
			syntheticLabels = append(syntheticLabels, c)
		}
	}

	out := mat.NewDense(rows+len(synthetic), cols, nil)
	outLabels := make([]string, 0, rows+len(synthetic))
	for i := 0; i < rows; i++ {
		out.SetRow(i, rowAt(x, i))
	}
	outLabels = append(outLabels, labels...)
	for i, sample := range synthetic {
		out.SetRow(rows+i, sample)
		outLabels = append(outLabels, syntheticLabels[i])
	}
	return out, outLabels, nil
}

// sameClassNeighbor picks a random neighbor of row a among the k nearest
// same-class rows
func sameClassNeighbor(x *mat.Dense, a int, indices []int, k int, rng *rand.Rand) int {
	type candidate struct {
		index    int
		distance float64
	}
	rowA := rowAt(x, a)
	row := make([]float64, len(rowA))
	var candidates []candidate
	for _, i := range indices {
		if i == a {
			continue
		}
		mat.Row(row, i, x)
		candidates = append(candidates, candidate{index: i, distance: floats.Distance(rowA, row, 2)})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].index < candidates[j].index
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates[rng.Intn(len(candidates))].index
}

// groupByClass buckets row indices by label, with classes in canonical order
func groupByClass(labels []string) (map[string][]int, []string, error) {
	byClass := make(map[string][]int)
	for i, l := range labels {
		if l == "" {
			return nil, nil, fmt.Errorf("record %d has no label", i)
		}
		byClass[l] = append(byClass[l], i)
	}
	classes := model.ClassSet(labels)
	if len(classes) < 2 {
		return nil, nil, fmt.Errorf("need at least 2 classes to balance, got %d", len(classes))
	}
	return byClass, classes, nil
}
