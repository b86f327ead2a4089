// Package split partitions records into Training and Test sets, and deals
// fold assignments for cross-validation. All sampling is seeded: the same
// seed, input size, and fraction always reproduce the same partition.
package split

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Partition is a disjoint total cover of record indices
type Partition struct {
	Train []int
	Test  []int
}

// Holdout samples testFraction of n indices without replacement as Test;
// the remainder is Training.
func Holdout(n int, testFraction float64, seed int64) (Partition, error) {
	if err := checkFraction(n, testFraction); err != nil {
		return Partition{}, err
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)

	testSize := int(math.Round(testFraction * float64(n)))
	if testSize < 1 {
		testSize = 1
	}
	if testSize >= n {
		testSize = n - 1
	}

	p := Partition{
		Test:  append([]int(nil), perm[:testSize]...),
		Train: append([]int(nil), perm[testSize:]...),
	}
	sort.Ints(p.Test)
	sort.Ints(p.Train)
	return p, nil
}

// Stratified samples testFraction of each class's indices, preserving class
// proportions across the partition within rounding tolerance.
func Stratified(labels []string, testFraction float64, seed int64) (Partition, error) {
	n := len(labels)
	if err := checkFraction(n, testFraction); err != nil {
		return Partition{}, err
	}

	byClass := make(map[string][]int)
	var classes []string
	for i, l := range labels {
		if _, ok := byClass[l]; !ok {
			classes = append(classes, l)
		}
		byClass[l] = append(byClass[l], i)
	}
	// Stable class iteration keeps the partition deterministic
	sort.Strings(classes)

	rng := rand.New(rand.NewSource(seed))
	var p Partition
	for _, c := range classes {
		indices := byClass[c]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		testSize := int(math.Round(testFraction * float64(len(indices))))
		if testSize >= len(indices) {
			testSize = len(indices) - 1
		}
		p.Test = append(p.Test, indices[:testSize]...)
		p.Train = append(p.Train, indices[testSize:]...)
	}

	if len(p.Train) == 0 || len(p.Test) == 0 {
		return Partition{}, fmt.Errorf("degenerate stratified split: %d train, %d test", len(p.Train), len(p.Test))
	}
	sort.Ints(p.Test)
	sort.Ints(p.Train)
	return p, nil
}

// KFold deals n indices into k folds whose sizes differ by at most one.
// The returned slice holds each fold's held-out indices.
func KFold(n, k int, seed int64) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("fold count must be >= 2, got %d", k)
	}
	if n < k {
		return nil, fmt.Errorf("cannot deal %d records into %d folds", n, k)
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)

	folds := make([][]int, k)
	for i, idx := range perm {
		f := i % k
		folds[f] = append(folds[f], idx)
	}
	for _, fold := range folds {
		sort.Ints(fold)
	}
	return folds, nil
}

// RepeatedKFold produces repeats independent fold assignments, each seeded
// deterministically from the base seed.
func RepeatedKFold(n, k, repeats int, seed int64) ([][][]int, error) {
	if repeats < 1 {
		return nil, fmt.Errorf("repeat count must be >= 1, got %d", repeats)
	}
	all := make([][][]int, repeats)
	for r := 0; r < repeats; r++ {
		folds, err := KFold(n, k, seed+int64(r))
		if err != nil {
			return nil, err
		}
		all[r] = folds
	}
	return all, nil
}

// Complement returns all indices in [0, n) not present in the held-out fold
func Complement(n int, fold []int) []int {
	held := make(map[int]struct{}, len(fold))
	for _, idx := range fold {
		held[idx] = struct{}{}
	}
	rest := make([]int, 0, n-len(fold))
	for i := 0; i < n; i++ {
		if _, ok := held[i]; !ok {
			rest = append(rest, i)
		}
	}
	return rest
}

func checkFraction(n int, testFraction float64) error {
	if n < 2 {
		return fmt.Errorf("need at least 2 records to split, got %d", n)
	}
	if testFraction <= 0 || testFraction >= 1 {
		return fmt.Errorf("test fraction must be in (0, 1), got %v", testFraction)
	}
	return nil
}
