package model

import "sort"

// ClassSet returns the sorted set of distinct non-empty labels.
// The sorted order is the canonical class order used everywhere downstream
// (confusion matrix axes, one-vs-all sub-model order, tie-breaking).
func ClassSet(labels []string) []string {
	seen := make(map[string]bool)
	var classes []string
	for _, l := range labels {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		classes = append(classes, l)
	}
	sort.Strings(classes)
	return classes
}

// ClassIndex maps each class to its position in the canonical class order
func ClassIndex(classes []string) map[string]int {
	idx := make(map[string]int, len(classes))
	for i, c := range classes {
		idx[c] = i
	}
	return idx
}

// CountByClass tallies how many labels fall into each class
func CountByClass(labels []string) map[string]int {
	counts := make(map[string]int)
	for _, l := range labels {
		if l != "" {
			counts[l]++
		}
	}
	return counts
}
