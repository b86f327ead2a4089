package model

import (
	"math"
	"time"
)

// Report represents a complete train/evaluate run result
type Report struct {
	DatasetPath string           `json:"dataset_path"`         // Source file that was loaded
	CreatedAt   time.Time        `json:"created_at"`           // When the run finished
	Family      string           `json:"family"`               // Classifier family used
	OneVsAll    bool             `json:"one_vs_all"`           // Whether the one-vs-all dispatcher wrapped the family
	Seed        int64            `json:"seed"`                 // Split seed, for reproducibility
	Records     int              `json:"records"`              // Labeled records in the dataset
	TrainSize   int              `json:"train_size"`           // Records in the Training partition
	TestSize    int              `json:"test_size"`            // Records in the Test partition
	Vocabulary  int              `json:"vocabulary"`           // Retained vocabulary terms
	Features    int              `json:"features"`             // Total feature columns (vocabulary + extras)
	Classes     []string         `json:"classes"`              // Canonical class order
	Metrics     Metrics          `json:"metrics"`              // Evaluation metrics on the Test partition
	SubModels   []SubModelResult `json:"sub_models,omitempty"` // One-vs-all per-class outcomes
}

// Metrics holds the confusion matrix and derived scalar metrics.
// Per-class values with a zero denominator are NaN, which JSON cannot
// represent, so they are additionally flagged via the Defined masks.
type Metrics struct {
	Confusion        [][]int      `json:"confusion"`         // Rows actual, columns predicted, class order axes
	Accuracy         float64      `json:"accuracy"`
	BalancedAccuracy float64      `json:"balanced_accuracy"` // Mean per-class recall over defined classes
	Kappa            float64      `json:"kappa"`
	PerClass         []ClassScore `json:"per_class"`
	Evaluated        int          `json:"evaluated"` // Records evaluated; equals confusion cell sum
}

// ClassScore holds per-class precision/recall. A false Defined flag means
// the metric had a zero denominator (no predicted or no actual instances).
type ClassScore struct {
	Class            string  `json:"class"`
	Precision        float64 `json:"precision"`
	PrecisionDefined bool    `json:"precision_defined"`
	Recall           float64 `json:"recall"`
	RecallDefined    bool    `json:"recall_defined"`
	F1               float64 `json:"f1"`
	F1Defined        bool    `json:"f1_defined"`
	Actual           int     `json:"actual"`    // Actual instances of the class
	Predicted        int     `json:"predicted"` // Predicted instances of the class
}

// Sanitized returns a copy with NaN values zeroed, since JSON cannot encode
// NaN. The Defined flags still mark which metrics were undefined.
func (m Metrics) Sanitized() Metrics {
	out := m
	if math.IsNaN(out.BalancedAccuracy) {
		out.BalancedAccuracy = 0
	}
	// Kappa divides by one minus chance agreement, which can reach zero on
	// a degenerate test partition
	if math.IsNaN(out.Kappa) {
		out.Kappa = 0
	}
	out.PerClass = make([]ClassScore, len(m.PerClass))
	for i, s := range m.PerClass {
		if math.IsNaN(s.Precision) {
			s.Precision = 0
		}
		if math.IsNaN(s.Recall) {
			s.Recall = 0
		}
		if math.IsNaN(s.F1) {
			s.F1 = 0
		}
		out.PerClass[i] = s
	}
	return out
}

// SubModelResult records the outcome of one one-vs-all sub-model
type SubModelResult struct {
	Class    string `json:"class"`
	Balanced string `json:"balanced"` // Balancing strategy that actually ran
	TrainPos int    `json:"train_pos"`
	TrainNeg int    `json:"train_neg"`
	Error    string `json:"error,omitempty"` // Fit or predict failure, isolated to this class
}
