package model

import (
	"fmt"
	"runtime"
	"time"
)

// Config is the complete stancer configuration
type Config struct {
	Data        DataConfig        `yaml:"data"`
	Tokenize    TokenizeConfig    `yaml:"tokenize"`
	Features    FeatureConfig     `yaml:"features"`
	Split       SplitConfig       `yaml:"split"`
	Train       TrainConfig       `yaml:"train"`
	CV          CVConfig          `yaml:"cross_validation"`
	Balance     BalanceConfig     `yaml:"balance"`
	Suggest     SuggestConfig     `yaml:"suggest"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Output      OutputConfig      `yaml:"output"`
}

// DataConfig describes the tabular input source
type DataConfig struct {
	IDColumn     string `yaml:"id_column"`     // Column holding the record identifier
	TextColumn   string `yaml:"text_column"`   // Column holding the raw text
	StanceColumn string `yaml:"stance_column"` // Column holding the hand-coded stance
	HasHeader    bool   `yaml:"has_header"`    // Whether the first row is a header
}

// TokenizeConfig controls text normalization
type TokenizeConfig struct {
	ExtraStopWords []string      `yaml:"extra_stop_words"` // Added to the built-in stop-word list
	Lemmatize      bool          `yaml:"lemmatize"`        // Reduce tokens to their lemma
	CacheEnabled   bool          `yaml:"cache_enabled"`    // Cache normalized token sequences
	CacheTTL       time.Duration `yaml:"cache_ttl"`
}

// FeatureConfig controls vocabulary pruning and extra feature columns
type FeatureConfig struct {
	MinTermFreq    int      `yaml:"min_term_freq"`    // Drop terms occurring fewer times corpus-wide
	MinDocFraction float64  `yaml:"min_doc_fraction"` // Drop terms present in fewer docs than this fraction
	TFIDF          bool     `yaml:"tfidf"`            // TF-IDF weighting instead of raw counts
	TextLength     bool     `yaml:"text_length"`      // Append raw character length column
	Keywords       []string `yaml:"keywords"`         // Regexps counted over raw text, one column each
}

// SplitConfig controls the train/test partition
type SplitConfig struct {
	TestFraction float64 `yaml:"test_fraction"` // Fraction of records held out as Test
	Stratify     bool    `yaml:"stratify"`      // Preserve class proportions across the split
	Seed         int64   `yaml:"seed"`          // RNG seed; same seed reproduces the partition
}

// TrainConfig selects and parameterizes the classifier family
type TrainConfig struct {
	Family   string      `yaml:"family"`     // knn, svm, boost, bayes
	OneVsAll bool        `yaml:"one_vs_all"` // Wrap the family in a one-vs-all dispatcher
	KNN      KNNConfig   `yaml:"knn"`
	SVM      SVMConfig   `yaml:"svm"`
	Boost    BoostConfig `yaml:"boost"`
}

// KNNConfig parameterizes k-nearest-neighbors
type KNNConfig struct {
	K int `yaml:"k"`
}

// SVMConfig parameterizes the linear max-margin classifier
type SVMConfig struct {
	Cost   float64 `yaml:"cost"`   // Regularization strength
	Epochs int     `yaml:"epochs"` // Subgradient passes over the training set
	Scale  bool    `yaml:"scale"`  // Center/scale columns using Training statistics
}

// BoostConfig parameterizes gradient-boosted trees
type BoostConfig struct {
	Rounds         int     `yaml:"rounds"`
	MaxDepth       int     `yaml:"max_depth"`
	LearningRate   float64 `yaml:"learning_rate"`
	Subsample      float64 `yaml:"subsample"`        // Row subsample ratio per round
	ColSample      float64 `yaml:"col_sample"`       // Feature subsample ratio per round
	MinChildWeight float64 `yaml:"min_child_weight"` // Minimum hessian sum per leaf
}

// CVConfig controls cross-validated hyperparameter search
type CVConfig struct {
	Folds   int    `yaml:"folds"`
	Repeats int    `yaml:"repeats"`
	Metric  string `yaml:"metric"` // accuracy or balanced_accuracy
}

// BalanceConfig controls class-imbalance handling
type BalanceConfig struct {
	Method    string `yaml:"method"`    // none, down, up, synthetic
	Neighbors int    `yaml:"neighbors"` // Neighborhood size for synthetic oversampling
}

// SuggestConfig configures the optional LLM stance suggester.
// Suggestions are annotation aids only and never enter evaluation.
type SuggestConfig struct {
	Provider       string  `yaml:"provider"` // "" disables suggestions
	Model          string  `yaml:"model"`
	APIKey         string  `yaml:"-"` // From environment only, never persisted
	BaseURL        string  `yaml:"base_url"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	RatePerSecond  float64 `yaml:"rate_per_second"` // API request rate limit
	Burst          int     `yaml:"burst"`
}

// ConcurrencyConfig controls worker counts for parallel folds and sub-models
type ConcurrencyConfig struct {
	Workers int `yaml:"workers"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose      bool   `yaml:"verbose"`
	JSONPath     string `yaml:"json_path"`
	MarkdownPath string `yaml:"markdown_path"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			IDColumn:     "id",
			TextColumn:   "text",
			StanceColumn: "stance",
			HasHeader:    true,
		},
		Tokenize: TokenizeConfig{
			Lemmatize:    true,
			CacheEnabled: true,
			CacheTTL:     10 * time.Minute,
		},
		Features: FeatureConfig{
			MinTermFreq:    2,
			MinDocFraction: 0.01,
			TFIDF:          false,
			TextLength:     false,
		},
		Split: SplitConfig{
			TestFraction: 0.3,
			Stratify:     true,
			Seed:         42,
		},
		Train: TrainConfig{
			Family:   "svm",
			OneVsAll: false,
			KNN:      KNNConfig{K: 5},
			SVM:      SVMConfig{Cost: 1.0, Epochs: 50, Scale: true},
			Boost: BoostConfig{
				Rounds:         100,
				MaxDepth:       3,
				LearningRate:   0.1,
				Subsample:      1.0,
				ColSample:      1.0,
				MinChildWeight: 1.0,
			},
		},
		CV: CVConfig{
			Folds:   5,
			Repeats: 1,
			Metric:  "accuracy",
		},
		Balance: BalanceConfig{
			Method:    "none",
			Neighbors: 5,
		},
		Suggest: SuggestConfig{
			Provider:       "",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 30,
			RatePerSecond:  2,
			Burst:          2,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		Output: OutputConfig{
			Verbose:  false,
			JSONPath: "report.json",
		},
	}
}

// Validate checks the configuration for fatal setup errors
func (c *Config) Validate() error {
	if c.Split.TestFraction <= 0 || c.Split.TestFraction >= 1 {
		return fmt.Errorf("split.test_fraction must be in (0, 1), got %v", c.Split.TestFraction)
	}
	if c.Features.MinTermFreq < 1 {
		return fmt.Errorf("features.min_term_freq must be >= 1, got %d", c.Features.MinTermFreq)
	}
	if c.Features.MinDocFraction < 0 || c.Features.MinDocFraction > 1 {
		return fmt.Errorf("features.min_doc_fraction must be in [0, 1], got %v", c.Features.MinDocFraction)
	}
	switch c.Train.Family {
	case "knn", "svm", "boost", "bayes":
	default:
		return fmt.Errorf("train.family must be one of knn, svm, boost, bayes; got %q", c.Train.Family)
	}
	if c.Train.KNN.K < 1 {
		return fmt.Errorf("train.knn.k must be >= 1, got %d", c.Train.KNN.K)
	}
	if c.Train.SVM.Cost <= 0 {
		return fmt.Errorf("train.svm.cost must be > 0, got %v", c.Train.SVM.Cost)
	}
	if c.Train.Boost.Rounds < 1 {
		return fmt.Errorf("train.boost.rounds must be >= 1, got %d", c.Train.Boost.Rounds)
	}
	if c.Train.Boost.LearningRate <= 0 {
		return fmt.Errorf("train.boost.learning_rate must be > 0, got %v", c.Train.Boost.LearningRate)
	}
	if c.Train.Boost.Subsample <= 0 || c.Train.Boost.Subsample > 1 {
		return fmt.Errorf("train.boost.subsample must be in (0, 1], got %v", c.Train.Boost.Subsample)
	}
	if c.Train.Boost.ColSample <= 0 || c.Train.Boost.ColSample > 1 {
		return fmt.Errorf("train.boost.col_sample must be in (0, 1], got %v", c.Train.Boost.ColSample)
	}
	if c.CV.Folds < 2 {
		return fmt.Errorf("cross_validation.folds must be >= 2, got %d", c.CV.Folds)
	}
	if c.CV.Repeats < 1 {
		return fmt.Errorf("cross_validation.repeats must be >= 1, got %d", c.CV.Repeats)
	}
	switch c.CV.Metric {
	case "accuracy", "balanced_accuracy":
	default:
		return fmt.Errorf("cross_validation.metric must be accuracy or balanced_accuracy, got %q", c.CV.Metric)
	}
	switch c.Balance.Method {
	case "none", "down", "up", "synthetic":
	default:
		return fmt.Errorf("balance.method must be one of none, down, up, synthetic; got %q", c.Balance.Method)
	}
	return nil
}
