package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/namo507/stancer/internal/model"
	"github.com/namo507/stancer/internal/pipeline"
)

var (
	outJSON      string
	outMD        string
	trainTimeout time.Duration
	family       string
	oneVsAll     bool
	balanceFlag  string
	testFraction float64
	splitSeed    int64
	noStratify   bool
	noLemmatize  bool
	stopWords    []string
	keywords     []string
	tfidf        bool
	textLength   bool
	knnK         int
	svmCost      float64
	svmEpochs    int
	boostRounds  int
	boostDepth   int
	boostLR      float64
)

// trainCmd represents the train command
var trainCmd = &cobra.Command{
	Use:   "train <dataset.csv>",
	Short: "Train a stance classifier and evaluate it on a held-out split",
	Long: `Train loads a hand-coded corpus, splits it into training and test
partitions, fits the vocabulary and classifier on the training partition
only, and scores the test partition:
- Normalize posts into token features (stop-word removal, lemmatization)
- Prune rare terms from the vocabulary
- Train the selected family, optionally one-vs-all with balancing
- Report accuracy, per-class precision/recall, and a confusion matrix

Example:
  stancer train posts.csv
  stancer train posts.csv --family boost --json report.json --md report.md
  stancer train posts.csv --family svm --one-vs-all --balance synthetic`,
	Args: cobra.ExactArgs(1),
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	// Output flags
	trainCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	trainCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	trainCmd.Flags().DurationVar(&trainTimeout, "timeout", 10*time.Minute, "overall run timeout")

	// Model flags
	trainCmd.Flags().StringVar(&family, "family", "", "classifier family (knn, svm, boost, bayes)")
	trainCmd.Flags().BoolVar(&oneVsAll, "one-vs-all", false, "train one balanced binary classifier per class")
	trainCmd.Flags().StringVar(&balanceFlag, "balance", "", "class balancing (none, down, up, synthetic)")
	trainCmd.Flags().IntVar(&knnK, "k", 0, "neighbors for knn")
	trainCmd.Flags().Float64Var(&svmCost, "cost", 0, "regularization cost for svm")
	trainCmd.Flags().IntVar(&svmEpochs, "epochs", 0, "training epochs for svm")
	trainCmd.Flags().IntVar(&boostRounds, "rounds", 0, "boosting rounds")
	trainCmd.Flags().IntVar(&boostDepth, "depth", 0, "max tree depth for boost")
	trainCmd.Flags().Float64Var(&boostLR, "learning-rate", 0, "learning rate for boost")

	// Split flags
	trainCmd.Flags().Float64Var(&testFraction, "test-fraction", 0, "fraction held out as test")
	trainCmd.Flags().Int64Var(&splitSeed, "seed", 0, "split and training seed")
	trainCmd.Flags().BoolVar(&noStratify, "no-stratify", false, "plain random split instead of stratified")

	// Feature flags
	trainCmd.Flags().BoolVar(&noLemmatize, "no-lemmatize", false, "disable lemmatization")
	trainCmd.Flags().StringSliceVar(&stopWords, "stop-words", nil, "extra stop words")
	trainCmd.Flags().StringSliceVar(&keywords, "keywords", nil, "keyword regexps counted as extra feature columns")
	trainCmd.Flags().BoolVar(&tfidf, "tfidf", false, "TF-IDF weighting instead of raw counts")
	trainCmd.Flags().BoolVar(&textLength, "text-length", false, "append a text-length feature column")
}

func runTrain(cmd *cobra.Command, args []string) error {
	dataset := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), trainTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyTrainFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Training: %s\n", dataset)
		fmt.Fprintf(os.Stderr, "Family: %s (one-vs-all: %v, balance: %s)\n",
			cfg.Train.Family, cfg.Train.OneVsAll, cfg.Balance.Method)
		fmt.Fprintln(os.Stderr)
	}

	p := pipeline.NewPipeline(cfg)
	report, err := p.Train(ctx, dataset)
	if err != nil {
		return fmt.Errorf("train failed: %w", err)
	}

	if err := p.RenderReport(report, outJSON, outMD); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}

// applyTrainFlags overlays explicitly set flags onto the configuration
func applyTrainFlags(cmd *cobra.Command, cfg *model.Config) {
	if family != "" {
		cfg.Train.Family = family
	}
	if cmd.Flags().Changed("one-vs-all") {
		cfg.Train.OneVsAll = oneVsAll
	}
	if balanceFlag != "" {
		cfg.Balance.Method = balanceFlag
	}
	if knnK > 0 {
		cfg.Train.KNN.K = knnK
	}
	if svmCost > 0 {
		cfg.Train.SVM.Cost = svmCost
	}
	if svmEpochs > 0 {
		cfg.Train.SVM.Epochs = svmEpochs
	}
	if boostRounds > 0 {
		cfg.Train.Boost.Rounds = boostRounds
	}
	if boostDepth > 0 {
		cfg.Train.Boost.MaxDepth = boostDepth
	}
	if boostLR > 0 {
		cfg.Train.Boost.LearningRate = boostLR
	}
	if testFraction > 0 {
		cfg.Split.TestFraction = testFraction
	}
	if cmd.Flags().Changed("seed") {
		cfg.Split.Seed = splitSeed
	}
	if noStratify {
		cfg.Split.Stratify = false
	}
	if noLemmatize {
		cfg.Tokenize.Lemmatize = false
	}
	if len(stopWords) > 0 {
		cfg.Tokenize.ExtraStopWords = append(cfg.Tokenize.ExtraStopWords, stopWords...)
	}
	if len(keywords) > 0 {
		cfg.Features.Keywords = append(cfg.Features.Keywords, keywords...)
	}
	if tfidf {
		cfg.Features.TFIDF = true
	}
	if textLength {
		cfg.Features.TextLength = true
	}
}
