package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/namo507/stancer/internal/classify"
	"github.com/namo507/stancer/internal/model"
	"github.com/namo507/stancer/internal/pipeline"
)

var (
	cvFamilies  []string
	cvKGrid     []string
	cvCostGrid  []string
	cvRoundGrid []string
	cvDepthGrid []string
	cvFolds     int
	cvRepeats   int
	cvMetric    string
	cvWorkers   int
	cvBalance   string
)

// cvCmd represents the cv command
var cvCmd = &cobra.Command{
	Use:   "cv <dataset.csv>",
	Short: "Select hyperparameters by repeated K-fold cross-validation",
	Long: `Cv scores a hyperparameter grid against one dataset:
- Build one candidate per family and hyperparameter combination
- Score each candidate by repeated K-fold cross-validation
- Run fold evaluations in parallel with configurable worker count
- Print candidates sorted by mean score, best first

The vocabulary is fitted once on all labeled records, so every candidate
is compared on the same fixed feature space; fold scores therefore rank
candidates rather than estimate generalization error. Balancing runs
inside each fold, on the training portion only, so held-out rows never
leak into the balanced training set.

Example:
  stancer cv posts.csv
  stancer cv posts.csv --families knn,svm --k-grid 1,3,5,7 --cost-grid 0.1,1,10
  stancer cv posts.csv --families boost --rounds-grid 50,100 --folds 10 --repeats 3`,
	Args: cobra.ExactArgs(1),
	RunE: runCV,
}

func init() {
	rootCmd.AddCommand(cvCmd)

	cvCmd.Flags().StringSliceVar(&cvFamilies, "families", []string{"knn", "svm"}, "families to compare (knn, svm, boost, bayes)")
	cvCmd.Flags().StringSliceVar(&cvKGrid, "k-grid", []string{"3", "5", "7"}, "knn neighbor counts")
	cvCmd.Flags().StringSliceVar(&cvCostGrid, "cost-grid", []string{"0.1", "1", "10"}, "svm regularization costs")
	cvCmd.Flags().StringSliceVar(&cvRoundGrid, "rounds-grid", []string{"50", "100"}, "boosting round counts")
	cvCmd.Flags().StringSliceVar(&cvDepthGrid, "depth-grid", []string{"3"}, "boost tree depths")
	cvCmd.Flags().IntVar(&cvFolds, "folds", 0, "number of folds")
	cvCmd.Flags().IntVar(&cvRepeats, "repeats", 0, "number of shuffled repeats")
	cvCmd.Flags().StringVar(&cvMetric, "metric", "", "selection metric (accuracy, balanced_accuracy)")
	cvCmd.Flags().IntVar(&cvWorkers, "workers", 0, "parallel fold workers")
	cvCmd.Flags().StringVar(&cvBalance, "balance", "", "per-fold class balancing (none, down, up, synthetic)")
}

func runCV(cmd *cobra.Command, args []string) error {
	dataset := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cvFolds > 0 {
		cfg.CV.Folds = cvFolds
	}
	if cvRepeats > 0 {
		cfg.CV.Repeats = cvRepeats
	}
	if cvMetric != "" {
		cfg.CV.Metric = cvMetric
	}
	if cvWorkers > 0 {
		cfg.Concurrency.Workers = cvWorkers
	}
	if cvBalance != "" {
		cfg.Balance.Method = cvBalance
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	candidates, err := buildGrid(cfg)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Cross-validating: %s\n", dataset)
		fmt.Fprintf(os.Stderr, "Candidates: %d, folds: %d, repeats: %d, metric: %s, workers: %d\n",
			len(candidates), cfg.CV.Folds, cfg.CV.Repeats, cfg.CV.Metric, cfg.Concurrency.Workers)
		fmt.Fprintln(os.Stderr)
	}

	p := pipeline.NewPipeline(cfg)
	results, err := p.CrossValidate(dataset, candidates)
	if err != nil {
		return fmt.Errorf("cross-validation failed: %w", err)
	}

	p.RenderCV(results)
	return nil
}

// buildGrid expands the family and hyperparameter flags into candidates
func buildGrid(cfg *model.Config) ([]classify.Candidate, error) {
	var candidates []classify.Candidate

	add := func(name string, train model.TrainConfig) error {
		factory, err := classify.NewTrainerFactory(train, cfg.Split.Seed)
		if err != nil {
			return fmt.Errorf("candidate %q: %w", name, err)
		}
		candidates = append(candidates, classify.Candidate{Name: name, Factory: factory})
		return nil
	}

	for _, fam := range cvFamilies {
		switch strings.TrimSpace(fam) {
		case "knn":
			for _, raw := range cvKGrid {
				k, err := strconv.Atoi(strings.TrimSpace(raw))
				if err != nil || k < 1 {
					return nil, fmt.Errorf("invalid k %q", raw)
				}
				train := cfg.Train
				train.Family = "knn"
				train.KNN.K = k
				if err := add(fmt.Sprintf("knn k=%d", k), train); err != nil {
					return nil, err
				}
			}
		case "svm":
			for _, raw := range cvCostGrid {
				cost, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
				if err != nil || cost <= 0 {
					return nil, fmt.Errorf("invalid cost %q", raw)
				}
				train := cfg.Train
				train.Family = "svm"
				train.SVM.Cost = cost
				if err := add(fmt.Sprintf("svm cost=%g", cost), train); err != nil {
					return nil, err
				}
			}
		case "boost":
			for _, rawRounds := range cvRoundGrid {
				rounds, err := strconv.Atoi(strings.TrimSpace(rawRounds))
				if err != nil || rounds < 1 {
					return nil, fmt.Errorf("invalid rounds %q", rawRounds)
				}
				for _, rawDepth := range cvDepthGrid {
					depth, err := strconv.Atoi(strings.TrimSpace(rawDepth))
					if err != nil || depth < 1 {
						return nil, fmt.Errorf("invalid depth %q", rawDepth)
					}
					train := cfg.Train
					train.Family = "boost"
					train.Boost.Rounds = rounds
					train.Boost.MaxDepth = depth
					if err := add(fmt.Sprintf("boost rounds=%d depth=%d", rounds, depth), train); err != nil {
						return nil, err
					}
				}
			}
		case "bayes":
			train := cfg.Train
			train.Family = "bayes"
			if err := add("bayes", train); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unknown family %q", fam)
		}
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("empty hyperparameter grid")
	}
	return candidates, nil
}
