// Package pipeline orchestrates the complete stance-classification run:
// load, normalize, split, featurize, train, evaluate, render.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/namo507/stancer/internal/classify"
	"github.com/namo507/stancer/internal/corpus"
	"github.com/namo507/stancer/internal/evaluate"
	"github.com/namo507/stancer/internal/feature"
	"github.com/namo507/stancer/internal/model"
	"github.com/namo507/stancer/internal/split"
	"github.com/namo507/stancer/internal/suggest"
	"github.com/namo507/stancer/internal/text"
)

// Pipeline orchestrates the complete train/evaluate process
type Pipeline struct {
	normalizer *text.Normalizer
	renderer   *Renderer
	config     *model.Config
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config) *Pipeline {
	var cache *text.TokenCache
	if cfg.Tokenize.CacheEnabled {
		ttl := cfg.Tokenize.CacheTTL
		if ttl <= 0 {
			ttl = 10 * time.Minute
		}
		cache = text.NewTokenCache(ttl, 2*ttl)
	}

	return &Pipeline{
		normalizer: text.NewNormalizer(text.Options{
			ExtraStopWords: cfg.Tokenize.ExtraStopWords,
			Lemmatize:      cfg.Tokenize.Lemmatize,
			Cache:          cache,
		}),
		renderer: NewRenderer(),
		config:   cfg,
	}
}

// Train runs the full train/evaluate flow on one dataset and returns the
// report: load, keep labeled records, split, fit the vocabulary on the
// Training partition only, train the configured family, and score the
// held-out Test partition.
func (p *Pipeline) Train(ctx context.Context, path string) (*model.Report, error) {
	ds, err := corpus.LoadCSV(path, p.config.Data)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	labeled := ds.Labeled()
	if labeled.Len() < 2 {
		return nil, fmt.Errorf("dataset has %d labeled records, need at least 2", labeled.Len())
	}
	classes := labeled.Classes()
	if len(classes) < 2 {
		return nil, fmt.Errorf("dataset has %d distinct classes, need at least 2", len(classes))
	}
	p.verbose("Loaded %d records (%d labeled, %d classes)\n", ds.Len(), labeled.Len(), len(classes))

	part, err := p.partition(labeled)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}
	trainSet := labeled.Subset(part.Train)
	testSet := labeled.Subset(part.Test)

	builder, err := feature.NewBuilder(p.featureOptions())
	if err != nil {
		return nil, fmt.Errorf("features: %w", err)
	}
	vocab, err := builder.Fit(p.normalizer.TokensAll(trainSet.Texts()))
	if err != nil {
		return nil, fmt.Errorf("fit vocabulary: %w", err)
	}
	p.verbose("Vocabulary: %d terms, %d feature columns\n", vocab.Size(), builder.FeatureCount())

	trainX, err := builder.Transform(p.normalizer.TokensAll(trainSet.Texts()), trainSet.Texts())
	if err != nil {
		return nil, fmt.Errorf("transform training records: %w", err)
	}
	testX, err := builder.Transform(p.normalizer.TokensAll(testSet.Texts()), testSet.Texts())
	if err != nil {
		return nil, fmt.Errorf("transform test records: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	predicted, subModels, err := p.trainAndPredict(trainX, trainSet.Labels(), testX)
	if err != nil {
		return nil, err
	}

	metrics, err := evaluate.Evaluate(testSet.Labels(), predicted, classes)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	return &model.Report{
		DatasetPath: path,
		CreatedAt:   time.Now().UTC(),
		Family:      p.config.Train.Family,
		OneVsAll:    p.config.Train.OneVsAll,
		Seed:        p.config.Split.Seed,
		Records:     labeled.Len(),
		TrainSize:   trainSet.Len(),
		TestSize:    testSet.Len(),
		Vocabulary:  vocab.Size(),
		Features:    builder.FeatureCount(),
		Classes:     classes,
		Metrics:     metrics,
		SubModels:   subModels,
	}, nil
}

// trainAndPredict fits the configured family on the Training matrix and
// predicts the Test matrix, going through the one-vs-all dispatcher when
// configured
func (p *Pipeline) trainAndPredict(trainX *mat.Dense, trainLabels []string, testX *mat.Dense) ([]string, []model.SubModelResult, error) {
	seed := p.config.Split.Seed

	if p.config.Train.OneVsAll {
		factory, err := classify.NewTrainerFactory(p.config.Train, seed)
		if err != nil {
			return nil, nil, fmt.Errorf("trainer: %w", err)
		}
		// The dispatcher balances each binary sub-problem itself
		dispatcher := classify.NewDispatcher(factory, p.config.Balance.Neighbors, seed)
		dispatcher.Workers = p.config.Concurrency.Workers
		multi, err := dispatcher.Fit(trainX, trainLabels)
		if err != nil {
			return nil, nil, fmt.Errorf("fit: %w", err)
		}
		predicted, failures, err := multi.PredictWithFailures(testX)
		if err != nil {
			return nil, nil, fmt.Errorf("predict: %w", err)
		}
		for _, f := range failures {
			p.verbose("Warning: sub-model %q failed at predict: %s\n", f.Class, f.Err)
		}
		return predicted, multi.SubModelResults(), nil
	}

	trainer, err := classify.NewTrainer(p.config.Train, seed)
	if err != nil {
		return nil, nil, fmt.Errorf("trainer: %w", err)
	}
	balanced, balancedLabels, err := classify.Balance(p.config.Balance.Method, trainX, trainLabels, p.config.Balance.Neighbors, seed)
	if err != nil {
		return nil, nil, fmt.Errorf("balance: %w", err)
	}
	fitted, err := trainer.Fit(balanced, balancedLabels)
	if err != nil {
		return nil, nil, fmt.Errorf("fit: %w", err)
	}
	predicted, err := fitted.Predict(testX)
	if err != nil {
		return nil, nil, fmt.Errorf("predict: %w", err)
	}
	return predicted, nil, nil
}

// Features loads a dataset and materializes the labeled feature matrix for
// cross-validation. The vocabulary is fitted on all labeled records here;
// leakage control during CV happens per fold, on the balancing step.
func (p *Pipeline) Features(path string) (*mat.Dense, []string, error) {
	ds, err := corpus.LoadCSV(path, p.config.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("load: %w", err)
	}
	labeled := ds.Labeled()
	if labeled.Len() < 2 {
		return nil, nil, fmt.Errorf("dataset has %d labeled records, need at least 2", labeled.Len())
	}

	builder, err := feature.NewBuilder(p.featureOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("features: %w", err)
	}
	docs := p.normalizer.TokensAll(labeled.Texts())
	if _, err := builder.Fit(docs); err != nil {
		return nil, nil, fmt.Errorf("fit vocabulary: %w", err)
	}
	x, err := builder.Transform(docs, labeled.Texts())
	if err != nil {
		return nil, nil, fmt.Errorf("transform: %w", err)
	}
	return x, labeled.Labels(), nil
}

// CrossValidate scores a hyperparameter grid against one dataset by
// repeated K-fold cross-validation and returns the results best-first
func (p *Pipeline) CrossValidate(path string, candidates []classify.Candidate) ([]classify.CVResult, error) {
	x, labels, err := p.Features(path)
	if err != nil {
		return nil, err
	}
	return classify.CrossValidate(x, labels, candidates, classify.CVOptions{
		Folds:     p.config.CV.Folds,
		Repeats:   p.config.CV.Repeats,
		Metric:    p.config.CV.Metric,
		Balance:   p.config.Balance.Method,
		Neighbors: p.config.Balance.Neighbors,
		Seed:      p.config.Split.Seed,
		Workers:   p.config.Concurrency.Workers,
	})
}

// RenderCV prints cross-validation results to stdout
func (p *Pipeline) RenderCV(results []classify.CVResult) {
	p.renderer.RenderCVResults(results, p.config.CV.Metric)
}

// Suggest loads a dataset, asks the configured provider for a stance
// suggestion per unlabeled record, and writes the annotation export. A
// failing record leaves its suggestion cell empty.
func (p *Pipeline) Suggest(ctx context.Context, path, outPath string) error {
	ds, err := corpus.LoadCSV(path, p.config.Data)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	unlabeled := ds.Unlabeled()
	if unlabeled.Len() == 0 {
		return fmt.Errorf("dataset has no unlabeled records")
	}
	classes := ds.Classes()
	if len(classes) == 0 {
		return fmt.Errorf("dataset has no labeled records to take the class set from")
	}

	suggester, err := suggest.NewSuggester(p.config.Suggest, classes)
	if err != nil {
		return fmt.Errorf("suggester: %w", err)
	}

	suggestions := make(map[string]string, unlabeled.Len())
	for _, s := range suggester.SuggestAll(ctx, unlabeled.Records) {
		if s.Error != "" {
			p.verbose("Warning: suggestion for record %s failed: %s\n", s.RecordID, s.Error)
			continue
		}
		suggestions[s.RecordID] = s.Stance
	}

	if err := corpus.WriteAnnotationCSV(outPath, unlabeled.Records, suggestions); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	p.verbose("Wrote %d records (%d suggestions) to %s\n", unlabeled.Len(), len(suggestions), outPath)
	return nil
}

// Export writes unlabeled records for manual coding without suggestions
func (p *Pipeline) Export(path, outPath string) error {
	ds, err := corpus.LoadCSV(path, p.config.Data)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	unlabeled := ds.Unlabeled()
	if unlabeled.Len() == 0 {
		return fmt.Errorf("dataset has no unlabeled records")
	}
	if err := corpus.WriteAnnotationCSV(outPath, unlabeled.Records, nil); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	p.verbose("Wrote %d records to %s\n", unlabeled.Len(), outPath)
	return nil
}

// RenderReport renders the report to the configured outputs
func (p *Pipeline) RenderReport(report *model.Report, jsonPath, mdPath string) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		p.verbose("Wrote JSON: %s\n", jsonPath)
	}
	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		p.verbose("Wrote Markdown: %s\n", mdPath)
	}
	p.renderer.RenderSummary(report)
	return nil
}

func (p *Pipeline) partition(labeled *model.Dataset) (split.Partition, error) {
	if p.config.Split.Stratify {
		return split.Stratified(labeled.Labels(), p.config.Split.TestFraction, p.config.Split.Seed)
	}
	return split.Holdout(labeled.Len(), p.config.Split.TestFraction, p.config.Split.Seed)
}

func (p *Pipeline) featureOptions() feature.Options {
	return feature.Options{
		MinTermFreq:    p.config.Features.MinTermFreq,
		MinDocFraction: p.config.Features.MinDocFraction,
		TFIDF:          p.config.Features.TFIDF,
		TextLength:     p.config.Features.TextLength,
		Keywords:       p.config.Features.Keywords,
	}
}

func (p *Pipeline) verbose(format string, args ...interface{}) {
	if p.config.Output.Verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
