package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/namo507/stancer/internal/classify"
	"github.com/namo507/stancer/internal/model"
)

// writeCorpus writes a small separable dataset: favor posts all say love,
// against posts all say hate, plus a couple of unlabeled rows.
func writeCorpus(t *testing.T, unlabeled int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("id,text,stance\n")
	id := 0
	for i := 0; i < 8; i++ {
		id++
		fmt.Fprintf(&b, "%d,love the new phone,favor\n", id)
	}
	for i := 0; i < 8; i++ {
		id++
		fmt.Fprintf(&b, "%d,hate the new phone,against\n", id)
	}
	for i := 0; i < unlabeled; i++ {
		id++
		fmt.Fprintf(&b, "%d,not sure about the phone,\n", id)
	}

	path := filepath.Join(t.TempDir(), "posts.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	return path
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Train.Family = "knn"
	cfg.Train.KNN.K = 1
	cfg.Split.TestFraction = 0.25
	cfg.Tokenize.CacheEnabled = false
	return cfg
}

func TestPipelineTrain(t *testing.T) {
	path := writeCorpus(t, 0)
	p := NewPipeline(testConfig())

	report, err := p.Train(context.Background(), path)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	if report.Records != 16 {
		t.Errorf("records = %d, want 16", report.Records)
	}
	if report.TrainSize+report.TestSize != 16 {
		t.Errorf("train %d + test %d != 16", report.TrainSize, report.TestSize)
	}
	if len(report.Classes) != 2 {
		t.Errorf("classes = %v", report.Classes)
	}
	// The corpus is perfectly separable on the love/hate terms
	if report.Metrics.Accuracy != 1 {
		t.Errorf("accuracy = %v, want 1", report.Metrics.Accuracy)
	}
}

func TestPipelineTrainOneVsAll(t *testing.T) {
	cfg := testConfig()
	cfg.Train.OneVsAll = true
	p := NewPipeline(cfg)

	report, err := p.Train(context.Background(), writeCorpus(t, 0))
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if len(report.SubModels) != 2 {
		t.Errorf("sub-models = %d, want 2", len(report.SubModels))
	}
	if report.Metrics.Accuracy != 1 {
		t.Errorf("accuracy = %v, want 1", report.Metrics.Accuracy)
	}
}

func TestPipelineTrainCancelled(t *testing.T) {
	p := NewPipeline(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Train(ctx, writeCorpus(t, 0)); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestPipelineTrainErrors(t *testing.T) {
	p := NewPipeline(testConfig())
	ctx := context.Background()

	if _, err := p.Train(ctx, filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing dataset")
	}

	// A single class cannot be split and scored
	oneClass := filepath.Join(t.TempDir(), "one.csv")
	content := "id,text,stance\n1,love it,favor\n2,love it too,favor\n"
	if err := os.WriteFile(oneClass, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Train(ctx, oneClass); err == nil {
		t.Error("expected error for single-class dataset")
	}
}

func TestPipelineRenderReport(t *testing.T) {
	p := NewPipeline(testConfig())
	report, err := p.Train(context.Background(), writeCorpus(t, 0))
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "report.json")
	mdPath := filepath.Join(dir, "report.md")
	if err := p.RenderReport(report, jsonPath, mdPath); err != nil {
		t.Fatalf("RenderReport: %v", err)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read JSON report: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("JSON report does not parse: %v", err)
	}

	md, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("read markdown report: %v", err)
	}
	for _, needle := range []string{"favor", "against", "Accuracy"} {
		if !strings.Contains(string(md), needle) {
			t.Errorf("markdown report missing %q", needle)
		}
	}
}

func TestPipelineExport(t *testing.T) {
	p := NewPipeline(testConfig())
	out := filepath.Join(t.TempDir(), "to-code.csv")

	if err := p.Export(writeCorpus(t, 3), out); err != nil {
		t.Fatalf("Export: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	// Header plus the three unlabeled rows
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Errorf("export has %d lines, want 4", len(lines))
	}

	// Fully labeled datasets have nothing to export
	if err := p.Export(writeCorpus(t, 0), out); err == nil {
		t.Error("expected error for dataset with no unlabeled records")
	}
}

func TestPipelineCrossValidate(t *testing.T) {
	cfg := testConfig()
	cfg.CV.Folds = 4
	cfg.Concurrency.Workers = 2
	p := NewPipeline(cfg)

	var candidates []classify.Candidate
	for _, k := range []int{1, 3} {
		c := *cfg
		c.Train.KNN.K = k
		factory, err := classify.NewTrainerFactory(c.Train, c.Split.Seed)
		if err != nil {
			t.Fatalf("factory k=%d: %v", k, err)
		}
		candidates = append(candidates, classify.Candidate{
			Name:    fmt.Sprintf("knn k=%d", k),
			Factory: factory,
		})
	}
	results, err := p.CrossValidate(writeCorpus(t, 0), candidates)
	if err != nil {
		t.Fatalf("CrossValidate: %v", err)
	}
	if len(results) != len(candidates) {
		t.Fatalf("results = %d, want %d", len(results), len(candidates))
	}
	// Separable data: the best candidate scores perfectly
	if results[0].Mean != 1 {
		t.Errorf("best mean = %v, want 1", results[0].Mean)
	}
}
