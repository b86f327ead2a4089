package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/namo507/stancer/internal/classify"
	"github.com/namo507/stancer/internal/model"
)

// Renderer writes reports as JSON, Markdown, and a stdout summary
type Renderer struct{}

// NewRenderer creates a renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderJSON writes the report to a JSON file. Undefined metrics are zeroed
// and flagged, since JSON cannot encode NaN.
func (r *Renderer) RenderJSON(report *model.Report, path string) (err error) {
	out := *report
	out.Metrics = report.Metrics.Sanitized()

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&out); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// RenderMarkdown writes the report as a Markdown document
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var b strings.Builder

	b.WriteString("# Stance Classification Report\n\n")
	fmt.Fprintf(&b, "- **Dataset:** %s\n", report.DatasetPath)
	fmt.Fprintf(&b, "- **Generated:** %s\n", report.CreatedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- **Family:** %s%s\n", report.Family, oneVsAllSuffix(report.OneVsAll))
	fmt.Fprintf(&b, "- **Records:** %d labeled (%d train / %d test, seed %d)\n",
		report.Records, report.TrainSize, report.TestSize, report.Seed)
	fmt.Fprintf(&b, "- **Features:** %d columns (%d vocabulary terms)\n\n",
		report.Features, report.Vocabulary)

	b.WriteString("## Metrics\n\n")
	fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Accuracy | %s |\n", formatMetric(report.Metrics.Accuracy, true))
	fmt.Fprintf(&b, "| Balanced accuracy | %s |\n", formatMetric(report.Metrics.BalancedAccuracy, true))
	fmt.Fprintf(&b, "| Cohen's kappa | %s |\n\n", formatMetric(report.Metrics.Kappa, true))

	b.WriteString("## Per-class\n\n")
	b.WriteString("| Class | Precision | Recall | F1 | Actual | Predicted |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, s := range report.Metrics.PerClass {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %d | %d |\n",
			s.Class,
			formatMetric(s.Precision, s.PrecisionDefined),
			formatMetric(s.Recall, s.RecallDefined),
			formatMetric(s.F1, s.F1Defined),
			s.Actual, s.Predicted)
	}
	b.WriteString("\n## Confusion Matrix\n\n")
	b.WriteString("Rows are actual classes, columns are predicted.\n\n```\n")
	b.WriteString(confusionTable(report.Classes, report.Metrics.Confusion, "", "\n"))
	b.WriteString("```\n")

	if len(report.SubModels) > 0 {
		b.WriteString("\n## One-vs-All Sub-Models\n\n")
		b.WriteString("| Class | Balanced | Train pos | Train neg | Error |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, sm := range report.SubModels {
			fmt.Fprintf(&b, "| %s | %s | %d | %d | %s |\n",
				sm.Class, sm.Balanced, sm.TrainPos, sm.TrainNeg, sm.Error)
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderSummary prints a compact summary to stdout
func (r *Renderer) RenderSummary(report *model.Report) {
	fmt.Printf("\n%s\n", strings.Repeat("=", 60))
	fmt.Printf("  %s%s on %s\n", report.Family, oneVsAllSuffix(report.OneVsAll), report.DatasetPath)
	fmt.Printf("%s\n", strings.Repeat("=", 60))
	fmt.Printf("  Records:           %d (%d train / %d test)\n", report.Records, report.TrainSize, report.TestSize)
	fmt.Printf("  Features:          %d columns\n", report.Features)
	fmt.Printf("  Accuracy:          %s\n", formatMetric(report.Metrics.Accuracy, true))
	fmt.Printf("  Balanced accuracy: %s\n", formatMetric(report.Metrics.BalancedAccuracy, true))
	fmt.Printf("  Cohen's kappa:     %s\n", formatMetric(report.Metrics.Kappa, true))
	fmt.Printf("\n  Confusion matrix (rows actual, columns predicted):\n\n")
	fmt.Print(confusionTable(report.Classes, report.Metrics.Confusion, "    ", "\n"))

	for _, sm := range report.SubModels {
		if sm.Error != "" {
			fmt.Printf("\n  Warning: sub-model %q failed: %s\n", sm.Class, sm.Error)
		}
	}
	fmt.Println()
}

// RenderCVResults prints cross-validation results best-first to stdout
func (r *Renderer) RenderCVResults(results []classify.CVResult, metric string) {
	fmt.Printf("\n%s\n", strings.Repeat("=", 60))
	fmt.Printf("  Cross-validation results by mean %s\n", metric)
	fmt.Printf("%s\n", strings.Repeat("=", 60))
	for i, res := range results {
		fmt.Printf("  %2d. %-40s %s", i+1, res.Candidate, formatMetric(res.Mean, true))
		if len(res.Errors) > 0 {
			fmt.Printf("  (%d failed folds)", len(res.Errors))
		}
		fmt.Println()
	}
	fmt.Println()
}

// confusionTable formats the matrix with class labels on both axes
func confusionTable(classes []string, confusion [][]int, prefix, suffix string) string {
	width := 8
	for _, c := range classes {
		if len(c) > width {
			width = len(c)
		}
	}

	var b strings.Builder
	b.WriteString(prefix)
	fmt.Fprintf(&b, "%*s", width, "")
	for _, c := range classes {
		fmt.Fprintf(&b, "  %*s", width, c)
	}
	b.WriteString(suffix)
	for i, c := range classes {
		b.WriteString(prefix)
		fmt.Fprintf(&b, "%*s", width, c)
		for j := range classes {
			fmt.Fprintf(&b, "  %*d", width, confusion[i][j])
		}
		b.WriteString(suffix)
	}
	return b.String()
}

// formatMetric renders a metric value, or n/a when it was undefined
func formatMetric(v float64, defined bool) string {
	if !defined || math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v)
}

func oneVsAllSuffix(enabled bool) string {
	if enabled {
		return " (one-vs-all)"
	}
	return ""
}
