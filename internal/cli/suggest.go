package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/namo507/stancer/internal/pipeline"
)

var (
	suggestOut      string
	suggestProvider string
	suggestModel    string
	suggestRate     float64
	suggestTimeout  time.Duration
	exportOut       string
)

// suggestCmd represents the suggest command
var suggestCmd = &cobra.Command{
	Use:   "suggest <dataset.csv>",
	Short: "Export unlabeled records with machine stance suggestions",
	Long: `Suggest asks a chat-completion provider for a stance suggestion per
unlabeled record and writes an annotation export:
- The stance column stays blank for the human coder
- Suggestions go to a separate suggested_stance column
- The class set is taken from the labeled records in the same file
- A failing record leaves its suggestion cell empty

Suggestions are an annotation aid only and never enter training or
evaluation.

Example:
  stancer suggest posts.csv --out to-code.csv
  stancer suggest posts.csv --out to-code.csv --model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runSuggest,
}

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <dataset.csv>",
	Short: "Export unlabeled records for manual stance coding",
	Long: `Export writes the unlabeled records to a fresh CSV with a blank
stance column for the human coder. Records without an identifier get a
generated one.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(exportCmd)

	suggestCmd.Flags().StringVar(&suggestOut, "out", "to-code.csv", "output CSV path")
	suggestCmd.Flags().StringVar(&suggestProvider, "provider", "openai", "suggestion provider")
	suggestCmd.Flags().StringVar(&suggestModel, "model", "", "model name")
	suggestCmd.Flags().Float64Var(&suggestRate, "rate", 0, "API requests per second")
	suggestCmd.Flags().DurationVar(&suggestTimeout, "timeout", 30*time.Minute, "overall suggestion timeout")

	exportCmd.Flags().StringVar(&exportOut, "out", "to-code.csv", "output CSV path")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	dataset := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), suggestTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Suggest.Provider = suggestProvider
	if suggestModel != "" {
		cfg.Suggest.Model = suggestModel
	}
	if suggestRate > 0 {
		cfg.Suggest.RatePerSecond = suggestRate
	}

	// The key comes from the environment only, never from the config file
	cfg.Suggest.APIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.Suggest.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Suggesting stances: %s -> %s\n", dataset, suggestOut)
		fmt.Fprintf(os.Stderr, "Provider: %s/%s\n\n", cfg.Suggest.Provider, cfg.Suggest.Model)
	}

	p := pipeline.NewPipeline(cfg)
	if err := p.Suggest(ctx, dataset, suggestOut); err != nil {
		return fmt.Errorf("suggest failed: %w", err)
	}
	fmt.Printf("Wrote annotation export: %s\n", suggestOut)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	dataset := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p := pipeline.NewPipeline(cfg)
	if err := p.Export(dataset, exportOut); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Printf("Wrote annotation export: %s\n", exportOut)
	return nil
}
