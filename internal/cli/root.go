// Package cli wires the stancer commands: train, cv, suggest, export,
// config, version.
package cli

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/namo507/stancer/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "stancer",
	Short: "Stancer - stance classification for hand-coded social-media corpora",
	Long: `Stancer trains and evaluates stance classifiers on hand-coded
social-media posts.

It loads a delimited corpus of posts, normalizes the text into token
features, splits it into training and test partitions, trains a
classifier family (k-nearest-neighbors, linear max-margin, gradient
boosted trees, or naive bayes), and reports a confusion matrix with
per-class precision and recall.

Class imbalance is handled by under-sampling, over-sampling, or
synthetic oversampling, and a one-vs-all dispatcher turns any binary
family into a multi-class classifier. Hyperparameters are selected by
repeated K-fold cross-validation.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for Stancer.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("stancer v0.2.1")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.stancer/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.stancer")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match STANCER_*
	viper.SetEnvPrefix("STANCER")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig builds the effective configuration: defaults, overlaid with
// the config file when one was found, then with STANCER_* environment
// variables
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := overlayEnv(cfg); err != nil {
		return nil, fmt.Errorf("apply environment: %w", err)
	}

	cfg.Output.Verbose = verbose
	return cfg, nil
}

// overlayEnv applies STANCER_* environment variables on top of the
// configuration: a nested key like train.family maps to
// STANCER_TRAIN_FAMILY. Seeding viper with the current effective
// configuration makes every key visible to the automatic env lookup.
func overlayEnv(cfg *model.Config) error {
	seed, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(seed)); err != nil {
		return fmt.Errorf("seed config keys: %w", err)
	}
	v.SetEnvPrefix("STANCER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	})
}
