package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// useConfigFile points the global viper at a config file for one test
func useConfigFile(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("read config: %v", err)
	}
	t.Cleanup(viper.Reset)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Train.Family != "svm" {
		t.Errorf("family = %q, want svm", cfg.Train.Family)
	}
	if cfg.Split.Seed != 42 {
		t.Errorf("seed = %d, want 42", cfg.Split.Seed)
	}
}

func TestLoadConfigFileOverlay(t *testing.T) {
	useConfigFile(t, `
train:
  family: boost
split:
  seed: 7
`)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Train.Family != "boost" {
		t.Errorf("family = %q, want boost", cfg.Train.Family)
	}
	if cfg.Split.Seed != 7 {
		t.Errorf("seed = %d, want 7", cfg.Split.Seed)
	}
	// Untouched sections keep their defaults
	if cfg.CV.Folds != 5 {
		t.Errorf("folds = %d, want 5", cfg.CV.Folds)
	}
}

func TestLoadConfigEnvOverlay(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("STANCER_TRAIN_FAMILY", "knn")
	t.Setenv("STANCER_TRAIN_KNN_K", "7")
	t.Setenv("STANCER_CROSS_VALIDATION_FOLDS", "10")
	t.Setenv("STANCER_SPLIT_STRATIFY", "false")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Train.Family != "knn" {
		t.Errorf("family = %q, want knn", cfg.Train.Family)
	}
	if cfg.Train.KNN.K != 7 {
		t.Errorf("k = %d, want 7", cfg.Train.KNN.K)
	}
	if cfg.CV.Folds != 10 {
		t.Errorf("folds = %d, want 10", cfg.CV.Folds)
	}
	if cfg.Split.Stratify {
		t.Error("stratify = true, want false")
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	useConfigFile(t, `
train:
  family: boost
`)
	t.Setenv("STANCER_TRAIN_FAMILY", "bayes")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Train.Family != "bayes" {
		t.Errorf("family = %q, want bayes (env above file)", cfg.Train.Family)
	}
}

func TestLoadConfigEnvNeverCarriesAPIKey(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("STANCER_SUGGEST_API_KEY", "secret")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	// The key is read explicitly from OPENAI_API_KEY by the suggest
	// command, never through the config overlay
	if cfg.Suggest.APIKey != "" {
		t.Errorf("API key = %q, want empty", cfg.Suggest.APIKey)
	}
}

func TestLoadConfigDurationFromEnv(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("STANCER_TOKENIZE_CACHE_TTL", "5m")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Tokenize.CacheTTL != 5*time.Minute {
		t.Errorf("cache ttl = %v, want 5m", cfg.Tokenize.CacheTTL)
	}
}
