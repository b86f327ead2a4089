// Package suggest generates machine stance suggestions for unlabeled
// records using a chat-completion API. Suggestions are an annotation aid
// only: they are written next to the blank stance column and never enter
// training or evaluation.
package suggest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/namo507/stancer/internal/model"
)

// Suggestion is the per-record outcome; failures are isolated per record
type Suggestion struct {
	RecordID string
	Stance   string // Suggested label, or "" on failure
	Error    string
}

// Suggester queries an OpenAI-compatible endpoint with rate limiting
type Suggester struct {
	client  *openai.Client
	cfg     model.SuggestConfig
	classes []string
	limiter *rate.Limiter
}

// NewSuggester creates a suggester. The class set constrains the answers
// the model may give.
func NewSuggester(cfg model.SuggestConfig, classes []string) (*Suggester, error) {
	if cfg.Provider == "" {
		return nil, fmt.Errorf("no suggestion provider configured")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for provider %q", cfg.Provider)
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("class set is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = 1
	}

	return &Suggester{
		client:  openai.NewClientWithConfig(clientConfig),
		cfg:     cfg,
		classes: append([]string(nil), classes...),
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}, nil
}

// Suggest returns a stance suggestion for one record
func (s *Suggester) Suggest(ctx context.Context, rec model.Record) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	timeout := time.Duration(s.cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	modelName := s.cfg.Model
	if modelName == "" {
		modelName = openai.GPT4oMini
	}

	resp, err := s.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(
					"You label the stance of short social-media posts. Answer with exactly one of: %s. Answer with the label only.",
					strings.Join(s.classes, ", ")),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: rec.Text,
			},
		},
		MaxTokens:   10,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response")
	}

	answer := strings.ToLower(strings.TrimSpace(resp.Choices[0].Message.Content))
	for _, c := range s.classes {
		if answer == strings.ToLower(c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("answer %q is not in the class set", answer)
}

// SuggestAll suggests a stance for every record. A failing record is
// reported in its suggestion and does not abort the rest.
func (s *Suggester) SuggestAll(ctx context.Context, records []model.Record) []Suggestion {
	out := make([]Suggestion, len(records))
	for i, rec := range records {
		out[i] = Suggestion{RecordID: rec.ID}
		stance, err := s.Suggest(ctx, rec)
		if err != nil {
			out[i].Error = err.Error()
			continue
		}
		out[i].Stance = stance
	}
	return out
}
