// Package text converts raw post text into normalized token sequences:
// lower-casing, digit and punctuation stripping, stop-word removal, and
// rule-based lemmatization. All functions are safe for concurrent use.
package text

import (
	"regexp"
	"strings"
)

// tokenPattern matches runs of letters; digits and punctuation fall away
var tokenPattern = regexp.MustCompile(`\p{L}+`)

// Options configures a Normalizer
type Options struct {
	ExtraStopWords []string    // Added to the built-in stop-word list
	Lemmatize      bool        // Reduce tokens to their lemma
	Cache          *TokenCache // Optional cache of normalized sequences
}

// Normalizer turns raw text into normalized token sequences
type Normalizer struct {
	extraStop map[string]struct{}
	lemmatize bool
	cache     *TokenCache
}

// NewNormalizer creates a normalizer with the given options
func NewNormalizer(opts Options) *Normalizer {
	extra := make(map[string]struct{}, len(opts.ExtraStopWords))
	for _, w := range opts.ExtraStopWords {
		extra[strings.ToLower(w)] = struct{}{}
	}
	return &Normalizer{
		extraStop: extra,
		lemmatize: opts.Lemmatize,
		cache:     opts.Cache,
	}
}

// Tokens normalizes a single text. Empty or malformed text yields an empty
// sequence, never an error.
func (n *Normalizer) Tokens(text string) []string {
	if text == "" {
		return []string{}
	}

	if n.cache != nil {
		if tokens, ok := n.cache.Get(text); ok {
			return tokens
		}
	}

	lower := strings.ToLower(text)
	raw := tokenPattern.FindAllString(lower, -1)

	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if tok == "" {
			continue
		}
		if n.isStop(tok) {
			continue
		}
		if n.lemmatize {
			tok = Lemmatize(tok)
			if tok == "" || n.isStop(tok) {
				continue
			}
		}
		tokens = append(tokens, tok)
	}

	if n.cache != nil {
		n.cache.Set(text, tokens)
	}

	return tokens
}

// TokensAll normalizes every text, preserving input order
func (n *Normalizer) TokensAll(texts []string) [][]string {
	out := make([][]string, len(texts))
	for i, t := range texts {
		out[i] = n.Tokens(t)
	}
	return out
}

func (n *Normalizer) isStop(tok string) bool {
	if IsStopWord(tok) {
		return true
	}
	_, ok := n.extraStop[tok]
	return ok
}
