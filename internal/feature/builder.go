// Package feature builds the sparse-in-spirit term matrix used as model
// input: a fitted, frozen vocabulary over normalized tokens plus optional
// extra numeric columns computed from the raw text.
//
// The builder exposes a strict fit/transform contract: Fit runs once on the
// Training corpus and freezes the vocabulary; Transform applies that frozen
// vocabulary read-only to any record set. There is no fit-on-combined API,
// which keeps Test information out of the fitted artifacts.
package feature

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Vocabulary is the frozen set of retained terms. Terms are sorted, and the
// column order is fixed once Fit returns.
type Vocabulary struct {
	Terms []string
	Index map[string]int
	idf   []float64 // Smoothed IDF per term; nil when raw counts are used
}

// Size returns the number of retained terms
func (v *Vocabulary) Size() int {
	return len(v.Terms)
}

// Options configures the feature builder
type Options struct {
	MinTermFreq    int      // Drop terms with a lower corpus-wide count
	MinDocFraction float64  // Drop terms present in a smaller fraction of documents
	TFIDF          bool     // TF-IDF weighting instead of raw counts
	TextLength     bool     // Append a raw character-length column
	Keywords       []string // Regexps counted over raw text, one column each
}

// Builder fits a vocabulary on a token corpus and transforms record token
// sequences into feature matrices
type Builder struct {
	opts     Options
	keywords []*regexp.Regexp
	vocab    *Vocabulary
}

// NewBuilder creates a builder. Invalid keyword patterns are a fatal setup
// error.
func NewBuilder(opts Options) (*Builder, error) {
	if opts.MinTermFreq < 1 {
		opts.MinTermFreq = 1
	}
	keywords := make([]*regexp.Regexp, 0, len(opts.Keywords))
	for _, pattern := range opts.Keywords {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile keyword pattern %q: %w", pattern, err)
		}
		keywords = append(keywords, re)
	}
	return &Builder{opts: opts, keywords: keywords}, nil
}

// Fit builds the vocabulary from the Training token corpus. Terms must pass
// both filters: corpus-wide frequency >= MinTermFreq and document presence
// >= MinDocFraction of all documents. Tightening either filter can only
// shrink the vocabulary.
func (b *Builder) Fit(docs [][]string) (*Vocabulary, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("empty corpus")
	}

	termFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for _, tokens := range docs {
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			termFreq[tok]++
			if _, ok := seen[tok]; !ok {
				seen[tok] = struct{}{}
				docFreq[tok]++
			}
		}
	}

	n := float64(len(docs))
	var terms []string
	for term, freq := range termFreq {
		if freq < b.opts.MinTermFreq {
			continue
		}
		if float64(docFreq[term])/n < b.opts.MinDocFraction {
			continue
		}
		terms = append(terms, term)
	}
	sort.Strings(terms)

	vocab := &Vocabulary{
		Terms: terms,
		Index: make(map[string]int, len(terms)),
	}
	for i, term := range terms {
		vocab.Index[term] = i
	}

	if b.opts.TFIDF {
		vocab.idf = make([]float64, len(terms))
		for i, term := range terms {
			vocab.idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1.0
		}
	}

	b.vocab = vocab
	return vocab, nil
}

// Vocabulary returns the fitted vocabulary, or nil before Fit
func (b *Builder) Vocabulary() *Vocabulary {
	return b.vocab
}

// FeatureCount returns the total feature columns: vocabulary terms plus the
// extra columns
func (b *Builder) FeatureCount() int {
	if b.vocab == nil {
		return 0
	}
	return b.vocab.Size() + b.extraCount()
}

// ColumnNames returns the column names in matrix order
func (b *Builder) ColumnNames() []string {
	if b.vocab == nil {
		return nil
	}
	names := make([]string, 0, b.FeatureCount())
	names = append(names, b.vocab.Terms...)
	if b.opts.TextLength {
		names = append(names, "_length")
	}
	for _, re := range b.keywords {
		names = append(names, "_kw:"+re.String())
	}
	return names
}

// Transform builds the feature matrix for the given token sequences. Row i
// corresponds to docs[i]; terms outside the fitted vocabulary are silently
// dropped. rawTexts supplies the extra columns and must align with docs when
// any extra column is configured; pass nil otherwise.
func (b *Builder) Transform(docs [][]string, rawTexts []string) (*mat.Dense, error) {
	if b.vocab == nil {
		return nil, fmt.Errorf("builder is not fitted")
	}
	if b.extraCount() > 0 && len(rawTexts) != len(docs) {
		return nil, fmt.Errorf("raw texts (%d) do not align with documents (%d)", len(rawTexts), len(docs))
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents to transform")
	}
	cols := b.FeatureCount()
	if cols == 0 {
		return nil, fmt.Errorf("empty vocabulary and no extra features")
	}

	x := mat.NewDense(len(docs), cols, nil)
	for i, tokens := range docs {
		b.fillRow(x, i, tokens)
		if b.extraCount() > 0 {
			b.fillExtras(x, i, rawTexts[i])
		}
	}
	return x, nil
}

func (b *Builder) fillRow(x *mat.Dense, row int, tokens []string) {
	counts := make(map[int]int)
	total := 0
	for _, tok := range tokens {
		if idx, ok := b.vocab.Index[tok]; ok {
			counts[idx]++
			total++
		}
	}
	if b.opts.TFIDF && total > 0 {
		for idx, count := range counts {
			tf := float64(count) / float64(total)
			x.Set(row, idx, tf*b.vocab.idf[idx])
		}
		return
	}
	for idx, count := range counts {
		x.Set(row, idx, float64(count))
	}
}

func (b *Builder) fillExtras(x *mat.Dense, row int, raw string) {
	col := b.vocab.Size()
	if b.opts.TextLength {
		x.Set(row, col, float64(len([]rune(raw))))
		col++
	}
	for _, re := range b.keywords {
		x.Set(row, col, float64(len(re.FindAllString(raw, -1))))
		col++
	}
}

func (b *Builder) extraCount() int {
	n := len(b.keywords)
	if b.opts.TextLength {
		n++
	}
	return n
}
