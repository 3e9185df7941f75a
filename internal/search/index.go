// Package search provides a small, deterministic, concurrency-safe in-memory
// index used to rank a user's submissions against a free-text query. It is
// intentionally dependency-free:
//
//   - No logging in the library (callers decide how/what to log)
//   - Unicode-aware tokenization with optional stop-word removal
//   - Immutable, read-only index after construction (safe for concurrent use)
//   - Deterministic scoring and sorting (stable order for ties)
//
// Scoring uses Jaccard similarity between the query token set and each
// document's token set: score = |Q ∩ D| / |Q ∪ D|. Documents are tiny
// (title + topic + notes), so a per-request build over one user's rows is
// cheaper than maintaining a live index across mutations.
package search

import (
	"sort"
	"strings"
	"unicode"
)

// Doc is one indexable unit: a submission's ID plus its searchable text.
type Doc struct {
	ID   string
	Text string
}

// Result is a ranked document reference with its similarity score.
type Result struct {
	ID    string
	Score float64
}

// DefaultStopwords are high-frequency English words that carry no signal
// for problem titles or notes.
var DefaultStopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
	"in", "is", "it", "of", "on", "or", "that", "the", "this", "to",
	"was", "with",
}

// Option configures index construction.
type Option func(*config)

type config struct {
	stopwords map[string]struct{}
	maxDocs   int
}

// WithStopwords removes the given words (case-insensitive) from both
// documents and queries before scoring.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxDocs caps how many documents the index retains (first n win).
func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

type doc struct {
	id     string
	tokens map[string]struct{}
}

// Index ranks documents against queries. It is immutable after construction.
type Index struct {
	cfg  config
	docs []doc
}

// NewIndex builds an Index over the given documents. Documents whose text
// tokenizes to nothing are dropped.
func NewIndex(docs []Doc, opts ...Option) *Index {
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}
	idx := &Index{cfg: cfg}
	for _, d := range docs {
		if cfg.maxDocs > 0 && len(idx.docs) >= cfg.maxDocs {
			break
		}
		toks := tokenize(d.Text, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		idx.docs = append(idx.docs, doc{id: d.ID, tokens: toks})
	}
	return idx
}

// TopK returns up to k documents ranked by Jaccard similarity to query,
// highest first. Zero-score documents are omitted. Ties break by insertion
// order, which keeps results stable across calls.
func (ix *Index) TopK(query string, k int) []Result {
	if ix == nil || k <= 0 {
		return nil
	}
	q := tokenize(query, ix.cfg.stopwords)
	if len(q) == 0 {
		return nil
	}

	type scored struct {
		pos int
		res Result
	}
	hits := make([]scored, 0, len(ix.docs))
	for i, d := range ix.docs {
		s := jaccard(q, d.tokens)
		if s > 0 {
			hits = append(hits, scored{pos: i, res: Result{ID: d.id, Score: s}})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].res.Score != hits[b].res.Score {
			return hits[a].res.Score > hits[b].res.Score
		}
		return hits[a].pos < hits[b].pos
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	out := make([]Result, len(hits))
	for i, h := range hits {
		out[i] = h.res
	}
	return out
}

// tokenize lowercases s, splits on any non-letter/non-digit rune, and
// removes stopwords. The result is a set.
func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, skip := stop[f]; skip {
			continue
		}
		out[f] = struct{}{}
	}
	return out
}

// jaccard computes |a ∩ b| / |a ∪ b| over two token sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
