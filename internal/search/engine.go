// Package search implements fuzzy search over the content corpus: extended
// query syntax, approximate matching, ranking, grouping by collection and
// the search session lifecycle.
package search

import (
	"math"
	"sort"
	"strings"

	"github.com/starford/odshub/internal/models"
)

// DefaultThreshold is the highest score, errors per pattern rune, that still
// counts as a match.
const DefaultThreshold = 0.2

// exactScore stands in for a zero score so that an exact match still
// contributes to the product.
const exactScore = 0x1p-52

// keyWeight is the normalised weight of each searched key. Both keys weigh
// the same.
const keyWeight = 0.5

// Result is one ranked match. Lower scores are better.
type Result struct {
	Record   models.SearchRecord
	Score    float64
	RefIndex int
}

// field is a lowercased searchable value with its length norm.
type field struct {
	text  string
	runes []rune
	norm  float64
}

// Engine searches a fixed set of records by file name and content.
// It is immutable after construction and safe for concurrent use.
type Engine struct {
	records   []models.SearchRecord
	fields    [][]*field // per record: name, content; nil when blank
	threshold float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithThreshold sets the match threshold. Values outside [0, 1] are ignored.
func WithThreshold(t float64) Option {
	return func(e *Engine) {
		if t >= 0 && t <= 1 {
			e.threshold = t
		}
	}
}

// NewEngine indexes records.
func NewEngine(records []models.SearchRecord, opts ...Option) *Engine {
	e := &Engine{
		records:   records,
		fields:    make([][]*field, len(records)),
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	for i, r := range records {
		e.fields[i] = []*field{newField(r.Name), newField(r.Content)}
	}
	return e
}

func newField(s string) *field {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	lower := strings.ToLower(s)
	return &field{text: lower, runes: []rune(lower), norm: fieldNorm(s)}
}

// fieldNorm is 1/sqrt(tokens) rounded to three decimals, so matches in short
// fields weigh more than matches in long ones.
func fieldNorm(s string) float64 {
	tokens := len(strings.Fields(s))
	if tokens == 0 {
		tokens = 1
	}
	return math.Round(1/math.Sqrt(float64(tokens))*1000) / 1000
}

// Len returns the number of indexed records.
func (e *Engine) Len() int { return len(e.records) }

// Search returns the records matching q, best first. Ties keep corpus order.
// A blank query returns no results.
func (e *Engine) Search(q string) []Result {
	results := []Result{}
	if strings.TrimSpace(q) == "" {
		return results
	}
	parsed := parseQuery(q)
	if len(parsed) == 0 {
		return results
	}

	for i, fields := range e.fields {
		score, ok := e.score(parsed, fields)
		if !ok {
			continue
		}
		results = append(results, Result{Record: e.records[i], Score: score, RefIndex: i})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score < results[b].Score
	})
	return results
}

// score combines the per-key scores of every matching key multiplicatively,
// each raised to its weight times its field norm.
func (e *Engine) score(q query, fields []*field) (float64, bool) {
	total := 1.0
	matched := false
	for _, f := range fields {
		if f == nil {
			continue
		}
		s, ok := q.match(f, e.threshold)
		if !ok {
			continue
		}
		matched = true
		if s == 0 {
			s = exactScore
		}
		total *= math.Pow(s, keyWeight*f.norm)
	}
	return total, matched
}
