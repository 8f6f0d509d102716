package search

import (
	"strings"
	"unicode"
)

type matchKind int

const (
	matchFuzzy         matchKind = iota // term
	matchExact                          // =term
	matchInclude                        // 'term
	matchPrefix                         // ^term
	matchInversePrefix                  // !^term
	matchInverseSuffix                  // !term$
	matchSuffix                         // term$
	matchInverse                        // !term
)

// term is one operand of a query. pattern is lowercased.
type term struct {
	kind    matchKind
	pattern string
	runes   []rune
}

// query is a disjunction of conjunctions: a field matches when every term of
// at least one group matches it.
type query [][]term

// parseQuery splits q on "|" into alternatives and each alternative on
// whitespace into terms. Whitespace inside double quotes does not split.
func parseQuery(q string) query {
	var out query
	for _, alt := range strings.Split(q, "|") {
		var group []term
		for _, tok := range splitTokens(alt) {
			if t, ok := parseTerm(tok); ok {
				group = append(group, t)
			}
		}
		if len(group) > 0 {
			out = append(out, group)
		}
	}
	return out
}

func splitTokens(s string) []string {
	var (
		out     []string
		sb      strings.Builder
		inQuote bool
	)
	flush := func() {
		if sb.Len() > 0 {
			out = append(out, sb.String())
			sb.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			sb.WriteRune(r)
		case unicode.IsSpace(r) && !inQuote:
			flush()
		default:
			sb.WriteRune(r)
		}
	}
	flush()
	return out
}

// parseTerm classifies tok by its operator. Operators are checked in a fixed
// order so that "!term$" is an inverse suffix rather than a suffix.
func parseTerm(tok string) (term, bool) {
	kind := matchFuzzy
	p := tok
	switch {
	case strings.HasPrefix(p, "="):
		kind, p = matchExact, p[1:]
	case strings.HasPrefix(p, "'"):
		kind, p = matchInclude, p[1:]
	case strings.HasPrefix(p, "^"):
		kind, p = matchPrefix, p[1:]
	case strings.HasPrefix(p, "!^"):
		kind, p = matchInversePrefix, p[2:]
	case strings.HasPrefix(p, "!") && strings.HasSuffix(p, "$") && len(p) > 2:
		kind, p = matchInverseSuffix, p[1:len(p)-1]
	case strings.HasSuffix(p, "$") && len(p) > 1:
		kind, p = matchSuffix, p[:len(p)-1]
	case strings.HasPrefix(p, "!"):
		kind, p = matchInverse, p[1:]
	}

	p = unquote(p)
	if p == "" {
		return term{}, false
	}
	p = strings.ToLower(p)
	return term{kind: kind, pattern: p, runes: []rune(p)}, true
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// match evaluates t against a lowercased field. Non-fuzzy terms score 0.
func (t term) match(f *field, threshold float64) (float64, bool) {
	switch t.kind {
	case matchExact:
		return 0, f.text == t.pattern
	case matchInclude:
		return 0, strings.Contains(f.text, t.pattern)
	case matchPrefix:
		return 0, strings.HasPrefix(f.text, t.pattern)
	case matchSuffix:
		return 0, strings.HasSuffix(f.text, t.pattern)
	case matchInversePrefix:
		return 0, !strings.HasPrefix(f.text, t.pattern)
	case matchInverseSuffix:
		return 0, !strings.HasSuffix(f.text, t.pattern)
	case matchInverse:
		return 0, !strings.Contains(f.text, t.pattern)
	default:
		return fuzzyScore(t.runes, f.runes, threshold)
	}
}

// match evaluates q against a field. The first alternative whose terms all
// match wins and scores the mean of its term scores.
func (q query) match(f *field, threshold float64) (float64, bool) {
	for _, group := range q {
		total := 0.0
		matched := true
		for _, t := range group {
			s, ok := t.match(f, threshold)
			if !ok {
				matched = false
				break
			}
			total += s
		}
		if matched {
			return total / float64(len(group)), true
		}
	}
	return 1, false
}
