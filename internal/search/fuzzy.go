package search

import "slices"

// minFuzzyScore is the score of a zero-edit match inside a longer field. Only
// a field equal to the pattern scores 0.
const minFuzzyScore = 0.001

// distance returns the smallest optimal-string-alignment distance between
// pattern and any substring of text: insertions, deletions, substitutions and
// transpositions of adjacent runes each cost one edit. The start of the
// substring is free, so the result does not depend on where in text the
// pattern occurs.
//
// Rows whose minimum exceeds maxErrors cannot lead to a better result, so the
// scan stops early and returns maxErrors+1.
func distance(pattern, text []rune, maxErrors int) int {
	m, n := len(pattern), len(text)
	if m == 0 {
		return 0
	}

	// Row 0 is all zeros: matching may begin at any text position.
	prev2 := make([]int, n+1)
	prev := make([]int, n+1)
	cur := make([]int, n+1)

	for i := 1; i <= m; i++ {
		cur[0] = i
		rowMin := i
		for j := 1; j <= n; j++ {
			cost := 1
			if pattern[i-1] == text[j-1] {
				cost = 0
			}
			v := min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && pattern[i-1] == text[j-2] && pattern[i-2] == text[j-1] {
				v = min(v, prev2[j-2]+1)
			}
			cur[j] = v
			rowMin = min(rowMin, v)
		}
		if rowMin > maxErrors {
			return maxErrors + 1
		}
		prev2, prev, cur = prev, cur, prev2
	}

	best := m
	for _, v := range prev {
		best = min(best, v)
	}
	return best
}

// fuzzyScore scores pattern against text as errors/len(pattern). ok is false
// when the score exceeds threshold.
func fuzzyScore(pattern, text []rune, threshold float64) (score float64, ok bool) {
	m := len(pattern)
	if m == 0 {
		return 0, false
	}
	if slices.Equal(pattern, text) {
		return 0, true
	}
	maxErrors := int(threshold*float64(m) + 1e-9)
	d := distance(pattern, text, maxErrors)
	if d > maxErrors {
		return 1, false
	}
	return max(minFuzzyScore, float64(d)/float64(m)), true
}
