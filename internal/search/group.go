package search

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Group is the ranked results of one collection.
type Group struct {
	Collection string
	Title      string
	Results    []Result
}

// GroupByCollection partitions results by collection. Groups appear in the
// order their best result ranks; results keep their relative order within a
// group. Every result lands in exactly one group.
func GroupByCollection(results []Result) []Group {
	groups := []Group{}
	index := make(map[string]int)
	for _, r := range results {
		name := r.Record.Collection
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{Collection: name, Title: SectionTitle(name)})
		}
		groups[i].Results = append(groups[i].Results, r)
	}
	return groups
}

// SectionTitle maps a collection name to its display heading.
func SectionTitle(collection string) string {
	lower := strings.ToLower(collection)
	switch {
	case strings.Contains(lower, "example"):
		return "Examples"
	case strings.Contains(lower, "about"):
		return "About"
	case strings.Contains(lower, "guidance"):
		return "Guidance"
	}
	r, size := utf8.DecodeRuneInString(collection)
	if r == utf8.RuneError {
		return collection
	}
	return string(unicode.ToUpper(r)) + collection[size:]
}
