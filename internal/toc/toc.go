// Package toc derives a two-level table of contents from rendered HTML.
package toc

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/starford/odshub/internal/models"
)

// Build walks nodes in document order and returns every h2 that carries an
// id, with the h3 elements that follow it nested as children. An h3 seen
// before any h2 has no parent and is dropped.
func Build(nodes ...*html.Node) []models.Heading {
	b := &builder{parent: -1}
	for _, n := range nodes {
		b.walk(n)
	}
	if b.out == nil {
		return []models.Heading{}
	}
	return b.out
}

// Extract parses a serialized HTML fragment and builds its table of contents.
func Extract(fragment string) ([]models.Heading, error) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("toc: parse html: %w", err)
	}
	return Build(nodes...), nil
}

type builder struct {
	out    []models.Heading
	parent int
}

func (b *builder) walk(n *html.Node) {
	if n.Type == html.ElementNode && (n.DataAtom == atom.H2 || n.DataAtom == atom.H3) {
		if id := attr(n, "id"); id != "" {
			b.add(n, id)
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.walk(c)
	}
}

func (b *builder) add(n *html.Node, id string) {
	h := models.Heading{
		ID:       id,
		Text:     strings.TrimSpace(Text(n)),
		Children: []models.Heading{},
	}
	if n.DataAtom == atom.H2 {
		h.Level = 2
		b.out = append(b.out, h)
		b.parent = len(b.out) - 1
		return
	}
	if b.parent < 0 {
		return
	}
	h.Level = 3
	b.out[b.parent].Children = append(b.out[b.parent].Children, h)
}

// Text returns the concatenated text content of n and its descendants.
func Text(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
