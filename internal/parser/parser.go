// Package parser splits raw Markdown documents into frontmatter metadata and body.
package parser

import (
	"bytes"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/starford/odshub/internal/models"
)

var formats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
	frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
}

// Result holds the output of parsing a Markdown document.
type Result struct {
	Metadata models.Metadata
	Body     string
	// Title is the frontmatter title with one layer of surrounding quotes removed.
	Title string
}

// Parse extracts the leading frontmatter block from data. Documents without a
// leading fence, or whose block fails to decode, come back with empty
// metadata and the input unchanged as body.
func Parse(data []byte) (*Result, error) {
	meta, body := split(data)
	return &Result{
		Metadata: meta,
		Body:     body,
		Title:    CleanTitle(meta.Text("title")),
	}, nil
}

func split(data []byte) (models.Metadata, string) {
	if !hasFence(data) {
		return models.Metadata{}, string(data)
	}

	var raw map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(data), &raw, formats...)
	if err != nil {
		return models.Metadata{}, string(data)
	}
	return models.MetadataOf(raw), string(body)
}

// hasFence reports whether the very first line is a frontmatter delimiter.
func hasFence(data []byte) bool {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	line = bytes.TrimRight(line, "\r \t")
	return bytes.Equal(line, []byte("---")) || bytes.Equal(line, []byte("+++"))
}

// CleanTitle strips one matching pair of single or double quotes that
// content authors sometimes leave around titles.
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	if len(title) < 2 {
		return title
	}
	first, last := title[0], title[len(title)-1]
	if first == last && (first == '"' || first == '\'') {
		return title[1 : len(title)-1]
	}
	return title
}
