// Package models defines the domain types shared across the content pipeline.
package models

import "strings"

// EntryType distinguishes files from directories in a store listing.
type EntryType string

const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"
)

// Entry is one item of a directory listing returned by a content store.
type Entry struct {
	Name string    `json:"name"`
	Path string    `json:"path"`
	Type EntryType `json:"type"`
	SHA  string    `json:"sha,omitempty"`
}

// IsMarkdown reports whether the entry is a Markdown file.
func (e Entry) IsMarkdown() bool {
	return e.Type == EntryFile && strings.HasSuffix(e.Name, ".md")
}

// Document is a fetched Markdown file. It is never mutated after creation.
type Document struct {
	Collection string   `json:"collection"`
	Name       string   `json:"name"`
	Path       string   `json:"path"`
	Raw        []byte   `json:"-"`
	Metadata   Metadata `json:"metadata"`
	Body       string   `json:"body"`
}

// Collection is a named top-level content directory.
type Collection struct {
	Name      string     `json:"name"`
	Path      string     `json:"path"`
	Documents []Document `json:"documents,omitempty"`
}

// Heading is one entry in a rendered document's table of contents.
type Heading struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	Level    int       `json:"level"`
	Children []Heading `json:"children"`
}

// SearchRecord is the flattened, searchable form of a Document.
type SearchRecord struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	Collection string `json:"collectionName"`
	Content    string `json:"content"`
	Title      string `json:"title,omitempty"`
}

// Stem returns the file name without its .md extension.
func (r SearchRecord) Stem() string {
	return strings.TrimSuffix(r.Name, ".md")
}

// DisplayTitle returns the frontmatter title, falling back to the file stem
// with dashes turned into spaces.
func (r SearchRecord) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return strings.ReplaceAll(r.Stem(), "-", " ")
}

// Link returns the site path of the rendered page for this record.
func (r SearchRecord) Link() string {
	return "/post/" + r.Collection + "/" + r.Stem()
}
