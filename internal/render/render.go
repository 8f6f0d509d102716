// Package render converts Markdown bodies into styled, sanitized HTML with
// deterministic heading anchors and a table of contents.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/starford/odshub/internal/models"
	"github.com/starford/odshub/internal/toc"
)

// Rendered is the output of one pipeline run.
type Rendered struct {
	HTML     string           `json:"html"`
	Headings []models.Heading `json:"headings"`
}

// Pipeline renders Markdown. It holds no per-document state and is safe for
// concurrent use.
type Pipeline struct {
	md             goldmark.Markdown
	themes         map[string]Theme
	defaultTheme   Theme
	iframeDomains  []string
	detectLanguage bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSectionTheme uses th for documents whose slug path starts with section.
func WithSectionTheme(section string, th Theme) Option {
	return func(p *Pipeline) {
		p.themes[section] = th
	}
}

// WithIframeDomains replaces the iframe host allow-list.
func WithIframeDomains(domains []string) Option {
	return func(p *Pipeline) {
		p.iframeDomains = domains
	}
}

// WithLanguageDetection toggles content-based lexer detection for fenced
// blocks that declare no language.
func WithLanguageDetection(enabled bool) Option {
	return func(p *Pipeline) {
		p.detectLanguage = enabled
	}
}

// New creates a Pipeline with GitHub-flavoured Markdown and footnotes enabled.
// Raw HTML in the source is passed through.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		themes:         make(map[string]Theme),
		defaultTheme:   DefaultTheme(),
		iframeDomains:  DefaultIframeDomains,
		detectLanguage: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Render runs the pipeline over body. slugPath selects the section theme.
func (p *Pipeline) Render(body, slugPath string) (*Rendered, error) {
	var buf bytes.Buffer
	if err := p.md.Convert([]byte(body), &buf); err != nil {
		return nil, fmt.Errorf("render: markdown: %w", err)
	}

	root := newElement(atom.Body)
	nodes, err := html.ParseFragment(&buf, root)
	if err != nil {
		return nil, fmt.Errorf("render: parse html: %w", err)
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	labelFootnotes(root)
	applyTheme(root, p.themeFor(slugPath))
	sanitizeIframes(root, p.iframeDomains)
	assignHeadingIDs(root)
	if err := highlightCode(root, p.detectLanguage); err != nil {
		return nil, err
	}

	var out strings.Builder
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&out, c); err != nil {
			return nil, fmt.Errorf("render: serialize: %w", err)
		}
	}

	return &Rendered{
		HTML:     out.String(),
		Headings: toc.Build(root),
	}, nil
}

func (p *Pipeline) themeFor(slugPath string) Theme {
	section, _, _ := strings.Cut(strings.TrimPrefix(slugPath, "/"), "/")
	if th, ok := p.themes[section]; ok {
		return th
	}
	return p.defaultTheme
}
