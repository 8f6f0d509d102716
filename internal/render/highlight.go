package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/starford/odshub/internal/toc"
)

const highlightClass = "chroma"

// highlightCode replaces the text of every pre > code block with chroma
// token spans. Blocks whose language is unknown are left untouched.
func highlightCode(root *html.Node, detect bool) error {
	var blocks []*html.Node
	visitElements(root, func(n *html.Node, _ []*html.Node) bool {
		if n.DataAtom != atom.Pre {
			return true
		}
		if code := firstElementChild(n); code != nil && code.DataAtom == atom.Code {
			blocks = append(blocks, code)
		}
		return false
	})

	for _, code := range blocks {
		if err := highlightBlock(code, detect); err != nil {
			return err
		}
	}
	return nil
}

func highlightBlock(code *html.Node, detect bool) error {
	text := toc.Text(code)
	lexer := lexerFor(code, text, detect)
	if lexer == nil {
		return nil
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, text)
	if err != nil {
		return fmt.Errorf("render: highlight: %w", err)
	}

	for c := code.FirstChild; c != nil; c = code.FirstChild {
		code.RemoveChild(c)
	}
	for tok := it(); tok != chroma.EOF; tok = it() {
		textNode := &html.Node{Type: html.TextNode, Data: tok.Value}
		cls := chroma.StandardTypes[tok.Type]
		if cls == "" {
			code.AppendChild(textNode)
			continue
		}
		span := newElement(atom.Span, html.Attribute{Key: "class", Val: cls})
		span.AppendChild(textNode)
		code.AppendChild(span)
	}
	setClasses(code, append(classes(code), highlightClass))
	return nil
}

func lexerFor(code *html.Node, text string, detect bool) chroma.Lexer {
	for _, c := range classes(code) {
		lang, ok := strings.CutPrefix(c, "language-")
		if !ok {
			lang, ok = strings.CutPrefix(c, "lang-")
		}
		if ok {
			return lexers.Get(lang)
		}
	}
	if detect {
		return lexers.Analyse(text)
	}
	return nil
}

func firstElementChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

// WriteHighlightCSS writes the stylesheet for highlighted code blocks.
func WriteHighlightCSS(w io.Writer, style string) error {
	s := styles.Get(style)
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(w, s); err != nil {
		return fmt.Errorf("render: write css: %w", err)
	}
	return nil
}
