package render

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Footnote labels.
const (
	FootnoteLabel     = "Footnotes"
	FootnoteBackLabel = "Back to content"
	footnoteLabelID   = "footnote-label"
)

// labelFootnotes turns goldmark's footnote container into a labelled section
// and names the reference and back links.
func labelFootnotes(root *html.Node) {
	visitElements(root, func(n *html.Node, _ []*html.Node) bool {
		switch {
		case n.DataAtom == atom.Div && hasClass(n, "footnotes"):
			n.DataAtom = atom.Section
			n.Data = atom.Section.String()
			setAttr(n, "data-footnotes", "")
			for c := n.FirstChild; c != nil; {
				next := c.NextSibling
				if c.Type == html.ElementNode && c.DataAtom == atom.Hr {
					n.RemoveChild(c)
				}
				c = next
			}
			label := newElement(atom.H2,
				html.Attribute{Key: "id", Val: footnoteLabelID},
				html.Attribute{Key: "class", Val: "sr-only"},
			)
			label.AppendChild(&html.Node{Type: html.TextNode, Data: FootnoteLabel})
			n.InsertBefore(label, n.FirstChild)
		case n.DataAtom == atom.A && hasClass(n, "footnote-ref"):
			setAttr(n, "aria-describedby", footnoteLabelID)
		case n.DataAtom == atom.A && hasClass(n, "footnote-backref"):
			setAttr(n, "aria-label", FootnoteBackLabel)
		}
		return true
	})
}
