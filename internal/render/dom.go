package render

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// visitFunc is called for every element with its ancestors, outermost first.
// Returning false skips the element's subtree.
type visitFunc func(n *html.Node, ancestors []*html.Node) bool

func visitElements(root *html.Node, fn visitFunc) {
	var walk func(n *html.Node, ancestors []*html.Node)
	walk = func(n *html.Node, ancestors []*html.Node) {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			if c.Type == html.ElementNode {
				if fn(c, ancestors) {
					walk(c, append(ancestors, c))
				}
			} else {
				walk(c, ancestors)
			}
			c = next
		}
	}
	walk(root, nil)
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key && a.Namespace == "" {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key && a.Namespace == "" {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func classes(n *html.Node) []string {
	v, _ := getAttr(n, "class")
	return strings.Fields(v)
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

func setClasses(n *html.Node, cls []string) {
	setAttr(n, "class", strings.Join(cls, " "))
}

// replaceWithText turns n into a plain element holding only msg.
func replaceWithText(n *html.Node, tag atom.Atom, msg string) {
	n.DataAtom = tag
	n.Data = tag.String()
	n.Attr = nil
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: msg})
}

func newElement(tag atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: tag,
		Data:     tag.String(),
		Attr:     attrs,
	}
}
