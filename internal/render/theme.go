package render

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const colorPrimary = "#345D85"

// Style is the presentation attached to one tag.
type Style struct {
	Class []string
	Style string
}

// Theme maps tag names to their presentation.
type Theme struct {
	Tags map[atom.Atom]Style
	// LinkInCell replaces the anchor class for links nested in table cells.
	LinkInCell []string
}

// DefaultTheme returns the site theme.
func DefaultTheme() Theme {
	return AccentTheme(colorPrimary)
}

// AccentTheme returns the site theme with primary, a CSS color, used for the
// h1 background, h2/h3 text and the table and header borders.
func AccentTheme(primary string) Theme {
	return Theme{
		Tags: map[atom.Atom]Style{
			atom.H1: {
				Class: []string{"text-3xl md:text-4xl", "font-bold", "my-[15px] md:my-[15px]", "ml-[-20px]", "text-[#FFFFFF]", "[font-family:Inter]", "p-[20px]"},
				Style: "background: " + primary + ";",
			},
			atom.H2: {
				Class: []string{"text-2xl md:text-3xl", "font-semibold", "my-4 md:my-5", "[font-family:Inter]", "text-[32px]", "font-[600]"},
				Style: "color: " + primary + ";",
			},
			atom.H3: {
				Class: []string{"my-3 md:my-4", "scroll-mt-20", "text-[20px]", "font-[400]", "leading-[20px]", "[font-family:Poppins]"},
				Style: "color: " + primary + ";",
			},
			atom.H4:         {Class: []string{"text-[16px]", "font-semibold", "my-2 md:my-3", "text-[#000000]"}},
			atom.H5:         {Class: []string{"text-[14px]", "font-semibold", "my-2 md:my-3", "text-[#000000]"}},
			atom.H6:         {Class: []string{"text-[12px]", "font-semibold", "my-2 md:my-3", "text-[#000000]"}},
			atom.P:          {Class: []string{"[font-family:Nunito]", "text-[18px]", "text-[#000000]", "leading-[28px]", "mb-4"}},
			atom.Img:        {Class: []string{"max-w-full", "h-auto", "my-4", "mx-auto", "shadow-md"}},
			atom.Figure:     {Class: []string{"my-6 md:my-8", "text-center"}},
			atom.Figcaption: {Class: []string{"text-sm", "text-gray-600", "mt-2", "italic"}},
			atom.Ul:         {Class: []string{"list-disc", "ml-4 md:ml-6", "my-4", "space-y-2"}},
			atom.Ol:         {Class: []string{"list-decimal", "ml-4 md:ml-6", "my-4", "space-y-2"}},
			atom.Li:         {Class: []string{"[font-family:Nunito]", "text-[18px]", "text-[#000000]", "leading-[28px]", "mb-4"}},
			atom.Blockquote: {Class: []string{"border-l-4", "border-gray-300", "pl-4", "my-4", "italic", "text-gray-700"}},
			atom.Code:       {Class: []string{"bg-gray-100", "rounded", "px-1", "py-0.5", "font-mono", "text-sm"}},
			atom.Pre:        {Class: []string{"bg-gray-100", "rounded-lg", "p-4", "my-4", "overflow-x-auto", "text-sm md:text-base"}},
			atom.A: {
				Class: []string{"[font-family:Nunito]", "text-[18px]", "text-[#1C8278]", "font-medium", "leading-[28px]", "underline"},
				Style: "font-weight: 500; text-decoration-style: solid; text-decoration-skip-ink: none; text-decoration-thickness: 1px; text-underline-offset: auto; text-underline-position: from-font;",
			},
			atom.Table: {
				Class: []string{"min-w-full", "border-collapse", "my-4", "block", "md:table", "overflow-x-auto"},
				Style: "border-top: 2px solid " + primary + ";",
			},
			atom.Th: {
				Class: []string{"px-4", "py-2", "[font-family:Inter]", "text-[16px]", "text-[#767676]", "uppercase", "text-left"},
				Style: "border-bottom: 2px solid " + primary + ";",
			},
			atom.Td: {
				Class: []string{"px-4", "py-2", "whitespace-normal", "[font-family:Inter]", "text-[16px]", "text-[#000000]", "leading-[16px]"},
				Style: "border-bottom: 1px solid #B8B8B8",
			},
		},
		LinkInCell: []string{"[font-family:Nunito]", "text-[16px]", "text-[#1C8278]", "font-medium", "leading-[28px]", "underline"},
	}
}

// applyTheme attaches the theme's classes and inline styles to every element.
func applyTheme(root *html.Node, th Theme) {
	visitElements(root, func(n *html.Node, ancestors []*html.Node) bool {
		st, ok := th.Tags[n.DataAtom]
		if !ok {
			return true
		}
		cls := append([]string(nil), st.Class...)
		cls = append(cls, keptClasses(n)...)
		setClasses(n, cls)
		if st.Style != "" {
			setAttr(n, "style", st.Style)
		}

		switch n.DataAtom {
		case atom.Img:
			setAttr(n, "loading", "lazy")
		case atom.A:
			styleLink(n, ancestors, th)
		}
		return true
	})
}

func styleLink(n *html.Node, ancestors []*html.Node, th Theme) {
	if href, ok := getAttr(n, "href"); ok && isExternal(href) {
		setAttr(n, "target", "_blank")
		setAttr(n, "rel", "noopener noreferrer")
	}
	for _, a := range ancestors {
		if a.DataAtom == atom.Td {
			setClasses(n, th.LinkInCell)
			return
		}
	}
}

func isExternal(href string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(href)), "http")
}

// keptClasses returns the classes that survive theming: language markers on
// fenced code and the screen-reader marker on the footnote label.
func keptClasses(n *html.Node) []string {
	var out []string
	for _, c := range classes(n) {
		if c == "sr-only" || strings.HasPrefix(c, "language-") || strings.HasPrefix(c, "lang-") {
			out = append(out, c)
		}
	}
	return out
}
