package render

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Diagnostic texts substituted for rejected iframes.
const (
	MsgIframeMissingSource = "Invalid iframe: missing source"
	MsgIframeUntrusted     = "Iframe from untrusted domain not allowed"
	MsgIframeMalformed     = "Invalid iframe: malformed URL"
)

const iframeClass = "w-full aspect-video rounded-lg border-0 my-4"

// DefaultIframeDomains lists the hosts allowed to be embedded. Subdomains of
// each entry are allowed too.
var DefaultIframeDomains = []string{
	"youtube.com",
	"www.youtube.com",
	"youtu.be",
	"vimeo.com",
	"player.vimeo.com",
	"www.google.com",
}

func sanitizeIframes(root *html.Node, allowed []string) {
	visitElements(root, func(n *html.Node, _ []*html.Node) bool {
		if n.DataAtom != atom.Iframe {
			return true
		}
		src, ok := getAttr(n, "src")
		if !ok || strings.TrimSpace(src) == "" {
			replaceWithText(n, atom.Div, MsgIframeMissingSource)
			return false
		}
		u, err := url.Parse(strings.TrimSpace(src))
		if err != nil || !absoluteURL(u) {
			replaceWithText(n, atom.Div, MsgIframeMalformed)
			return false
		}
		if !domainAllowed(strings.ToLower(u.Hostname()), allowed) {
			replaceWithText(n, atom.Div, MsgIframeUntrusted)
			return false
		}
		setAttr(n, "class", iframeClass)
		setAttr(n, "loading", "lazy")
		setAttr(n, "allowfullscreen", "true")
		setAttr(n, "referrerpolicy", "no-referrer")
		return false
	})
}

// hostSchemes require a host to form a valid absolute URL. Other schemes
// (javascript:, data:, about:) parse with an empty host and are then
// rejected as untrusted.
var hostSchemes = map[string]bool{
	"http": true, "https": true, "ws": true, "wss": true, "ftp": true,
}

func absoluteURL(u *url.URL) bool {
	if u.Scheme == "" {
		return false
	}
	return u.Host != "" || !hostSchemes[strings.ToLower(u.Scheme)]
}

func domainAllowed(host string, allowed []string) bool {
	for _, d := range allowed {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
