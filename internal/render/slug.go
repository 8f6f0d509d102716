package render

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/starford/odshub/internal/toc"
)

// Slugger produces GitHub-style anchor slugs, disambiguating repeats with a
// numeric suffix. A Slugger is scoped to one document.
type Slugger struct {
	seen map[string]int
}

func NewSlugger() *Slugger {
	return &Slugger{seen: make(map[string]int)}
}

// Slug returns a unique slug for text.
func (s *Slugger) Slug(text string) string {
	base := Slugify(text)
	result := base
	for {
		if _, taken := s.seen[result]; !taken {
			break
		}
		s.seen[base]++
		result = base + "-" + strconv.Itoa(s.seen[base])
	}
	s.seen[result] = 0
	return result
}

// Reserve marks id as used so generated slugs avoid it.
func (s *Slugger) Reserve(id string) {
	if _, ok := s.seen[id]; !ok {
		s.seen[id] = 0
	}
}

// Slugify lowercases text, drops punctuation and symbols, and turns each
// space into a dash. Runs of spaces are not collapsed.
func Slugify(text string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r == ' ':
			sb.WriteByte('-')
		case r == '-' || r == '_':
			sb.WriteRune(r)
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r), unicode.Is(unicode.Pc, r):
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

var headingAtoms = map[atom.Atom]bool{
	atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true,
}

// assignHeadingIDs gives every heading without an id a slug of its text.
func assignHeadingIDs(root *html.Node) {
	s := NewSlugger()
	var pending []*html.Node
	visitElements(root, func(n *html.Node, _ []*html.Node) bool {
		if !headingAtoms[n.DataAtom] {
			return true
		}
		if id, ok := getAttr(n, "id"); ok && id != "" {
			s.Reserve(id)
		} else {
			pending = append(pending, n)
		}
		return false
	})
	for _, n := range pending {
		if slug := s.Slug(strings.TrimSpace(toc.Text(n))); slug != "" {
			setAttr(n, "id", slug)
		}
	}
}
