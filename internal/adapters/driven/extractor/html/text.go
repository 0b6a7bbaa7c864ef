package html

import (
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockElements start a new paragraph.
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.Main: true, atom.Header: true, atom.Footer: true, atom.Aside: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Table: true, atom.Tr: true, atom.Blockquote: true, atom.Pre: true,
	atom.Hr: true, atom.Figure: true, atom.Figcaption: true, atom.Address: true,
}

// junkElements never carry document text.
var junkElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true,
	atom.Svg: true, atom.Iframe: true, atom.Head: true,
	atom.Template: true, atom.Object: true,
}

var (
	inlineSpace   = regexp.MustCompile(`[ \t\f\v\r\n\x{00a0}]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// textOf renders n as plain text. Block elements become blank-line
// paragraph breaks and <br> a line break. Entities are already decoded
// by the parser.
func textOf(n *xhtml.Node) string {
	var b strings.Builder
	writeText(&b, n)
	return cleanText(b.String())
}

func writeText(b *strings.Builder, n *xhtml.Node) {
	switch n.Type {
	case xhtml.TextNode:
		b.WriteString(inlineSpace.ReplaceAllString(n.Data, " "))
		return
	case xhtml.ElementNode:
		if junkElements[n.DataAtom] {
			return
		}
		if n.DataAtom == atom.Br {
			b.WriteString("\n")
			return
		}
		if n.DataAtom == atom.Td || n.DataAtom == atom.Th {
			b.WriteString(" ")
		}
	case xhtml.CommentNode:
		return
	}

	block := n.Type == xhtml.ElementNode && blockElements[n.DataAtom]
	if block {
		b.WriteString("\n\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		b.WriteString("\n\n")
	}
}

// cleanText trims each line and collapses runs of blank lines.
func cleanText(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = multiNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// removeNodes detaches every node from its parent.
func removeNodes(nodes []*xhtml.Node) {
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}

// findAll returns the element nodes matching the predicate, in document order.
// Matching nodes are not descended into.
func findAll(n *xhtml.Node, match func(*xhtml.Node) bool) []*xhtml.Node {
	var out []*xhtml.Node
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode && match(n) {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func findFirst(n *xhtml.Node, a atom.Atom) *xhtml.Node {
	nodes := findAll(n, func(n *xhtml.Node) bool { return n.DataAtom == a })
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// inlineText returns the text of n on a single line.
func inlineText(n *xhtml.Node) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(inlineSpace.ReplaceAllString(textOf(n), " "))
}
