package html

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func parse(t *testing.T, s string) *xhtml.Node {
	t.Helper()
	root, err := xhtml.Parse(strings.NewReader(s))
	require.NoError(t, err)
	return root
}

func TestTextOf(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"paragraphs and breaks", `<p>a<br>b</p><ul><li>x</li><li>y</li></ul>`, "a\nb\n\nx\n\ny"},
		{"junk skipped", `<p>keep</p><script>var x = 1</script><noscript>no</noscript>`, "keep"},
		{"entities and nbsp", `<p>A &amp; B&nbsp;C</p>`, "A & B C"},
		{"table cells", `<table><tr><td>a</td><td>b</td></tr></table>`, "a b"},
		{"comments", `<p>x<!-- hidden -->y</p>`, "xy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, textOf(parse(t, tt.html)))
		})
	}
}

func TestInlineText(t *testing.T) {
	root := parse(t, "<h1>Hello <b>world</b>\n   again</h1>")
	assert.Equal(t, "Hello world again", inlineText(findFirst(root, atom.H1)))
	assert.Empty(t, inlineText(nil))
}

func TestFindAll_DoesNotDescendIntoMatches(t *testing.T) {
	root := parse(t, `<div><div>x</div></div><div>y</div>`)
	nodes := findAll(root, func(n *xhtml.Node) bool { return n.DataAtom == atom.Div })
	assert.Len(t, nodes, 2)
	assert.Nil(t, findFirst(root, atom.Table))
}

func TestRemoveNodes(t *testing.T) {
	root := parse(t, `<p>a</p><aside>b</aside><p>c</p>`)
	removeNodes(findAll(root, func(n *xhtml.Node) bool { return n.DataAtom == atom.Aside }))
	assert.Equal(t, "a\n\nc", textOf(root))
}
