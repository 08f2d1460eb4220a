package goldmark

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark/ast"
)

// Plain flattens markdown into a single line of text. Emphasis, headings and
// list markers are dropped; code blocks are skipped.
func Plain(content string) string {
	if content == "" {
		return ""
	}
	source := []byte(content)
	var parts []string
	collectBlocks(parse(source), source, &parts)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func collectBlocks(node ast.Node, source []byte, parts *[]string) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		switch n := c.(type) {
		case *ast.Paragraph, *ast.Heading, *ast.TextBlock:
			var buf bytes.Buffer
			collectInline(n, source, &buf)
			*parts = append(*parts, buf.String())
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.ThematicBreak:
		default:
			collectBlocks(n, source, parts)
		}
	}
}

func collectInline(node ast.Node, source []byte, buf *bytes.Buffer) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		switch n := c.(type) {
		case *ast.Text:
			buf.Write(n.Segment.Value(source))
			if n.SoftLineBreak() || n.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(n.Value)
		case *ast.AutoLink:
			buf.Write(n.URL(source))
		case *ast.RawHTML:
		default:
			collectInline(n, source, buf)
		}
	}
}
