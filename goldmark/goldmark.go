// Package goldmark reads model output as markdown using goldmark: it pulls
// the generated program out of fenced code blocks and flattens prose into
// single-line previews.
package goldmark

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/fwojciec/blueprint"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func parse(source []byte) ast.Node {
	return goldmark.DefaultParser().Parse(text.NewReader(source))
}

// fenceRe matches a closed fence wherever it opens, including after prose on
// the same line or behind indentation, where CommonMark sees no fence.
var fenceRe = regexp.MustCompile("(?s)```[\\w+.-]*[ \\t]*\\r?\\n(.*?)```")

// ExtractCode returns the trimmed body of the first fenced code block in
// content, or the whole trimmed content when there is none. A closed fence
// is found anywhere in the text; an unclosed one runs to the end of the
// document. An empty result is reported as blueprint.ErrEmptyCode.
func ExtractCode(content string) (string, error) {
	code, fenced := closedFence(content)
	if !fenced {
		code, fenced = openFence(content)
	}
	if !fenced {
		code = content
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("goldmark: %w", blueprint.ErrEmptyCode)
	}
	return code, nil
}

// closedFence returns the body of the first fence with a closing marker.
// When the opening marker is indented, that indentation is removed from
// every body line.
func closedFence(content string) (string, bool) {
	loc := fenceRe.FindStringSubmatchIndex(content)
	if loc == nil {
		return "", false
	}
	body := content[loc[2]:loc[3]]
	indent := content[strings.LastIndexByte(content[:loc[0]], '\n')+1 : loc[0]]
	if indent == "" || strings.TrimLeft(indent, " \t") != "" {
		return body, true
	}
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, indent)
	}
	return strings.Join(lines, "\n"), true
}

// openFence returns the body of the first CommonMark fenced block, which
// covers a fence left open by a truncated response.
func openFence(content string) (string, bool) {
	source := []byte(content)
	var fence *ast.FencedCodeBlock
	_ = ast.Walk(parse(source), func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fb, ok := n.(*ast.FencedCodeBlock); ok {
			fence = fb
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if fence == nil {
		return "", false
	}
	var buf bytes.Buffer
	lines := fence.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String(), true
}

// Language returns the info-string language of the first fenced code block
// in content, or "" when there is no fence or it carries no tag.
func Language(content string) string {
	source := []byte(content)
	var lang string
	_ = ast.Walk(parse(source), func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if fb, ok := n.(*ast.FencedCodeBlock); ok && entering {
			lang = string(fb.Language(source))
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return lang
}
