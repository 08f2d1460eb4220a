package bubbletea

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Sanitize makes model output and API error text safe to draw. Escape
// sequences and control characters other than tab and newline are removed.
// A carriage return inside a line rewinds to column zero, the way a terminal
// would show it.
func Sanitize(s string) string {
	s = strings.ReplaceAll(ansi.Strip(s), "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = sanitizeLine(line)
	}
	return strings.Join(lines, "\n")
}

func sanitizeLine(line string) string {
	var out []rune
	col := 0
	for _, r := range line {
		switch {
		case r == '\r':
			col = 0
			continue
		case r != '\t' && r <= 0x1F, r == 0x7F:
			continue
		}
		if col < len(out) {
			out[col] = r
		} else {
			out = append(out, r)
		}
		col++
	}
	return string(out)
}
