package bubbletea

import "github.com/rivo/uniseg"

const ellipsis = "…"

// Truncate shortens s to at most width terminal cells, cutting on grapheme
// cluster boundaries and marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if uniseg.StringWidth(s) <= width {
		return s
	}
	limit := width - uniseg.StringWidth(ellipsis)
	var (
		out   []byte
		used  int
		state = -1
		rest  = s
	)
	for len(rest) > 0 {
		var cluster string
		var w int
		cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if used+w > limit {
			break
		}
		out = append(out, cluster...)
		used += w
	}
	return string(out) + ellipsis
}
