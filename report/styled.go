package report

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/blueprint"
)

// Styles maps a Theme to lipgloss styles for the terminal report.
type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Rule   lipgloss.Style
	Row    lipgloss.Style
	Total  lipgloss.Style
	Error  lipgloss.Style
	Meta   lipgloss.Style
}

// NewStyles creates Styles from a Theme.
func NewStyles(t blueprint.Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
		Header: lipgloss.NewStyle().Foreground(ansiColor(t.Header)).Bold(true),
		Rule:   lipgloss.NewStyle().Foreground(ansiColor(t.Muted)),
		Row:    lipgloss.NewStyle(),
		Total:  lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
		Error:  lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		Meta:   lipgloss.NewStyle().Foreground(ansiColor(t.Muted)),
	}
}

// Styled renders r for a terminal. The layout matches Text; only colors and
// weights differ.
func Styled(r blueprint.Report, s Styles) string {
	ls := lines(r)
	rendered := make([]string, len(ls))
	for i, l := range ls {
		if l.text == "" {
			continue
		}
		rendered[i] = s.style(l.kind).Render(l.text)
	}
	return strings.Join(rendered, "\n")
}

func (s Styles) style(k kind) lipgloss.Style {
	switch k {
	case kindTitle:
		return s.Title
	case kindHeader:
		return s.Header
	case kindRule:
		return s.Rule
	case kindRow:
		return s.Row
	case kindTotal:
		return s.Total
	case kindError:
		return s.Error
	default:
		return s.Meta
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
