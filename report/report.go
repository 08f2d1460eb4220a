// Package report renders the fixed-width end-of-run cost and timing table.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fwojciec/blueprint"
	"github.com/mattn/go-runewidth"
)

const (
	nameWidth  = 20
	ruleWidth  = 70
	totalLabel = "TOTAL"
)

// Rule is the horizontal separator between the header, rows and totals.
var Rule = strings.Repeat("-", ruleWidth)

// Header is the column header of the breakdown table.
var Header = fmt.Sprintf("%s | %-8s | %-8s | %-8s | %-10s",
	pad("Step Name"), "Time(s)", "In Tok", "Out Tok", "Cost($)")

// Text renders r as plain text for the run log. The TOTAL row sums step
// durations; wall-clock time is reported on its own line because the
// parallel stages overlap.
func Text(r blueprint.Report) string {
	var b strings.Builder
	for _, line := range lines(r) {
		b.WriteString(line.text)
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

type kind int

const (
	kindMeta kind = iota
	kindTitle
	kindHeader
	kindRule
	kindRow
	kindTotal
	kindError
)

type line struct {
	kind kind
	text string
}

func lines(r blueprint.Report) []line {
	out := []line{
		{kindMeta, ""},
		{kindMeta, "Model Used: " + r.Model},
		{kindMeta, fmt.Sprintf("Price: Input $%s/1M | Output $%s/1M",
			Rate(r.Pricing.InputPerMillion), Rate(r.Pricing.OutputPerMillion))},
	}
	if r.RunID != "" {
		out = append(out, line{kindMeta, "Run ID: " + r.RunID})
	}
	out = append(out,
		line{kindMeta, ""},
		line{kindTitle, "--- Detailed Breakdown ---"},
		line{kindHeader, Header},
		line{kindRule, Rule},
	)
	for _, s := range r.Steps {
		out = append(out, line{kindRow, Row(s)})
	}
	out = append(out,
		line{kindRule, Rule},
		line{kindTotal, Total(r.Totals)},
		line{kindMeta, fmt.Sprintf("Wall clock: %.2fs", r.Elapsed.Seconds())},
	)
	if r.Err != "" {
		out = append(out, line{kindError, "FAILED: " + r.Err})
	}
	return out
}

// Row formats a single step.
func Row(s blueprint.Step) string {
	return fmt.Sprintf("%s | %-8.2f | %-8d | %-8d | %-10.5f",
		pad(s.Name), s.Duration.Seconds(), s.InputTokens, s.OutputTokens, s.Cost)
}

// Total formats the aggregate row.
func Total(t blueprint.Totals) string {
	return fmt.Sprintf("%s | %-8.2f | %-8d | %-8d | $%.5f",
		pad(totalLabel), t.Duration.Seconds(), t.InputTokens, t.OutputTokens, t.Cost)
}

// Rate formats a per-million rate the way it is written in configuration:
// whole numbers keep one decimal place.
func Rate(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// pad left-aligns s in the step-name column. Names wider than the column are
// truncated so the table stays aligned.
func pad(s string) string {
	if runewidth.StringWidth(s) > nameWidth {
		s = runewidth.Truncate(s, nameWidth, "")
	}
	return runewidth.FillRight(s, nameWidth)
}
