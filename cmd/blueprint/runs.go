package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fwojciec/blueprint"
	"github.com/fwojciec/blueprint/sqlite"
	"github.com/spf13/cobra"
)

const startedLayout = "2006-01-02 15:04:05"

func (a *app) listRuns(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := loadSettings(cmd, a.getenv)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	ledger, err := sqlite.Open(s.Ledger)
	if err != nil {
		return err
	}
	defer ledger.Close()

	reports, err := ledger.Runs(ctx, limit)
	if err != nil {
		return err
	}
	spend, err := ledger.Spend(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, runsTable(reports, spend))
	return nil
}

// runsTable renders recorded runs newest first, followed by the spend over
// every run in the ledger.
func runsTable(reports []blueprint.Report, spend blueprint.Totals) string {
	if len(reports) == 0 {
		return "No runs recorded."
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("RUN", "STARTED", "MODEL", "STEPS", "TIME(S)", "TOKENS", "COST($)", "STATUS")
	for _, r := range reports {
		t.Row(
			shortID(r.RunID),
			r.StartedAt.Local().Format(startedLayout),
			r.Model,
			strconv.Itoa(len(r.Steps)),
			fmt.Sprintf("%.2f", r.Elapsed.Seconds()),
			strconv.Itoa(r.Totals.TotalTokens),
			fmt.Sprintf("%.5f", r.Totals.Cost),
			status(r),
		)
	}
	var b strings.Builder
	b.WriteString(t.Render())
	fmt.Fprintf(&b, "\nTotal spend: $%.5f (%d in / %d out tokens)", spend.Cost, spend.InputTokens, spend.OutputTokens)
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func status(r blueprint.Report) string {
	if r.Err != "" {
		return "failed"
	}
	return "ok"
}
