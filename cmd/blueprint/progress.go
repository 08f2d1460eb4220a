package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/blueprint"
)

// banner opens the console output of a run.
var banner = strings.Repeat("=", 60) + "\n   STARTING GENERATION (Real Token Tracking)   \n" + strings.Repeat("=", 60) + "\n"

// progress prints driver events as console lines.
type progress struct {
	w io.Writer
}

func (p progress) handle(e blueprint.Event) {
	switch e := e.(type) {
	case blueprint.EventStageFinished:
		s := e.Step
		fmt.Fprintf(p.w, "[%s] Time: %.2fs | Real Tokens: In %d / Out %d | Cost: $%.5f\n",
			s.Name, s.Duration.Seconds(), s.InputTokens, s.OutputTokens, s.Cost)
	case blueprint.EventStageFailed:
		fmt.Fprintf(p.w, "[%s] Failed: %v\n", e.Stage.Info().Name, e.Err)
	case blueprint.EventStageCancelled:
		fmt.Fprintf(p.w, "[%s] Cancelled\n", e.Stage.Info().Name)
	case blueprint.EventForkStarted:
		names := make([]string, len(e.Stages))
		for i, id := range e.Stages {
			names[i] = id.Info().Name
		}
		fmt.Fprintf(p.w, "\n>>> Starting Parallel Execution (%s)...\n", strings.Join(names, " & "))
	case blueprint.EventForkFinished:
		fmt.Fprintf(p.w, ">>> Parallel block finished in %.2fs\n\n", e.Duration.Seconds())
	}
}
