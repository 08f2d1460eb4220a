// Package bubbletea provides a Bubble Tea progress view for a pipeline run.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/blueprint"
)

// RunFunc executes one pipeline run. The onEvent callback is called for each
// driver event. The function blocks until the run completes or the context is
// cancelled, and returns the run's report even on failure.
type RunFunc func(ctx context.Context, onEvent func(blueprint.Event)) (blueprint.Report, error)

// Run creates and runs the Bubble Tea program. It blocks until the program
// exits and returns the final model. The context is used for graceful
// shutdown: when cancelled, the program quits.
func Run(ctx context.Context, m Model) (Model, error) {
	p := tea.NewProgram(m)
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		m = fm
	}
	return m, err
}

// EventMsg wraps a driver event for delivery to the Bubble Tea model.
type EventMsg struct {
	Event blueprint.Event
}

// RunDoneMsg signals that the run has completed.
type RunDoneMsg struct {
	Report blueprint.Report
	Err    error
}
