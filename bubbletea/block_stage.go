package bubbletea

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/blueprint"
	"github.com/fwojciec/blueprint/goldmark"
)

var _ Block = (*StageBlock)(nil)

// StageStatus is the lifecycle position of a stage in the view.
type StageStatus int

const (
	StagePending StageStatus = iota
	StageRunning
	StageDone
	StageFailed
	StageCancelled
)

// StageBlock renders one stage row with its telemetry and an optional
// one-line preview of the stage's content.
type StageBlock struct {
	id        blueprint.StageID
	status    StageStatus
	step      blueprint.Step
	preview   string
	err       error
	indicator string
	collapsed bool
	styles    Styles
}

// NewStageBlock creates a pending StageBlock whose preview starts collapsed.
func NewStageBlock(id blueprint.StageID, styles Styles) *StageBlock {
	return &StageBlock{id: id, collapsed: true, styles: styles, indicator: "•"}
}

// Status returns the block's current status.
func (b *StageBlock) Status() StageStatus { return b.status }

// Start marks the stage as running.
func (b *StageBlock) Start() { b.status = StageRunning }

// Finish records the stage's step and content.
func (b *StageBlock) Finish(step blueprint.Step, content string) {
	b.status = StageDone
	b.step = step
	b.preview = goldmark.Plain(Sanitize(content))
}

// Fail records the stage's error.
func (b *StageBlock) Fail(err error) {
	b.status = StageFailed
	b.err = err
}

// Cancel marks a stage abandoned after a sibling failed.
func (b *StageBlock) Cancel() { b.status = StageCancelled }

// SetIndicator sets the glyph shown while the stage runs.
func (b *StageBlock) SetIndicator(s string) { b.indicator = s }

func (b *StageBlock) Update(msg tea.Msg) (Block, tea.Cmd) {
	if _, ok := msg.(ToggleMsg); ok {
		b.collapsed = !b.collapsed
	}
	return b, nil
}

func (b *StageBlock) View(width int) string {
	name := b.id.Info().Name
	switch b.status {
	case StageRunning:
		return b.styles.Running.Render(b.indicator + " " + name)
	case StageDone:
		head := b.styles.Success.Render("✓ "+name) + "  " + b.styles.Muted.Render(fmt.Sprintf(
			"%.2fs  %d in / %d out  $%.5f",
			b.step.Duration.Seconds(), b.step.InputTokens, b.step.OutputTokens, b.step.Cost,
		))
		if b.collapsed || b.preview == "" {
			return head
		}
		return head + "\n" + b.styles.Muted.Render("  "+Truncate(b.preview, width-2))
	case StageFailed:
		msg := strings.Join(strings.Fields(Sanitize(b.err.Error())), " ")
		return b.styles.Error.Render(Truncate(fmt.Sprintf("✗ %s: %s", name, msg), width))
	case StageCancelled:
		return b.styles.Muted.Render("⊘ " + name + " (cancelled)")
	default:
		return b.styles.Muted.Render("· " + name)
	}
}
