package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/blueprint"
	"github.com/fwojciec/blueprint/report"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the pipeline progress view.
type Model struct {
	// Spinner animates running stages. Exported for test access.
	Spinner spinner.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model

	run          RunFunc
	styles       Styles
	reportStyles report.Styles

	blocks []Block
	stages map[blueprint.StageID]*StageBlock
	fork   []blueprint.StageID

	ctx     context.Context
	cancel  context.CancelFunc
	eventCh chan blueprint.Event
	doneCh  chan RunDoneMsg
	running bool
	report  *blueprint.Report
	err     error
	ready   bool
}

// New creates a progress Model for run. The run starts when the program
// initializes the model and is cancelled through ctx or Ctrl+C.
func New(ctx context.Context, run RunFunc, theme blueprint.Theme) Model {
	styles := NewStyles(theme)
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Running

	ctx, cancel := context.WithCancel(ctx)
	m := Model{
		Spinner:      sp,
		run:          run,
		styles:       styles,
		reportStyles: report.NewStyles(theme),
		stages:       make(map[blueprint.StageID]*StageBlock, len(blueprint.StageOrder)),
		ctx:          ctx,
		cancel:       cancel,
		eventCh:      make(chan blueprint.Event, 256),
		doneCh:       make(chan RunDoneMsg, 1),
		running:      true,
	}
	for _, id := range blueprint.StageOrder {
		b := NewStageBlock(id, styles)
		m.stages[id] = b
		m.blocks = append(m.blocks, b)
	}
	return m
}

// Running returns whether the run is still in progress.
func (m Model) Running() bool { return m.running }

// Err returns the run's error, if any.
func (m Model) Err() error { return m.err }

// Report returns the final report, or nil while the run is in progress.
func (m Model) Report() *blueprint.Report { return m.report }

// Stage returns the block of stage id.
func (m Model) Stage(id blueprint.StageID) *StageBlock { return m.stages[id] }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.Spinner.Tick,
		startRun(m.ctx, m.run, m.eventCh, m.doneCh),
		listenForEvent(m.eventCh, m.doneCh),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleWindowSize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		m.refresh()
		return m, cmd

	case EventMsg:
		m = m.processEvent(msg.Event)
		m.refresh()
		m.Viewport.GotoBottom()
		return m, listenForEvent(m.eventCh, m.doneCh)

	case RunDoneMsg:
		m.running = false
		m.cancel()
		r := msg.Report
		m.report = &r
		if msg.Err != nil && !errors.Is(msg.Err, context.Canceled) {
			m.err = msg.Err
		}
		m.refresh()
		m.Viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("blueprint"))
	b.WriteString("\n")
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	titleHeight := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := msg.Height - titleHeight - statusHeight - borderHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.refresh()
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			m.cancel()
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyTab:
		for _, b := range m.stages {
			b.Update(ToggleMsg{})
		}
		m.refresh()
		return m, nil

	case tea.KeyRunes:
		if !m.running && msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	return m, cmd
}

// processEvent routes a driver event to the matching block.
func (m Model) processEvent(evt blueprint.Event) Model {
	switch e := evt.(type) {
	case blueprint.EventStageStarted:
		if b, ok := m.stages[e.Stage]; ok {
			b.Start()
		}
	case blueprint.EventStageFinished:
		if b, ok := m.stages[e.Step.Stage]; ok {
			b.Finish(e.Step, e.Content)
		}
	case blueprint.EventStageFailed:
		if b, ok := m.stages[e.Stage]; ok {
			b.Fail(e.Err)
		}
	case blueprint.EventStageCancelled:
		if b, ok := m.stages[e.Stage]; ok {
			b.Cancel()
		}
	case blueprint.EventForkStarted:
		if len(e.Stages) == 0 {
			break
		}
		names := make([]string, len(e.Stages))
		for i, id := range e.Stages {
			names[i] = id.Info().Name
		}
		text := fmt.Sprintf(">>> Starting parallel execution (%s)", strings.Join(names, " & "))
		m = m.insert(m.indexOf(e.Stages[0]), NewNoticeBlock(text, m.styles))
		m.fork = e.Stages
	case blueprint.EventForkFinished:
		text := fmt.Sprintf(">>> Parallel block finished in %.2fs", e.Duration.Seconds())
		i := len(m.blocks)
		if n := len(m.fork); n > 0 {
			i = m.indexOf(m.fork[n-1]) + 1
		}
		m = m.insert(i, NewNoticeBlock(text, m.styles))
		m.fork = nil
	}
	return m
}

func (m Model) indexOf(id blueprint.StageID) int {
	target := m.stages[id]
	for i, b := range m.blocks {
		if sb, ok := b.(*StageBlock); ok && sb == target {
			return i
		}
	}
	return len(m.blocks)
}

func (m Model) insert(i int, b Block) Model {
	if i > len(m.blocks) {
		i = len(m.blocks)
	}
	blocks := make([]Block, 0, len(m.blocks)+1)
	blocks = append(blocks, m.blocks[:i]...)
	blocks = append(blocks, b)
	blocks = append(blocks, m.blocks[i:]...)
	m.blocks = blocks
	return m
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.Viewport.SetContent(m.renderContent())
}

func (m Model) renderContent() string {
	frame := m.Spinner.View()
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		if sb, ok := block.(*StageBlock); ok && sb.status == StageRunning {
			sb.SetIndicator(frame)
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	if m.report != nil {
		b.WriteString("\n")
		b.WriteString(report.Styled(*m.report, m.reportStyles))
	}
	return b.String()
}

func (m Model) statusLine() string {
	if m.err != nil {
		msg := strings.Join(strings.Fields(Sanitize(m.err.Error())), " ")
		return m.styles.Error.Render(Truncate("Error: "+msg, m.Viewport.Width))
	}
	if m.running {
		return m.styles.Muted.Render("Generating... Tab toggles previews, Ctrl+C cancels")
	}
	return m.styles.Muted.Render("Done. Tab toggles previews, q to quit")
}

// startRun executes the run in a goroutine and signals completion.
func startRun(ctx context.Context, run RunFunc, eventCh chan<- blueprint.Event, doneCh chan<- RunDoneMsg) tea.Cmd {
	return func() tea.Msg {
		r, err := run(ctx, func(e blueprint.Event) {
			select {
			case eventCh <- e:
			case <-ctx.Done():
			}
		})
		doneCh <- RunDoneMsg{Report: r, Err: err}
		close(eventCh)
		return nil
	}
}

// listenForEvent waits for the next event from the channel.
// When the channel closes, it reads the result from doneCh.
func listenForEvent(ch <-chan blueprint.Event, doneCh <-chan RunDoneMsg) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return <-doneCh
		}
		return EventMsg{Event: evt}
	}
}
