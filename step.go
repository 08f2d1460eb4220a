package blueprint

import "time"

// Step is one row of a run's telemetry. TotalTokens and Cost are derived
// from the token counts at record time.
type Step struct {
	Stage        StageID
	Name         string
	Duration     time.Duration
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Cost         float64
}

// Totals aggregates every recorded step.
type Totals struct {
	Duration     time.Duration
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Cost         float64
}

// StepLog is the ordered, append-only telemetry of a single run. It is not
// safe for concurrent use; the driver records from one goroutine.
type StepLog struct {
	pricing Pricing
	steps   []Step
}

// NewStepLog creates an empty StepLog that prices usage with p.
func NewStepLog(p Pricing) *StepLog {
	return &StepLog{pricing: p}
}

// Pricing returns the rates the log prices with.
func (l *StepLog) Pricing() Pricing { return l.pricing }

// Record builds a Step from the given timing and usage and appends it.
func (l *StepLog) Record(stage StageID, name string, d time.Duration, u Usage) Step {
	s := Step{
		Stage:        stage,
		Name:         name,
		Duration:     d,
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		TotalTokens:  u.Total(),
		Cost:         l.pricing.Cost(u),
	}
	l.steps = append(l.steps, s)
	return s
}

// Steps returns a copy of the recorded steps in insertion order.
func (l *StepLog) Steps() []Step {
	out := make([]Step, len(l.steps))
	copy(out, l.steps)
	return out
}

// Len returns the number of recorded steps.
func (l *StepLog) Len() int { return len(l.steps) }

// Totals sums duration, tokens and cost over all steps.
func (l *StepLog) Totals() Totals {
	return SumSteps(l.steps)
}

// SumSteps aggregates steps into Totals.
func SumSteps(steps []Step) Totals {
	var t Totals
	for _, s := range steps {
		t.Duration += s.Duration
		t.InputTokens += s.InputTokens
		t.OutputTokens += s.OutputTokens
		t.TotalTokens += s.TotalTokens
		t.Cost += s.Cost
	}
	return t
}

// Report is the end-of-run view over a step log. Elapsed is wall-clock time
// of the whole run and is smaller than Totals.Duration when stages overlap.
type Report struct {
	RunID     string
	Model     string
	Pricing   Pricing
	StartedAt time.Time
	Elapsed   time.Duration
	Steps     []Step
	Totals    Totals
	Err       string // empty on success
}
