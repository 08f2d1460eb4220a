package blueprint

// Output is what a stage function returns: anything with a content accessor.
type Output interface {
	Text() string
}

// UsageReporter is implemented by outputs that carry token accounting.
type UsageReporter interface {
	TokenUsage() (Usage, bool)
}

// Text is bare stage content without usage data.
type Text string

// Text implements Output.
func (t Text) Text() string { return string(t) }

// StageResult is the normalized output of a stage invocation.
type StageResult struct {
	Content       string
	Usage         Usage
	UsageReported bool
}

// NewStageResult adapts any Output into a StageResult. Outputs that do not
// implement UsageReporter, or report no usage, yield zero usage with
// UsageReported unset. A nil output yields empty content.
func NewStageResult(out Output) StageResult {
	if out == nil {
		return StageResult{}
	}
	r := StageResult{Content: out.Text()}
	if ur, ok := out.(UsageReporter); ok {
		if u, ok := ur.TokenUsage(); ok {
			r.Usage = u
			r.UsageReported = true
		}
	}
	return r
}

var _ Output = Text("")
