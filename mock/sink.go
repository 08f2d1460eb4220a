package mock

import "github.com/fwojciec/blueprint"

// Interface compliance checks.
var (
	_ blueprint.Sink       = (*Sink)(nil)
	_ blueprint.Sink       = (*Recorder)(nil)
	_ blueprint.CodeWriter = (*CodeWriter)(nil)
)

// Sink is a test double for blueprint.Sink.
type Sink struct {
	AppendFn func(content, label string) error
}

// Append delegates to AppendFn.
func (s *Sink) Append(content, label string) error {
	return s.AppendFn(content, label)
}

// Block is one call recorded by a Recorder.
type Block struct {
	Label   string
	Content string
}

// Recorder is a Sink that keeps every appended block in call order.
// It is not safe for concurrent use.
type Recorder struct {
	Blocks []Block
}

// Append records the block.
func (r *Recorder) Append(content, label string) error {
	r.Blocks = append(r.Blocks, Block{Label: label, Content: content})
	return nil
}

// Labels returns the recorded labels in call order.
func (r *Recorder) Labels() []string {
	labels := make([]string, len(r.Blocks))
	for i, b := range r.Blocks {
		labels[i] = b.Label
	}
	return labels
}

// CodeWriter is a test double for blueprint.CodeWriter.
type CodeWriter struct {
	WriteCodeFn func(code string) error
}

// WriteCode delegates to WriteCodeFn.
func (w *CodeWriter) WriteCode(code string) error {
	return w.WriteCodeFn(code)
}
