package blueprint

// Sink receives labeled text blocks in call order. Implementations append
// label, a blank line, then content, and never rewrite earlier blocks.
type Sink interface {
	Append(content, label string) error
}

// CodeWriter persists generated code, replacing any previous content.
type CodeWriter interface {
	WriteCode(code string) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(content, label string) error

// Append calls f.
func (f SinkFunc) Append(content, label string) error { return f(content, label) }

// CodeWriterFunc adapts a function to CodeWriter.
type CodeWriterFunc func(code string) error

// WriteCode calls f.
func (f CodeWriterFunc) WriteCode(code string) error { return f(code) }
