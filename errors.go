package blueprint

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request, message or input failed validation.
	ErrValidation = errors.New("validation error")

	// ErrStreamNotReady indicates Message() was called before Next().
	ErrStreamNotReady = errors.New("stream not ready: call Next() first")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")

	// ErrEmptyCode indicates the code stage produced nothing usable.
	ErrEmptyCode = errors.New("generated code is empty")

	// ErrMissingArtifact indicates a stage was reached before one of its
	// declared upstream artifacts was produced.
	ErrMissingArtifact = errors.New("missing upstream artifact")

	// ErrEmptyFile indicates a required input file exists but has no content.
	ErrEmptyFile = errors.New("file is empty")

	// ErrInvalidInput indicates a required input file could not be parsed.
	ErrInvalidInput = errors.New("invalid input file")
)

// StageError wraps a failure of a single pipeline stage. Use errors.Is on the
// wrapped error to tell ErrEmptyCode apart from upstream service failures.
type StageError struct {
	Stage StageID
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
