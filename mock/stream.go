package mock

import (
	"context"
	"io"

	"github.com/fwojciec/blueprint"
)

// Interface compliance check.
var _ blueprint.Stream = (*Stream)(nil)

// Stream is a test double for blueprint.Stream.
// Set the function fields for the methods you need. NextFn and MessageFn
// panic when nil to catch missing setup. CloseFn and StateFn are nil-safe
// (no-op and zero value) because callers commonly defer stream.Close().
type Stream struct {
	NextFn    func() (blueprint.Event, error)
	StateFn   func() blueprint.StreamState
	MessageFn func() (blueprint.AssistantMessage, error)
	CloseFn   func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (blueprint.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateNew when StateFn is nil.
func (s *Stream) State() blueprint.StreamState {
	if s.StateFn == nil {
		return blueprint.StreamStateNew
	}
	return s.StateFn()
}

// Message delegates to MessageFn.
func (s *Stream) Message() (blueprint.AssistantMessage, error) {
	return s.MessageFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// MessageStream returns a Stream that emits msg's text as a single delta,
// then io.EOF, and finally reports msg from Message.
func MessageStream(msg blueprint.AssistantMessage) *Stream {
	sent := false
	state := blueprint.StreamStateNew
	return &Stream{
		NextFn: func() (blueprint.Event, error) {
			if sent {
				state = blueprint.StreamStateComplete
				return nil, io.EOF
			}
			sent = true
			state = blueprint.StreamStateStreaming
			return blueprint.EventTextDelta{Delta: msg.Text()}, nil
		},
		StateFn: func() blueprint.StreamState { return state },
		MessageFn: func() (blueprint.AssistantMessage, error) {
			return msg, nil
		},
	}
}

// TextProvider returns a Provider whose every stream yields text with usage.
func TextProvider(text string, usage blueprint.Usage) *Provider {
	return &Provider{
		StreamFn: func(_ context.Context, _ blueprint.Request) (blueprint.Stream, error) {
			return MessageStream(blueprint.AssistantMessage{
				Content:    []blueprint.ContentBlock{blueprint.TextBlock{Text: text}},
				StopReason: blueprint.StopEndTurn,
				Usage:      usage,
			}), nil
		},
	}
}
