package openai

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fwojciec/blueprint"
	openai "github.com/sashabaranov/go-openai"
)

// chunkReader is the part of *openai.ChatCompletionStream the stream uses.
type chunkReader interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
	Close() error
}

// stream implements [blueprint.Stream] over a chat completion stream. A
// chunk can carry both reasoning and content deltas; their events are queued
// and handed out one per Next call.
type stream struct {
	ctx     context.Context
	r       chunkReader
	state   blueprint.StreamState
	msg     blueprint.AssistantMessage
	pending []blueprint.Event
	reason  openai.FinishReason
	err     error
}

// Interface compliance check.
var _ blueprint.Stream = (*stream)(nil)

func newStream(ctx context.Context, r chunkReader) *stream {
	return &stream{ctx: ctx, r: r, state: blueprint.StreamStateNew}
}

func (s *stream) Next() (blueprint.Event, error) {
	switch s.state {
	case blueprint.StreamStateComplete:
		return nil, io.EOF
	case blueprint.StreamStateError:
		return nil, s.err
	case blueprint.StreamStateClosed:
		return nil, fmt.Errorf("openai: %w", blueprint.ErrStreamClosed)
	}
	for {
		if len(s.pending) > 0 {
			evt := s.pending[0]
			s.pending = s.pending[1:]
			s.state = blueprint.StreamStateStreaming
			return evt, nil
		}
		chunk, err := s.r.Recv()
		if errors.Is(err, io.EOF) {
			s.finish()
			return nil, io.EOF
		}
		if err != nil {
			return nil, s.fail(err)
		}
		s.handle(chunk)
	}
}

func (s *stream) handle(chunk openai.ChatCompletionStreamResponse) {
	if u := chunk.Usage; u != nil {
		s.msg.Usage = blueprint.Usage{
			InputTokens:  u.PromptTokens,
			OutputTokens: u.CompletionTokens,
		}
		s.msg.UsageReported = true
	}
	if len(chunk.Choices) == 0 {
		return
	}
	choice := chunk.Choices[0]
	if choice.FinishReason != "" {
		s.reason = choice.FinishReason
	}
	if d := choice.Delta.ReasoningContent; d != "" {
		s.pending = append(s.pending, s.appendText(d, true))
	}
	if d := choice.Delta.Content; d != "" {
		s.pending = append(s.pending, s.appendText(d, false))
	}
}

// appendText extends the last block when it has the same kind, otherwise it
// opens a new block. The event index is the block's position.
func (s *stream) appendText(text string, thought bool) blueprint.Event {
	n := len(s.msg.Content)
	if n > 0 {
		switch last := s.msg.Content[n-1].(type) {
		case blueprint.ThinkingBlock:
			if thought {
				last.Thinking += text
				s.msg.Content[n-1] = last
				return blueprint.EventThinkingDelta{Index: n - 1, Delta: text}
			}
		case blueprint.TextBlock:
			if !thought {
				last.Text += text
				s.msg.Content[n-1] = last
				return blueprint.EventTextDelta{Index: n - 1, Delta: text}
			}
		}
	}
	if thought {
		s.msg.Content = append(s.msg.Content, blueprint.ThinkingBlock{Thinking: text})
		return blueprint.EventThinkingDelta{Index: n, Delta: text}
	}
	s.msg.Content = append(s.msg.Content, blueprint.TextBlock{Text: text})
	return blueprint.EventTextDelta{Index: n, Delta: text}
}

func (s *stream) finish() {
	s.state = blueprint.StreamStateComplete
	s.msg.RawStopReason = string(s.reason)
	switch s.reason {
	case openai.FinishReasonStop:
		s.msg.StopReason = blueprint.StopEndTurn
	case "":
		s.msg.StopReason = blueprint.StopEndTurn
		s.msg.RawStopReason = "end_turn"
	case openai.FinishReasonLength:
		s.msg.StopReason = blueprint.StopLength
	default:
		s.msg.StopReason = blueprint.StopUnknown
	}
}

func (s *stream) fail(err error) error {
	s.state = blueprint.StreamStateError
	s.err = fmt.Errorf("openai: %w", err)
	if s.ctx.Err() != nil {
		s.msg.StopReason = blueprint.StopAborted
		s.msg.RawStopReason = "aborted"
	} else {
		s.msg.StopReason = blueprint.StopError
		s.msg.RawStopReason = "error"
	}
	return s.err
}

func (s *stream) State() blueprint.StreamState {
	return s.state
}

func (s *stream) Message() (blueprint.AssistantMessage, error) {
	if s.state == blueprint.StreamStateNew {
		return blueprint.AssistantMessage{}, fmt.Errorf("openai: %w", blueprint.ErrStreamNotReady)
	}
	return s.msg, nil
}

func (s *stream) Close() error {
	if s.state != blueprint.StreamStateComplete && s.state != blueprint.StreamStateError {
		s.state = blueprint.StreamStateClosed
		s.msg.StopReason = blueprint.StopAborted
		s.msg.RawStopReason = "aborted"
	}
	return s.r.Close()
}
