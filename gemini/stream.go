package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/fwojciec/blueprint"
	"google.golang.org/genai"
)

// stream implements [blueprint.Stream] by wrapping the genai SDK's streaming
// iterator. Each response chunk may carry several parts; their events are
// queued and handed out one per Next call.
type stream struct {
	ctx     context.Context
	pull    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	state   blueprint.StreamState
	msg     blueprint.AssistantMessage
	pending []blueprint.Event
	reason  genai.FinishReason
	err     error
}

// Interface compliance check.
var _ blueprint.Stream = (*stream)(nil)

// NewStreamFromIter wraps a genai response iterator into a [blueprint.Stream].
func NewStreamFromIter(ctx context.Context, seq iter.Seq2[*genai.GenerateContentResponse, error]) blueprint.Stream {
	next, stop := iter.Pull2(seq)
	return &stream{
		ctx:   ctx,
		pull:  next,
		stop:  stop,
		state: blueprint.StreamStateNew,
	}
}

func (s *stream) Next() (blueprint.Event, error) {
	switch s.state {
	case blueprint.StreamStateComplete:
		return nil, io.EOF
	case blueprint.StreamStateError:
		return nil, s.err
	case blueprint.StreamStateClosed:
		return nil, blueprint.ErrStreamClosed
	}
	for {
		if len(s.pending) > 0 {
			evt := s.pending[0]
			s.pending = s.pending[1:]
			s.state = blueprint.StreamStateStreaming
			return evt, nil
		}
		if err := s.ctx.Err(); err != nil {
			return nil, s.fail(err, blueprint.StopAborted)
		}
		resp, err, ok := s.pull()
		if !ok {
			s.finish()
			return nil, io.EOF
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, s.fail(err, blueprint.StopAborted)
			}
			return nil, s.fail(err, blueprint.StopError)
		}
		if err := s.handle(resp); err != nil {
			return nil, s.fail(err, blueprint.StopError)
		}
	}
}

func (s *stream) handle(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return nil
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	if u := resp.UsageMetadata; u != nil {
		s.msg.Usage = blueprint.Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount + u.ThoughtsTokenCount),
		}
		s.msg.UsageReported = true
	}
	if len(resp.Candidates) == 0 {
		return nil
	}
	cand := resp.Candidates[0]
	if cand.FinishReason != "" {
		s.reason = cand.FinishReason
	}
	if cand.Content == nil {
		return nil
	}
	for _, part := range cand.Content.Parts {
		if part == nil || part.Text == "" {
			continue
		}
		s.pending = append(s.pending, s.appendText(part.Text, part.Thought))
	}
	return nil
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
	switch s.reason {
	case "", genai.FinishReasonStop:
		s.msg.StopReason = blueprint.StopEndTurn
		s.msg.RawStopReason = string(s.reason)
		if s.reason == "" {
			s.msg.RawStopReason = "end_turn"
		}
	case genai.FinishReasonMaxTokens:
		s.msg.StopReason = blueprint.StopLength
		s.msg.RawStopReason = string(s.reason)
	default:
		s.msg.StopReason = blueprint.StopUnknown
		s.msg.RawStopReason = string(s.reason)
	}
}

func (s *stream) fail(err error, reason blueprint.StopReason) error {
	s.state = blueprint.StreamStateError
	s.err = fmt.Errorf("gemini: %w", err)
	s.msg.StopReason = reason
	s.msg.RawStopReason = string(reason)
	return s.err
}

func (s *stream) State() blueprint.StreamState {
	return s.state
}

func (s *stream) Message() (blueprint.AssistantMessage, error) {
	if s.state == blueprint.StreamStateNew {
		return blueprint.AssistantMessage{}, blueprint.ErrStreamNotReady
	}
	return s.msg, nil
}

func (s *stream) Close() error {
	if s.state != blueprint.StreamStateComplete && s.state != blueprint.StreamStateError {
		s.state = blueprint.StreamStateClosed
		s.msg.StopReason = blueprint.StopAborted
		s.msg.RawStopReason = "aborted"
	}
	s.stop()
	return nil
}
