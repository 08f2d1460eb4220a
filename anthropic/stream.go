package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/blueprint"
)

// maxLineSize bounds a single SSE line. Large structure documents arrive as
// many small deltas, so this only guards against a misbehaving server.
const maxLineSize = 1 << 20

// stream implements [blueprint.Stream] by parsing SSE events from an HTTP
// response body.
type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	ctx     context.Context
	state   blueprint.StreamState
	msg     blueprint.AssistantMessage
	blocks  map[int]*blockState
	err     error // terminal error, if any
}

// blockState tracks the state of a content block being assembled.
type blockState struct {
	blockType string
	buf       strings.Builder
}

// Interface compliance check.
var _ blueprint.Stream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser) *stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &stream{
		body:    body,
		scanner: scanner,
		ctx:     ctx,
		state:   blueprint.StreamStateNew,
		blocks:  make(map[int]*blockState),
	}
}

// Next reads the next semantic event from the SSE stream.
// Returns io.EOF when the stream completes normally.
func (s *stream) Next() (blueprint.Event, error) {
	switch s.state {
	case blueprint.StreamStateComplete:
		return nil, io.EOF
	case blueprint.StreamStateError:
		return nil, s.err
	case blueprint.StreamStateClosed:
		return nil, fmt.Errorf("anthropic: %w", blueprint.ErrStreamClosed)
	}

	for {
		eventType, data, err := s.readSSEEvent()
		if err != nil {
			s.terminate(err)
			return nil, s.err
		}

		s.state = blueprint.StreamStateStreaming

		evt, err := s.processEvent(eventType, data)
		if err != nil {
			s.terminate(err)
			return nil, s.err
		}

		// processEvent may set a terminal state (e.g. message_stop).
		if s.state == blueprint.StreamStateComplete {
			return nil, io.EOF
		}

		if evt != nil {
			return evt, nil
		}
	}
}

// State returns the current stream state.
func (s *stream) State() blueprint.StreamState {
	return s.state
}

// Message returns the assembled AssistantMessage.
func (s *stream) Message() (blueprint.AssistantMessage, error) {
	if s.state == blueprint.StreamStateNew {
		return blueprint.AssistantMessage{}, fmt.Errorf("anthropic: %w", blueprint.ErrStreamNotReady)
	}
	return s.msg, nil
}

// Close closes the underlying HTTP response body.
func (s *stream) Close() error {
	if s.state != blueprint.StreamStateComplete && s.state != blueprint.StreamStateError {
		s.state = blueprint.StreamStateClosed
		s.msg.StopReason = blueprint.StopAborted
		s.msg.RawStopReason = "aborted"
	}
	return s.body.Close()
}

// terminate records a terminal error and sets the appropriate state and stop reason.
func (s *stream) terminate(err error) {
	s.state = blueprint.StreamStateError
	if err == io.EOF {
		// message_stop sets StreamStateComplete before we get here, so a raw
		// EOF means the connection dropped.
		s.err = fmt.Errorf("anthropic: unexpected end of stream")
		s.msg.StopReason = blueprint.StopError
		s.msg.RawStopReason = "error"
		return
	}
	s.err = err
	if s.ctx.Err() != nil {
		s.msg.StopReason = blueprint.StopAborted
		s.msg.RawStopReason = "aborted"
	} else {
		s.msg.StopReason = blueprint.StopError
		s.msg.RawStopReason = "error"
	}
}

// readSSEEvent reads lines until a complete SSE event is assembled.
// Returns the event type and the data payload.
func (s *stream) readSSEEvent() (string, string, error) {
	var eventType string
	var dataBuf strings.Builder

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			if dataBuf.Len() > 0 {
				return eventType, dataBuf.String(), nil
			}
			continue
		}

		if strings.HasPrefix(line, "event: ") {
			eventType = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			if dataBuf.Len() > 0 {
				dataBuf.WriteByte('\n')
			}
			dataBuf.WriteString(strings.TrimPrefix(line, "data: "))
		}
		// Comments (lines starting with ':') and unknown fields are ignored.
	}

	if err := s.scanner.Err(); err != nil {
		return "", "", fmt.Errorf("anthropic: %w", err)
	}

	if dataBuf.Len() > 0 {
		return eventType, dataBuf.String(), nil
	}
	return "", "", io.EOF
}

// processEvent maps an SSE event to a semantic blueprint.Event.
// Returns nil event for non-semantic events (ping, message_start, etc.).
func (s *stream) processEvent(eventType, data string) (blueprint.Event, error) {
	switch eventType {
	case "message_start":
		return nil, s.handleMessageStart(data)
	case "content_block_start":
		return nil, s.handleContentBlockStart(data)
	case "content_block_delta":
		return s.handleContentBlockDelta(data)
	case "message_delta":
		return nil, s.handleMessageDelta(data)
	case "message_stop":
		s.state = blueprint.StreamStateComplete
		return nil, nil
	case "error":
		return nil, s.handleError(data)
	default:
		// ping, content_block_stop and unknown event types.
		return nil, nil
	}
}

func (s *stream) handleMessageStart(data string) error {
	var evt sseMessageStart
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return fmt.Errorf("anthropic: failed to parse message_start: %w", err)
	}
	s.msg.Usage.InputTokens = evt.Message.Usage.InputTokens
	s.msg.Usage.OutputTokens = evt.Message.Usage.OutputTokens
	s.msg.UsageReported = true
	return nil
}

func (s *stream) handleContentBlockStart(data string) error {
	var evt sseContentBlockStart
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return fmt.Errorf("anthropic: failed to parse content_block_start: %w", err)
	}

	bs := &blockState{blockType: evt.ContentBlock.Type}
	s.blocks[evt.Index] = bs

	for len(s.msg.Content) <= evt.Index {
		s.msg.Content = append(s.msg.Content, blueprint.TextBlock{})
	}

	switch evt.ContentBlock.Type {
	case "thinking":
		bs.buf.WriteString(evt.ContentBlock.Thinking)
		s.msg.Content[evt.Index] = blueprint.ThinkingBlock{Thinking: bs.buf.String()}
	default:
		bs.buf.WriteString(evt.ContentBlock.Text)
		s.msg.Content[evt.Index] = blueprint.TextBlock{Text: bs.buf.String()}
	}
	return nil
}

func (s *stream) handleContentBlockDelta(data string) (blueprint.Event, error) {
	var evt sseContentBlockDelta
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return nil, fmt.Errorf("anthropic: failed to parse content_block_delta: %w", err)
	}

	bs := s.blocks[evt.Index]
	if bs == nil {
		return nil, fmt.Errorf("anthropic: delta for unknown block index %d", evt.Index)
	}

	switch evt.Delta.Type {
	case "text_delta":
		bs.buf.WriteString(evt.Delta.Text)
		s.msg.Content[evt.Index] = blueprint.TextBlock{Text: bs.buf.String()}
		return blueprint.EventTextDelta{Index: evt.Index, Delta: evt.Delta.Text}, nil
	case "thinking_delta":
		bs.buf.WriteString(evt.Delta.Thinking)
		s.msg.Content[evt.Index] = blueprint.ThinkingBlock{Thinking: bs.buf.String()}
		return blueprint.EventThinkingDelta{Index: evt.Index, Delta: evt.Delta.Thinking}, nil
	default:
		// signature_delta and unknown delta types.
		return nil, nil
	}
}

func (s *stream) handleMessageDelta(data string) error {
	var evt sseMessageDelta
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return fmt.Errorf("anthropic: failed to parse message_delta: %w", err)
	}

	s.msg.Usage.OutputTokens = evt.Usage.OutputTokens
	if evt.Usage.InputTokens != nil {
		s.msg.Usage.InputTokens = *evt.Usage.InputTokens
	}

	if evt.Delta.StopReason != nil {
		s.msg.RawStopReason = *evt.Delta.StopReason
		s.msg.StopReason = mapStopReason(*evt.Delta.StopReason)
	}
	return nil
}

func (s *stream) handleError(data string) error {
	var evt sseError
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return fmt.Errorf("anthropic: failed to parse error event: %w", err)
	}
	return fmt.Errorf("anthropic: %s: %s", evt.Error.Type, evt.Error.Message)
}

func mapStopReason(raw string) blueprint.StopReason {
	switch raw {
	case "end_turn", "stop_sequence":
		return blueprint.StopEndTurn
	case "max_tokens":
		return blueprint.StopLength
	default:
		return blueprint.StopUnknown
	}
}
