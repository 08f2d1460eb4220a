package blueprint_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/fwojciec/blueprint"
	"github.com/fwojciec/blueprint/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamState_ZeroValue(t *testing.T) {
	t.Parallel()
	var s blueprint.StreamState
	assert.Equal(t, blueprint.StreamStateNew, s)
}

func TestCollect(t *testing.T) {
	t.Parallel()

	t.Run("drains stream into message", func(t *testing.T) {
		t.Parallel()
		p := mock.TextProvider("Living,Kitchen", blueprint.Usage{InputTokens: 40, OutputTokens: 3})
		msg, err := blueprint.Collect(context.Background(), p, blueprint.Request{
			Messages: []blueprint.Message{userText("modules?")},
		})
		require.NoError(t, err)
		assert.Equal(t, "Living,Kitchen", msg.Text())
		assert.Equal(t, blueprint.Usage{InputTokens: 40, OutputTokens: 3}, msg.Usage)
	})

	t.Run("invalid request never reaches provider", func(t *testing.T) {
		t.Parallel()
		p := &mock.Provider{}
		_, err := blueprint.Collect(context.Background(), p, blueprint.Request{MaxTokens: -5})
		assert.ErrorIs(t, err, blueprint.ErrValidation)
	})

	t.Run("provider error", func(t *testing.T) {
		t.Parallel()
		wantErr := errors.New("quota exceeded")
		p := &mock.Provider{
			StreamFn: func(ctx context.Context, req blueprint.Request) (blueprint.Stream, error) {
				return nil, wantErr
			},
		}
		_, err := blueprint.Collect(context.Background(), p, blueprint.Request{})
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("mid-stream error discards partial output", func(t *testing.T) {
		t.Parallel()
		wantErr := errors.New("connection reset")
		closed := false
		calls := 0
		s := &mock.Stream{
			NextFn: func() (blueprint.Event, error) {
				calls++
				if calls == 1 {
					return blueprint.EventTextDelta{Delta: "part"}, nil
				}
				return nil, wantErr
			},
			MessageFn: func() (blueprint.AssistantMessage, error) {
				return blueprint.AssistantMessage{Content: []blueprint.ContentBlock{blueprint.TextBlock{Text: "part"}}}, nil
			},
			CloseFn: func() error {
				closed = true
				return nil
			},
		}
		p := &mock.Provider{
			StreamFn: func(ctx context.Context, req blueprint.Request) (blueprint.Stream, error) {
				return s, nil
			},
		}
		msg, err := blueprint.Collect(context.Background(), p, blueprint.Request{})
		assert.ErrorIs(t, err, wantErr)
		assert.Empty(t, msg.Text())
		assert.True(t, closed)
	})

	t.Run("empty stream", func(t *testing.T) {
		t.Parallel()
		p := &mock.Provider{
			StreamFn: func(ctx context.Context, req blueprint.Request) (blueprint.Stream, error) {
				return &mock.Stream{
					NextFn:    func() (blueprint.Event, error) { return nil, io.EOF },
					MessageFn: func() (blueprint.AssistantMessage, error) { return blueprint.AssistantMessage{}, nil },
				}, nil
			},
		}
		msg, err := blueprint.Collect(context.Background(), p, blueprint.Request{})
		require.NoError(t, err)
		assert.Empty(t, msg.Text())
	})
}
