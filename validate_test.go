package blueprint_test

import (
	"testing"

	"github.com/fwojciec/blueprint"
	"github.com/stretchr/testify/assert"
)

func userText(s string) blueprint.UserMessage {
	return blueprint.UserMessage{Content: []blueprint.ContentBlock{blueprint.TextBlock{Text: s}}}
}

func TestRequest_Validate(t *testing.T) {
	t.Parallel()

	temp := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		req     blueprint.Request
		wantErr bool
	}{
		{name: "defaults", req: blueprint.Request{Messages: []blueprint.Message{userText("hello")}}},
		{name: "zero temperature", req: blueprint.Request{Temperature: temp(0)}},
		{name: "max temperature", req: blueprint.Request{Temperature: temp(2)}},
		{name: "negative temperature", req: blueprint.Request{Temperature: temp(-0.1)}, wantErr: true},
		{name: "temperature too high", req: blueprint.Request{Temperature: temp(2.1)}, wantErr: true},
		{name: "negative max tokens", req: blueprint.Request{MaxTokens: -1}, wantErr: true},
		{
			name: "image with text",
			req: blueprint.Request{Messages: []blueprint.Message{blueprint.UserMessage{Content: []blueprint.ContentBlock{
				blueprint.TextBlock{Text: "like this"},
				blueprint.ImageBlock{Data: []byte{0xff, 0xd8}, MimeType: "image/jpeg"},
			}}}},
		},
		{
			name: "image without data",
			req: blueprint.Request{Messages: []blueprint.Message{blueprint.UserMessage{Content: []blueprint.ContentBlock{
				blueprint.ImageBlock{MimeType: "image/png"},
			}}}},
			wantErr: true,
		},
		{
			name: "image without mime type",
			req: blueprint.Request{Messages: []blueprint.Message{blueprint.UserMessage{Content: []blueprint.ContentBlock{
				blueprint.ImageBlock{Data: []byte{1}},
			}}}},
			wantErr: true,
		},
		{
			name: "thinking in user message",
			req: blueprint.Request{Messages: []blueprint.Message{blueprint.UserMessage{Content: []blueprint.ContentBlock{
				blueprint.ThinkingBlock{Thinking: "x"},
			}}}},
			wantErr: true,
		},
		{
			name: "image in assistant message",
			req: blueprint.Request{Messages: []blueprint.Message{blueprint.AssistantMessage{Content: []blueprint.ContentBlock{
				blueprint.ImageBlock{Data: []byte{1}, MimeType: "image/png"},
			}}}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.req.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, blueprint.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}
