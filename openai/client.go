package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"

	"github.com/fwojciec/blueprint"
	openai "github.com/sashabaranov/go-openai"
)

// Interface compliance check.
var _ blueprint.Provider = (*Client)(nil)

// Client implements [blueprint.Provider] on top of go-openai.
type Client struct {
	client *openai.Client
	model  string
}

// Option configures a [Client].
type Option func(*config)

type config struct {
	model   string
	baseURL string
}

// WithModel sets the model used when a request does not name one.
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint, including
// the version prefix (e.g. "http://localhost:8080/v1").
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// New creates a new OpenAI [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	cfg := config{model: defaultModel}
	for _, o := range opts {
		o(&cfg)
	}
	oc := openai.DefaultConfig(apiKey)
	if cfg.baseURL != "" {
		oc.BaseURL = cfg.baseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(oc),
		model:  cfg.model,
	}
}

// Model returns the model used when a request does not name one.
func (c *Client) Model() string { return c.model }

// Stream sends a streaming chat completion request and returns a
// [blueprint.Stream] that emits semantic events.
func (c *Client) Stream(ctx context.Context, req blueprint.Request) (blueprint.Stream, error) {
	s, err := c.client.CreateChatCompletionStream(ctx, c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	return newStream(ctx, s), nil
}

func (c *Client) buildRequest(req blueprint.Request) openai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	out := openai.ChatCompletionRequest{
		Model:               model,
		Messages:            ConvertMessages(req.SystemPrompt, req.Messages),
		MaxCompletionTokens: maxTokens,
		Stream:              true,
		StreamOptions:       &openai.StreamOptions{IncludeUsage: true},
	}
	if req.Temperature != nil {
		out.Temperature = float32(*req.Temperature)
		if out.Temperature == 0 {
			// A zero value is dropped by omitempty.
			out.Temperature = math.SmallestNonzeroFloat32
		}
	}
	return out
}

// ConvertMessages converts blueprint messages to chat completion messages.
// A user message carrying an image is sent as multi-part content with the
// image inlined as a data URL.
func ConvertMessages(system string, msgs []blueprint.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)
	if system != "" {
		result = append(result, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, msg := range msgs {
		switch m := msg.(type) {
		case blueprint.UserMessage:
			result = append(result, userMessage(m))
		case blueprint.AssistantMessage:
			result = append(result, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: m.Text(),
			})
		}
	}
	return result
}

func userMessage(m blueprint.UserMessage) openai.ChatCompletionMessage {
	hasImage := false
	for _, b := range m.Content {
		if _, ok := b.(blueprint.ImageBlock); ok {
			hasImage = true
			break
		}
	}
	if !hasImage {
		var text string
		for _, b := range m.Content {
			if tb, ok := b.(blueprint.TextBlock); ok {
				text += tb.Text
			}
		}
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text}
	}

	parts := make([]openai.ChatMessagePart, 0, len(m.Content))
	for _, b := range m.Content {
		switch bl := b.(type) {
		case blueprint.TextBlock:
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: bl.Text,
			})
		case blueprint.ImageBlock:
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    DataURL(bl),
					Detail: openai.ImageURLDetailAuto,
				},
			})
		}
	}
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: parts}
}

// DataURL encodes an image block as a base64 data URL.
func DataURL(img blueprint.ImageBlock) string {
	return "data:" + img.MimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
