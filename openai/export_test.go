package openai

import (
	"context"

	"github.com/fwojciec/blueprint"
	openai "github.com/sashabaranov/go-openai"
)

// ChunkReader exposes chunkReader for testing.
type ChunkReader interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
	Close() error
}

// NewStream exposes newStream for testing.
func NewStream(ctx context.Context, r ChunkReader) blueprint.Stream {
	return newStream(ctx, r)
}
