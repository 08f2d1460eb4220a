package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/blueprint"
	"github.com/fwojciec/blueprint/anthropic"
	"github.com/fwojciec/blueprint/gemini"
	"github.com/fwojciec/blueprint/openai"
)

// modelProvider is a provider that knows the model it defaults to.
type modelProvider interface {
	blueprint.Provider
	Model() string
}

// resolveProvider selects and constructs the provider. All key values are
// passed in as parameters; env is only read by the caller.
func resolveProvider(ctx context.Context, name, model, apiKey, baseURL string, keys apiKeys) (modelProvider, error) {
	// Auto-detect from env keys if no provider was named.
	if name == "" {
		var found []string
		if keys.Gemini != "" {
			found = append(found, "gemini")
		}
		if keys.Anthropic != "" {
			found = append(found, "anthropic")
		}
		if keys.OpenAI != "" {
			found = append(found, "openai")
		}
		switch len(found) {
		case 0:
			return nil, fmt.Errorf("no API key found: set %s, %s or %s (or use --provider and --api-key)",
				envGeminiKey, envAnthropicKey, envOpenAIKey)
		case 1:
			name = found[0]
		default:
			return nil, fmt.Errorf("multiple API keys found (%s): use --provider to select", strings.Join(found, ", "))
		}
	}

	// Explicit flag key overrides env var.
	switch name {
	case "gemini":
		key := firstNonEmpty(apiKey, keys.Gemini)
		if key == "" {
			return nil, fmt.Errorf("%s not set (use --api-key or environment variable)", envGeminiKey)
		}
		var opts []gemini.Option
		if model != "" {
			opts = append(opts, gemini.WithModel(model))
		}
		if baseURL != "" {
			opts = append(opts, gemini.WithBaseURL(baseURL))
		}
		client, err := gemini.New(ctx, key, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "anthropic":
		key := firstNonEmpty(apiKey, keys.Anthropic)
		if key == "" {
			return nil, fmt.Errorf("%s not set (use --api-key or environment variable)", envAnthropicKey)
		}
		var opts []anthropic.Option
		if model != "" {
			opts = append(opts, anthropic.WithModel(model))
		}
		if baseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(baseURL))
		}
		return anthropic.New(key, opts...), nil
	case "openai":
		key := firstNonEmpty(apiKey, keys.OpenAI)
		if key == "" {
			return nil, fmt.Errorf("%s not set (use --api-key or environment variable)", envOpenAIKey)
		}
		var opts []openai.Option
		if model != "" {
			opts = append(opts, openai.WithModel(model))
		}
		if baseURL != "" {
			opts = append(opts, openai.WithBaseURL(baseURL))
		}
		return openai.New(key, opts...), nil
	default:
		return nil, fmt.Errorf("unknown provider %q: must be \"gemini\", \"anthropic\" or \"openai\"", name)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
