package provider

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Backend is one plan-generating model endpoint. The provider treats
// local and remote backends uniformly.
type Backend interface {
	Name() string
	Complete(ctx context.Context, messages []llms.MessageContent) (string, error)
}

type modelBackend struct {
	name  string
	model llms.Model
}

func (b *modelBackend) Name() string { return b.name }

func (b *modelBackend) Complete(ctx context.Context, messages []llms.MessageContent) (string, error) {
	resp, err := b.model.GenerateContent(ctx, messages,
		llms.WithTemperature(0.1),
		llms.WithMaxTokens(1024),
		llms.WithJSONMode(),
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", b.name)
	}
	return resp.Choices[0].Content, nil
}

// NewOllamaBackend connects to a local Ollama server.
func NewOllamaBackend(serverURL, model string) (Backend, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	return &modelBackend{name: fmt.Sprintf("ollama(%s)", model), model: llm}, nil
}

// NewCloudBackend connects to an OpenAI-compatible cloud endpoint
// (OpenRouter by default).
func NewCloudBackend(apiKey, model, baseURL string) (Backend, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return &modelBackend{name: fmt.Sprintf("cloud(%s)", model), model: llm}, nil
}
