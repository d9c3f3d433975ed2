// Package generate talks to the external generation service and
// validates what comes back before anything downstream may trust it.
package generate

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/compose"
)

// Client abstracts the generation service so the pipeline can be tested
// without network access.
type Client interface {
	Generate(ctx context.Context, prompt compose.Prompt) (string, error)
}

// Config wires the OpenAI-backed client.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// OpenAIClient implements Client using the official openai-go SDK.
type OpenAIClient struct {
	model   string
	timeout time.Duration
	opts    []option.RequestOption
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient validates the configuration eagerly so a missing key
// surfaces at process start, not on the first request.
func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("generate: %w: api key missing", apperr.ErrNotConfigured)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("generate: %w: model missing", apperr.ErrNotConfigured)
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIClient{model: cfg.Model, timeout: timeout, opts: opts}, nil
}

// Generate runs one chat completion under the configured deadline.
func (c *OpenAIClient) Generate(ctx context.Context, prompt compose.Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client := openai.NewClient(c.opts...)
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("generate: %w", apperr.ErrUpstreamTimeout)
		}
		return "", fmt.Errorf("generate: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("generate: %w: empty choices", apperr.ErrUpstreamContent)
	}
	return resp.Choices[0].Message.Content, nil
}
