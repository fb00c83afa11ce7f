package gateway

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/promadgenius/qacanvas/control-plane/internal/config"
)

// AnthropicDriver calls the Anthropic Messages API through the official
// SDK, using its typed request/response types instead of a hand-rolled
// net/http client.
type AnthropicDriver struct {
	client anthropic.Client
}

func NewAnthropicDriver(apiKey, endpoint string, proxy *config.ProxyConfig) *AnthropicDriver {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if proxy != nil && proxy.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(proxy.BaseURL))
		if proxy.APIKey != "" {
			opts = append(opts, option.WithHeader("Authorization", "Bearer "+proxy.APIKey))
		}
	} else if endpoint != "" {
		opts = append(opts, option.WithBaseURL(endpoint))
	}
	return &AnthropicDriver{client: anthropic.NewClient(opts...)}
}

func (d *AnthropicDriver) Kind() string { return "anthropic" }

func (d *AnthropicDriver) GenerateText(ctx context.Context, model, prompt string, opts GenerationOptions) (*TextResult, error) {
	maxTokens := int64(opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if opts.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: opts.System}}
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}

	msg, err := d.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	text := ""
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return &TextResult{Text: text}, nil
}

func (d *AnthropicDriver) StreamText(ctx context.Context, model, prompt string, opts GenerationOptions, onChunk func(StreamChunk) error) error {
	maxTokens := int64(opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if opts.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: opts.System}}
	}

	stream := d.client.Messages.NewStreaming(ctx, params)
	for stream.Next() {
		event := stream.Current()
		if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if delta.Delta.Text != "" {
				if err := onChunk(StreamChunk{Text: delta.Delta.Text}); err != nil {
					return err
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("anthropic stream: %w", err)
	}
	return onChunk(StreamChunk{Done: true})
}

var (
	_ Driver          = (*AnthropicDriver)(nil)
	_ StreamingDriver = (*AnthropicDriver)(nil)
)
