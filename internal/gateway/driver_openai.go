package gateway

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/promadgenius/qacanvas/control-plane/internal/config"
)

// OpenAIDriver calls the Chat Completions API through the official SDK,
// using its typed request/response types instead of a hand-rolled
// net/http client.
type OpenAIDriver struct {
	client openai.Client
}

func NewOpenAIDriver(apiKey, endpoint string, proxy *config.ProxyConfig) *OpenAIDriver {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if proxy != nil && proxy.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(proxy.BaseURL))
		if proxy.APIKey != "" {
			opts = append(opts, option.WithHeader("Authorization", "Bearer "+proxy.APIKey))
		}
	} else if endpoint != "" {
		opts = append(opts, option.WithBaseURL(endpoint))
	}
	return &OpenAIDriver{client: openai.NewClient(opts...)}
}

func (d *OpenAIDriver) Kind() string { return "openai" }

func (d *OpenAIDriver) GenerateText(ctx context.Context, model, prompt string, opts GenerationOptions) (*TextResult, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if opts.System != "" {
		messages = append(messages, openai.SystemMessage(opts.System))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(opts.MaxTokens))
	}

	completion, err := d.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choices")
	}
	return &TextResult{Text: completion.Choices[0].Message.Content}, nil
}

func (d *OpenAIDriver) StreamText(ctx context.Context, model, prompt string, opts GenerationOptions, onChunk func(StreamChunk) error) error {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if opts.System != "" {
		messages = append(messages, openai.SystemMessage(opts.System))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}

	stream := d.client.Chat.Completions.NewStreaming(ctx, params)
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			if err := onChunk(StreamChunk{Text: chunk.Choices[0].Delta.Content}); err != nil {
				return err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("openai stream: %w", err)
	}
	return onChunk(StreamChunk{Done: true})
}

var (
	_ Driver          = (*OpenAIDriver)(nil)
	_ StreamingDriver = (*OpenAIDriver)(nil)
)
