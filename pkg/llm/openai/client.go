// Package openai provides an OpenAI-compatible completion provider.
//
// Besides the official OpenAI API, any chat-completion endpoint speaking the
// same protocol (DeepSeek, DashScope compatible mode, vLLM, etc.) can be used
// by setting BaseURL.
package openai

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/veerkamdar007/Shram-Assignment/pkg/llm"
)

// providerName tags errors returned by this client.
const providerName = "openai"

// Client is an OpenAI completion client.
// It implements the llm.Provider interface.
type Client struct {
	client *openai.Client
	model  string
}

// Config is the configuration for the OpenAI provider.
// APIKey: API key (required)
// Model: Model name to use, defaults to "gpt-3.5-turbo"
// BaseURL: API base URL, defaults to the official OpenAI address
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewClient creates a new OpenAI completion client.
//
// Args:
//   - cfg: Configuration containing APIKey, Model, and BaseURL
//
// Returns:
//   - *Client: Client instance
//   - error: Returns an error if the configuration is invalid
func NewClient(cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// Generate generates text based on a single prompt.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	messages := []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	}
	return c.GenerateWithMessages(ctx, messages, opts...)
}

// GenerateWithMessages generates text using message history.
// Supports multi-turn conversations and accepts complete message history
// (including system, user, and assistant messages).
//
// Args:
//   - ctx: Context for controlling the request lifecycle
//   - messages: Message history, each message contains role and content
//   - opts: Optional generation parameters (temperature, max_tokens, top_p)
//
// Returns:
//   - string: Generated text content
//   - error: A *llm.ProviderError if the call fails
func (c *Client) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	options := llm.ApplyGenerateOptions(opts)

	// Convert message format
	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chatMessages,
		Temperature: float32(options.Temperature),
		MaxTokens:   options.MaxTokens,
		TopP:        float32(options.TopP),
		Stop:        options.Stop,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", llm.NewProviderError(providerName, err)
	}

	if len(resp.Choices) == 0 {
		return "", llm.NewProviderError(providerName, errors.New("no choices returned"))
	}

	return resp.Choices[0].Message.Content, nil
}

// Close closes the client connection.
// The OpenAI SDK client does not require explicit closing; this method is
// retained for interface compatibility.
func (c *Client) Close() error {
	return nil
}
