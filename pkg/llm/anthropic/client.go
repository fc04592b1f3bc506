// Package anthropic provides an Anthropic completion provider.
//
// It implements the llm.Provider interface on top of the official
// anthropic-sdk-go client. System messages are separated from the
// conversation turns, per the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/veerkamdar007/Shram-Assignment/pkg/llm"
)

// providerName tags errors returned by this client.
const providerName = "anthropic"

// defaultModel is used when no model is configured.
const defaultModel = string(anthropic.ModelClaude3_5SonnetLatest)

// Client is an Anthropic completion client.
// It implements the llm.Provider interface.
type Client struct {
	client anthropic.Client
	model  string
}

// Config is the configuration for the Anthropic provider.
// APIKey: Anthropic API key (required)
// Model: Model name to use, defaults to the latest Claude 3.5 Sonnet
// BaseURL: API base URL (optional, uses the SDK default if empty)
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewClient creates a new Anthropic completion client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &Client{
		client: anthropic.NewClient(opts...),
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
//
// System messages are collected into the request's System field; user and
// assistant messages become conversation turns in order.
//
// Returns the generated text, or a *llm.ProviderError if the call fails.
func (c *Client) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	options := llm.ApplyGenerateOptions(opts)

	var system []anthropic.TextBlockParam
	var turns []anthropic.MessageParam

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case llm.RoleAssistant:
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(options.MaxTokens),
		Messages:    turns,
		Temperature: anthropic.Float(options.Temperature),
		TopP:        anthropic.Float(options.TopP),
	}
	if len(system) > 0 {
		params.System = system
	}
	if len(options.Stop) > 0 {
		params.StopSequences = options.Stop
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", llm.NewProviderError(providerName, err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}

	if text.Len() == 0 {
		return "", llm.NewProviderError(providerName, errors.New("empty response"))
	}

	return text.String(), nil
}

// Close closes the client connection.
// The Anthropic SDK client does not require explicit closing; this method is
// retained for interface compatibility.
func (c *Client) Close() error {
	return nil
}
