package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// EnvAPIToken is the environment variable holding the OpenAI API credential.
// It is read on every call so the token can be rotated without a restart.
const EnvAPIToken = "OPENAI_API_TOKEN"

var (
	ErrMissingCredential = errors.New("OPENAI_API_TOKEN is not set")
	ErrCompletionFailed  = errors.New("chat completion request failed")
	ErrNoChoices         = errors.New("chat completion returned no choices")
)

// Config holds the summarizer model settings
type Config struct {
	BaseURL     string  // Optional API base URL override
	Model       string  // Chat model name
	MaxTokens   int     // Completion token limit
	Temperature float32 // Sampling temperature
}

// DefaultConfig returns the production model settings
func DefaultConfig() Config {
	return Config{
		Model:       openai.GPT3Dot5Turbo,
		MaxTokens:   512,
		Temperature: 0.7,
	}
}

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client produces summaries via the OpenAI chat completion API
type Client struct {
	config Config
	logger *zap.Logger

	// Overridable in tests
	newCompleter func(token string) chatCompleter
}

// NewClient creates a summarization client
func NewClient(config Config, logger *zap.Logger) *Client {
	c := &Client{
		config: config,
		logger: logger,
	}
	c.newCompleter = c.newOpenAIClient
	return c
}

func (c *Client) newOpenAIClient(token string) chatCompleter {
	cfg := openai.DefaultConfig(token)
	if c.config.BaseURL != "" {
		cfg.BaseURL = c.config.BaseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// Summarize sends the article text to the chat model and returns the summary.
// The credential is read from the environment on every call.
func (c *Client) Summarize(ctx context.Context, requestID, text string) (string, error) {
	token := os.Getenv(EnvAPIToken)
	if token == "" {
		return "", ErrMissingCredential
	}

	req := openai.ChatCompletionRequest{
		Model:            c.config.Model,
		Messages:         BuildMessages(text),
		Temperature:      c.config.Temperature,
		TopP:             1,
		N:                1,
		Stream:           false,
		MaxTokens:        c.config.MaxTokens,
		PresencePenalty:  0,
		FrequencyPenalty: 0,
		Stop:             []string{"\n"},
	}

	start := time.Now()
	resp, err := c.newCompleter(token).CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	choice := resp.Choices[0]

	c.logger.Debug("Chat completion finished",
		zap.String("request_id", requestID),
		zap.String("model", c.config.Model),
		zap.String("finish_reason", string(choice.FinishReason)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("duration", time.Since(start)))

	return choice.Message.Content, nil
}
