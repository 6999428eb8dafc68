package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const classifySystemPrompt = "You are an intent classifier for a maps assistant. " +
	"Answer with a single JSON object and nothing else."

const generateSystemPrompt = "You are a helpful maps assistant. You can search for places, " +
	"get directions, find coordinates for addresses, and generate map images. " +
	"Answer general questions briefly and steer the user toward location-related help."

// Config describes the OpenAI-compatible chat completion endpoint.
type Config struct {
	BaseURL     string        `envconfig:"BASE_URL"`
	APIKey      string        `envconfig:"API_KEY" required:"true"`
	Model       string        `envconfig:"MODEL" default:"gpt-4o-mini"`
	MaxTokens   int64         `envconfig:"MAX_TOKENS" default:"600"`
	Temperature float64       `envconfig:"TEMPERATURE" default:"0.7"`
	Timeout     time.Duration `envconfig:"TIMEOUT" default:"30s"`
}

// OpenAI implements Client over the chat completions API. Any
// OpenAI-compatible endpoint works via BaseURL.
type OpenAI struct {
	client      *openai.Client
	model       string
	maxTokens   int64
	temperature float64
	timeout     time.Duration
}

// NewOpenAI builds the collaborator client from config.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("llm: api key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if trimmed := strings.TrimRight(cfg.BaseURL, "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}

	client := openai.NewClient(opts...)
	return &OpenAI{
		client:      &client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
	}, nil
}

func (c *OpenAI) Classify(ctx context.Context, prompt string) (string, error) {
	// Temperature 0 keeps classification deterministic.
	return c.complete(ctx, classifySystemPrompt, prompt, 0)
}

func (c *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, generateSystemPrompt, prompt, c.temperature)
}

func (c *OpenAI) complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxTokens:   openai.Int(c.maxTokens),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
