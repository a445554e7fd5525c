package openrouter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"design-checker/internal/application/port/output"
	"design-checker/internal/domain/entity"
	"design-checker/internal/infrastructure/httpx"

	"github.com/sashabaranov/go-openai"
)

var _ output.LLMPort = (*OpenRouterAdapter)(nil)

var ErrEmptyResponse = errors.New("no choices in response")

type OpenRouterAdapter struct {
	client *openai.Client
	model  string
	logger output.LoggerPort
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Logger  output.LoggerPort
}

func DefaultConfig(apiKey, model string) Config {
	return Config{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: "https://openrouter.ai/api/v1",
	}
}

func NewOpenRouterAdapter(cfg Config) *OpenRouterAdapter {
	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL

	if cfg.Logger != nil {
		config.HTTPClient = &http.Client{
			Transport: &httpx.LoggingTransport{
				Base:      http.DefaultTransport,
				Logger:    cfg.Logger,
				LogBodies: true,
			},
		}
	}

	return &OpenRouterAdapter{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

func (a *OpenRouterAdapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	messages := convertMessages(req.Messages)

	if a.logger != nil {
		totalChars := 0
		for _, msg := range messages {
			totalChars += len(msg.Content)
		}
		a.logger.Debug("Creating chat completion",
			"model", a.model,
			"messagesCount", len(messages),
			"temperature", req.Temperature,
			"totalChars", totalChars)
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	return &output.ChatResponse{
		Message: convertResponseMessage(resp.Choices[0].Message),
	}, nil
}

func convertMessages(messages []entity.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		result = append(result, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return result
}

func convertResponseMessage(msg openai.ChatCompletionMessage) entity.Message {
	content := msg.Content
	if content == "" && len(msg.MultiContent) > 0 {
		var parts []string
		for _, part := range msg.MultiContent {
			if part.Type == openai.ChatMessagePartTypeText {
				parts = append(parts, part.Text)
			}
		}
		content = strings.Join(parts, "")
	}

	return entity.Message{
		Role:    entity.MessageRole(msg.Role),
		Content: content,
	}
}
