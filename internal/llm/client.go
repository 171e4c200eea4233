// Package llm talks to the hosted chat model.
package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"mindwell/internal/apperr"
)

const serviceName = "llm"

type Request struct {
	SystemPrompt string
	UserPrompt   string
}

type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	// Stream calls onChunk for each piece of the reply in order and returns
	// the accumulated text.
	Stream(ctx context.Context, req Request, onChunk func(chunk string) error) (string, error)
}

type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

type OpenAIClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
}

func NewOpenAIClient(cfg Config) *OpenAIClient {
	clientCfg := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		clientCfg.BaseURL = base
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
		timeout:     timeout,
	}
}

func (c *OpenAIClient) request(req Request, stream bool) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(req.SystemPrompt) != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserPrompt,
	})
	return openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Stream:      stream,
	}
}

// Complete returns the model output verbatim.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, c.request(req, false))
	if err != nil {
		return "", apperr.Upstream(serviceName, err)
	}
	if len(resp.Choices) == 0 {
		return "", apperr.Upstream(serviceName, errors.New("response has no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) Stream(ctx context.Context, req Request, onChunk func(chunk string) error) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stream, err := c.client.CreateChatCompletionStream(ctx, c.request(req, true))
	if err != nil {
		return "", apperr.Upstream(serviceName, err)
	}
	defer stream.Close()

	var reply strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return reply.String(), nil
		}
		if err != nil {
			return reply.String(), apperr.Upstream(serviceName, err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		chunk := resp.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}
		reply.WriteString(chunk)
		if err := onChunk(chunk); err != nil {
			return reply.String(), err
		}
	}
}

// Unavailable is used when no API key is configured; every call fails as an
// upstream error so callers fall back to their recovery message.
type Unavailable struct {
	Reason string
}

func (u Unavailable) Complete(context.Context, Request) (string, error) {
	return "", apperr.Upstream(serviceName, errors.New(u.Reason))
}

func (u Unavailable) Stream(context.Context, Request, func(string) error) (string, error) {
	return "", apperr.Upstream(serviceName, errors.New(u.Reason))
}
