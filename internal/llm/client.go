// Package llm talks to OpenAI-compatible chat completion endpoints.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pders01/blueprint/internal/models"
)

const (
	// DefaultEndpoint is the DeepSeek chat completion endpoint
	DefaultEndpoint = "https://api.deepseek.com/v1/chat/completions"
	// DefaultTimeout bounds a single request
	DefaultTimeout = 120 * time.Second
)

// Completer performs one prompt/response cycle against a model.
// Implementations do not retry.
type Completer interface {
	Complete(ctx context.Context, prompt, preamble string, cfg models.LLMConfig) (string, error)
}

// Message is a single chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client is a chat completion client
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a client for the given endpoint. A zero timeout uses
// DefaultTimeout.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Endpoint returns the configured endpoint
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Complete sends the preamble as system message and the prompt as user
// message, and returns the raw content of the first choice.
func (c *Client) Complete(ctx context.Context, prompt, preamble string, cfg models.LLMConfig) (string, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return "", &ConfigError{Field: "api key"}
	}
	if cfg.Model == "" {
		return "", &ConfigError{Field: "model"}
	}

	var messages []Message
	if preamble != "" {
		messages = append(messages, Message{Role: "system", Content: preamble})
	}
	messages = append(messages, Message{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{
		Model:       cfg.Model,
		Messages:    messages,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{StatusCode: resp.StatusCode, Status: resp.Status, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &TransportError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(b)}
	}

	var out chatResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return "", &EmptyResponseError{Body: string(b)}
	}
	if len(out.Choices) == 0 || out.Choices[0].Message == nil || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", &EmptyResponseError{Body: string(b)}
	}

	return out.Choices[0].Message.Content, nil
}
