// Package ollama runs blueprint prompts against a local Ollama server.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/pders01/blueprint/internal/llm"
	"github.com/pders01/blueprint/internal/models"
)

// DefaultURL is the default Ollama API endpoint
const DefaultURL = "http://localhost:11434"

// Client wraps the Ollama API client
type Client struct {
	client *api.Client
}

// NewClient creates a client for the Ollama server at rawURL. A nil
// httpClient uses one with llm.DefaultTimeout.
func NewClient(rawURL string, httpClient *http.Client) (*Client, error) {
	if rawURL == "" {
		rawURL = DefaultURL
	}
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ollama url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: llm.DefaultTimeout}
	}

	return &Client{client: api.NewClient(base, httpClient)}, nil
}

// IsAvailable checks if Ollama is running and accessible
func IsAvailable(url string) bool {
	if url == "" {
		url = DefaultURL
	}

	// Try to connect with a short timeout
	client := &http.Client{
		Timeout: 2 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Complete sends one non-streaming chat request. Ollama needs no credential,
// so cfg.APIKey is ignored.
func (c *Client) Complete(ctx context.Context, prompt, preamble string, cfg models.LLMConfig) (string, error) {
	if cfg.Model == "" {
		return "", &llm.ConfigError{Field: "model"}
	}

	var messages []api.Message
	if preamble != "" {
		messages = append(messages, api.Message{Role: "system", Content: preamble})
	}
	messages = append(messages, api.Message{Role: "user", Content: prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    cfg.Model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": cfg.Temperature,
		},
	}
	if cfg.MaxTokens > 0 {
		req.Options["num_predict"] = cfg.MaxTokens
	}

	var content strings.Builder
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return "", &llm.TransportError{
				StatusCode: statusErr.StatusCode,
				Status:     statusErr.Status,
				Body:       statusErr.ErrorMessage,
			}
		}
		return "", &llm.TransportError{Err: err}
	}

	if strings.TrimSpace(content.String()) == "" {
		return "", &llm.EmptyResponseError{}
	}
	return content.String(), nil
}

// CheckModel checks if the specified model is available
func (c *Client) CheckModel(ctx context.Context, model string) error {
	listResp, err := c.client.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	for _, m := range listResp.Models {
		if m.Name == model || m.Model == model || strings.TrimSuffix(m.Name, ":latest") == model {
			return nil
		}
	}

	return fmt.Errorf("model '%s' not found - run: ollama pull %s", model, model)
}
