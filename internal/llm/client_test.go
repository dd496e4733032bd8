package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pders01/blueprint/internal/models"
)

var testConfig = models.LLMConfig{
	APIKey:      "sk-test",
	Model:       "deepseek-chat",
	MaxTokens:   1024,
	Temperature: 0.3,
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("", 0)
	if c.Endpoint() != DefaultEndpoint {
		t.Errorf("expected default endpoint, got %s", c.Endpoint())
	}
	if c.httpClient.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout, got %v", c.httpClient.Timeout)
	}
}

func TestCompleteSuccess(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("unexpected Authorization header: %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  hello  "}}]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second)
	out, err := c.Complete(context.Background(), "the prompt", "the preamble", testConfig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "  hello  " {
		t.Errorf("expected raw content, got %q", out)
	}

	if got.Model != "deepseek-chat" || got.MaxTokens != 1024 || got.Temperature != 0.3 {
		t.Errorf("unexpected request parameters: %+v", got)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got.Messages))
	}
	if got.Messages[0].Role != "system" || got.Messages[0].Content != "the preamble" {
		t.Errorf("unexpected system message: %+v", got.Messages[0])
	}
	if got.Messages[1].Role != "user" || got.Messages[1].Content != "the prompt" {
		t.Errorf("unexpected user message: %+v", got.Messages[1])
	}
}

func TestCompleteWithoutPreamble(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	if _, err := NewClient(server.URL, time.Second).Complete(context.Background(), "p", "", testConfig); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Errorf("expected a single user message, got %+v", got.Messages)
	}
}

func TestCompleteMissingAPIKey(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	cfg := testConfig
	cfg.APIKey = "   "

	_, err := NewClient(server.URL, time.Second).Complete(context.Background(), "p", "s", cfg)

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("no request should be sent without an api key")
	}
}

func TestCompleteNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, time.Second).Complete(context.Background(), "p", "s", testConfig)

	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if tErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", tErr.StatusCode)
	}
	if !strings.Contains(tErr.Body, "rate limited") {
		t.Errorf("expected body to be kept, got %q", tErr.Body)
	}
	if !strings.Contains(tErr.Error(), "rate limited") {
		t.Errorf("expected body in message, got %q", tErr.Error())
	}
}

func TestCompleteUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url, time.Second).Complete(context.Background(), "p", "s", testConfig)

	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if tErr.StatusCode != 0 || tErr.Err == nil {
		t.Errorf("expected a network failure without status, got %+v", tErr)
	}
}

func TestCompleteTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, 20*time.Millisecond).Complete(context.Background(), "p", "s", testConfig)

	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TransportError on timeout, got %v", err)
	}
}

func TestCompleteEmptyResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no choices", body: `{"choices":[]}`},
		{name: "no message", body: `{"choices":[{}]}`},
		{name: "blank content", body: `{"choices":[{"message":{"content":"  \n"}}]}`},
		{name: "not json", body: `<html>oops</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, time.Second).Complete(context.Background(), "p", "s", testConfig)

			var eErr *EmptyResponseError
			if !errors.As(err, &eErr) {
				t.Fatalf("expected EmptyResponseError, got %v", err)
			}
			if eErr.Body != tt.body {
				t.Errorf("expected body to be kept for diagnosis, got %q", eErr.Body)
			}
		})
	}
}
