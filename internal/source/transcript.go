package source

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pders01/blueprint/internal/models"
)

// Transcriber fetches the transcript of a video target
type Transcriber interface {
	Name() string
	Transcript(ctx context.Context, target Target) (string, error)
}

func (a *Adapter) transcript(ctx context.Context, target Target) (string, error) {
	if len(a.Transcribers) == 0 {
		return "", errors.New("no transcript channel configured")
	}

	var errs []error
	for _, t := range a.Transcribers {
		text, err := t.Transcript(ctx, target)
		if err == nil && strings.TrimSpace(text) != "" {
			a.Logger.Debug("transcript fetched", "channel", t.Name(), "chars", len(text))
			return text, nil
		}
		if err == nil {
			err = errors.New("empty transcript")
		}
		a.Logger.Debug("transcript channel failed", "channel", t.Name(), "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))
	}

	return "", fmt.Errorf("transcript not found: %w", errors.Join(errs...))
}

// DefaultTranscriptTool is the MCP tool name for YouTube transcripts
const DefaultTranscriptTool = "get_youtube_video_transcript"

// MCPTranscriber asks an MCP server tool for the transcript
type MCPTranscriber struct {
	Tool    string
	Connect func(ctx context.Context) (*client.Client, error)
}

// NewMCPTranscriber launches command as a stdio MCP server for every fetch
func NewMCPTranscriber(command string, args []string, tool string) *MCPTranscriber {
	if tool == "" {
		tool = DefaultTranscriptTool
	}
	return &MCPTranscriber{
		Tool: tool,
		Connect: func(ctx context.Context) (*client.Client, error) {
			return client.NewStdioMCPClient(command, os.Environ(), args...)
		},
	}
}

func (m *MCPTranscriber) Name() string { return "mcp" }

func (m *MCPTranscriber) Transcript(ctx context.Context, target Target) (string, error) {
	c, err := m.Connect(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to start mcp client: %w", err)
	}
	defer c.Close()

	if err := c.Start(ctx); err != nil {
		return "", fmt.Errorf("failed to start mcp client: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "blueprint", Version: "1.0.0"}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		return "", fmt.Errorf("failed to initialize mcp session: %w", err)
	}

	result, err := c.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      m.Tool,
			Arguments: map[string]any{"url": target.Location},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call %s: %w", m.Tool, err)
	}

	var text strings.Builder
	for _, content := range result.Content {
		if tc, ok := mcp.AsTextContent(content); ok {
			text.WriteString(tc.Text)
		}
	}
	if result.IsError {
		return "", fmt.Errorf("%s returned an error: %s", m.Tool, text.String())
	}

	return transcriptField(text.String()), nil
}

// transcriptField unwraps {"transcript": "..."} payloads and passes plain
// text through.
func transcriptField(s string) string {
	var payload struct {
		Transcript string `json:"transcript"`
	}
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "{") && json.Unmarshal([]byte(trimmed), &payload) == nil {
		return payload.Transcript
	}
	return s
}

// DefaultTimedTextURL is YouTube's caption endpoint
const DefaultTimedTextURL = "https://www.youtube.com/api/timedtext"

// TimedTextTranscriber downloads captions directly from YouTube
type TimedTextTranscriber struct {
	BaseURL    string
	Language   string
	HTTPClient *http.Client
}

// NewTimedTextTranscriber creates the local caption fallback
func NewTimedTextTranscriber(baseURL, language string) *TimedTextTranscriber {
	if baseURL == "" {
		baseURL = DefaultTimedTextURL
	}
	if language == "" {
		language = "en"
	}
	return &TimedTextTranscriber{
		BaseURL:    baseURL,
		Language:   language,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *TimedTextTranscriber) Name() string { return "timedtext" }

type timedText struct {
	Lines []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
}

func (t *TimedTextTranscriber) Transcript(ctx context.Context, target Target) (string, error) {
	if target.Kind != models.SourceVideo {
		return "", fmt.Errorf("%s is not a video", target.Key)
	}

	q := url.Values{}
	q.Set("lang", t.Language)
	q.Set("v", target.Identifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch captions: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read captions: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("captions request failed with status %d", resp.StatusCode)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", errors.New("no captions available")
	}

	var doc timedText
	if err := xml.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("failed to parse captions: %w", err)
	}

	var parts []string
	for _, line := range doc.Lines {
		// captions arrive escaped once more inside the XML text
		text := strings.Join(strings.Fields(html.UnescapeString(line.Text)), " ")
		if text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", errors.New("no captions available")
	}

	return strings.Join(parts, " "), nil
}
