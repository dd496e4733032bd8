// Package session answers follow-up requests about the most recent
// blueprint.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pders01/blueprint/internal/llm"
	"github.com/pders01/blueprint/internal/models"
	"github.com/pders01/blueprint/internal/prompt"
)

// DefaultSnippetLength caps the raw content quoted in follow-up prompts
const DefaultSnippetLength = 2000

// State of a follow-up session
type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// Command is the meaning of one line typed during follow-up
type Command int

const (
	CommandQuestion Command = iota
	CommandBack
	CommandExit
	CommandEmpty
)

// ParseCommand recognizes the control tokens. Matching ignores case and
// surrounding whitespace; anything else is a question.
func ParseCommand(input string) Command {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "":
		return CommandEmpty
	case "back":
		return CommandBack
	case "exit", "quit":
		return CommandExit
	default:
		return CommandQuestion
	}
}

// ErrInactive is returned when a question is asked without a blueprint
var ErrInactive = errors.New("no active blueprint: analyze a source first")

// Config holds the follow-up stage settings
type Config struct {
	LLM           models.LLMConfig
	SnippetLength int
	// Format is prompt.FormatJSON or prompt.FormatToon
	Format string
}

// Session keeps the last source and blueprint for follow-up requests
type Session struct {
	completer llm.Completer
	cfg       Config

	state      State
	blob       models.ContentBlob
	blueprint  *models.Blueprint
	serialized string
}

// New creates an idle session
func New(completer llm.Completer, cfg Config) *Session {
	if cfg.SnippetLength <= 0 {
		cfg.SnippetLength = DefaultSnippetLength
	}
	if cfg.Format != prompt.FormatToon {
		cfg.Format = prompt.FormatJSON
	}
	return &Session{completer: completer, cfg: cfg}
}

// State returns the current state
func (s *Session) State() State {
	return s.state
}

// Blueprint returns the active blueprint, nil when idle
func (s *Session) Blueprint() *models.Blueprint {
	return s.blueprint
}

// Activate makes bp the subject of later questions
func (s *Session) Activate(blob models.ContentBlob, bp *models.Blueprint) error {
	if bp == nil {
		return errors.New("cannot activate session without a blueprint")
	}
	serialized, err := prompt.SerializeBlueprint(bp, s.cfg.Format)
	if err != nil {
		return err
	}

	s.blob = blob
	s.blueprint = bp
	s.serialized = serialized
	s.state = Active
	return nil
}

// Reset drops the blueprint and returns to Idle
func (s *Session) Reset() {
	s.blob = models.ContentBlob{}
	s.blueprint = nil
	s.serialized = ""
	s.state = Idle
}

// Answer sends one follow-up request. The prompt carries the beginning of
// the source text and the whole blueprint. A failed call leaves the session
// Active.
func (s *Session) Answer(ctx context.Context, question string) (string, error) {
	if s.state != Active {
		return "", ErrInactive
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", errors.New("empty question")
	}

	p := prompt.FollowUp(snippet(s.blob.Text, s.cfg.SnippetLength), s.serialized, s.cfg.Format, question)
	answer, err := s.completer.Complete(ctx, p, prompt.FollowUpPreamble, s.cfg.LLM)
	if err != nil {
		return "", fmt.Errorf("failed to answer follow-up: %w", err)
	}

	return strings.TrimSpace(answer), nil
}

func snippet(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n])
}
