// Package pipeline runs one source through acquisition, memory retrieval,
// prompting, model invocation and blueprint extraction.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc"

	"github.com/pders01/blueprint/internal/contextwindow"
	"github.com/pders01/blueprint/internal/extract"
	"github.com/pders01/blueprint/internal/llm"
	"github.com/pders01/blueprint/internal/models"
	"github.com/pders01/blueprint/internal/prompt"
	"github.com/pders01/blueprint/internal/report"
	"github.com/pders01/blueprint/internal/source"
)

// Fetcher produces the content of a classified source
type Fetcher interface {
	Fetch(ctx context.Context, target source.Target) (models.ContentBlob, error)
}

// Memory is the tiered memory store and developer profile
type Memory interface {
	GetRelevantMemory(ctx context.Context, sourceKey string) ([]models.MemoryEntry, error)
	AddMemoryEntry(ctx context.Context, tier models.Tier, kind models.SourceKind, key, summary string) (models.MemoryEntry, error)
	RecordPatterns(ctx context.Context, developer string, patterns []string) error
	Patterns(ctx context.Context, developer string, limit int) ([]string, error)
}

// Config is fixed when the pipeline is built
type Config struct {
	// Summary is used for videos, Repo for repositories and local directories
	Summary           models.LLMConfig
	Repo              models.LLMConfig
	TokenBudget       int
	ExtractionRetries int
	StrictCardinality bool
	OutputDir         string
	DeveloperID       string
	SessionID         string
}

// Stage returns the model parameters for kind
func (c Config) Stage(kind models.SourceKind) models.LLMConfig {
	if kind == models.SourceVideo {
		return c.Summary
	}
	return c.Repo
}

// Outcome is the result of a successful run
type Outcome struct {
	Input     string
	Target    source.Target
	Blob      models.ContentBlob
	Blueprint *models.Blueprint
	// Warnings lists cardinality deviations that did not reject the blueprint
	Warnings []string
	// Attempts counts model invocations, including repairs
	Attempts int
	Memory   []models.MemoryEntry
}

// Pipeline wires the stages together
type Pipeline struct {
	fetcher   Fetcher
	memory    Memory
	completer llm.Completer
	cfg       Config
	logger    *log.Logger
	now       func() time.Time
}

// New creates a pipeline. memory may be nil, in which case runs start
// without memory and nothing is recorded.
func New(fetcher Fetcher, memory Memory, completer llm.Completer, cfg Config, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Pipeline{
		fetcher:   fetcher,
		memory:    memory,
		completer: completer,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Process analyzes one source. Acquisition and memory retrieval run
// concurrently and are joined before the context window is built. A memory
// failure only degrades the prompt; every other failure aborts the run.
func (p *Pipeline) Process(ctx context.Context, input string) (*Outcome, error) {
	target, err := source.Classify(input)
	if err != nil {
		return nil, err
	}

	var (
		blob     models.ContentBlob
		fetchErr error
		entries  []models.MemoryEntry
		patterns []string
	)

	var wg conc.WaitGroup
	wg.Go(func() {
		blob, fetchErr = p.fetcher.Fetch(ctx, target)
	})
	if p.memory != nil {
		wg.Go(func() {
			var memErr error
			entries, memErr = p.memory.GetRelevantMemory(ctx, target.Key)
			if memErr != nil {
				p.logger.Warn("memory unavailable, continuing without it", "key", target.Key, "err", memErr)
				entries = nil
			}
		})
		wg.Go(func() {
			var profErr error
			patterns, profErr = p.memory.Patterns(ctx, p.cfg.DeveloperID, 0)
			if profErr != nil {
				p.logger.Warn("developer profile unavailable", "err", profErr)
				patterns = nil
			}
		})
	}
	wg.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}

	window := contextwindow.Build(entries, blob.Text, p.cfg.TokenBudget)
	p.logger.Debug("context window built", "key", target.Key, "memory", len(entries), "chars", len(window))

	promptText, err := prompt.Render(target.Kind, window)
	if err != nil {
		return nil, err
	}
	preamble := prompt.PreambleWithProfile(target.Kind, patterns)

	bp, attempts, err := p.complete(ctx, promptText, preamble, p.cfg.Stage(target.Kind))
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Input:     input,
		Target:    target,
		Blob:      blob,
		Blueprint: bp,
		Warnings:  extract.Warnings(bp),
		Attempts:  attempts,
		Memory:    entries,
	}, nil
}

// complete invokes the model and extracts the blueprint. Only extraction
// failures are retried; the retry carries a note describing the rejection.
func (p *Pipeline) complete(ctx context.Context, promptText, preamble string, cfg models.LLMConfig) (*models.Blueprint, int, error) {
	validator := extract.Validator{StrictCardinality: p.cfg.StrictCardinality}

	note := ""
	var lastErr error
	for attempt := 1; attempt <= p.cfg.ExtractionRetries+1; attempt++ {
		raw, err := p.completer.Complete(ctx, promptText+note, preamble, cfg)
		if err != nil {
			return nil, attempt, err
		}

		bp, err := validator.Extract(raw)
		if err == nil {
			return bp, attempt, nil
		}

		p.logger.Debug("extraction failed", "attempt", attempt, "kind", Kind(err), "err", err, "raw", extract.RawText(err))
		lastErr = err
		note = prompt.RepairNote(err)
	}

	return nil, p.cfg.ExtractionRetries + 1, lastErr
}

// Record writes the report and feeds the outcome back into memory. It
// returns the report path. Memory failures are logged and do not fail the
// call.
func (p *Pipeline) Record(ctx context.Context, out *Outcome) (string, error) {
	bp := out.Blueprint
	prompts := report.DerivePrompts(bp)

	meta := report.Meta{
		Kind:       out.Target.Kind,
		Source:     out.Input,
		SourceKey:  out.Target.Key,
		Identifier: out.Target.Identifier,
		Commit:     out.Blob.Revision,
		Model:      p.cfg.Stage(out.Target.Kind).Model,
		SessionID:  p.cfg.SessionID,
		Generated:  p.now(),
	}

	path, reportErr := report.Write(p.cfg.OutputDir, meta, bp, prompts)
	if reportErr != nil {
		reportErr = fmt.Errorf("failed to write report: %w", reportErr)
	}

	if p.memory != nil {
		summary := Summarize(out.Target, bp)
		entries := []struct {
			tier    models.Tier
			summary string
		}{
			{models.TierSession, summary},
			{models.TierProject, summary},
			{models.TierGlobal, globalNote(out.Target, bp)},
		}
		for _, e := range entries {
			if e.summary == "" {
				continue
			}
			if _, err := p.memory.AddMemoryEntry(ctx, e.tier, out.Target.Kind, out.Target.Key, e.summary); err != nil {
				p.logger.Warn("failed to store memory entry", "tier", e.tier, "err", err)
			}
		}

		if err := p.memory.RecordPatterns(ctx, p.cfg.DeveloperID, StackPatterns(bp)); err != nil {
			p.logger.Warn("failed to update developer profile", "err", err)
		}
	}

	return path, reportErr
}

const maxSummaryRunes = 240

// Summarize produces the memory line stored for an analyzed source
func Summarize(target source.Target, bp *models.Blueprint) string {
	var parts []string
	if bp.OriginalProjectSummary != nil && bp.OriginalProjectSummary.Purpose != "" {
		parts = append(parts, bp.OriginalProjectSummary.Purpose)
	}
	if bp.SuggestedEnhancedVersion != nil && bp.SuggestedEnhancedVersion.Concept != "" {
		parts = append(parts, "proposed: "+bp.SuggestedEnhancedVersion.Concept)
	}
	s := fmt.Sprintf("Analyzed %s %s", target.Kind, target.Identifier)
	if len(parts) > 0 {
		s += ": " + strings.Join(parts, "; ")
	}
	return clip(s, maxSummaryRunes)
}

func globalNote(target source.Target, bp *models.Blueprint) string {
	if bp.SuggestedEnhancedVersion == nil || len(bp.SuggestedEnhancedVersion.GapAnalysis) == 0 {
		return ""
	}
	return clip(fmt.Sprintf("Gap seen in %s: %s", target.Identifier, bp.SuggestedEnhancedVersion.GapAnalysis[0]), maxSummaryRunes)
}

// StackPatterns reduces tech-stack entries like "Go (for concurrency)" or
// "SQLite: local storage" to their technology names
func StackPatterns(bp *models.Blueprint) []string {
	if bp == nil || bp.SuggestedEnhancedVersion == nil {
		return nil
	}

	var patterns []string
	for _, item := range bp.SuggestedEnhancedVersion.SuggestedTechStack {
		name := item
		if i := strings.IndexAny(name, "(:"); i >= 0 {
			name = name[:i]
		}
		if i := strings.Index(name, " - "); i >= 0 {
			name = name[:i]
		}
		if i := strings.Index(name, " for "); i >= 0 {
			name = name[:i]
		}
		name = strings.TrimSpace(name)
		if name != "" && len([]rune(name)) <= 40 {
			patterns = append(patterns, name)
		}
	}
	return patterns
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// Kind names the failure class of err for display
func Kind(err error) string {
	var (
		configErr    *llm.ConfigError
		transportErr *llm.TransportError
		emptyErr     *llm.EmptyResponseError
		noJSONErr    *extract.NoJSONFoundError
		malformedErr *extract.MalformedJSONError
		schemaErr    *extract.SchemaViolationError
		acquireErr   *source.AcquisitionError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &configErr):
		return "ConfigError"
	case errors.As(err, &transportErr):
		return "TransportError"
	case errors.As(err, &emptyErr):
		return "EmptyResponseError"
	case errors.As(err, &noJSONErr):
		return "NoJsonFoundError"
	case errors.As(err, &malformedErr):
		return "MalformedJsonError"
	case errors.As(err, &schemaErr):
		return "SchemaViolationError"
	case errors.As(err, &acquireErr):
		return "AcquisitionError"
	case errors.Is(err, context.Canceled):
		return "Canceled"
	default:
		return "Error"
	}
}
