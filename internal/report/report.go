// Package report renders a blueprint as Markdown, derives coding-agent
// prompts from it, and writes the result to disk.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pders01/blueprint/internal/models"
)

// Meta describes the run that produced a blueprint
type Meta struct {
	Kind       models.SourceKind `yaml:"kind"`
	Source     string            `yaml:"source"`
	SourceKey  string            `yaml:"source_key"`
	Identifier string            `yaml:"-"`
	Commit     string            `yaml:"commit,omitempty"`
	Model      string            `yaml:"model,omitempty"`
	SessionID  string            `yaml:"session_id,omitempty"`
	Generated  time.Time         `yaml:"generated"`
}

// DerivePrompts turns a blueprint into an ordered list of instructions
// for a coding agent
func DerivePrompts(bp *models.Blueprint) []string {
	if bp == nil || bp.SuggestedEnhancedVersion == nil {
		return nil
	}
	ev := bp.SuggestedEnhancedVersion

	var prompts []string
	if bp.OriginalProjectSummary != nil && bp.OriginalProjectSummary.Purpose != "" {
		prompts = append(prompts, fmt.Sprintf("Study the original project: %s", bp.OriginalProjectSummary.Purpose))
	}
	if ev.Concept != "" {
		p := fmt.Sprintf("Set up the enhanced project: %s", ev.Concept)
		if len(ev.SuggestedTechStack) > 0 {
			p += fmt.Sprintf(" Use this stack: %s.", strings.Join(ev.SuggestedTechStack, "; "))
		}
		prompts = append(prompts, p)
	}
	if len(ev.CriticalFilesToCreateOrModify) > 0 {
		prompts = append(prompts, fmt.Sprintf("Create or modify these files: %s", strings.Join(ev.CriticalFilesToCreateOrModify, ", ")))
	}

	for _, e := range ev.KeyEnhancements {
		for i, step := range e.ActionableStepsForCodingAgent {
			prompts = append(prompts, fmt.Sprintf("[%s] Step %d: %s", e.EnhancementTitle, i+1, step))
		}
	}

	if len(ev.GapAnalysis) > 0 {
		prompts = append(prompts, fmt.Sprintf("After implementing, check that these gaps are closed: %s", strings.Join(ev.GapAnalysis, "; ")))
	} else {
		prompts = append(prompts, "After implementing, suggest improvements or extensions to the project.")
	}

	return prompts
}

// Markdown renders the report with YAML front matter
func Markdown(meta Meta, bp *models.Blueprint, prompts []string) (string, error) {
	front, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to marshal front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(front)
	b.WriteString("---\n\n")

	title := meta.Identifier
	if title == "" {
		title = meta.Source
	}
	fmt.Fprintf(&b, "# Blueprint: %s\n\n", title)

	if s := bp.OriginalProjectSummary; s != nil {
		b.WriteString("## Original Project\n\n")
		fmt.Fprintf(&b, "**Purpose:** %s\n\n", s.Purpose)
		list(&b, "Core Mechanics", s.CoreMechanics)
	}

	if ev := bp.SuggestedEnhancedVersion; ev != nil {
		b.WriteString("## Suggested Enhanced Version\n\n")
		fmt.Fprintf(&b, "**Concept:** %s\n\n", ev.Concept)

		if len(ev.KeyEnhancements) > 0 {
			b.WriteString("### Key Enhancements\n\n")
			for i, e := range ev.KeyEnhancements {
				fmt.Fprintf(&b, "#### %d. %s\n\n", i+1, e.EnhancementTitle)
				if e.Description != "" {
					fmt.Fprintf(&b, "%s\n\n", e.Description)
				}
				if e.Reasoning != "" {
					fmt.Fprintf(&b, "*Reasoning:* %s\n\n", e.Reasoning)
				}
				if len(e.ActionableStepsForCodingAgent) > 0 {
					b.WriteString("Steps:\n\n")
					for j, step := range e.ActionableStepsForCodingAgent {
						fmt.Fprintf(&b, "%d. %s\n", j+1, step)
					}
					b.WriteString("\n")
				}
				if len(e.RelevantOriginalContext) > 0 {
					b.WriteString("Builds on:\n\n")
					for _, c := range e.RelevantOriginalContext {
						fmt.Fprintf(&b, "- %s\n", c)
					}
					b.WriteString("\n")
				}
			}
		}

		list(&b, "Suggested Tech Stack", ev.SuggestedTechStack)
		list(&b, "Critical Files", ev.CriticalFilesToCreateOrModify)
		if strings.TrimSpace(ev.SuggestedBoilerplate) != "" {
			fmt.Fprintf(&b, "### Suggested Boilerplate\n\n%s\n\n", strings.TrimSpace(ev.SuggestedBoilerplate))
		}
		list(&b, "Gap Analysis", ev.GapAnalysis)
	}

	if len(prompts) > 0 {
		b.WriteString("## Prompts for a Coding Agent\n\n")
		for i, p := range prompts {
			fmt.Fprintf(&b, "%d. %s\n", i+1, p)
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

func list(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

// Write renders the report into dir and returns the file path
func Write(dir string, meta Meta, bp *models.Blueprint, prompts []string) (string, error) {
	md, err := Markdown(meta, bp, prompts)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(dir, models.ReportFileName(meta.Kind, meta.Identifier, meta.Generated))
	if err := os.WriteFile(path, []byte(md), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return path, nil
}
