// Package prompt renders the instruction prompts sent to the model.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pders01/blueprint/internal/models"
)

// Schema is the blueprint shape embedded in every extraction prompt.
// Both templates request the same shape so one validator serves both.
const Schema = `{
  "originalProjectSummary": {
    "purpose": "string: what the original project or concept is for",
    "coreMechanics": ["string: a key algorithm, data flow or operational step"]
  },
  "suggestedEnhancedVersion": {
    "concept": "string: the enhanced or alternative version you propose",
    "keyEnhancements": [
      {
        "enhancementTitle": "string: short title",
        "description": "string: what the enhancement involves",
        "reasoning": "string: why it is valuable",
        "actionableStepsForCodingAgent": ["string: concrete step a coding agent can execute"],
        "relevantOriginalContext": ["string: part of the original this builds on or replaces"]
      }
    ],
    "suggestedTechStack": ["string: technology and a short rationale"],
    "criticalFilesToCreateOrModify": ["string: file path or code structure"],
    "suggestedBoilerplate": "string: scaffolding or code snippets, Markdown code blocks allowed",
    "gapAnalysis": ["string: a gap in the original or an opportunity for the new version"]
  }
}`

// Cardinality spells out the list sizes the validator expects
var Cardinality = fmt.Sprintf(`Requirements:
- "coreMechanics" must contain at least %d item.
- "keyEnhancements" must contain at least %d item.
- Every enhancement must have %d-%d "actionableStepsForCodingAgent".
- "gapAnalysis" must contain at least %d item.
- Populate every field. When something cannot be determined from the content, say so in the field instead of leaving it out.`,
	models.MinCoreMechanics, models.MinKeyEnhancements,
	models.MinActionSteps, models.MaxActionSteps, models.MinGapAnalysis)

const jsonOnly = "Answer with the JSON object ONLY. No introduction, no explanation, no Markdown fences."

const videoTemplate = `Analyze the YouTube video transcript below and write an "Improvement and Re-implementation Blueprint".
The blueprint must let an AI coding agent build a clearly better version of the project or concept taught in the video, or a more robust alternative to it.

Transcript:
"""
%s
"""

Respond with a JSON object of exactly this shape:
%s

%s

Ground each enhancement in what the video shows. Keep the steps specific enough for a coding agent to act on.
%s`

const repoTemplate = `Analyze the repository content below and write an "Improvement and Re-implementation Blueprint".
The blueprint must let an AI coding agent build a clearly better version of this project, or a more robust alternative to it.

Repository content:
"""
%s
"""

Respond with a JSON object of exactly this shape:
%s

%s

Refer to concrete files and structures from the content where you can. Keep the steps specific enough for a coding agent to act on.
%s`

const (
	videoPreamble = "You are an expert technical analyst and educator who turns teaching material into implementation plans."
	repoPreamble  = "You are an expert software architect and reverse engineer who turns existing code into implementation plans."
)

// ErrUnknownKind is returned for source kinds without a template
var ErrUnknownKind = errors.New("no prompt template for source kind")

// Render embeds the context in the template for kind. Local directories use
// the repository template.
func Render(kind models.SourceKind, contextText string) (string, error) {
	switch kind {
	case models.SourceVideo:
		return fmt.Sprintf(videoTemplate, contextText, Schema, Cardinality, jsonOnly), nil
	case models.SourceRepo, models.SourceLocal:
		return fmt.Sprintf(repoTemplate, contextText, Schema, Cardinality, jsonOnly), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Preamble returns the system message for kind
func Preamble(kind models.SourceKind) string {
	if kind == models.SourceVideo {
		return videoPreamble
	}
	return repoPreamble
}

// PreambleWithProfile adds the developer's recurring preferences to the
// system message
func PreambleWithProfile(kind models.SourceKind, patterns []string) string {
	base := Preamble(kind)
	if len(patterns) == 0 {
		return base
	}
	return base + "\nThe developer you are writing for often works with: " + strings.Join(patterns, ", ") + "."
}

// RepairNote is appended to the prompt when a previous answer could not be
// extracted
func RepairNote(reason error) string {
	return fmt.Sprintf("\n\nYour previous answer was rejected: %v\nReturn a single JSON object that follows the shape and requirements above. %s", reason, jsonOnly)
}
