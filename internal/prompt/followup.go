package prompt

import (
	"encoding/json"
	"fmt"

	"github.com/alpkeskin/gotoon"

	"github.com/pders01/blueprint/internal/models"
)

// Blueprint serialization formats for follow-up prompts
const (
	FormatJSON = "json"
	FormatToon = "toon"
)

// FollowUpPreamble is the system message for follow-up answers
const FollowUpPreamble = `You are an expert assistant helping a developer with an "Improvement and Re-implementation Blueprint".
Base your answer only on the provided original content and blueprint.
If the user asks a question, answer it directly.
If the user asks to refine part of the blueprint, return the refined text for that part.
If the context does not contain the answer, say so plainly.`

const followUpTemplate = `Original content (beginning only, the full content was used to create the blueprint):
"""
%s
"""

Blueprint (%s):
%s

User request (a question or a refinement instruction):
%q`

// SerializeBlueprint renders bp in the given format. Unknown formats fall
// back to JSON.
func SerializeBlueprint(bp *models.Blueprint, format string) (string, error) {
	if format == FormatToon {
		out, err := gotoon.Encode(bp)
		if err != nil {
			return "", fmt.Errorf("failed to encode blueprint as toon: %w", err)
		}
		return out, nil
	}
	b, err := json.MarshalIndent(bp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode blueprint as json: %w", err)
	}
	return string(b), nil
}

// FollowUp builds the grounding prompt for a follow-up request
func FollowUp(snippet, serializedBlueprint, format, question string) string {
	if format != FormatToon {
		format = FormatJSON
	}
	return fmt.Sprintf(followUpTemplate, snippet, format, serializedBlueprint, question)
}
