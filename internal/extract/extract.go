// Package extract isolates a blueprint from free-form model output.
//
// The model is asked for JSON only but routinely wraps it in prose or
// Markdown fences, so extraction slices from the first '{' to the last '}'
// and parses that. Text holding several objects, or stray braces in the
// surrounding prose, produces a slice that fails to parse; that is the
// documented behavior, not something to paper over here.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pders01/blueprint/internal/models"
)

// Validator checks decoded blueprints. The zero value enforces only the
// structural invariant; StrictCardinality also rejects lists whose length
// is outside what the prompt asked for.
type Validator struct {
	StrictCardinality bool
}

// ExtractBlueprint extracts and validates a blueprint with the default
// validator
func ExtractBlueprint(raw string) (*models.Blueprint, error) {
	return Validator{}.Extract(raw)
}

// Slice returns the text between the first '{' and the last '}' inclusive
func Slice(raw string) (string, bool) {
	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	if first < 0 || last <= first {
		return "", false
	}
	return raw[first : last+1], true
}

// Extract runs the full extraction: slice, parse, decode, validate
func (v Validator) Extract(raw string) (*models.Blueprint, error) {
	slice, ok := Slice(raw)
	if !ok {
		return nil, &NoJSONFoundError{Raw: raw}
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(slice), &obj); err != nil {
		return nil, &MalformedJSONError{Raw: raw, Err: err}
	}

	var bp models.Blueprint
	if err := json.Unmarshal([]byte(slice), &bp); err != nil {
		return nil, &SchemaViolationError{Raw: raw, Parsed: obj, Problems: []string{fmt.Sprintf("wrong field type: %v", err)}}
	}

	problems := v.Problems(&bp)
	if len(problems) > 0 {
		return nil, &SchemaViolationError{Raw: raw, Parsed: obj, Problems: problems}
	}

	return &bp, nil
}

// Problems lists every reason bp is rejected by v
func (v Validator) Problems(bp *models.Blueprint) []string {
	problems := Invariant(bp)
	if v.StrictCardinality && len(problems) == 0 {
		problems = append(problems, Warnings(bp)...)
	}
	return problems
}

// Invariant checks the conditions every accepted blueprint must meet: both
// sections present, at least one enhancement, and steps on every
// enhancement.
func Invariant(bp *models.Blueprint) []string {
	var problems []string
	if bp.OriginalProjectSummary == nil {
		problems = append(problems, "originalProjectSummary is missing")
	}
	if bp.SuggestedEnhancedVersion == nil {
		problems = append(problems, "suggestedEnhancedVersion is missing")
		return problems
	}

	enhancements := bp.SuggestedEnhancedVersion.KeyEnhancements
	if len(enhancements) == 0 {
		problems = append(problems, "keyEnhancements is missing or empty")
	}
	for i, e := range enhancements {
		if len(e.ActionableStepsForCodingAgent) == 0 {
			problems = append(problems, fmt.Sprintf("keyEnhancements[%d] has no actionableStepsForCodingAgent", i))
		}
	}
	return problems
}

// Warnings lists cardinality deviations from what the prompt requested.
// They do not make a blueprint invalid unless the validator is strict.
func Warnings(bp *models.Blueprint) []string {
	var warnings []string
	if s := bp.OriginalProjectSummary; s != nil && len(s.CoreMechanics) < models.MinCoreMechanics {
		warnings = append(warnings, "coreMechanics is empty")
	}
	ev := bp.SuggestedEnhancedVersion
	if ev == nil {
		return warnings
	}
	for i, e := range ev.KeyEnhancements {
		n := len(e.ActionableStepsForCodingAgent)
		if n < models.MinActionSteps || n > models.MaxActionSteps {
			warnings = append(warnings, fmt.Sprintf("keyEnhancements[%d] has %d steps, expected %d-%d",
				i, n, models.MinActionSteps, models.MaxActionSteps))
		}
	}
	if len(ev.GapAnalysis) < models.MinGapAnalysis {
		warnings = append(warnings, "gapAnalysis is empty")
	}
	return warnings
}
