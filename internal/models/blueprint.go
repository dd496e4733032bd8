package models

// Blueprint is the validated improvement plan returned by the model.
// The two top-level sections are pointers so that a missing section can be
// told apart from an empty one.
type Blueprint struct {
	OriginalProjectSummary   *ProjectSummary  `json:"originalProjectSummary"`
	SuggestedEnhancedVersion *EnhancedVersion `json:"suggestedEnhancedVersion"`
}

// ProjectSummary describes the source project as it is
type ProjectSummary struct {
	Purpose       string   `json:"purpose"`
	CoreMechanics []string `json:"coreMechanics"`
}

// EnhancedVersion describes the proposed improved project
type EnhancedVersion struct {
	Concept                       string        `json:"concept"`
	KeyEnhancements               []Enhancement `json:"keyEnhancements"`
	SuggestedTechStack            []string      `json:"suggestedTechStack"`
	CriticalFilesToCreateOrModify []string      `json:"criticalFilesToCreateOrModify"`
	SuggestedBoilerplate          string        `json:"suggestedBoilerplate"`
	GapAnalysis                   []string      `json:"gapAnalysis"`
}

// Enhancement is a single proposed improvement
type Enhancement struct {
	EnhancementTitle              string   `json:"enhancementTitle"`
	Description                   string   `json:"description"`
	Reasoning                     string   `json:"reasoning"`
	ActionableStepsForCodingAgent []string `json:"actionableStepsForCodingAgent"`
	RelevantOriginalContext       []string `json:"relevantOriginalContext"`
}

// Cardinality bounds requested from the model
const (
	MinCoreMechanics   = 1
	MinKeyEnhancements = 1
	MinActionSteps     = 3
	MaxActionSteps     = 5
	MinGapAnalysis     = 1
)
