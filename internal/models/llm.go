package models

// LLMConfig holds the parameters of one pipeline stage.
// Values are fixed for the lifetime of the process.
type LLMConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Stage names used for configuration lookup
const (
	StageSummary  = "summary"
	StageRepo     = "repo"
	StageFollowUp = "followup"
)
