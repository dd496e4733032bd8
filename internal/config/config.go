package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/pders01/blueprint/internal/models"
	"github.com/pders01/blueprint/internal/source"
)

// Providers understood by llm.provider
const (
	ProviderChat   = "chat"
	ProviderOllama = "ollama"
)

// Dir returns the directory holding config.toml and the memory database
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".blueprint"
	}
	return filepath.Join(home, ".config", "blueprint")
}

// GetProvider returns the configured LLM backend
func GetProvider() string {
	if viper.GetString("llm.provider") == ProviderOllama {
		return ProviderOllama
	}
	return ProviderChat
}

// GetEndpoint returns the chat completions endpoint
func GetEndpoint() string {
	return viper.GetString("llm.endpoint")
}

// GetAPIKey returns the bearer credential for the chat endpoint
func GetAPIKey() string {
	return viper.GetString("llm.api_key")
}

// GetTimeout returns the HTTP request timeout for model calls
func GetTimeout() time.Duration {
	return viper.GetDuration("llm.timeout")
}

// GetExtractionRetries returns how often an unusable answer is re-requested
func GetExtractionRetries() int {
	n := viper.GetInt("llm.extraction_retries")
	if n < 0 {
		return 0
	}
	return n
}

// GetStage returns the model parameters of one pipeline stage
func GetStage(stage string) models.LLMConfig {
	prefix := "llm." + stage + "."
	return models.LLMConfig{
		APIKey:      GetAPIKey(),
		Model:       viper.GetString(prefix + "model"),
		MaxTokens:   viper.GetInt(prefix + "max_tokens"),
		Temperature: viper.GetFloat64(prefix + "temperature"),
	}
}

// GetOllamaURL returns the Ollama server URL
func GetOllamaURL() string {
	return viper.GetString("ollama.url")
}

// GetTokenBudget returns the character cap of the context window
func GetTokenBudget() int {
	return viper.GetInt("context.token_budget")
}

// GetStrictCardinality reports whether list-size deviations reject a blueprint
func GetStrictCardinality() bool {
	return viper.GetBool("extraction.strict_cardinality")
}

// GetSnippetLength returns how much source text follow-ups quote
func GetSnippetLength() int {
	return viper.GetInt("followup.snippet_length")
}

// GetBlueprintFormat returns the serialization used in follow-up prompts
func GetBlueprintFormat() string {
	return viper.GetString("followup.blueprint_format")
}

// GetSourceLimits returns the repository scanning bounds
func GetSourceLimits() source.Limits {
	return source.Limits{
		MaxTotalContentSize:  viper.GetInt("source.max_total_content_size"),
		MaxSourceFilesToScan: viper.GetInt("source.max_source_files_to_scan"),
		MaxSourceFileSize:    viper.GetInt("source.max_source_file_size"),
	}
}

// GetMCPCommand returns the command and arguments of the transcript MCP server
func GetMCPCommand() (string, []string) {
	return viper.GetString("transcript.mcp.command"), viper.GetStringSlice("transcript.mcp.args")
}

// GetMCPTool returns the transcript tool name
func GetMCPTool() string {
	return viper.GetString("transcript.mcp.tool")
}

// GetTimedTextURL returns the caption fallback endpoint
func GetTimedTextURL() string {
	return viper.GetString("transcript.timedtext_url")
}

// GetTranscriptLanguage returns the caption fallback language
func GetTranscriptLanguage() string {
	return viper.GetString("transcript.language")
}

// GetMemoryDBPath returns the memory database location
func GetMemoryDBPath() string {
	return viper.GetString("memory.db_path")
}

// GetMemoryLimit returns how many entries each tier contributes
func GetMemoryLimit() int {
	return viper.GetInt("memory.limit_per_tier")
}

// GetDeveloperID returns the developer-profile key
func GetDeveloperID() string {
	return viper.GetString("developer.id")
}

// GetOutputDir returns where reports are written
func GetOutputDir() string {
	return viper.GetString("output.dir")
}

// GetLogLevel returns the diagnostic log level
func GetLogLevel() string {
	return viper.GetString("log.level")
}
