package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pders01/blueprint/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	Long: `Create $HOME/.config/blueprint/config.toml with the default settings.

An existing file is left untouched. The API key can stay out of the file:
set DEEPSEEK_API_KEY in the environment or in a .env file instead.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

const defaultConfig = `[llm]
provider = "chat"             # chat | ollama
endpoint = "https://api.deepseek.com/v1/chat/completions"
timeout = "120s"
extraction_retries = 1

[llm.summary]
model = "deepseek-chat"
max_tokens = 1024
temperature = 0.3

[llm.repo]
model = "deepseek-chat"
max_tokens = 1024
temperature = 0.3

[llm.followup]
model = "deepseek-chat"
max_tokens = 500
temperature = 0.2

[ollama]
url = "http://localhost:11434"

[context]
token_budget = 24000

[followup]
snippet_length = 2000
blueprint_format = "json"     # json | toon

[source]
max_total_content_size = 100000
max_source_files_to_scan = 50
max_source_file_size = 20000

[transcript]
language = "en"

[transcript.mcp]
command = ""                  # e.g. "npx"
args = []
tool = "get_youtube_video_transcript"

[memory]
limit_per_tier = 5

[output]
dir = "blueprints"
`

func runInit(cmd *cobra.Command, args []string) error {
	configDir := config.Dir()
	configPath := filepath.Join(configDir, "config.toml")

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config already exists: %s\n", configPath)
		return nil
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	fmt.Printf("✓ Created default config: %s\n", configPath)
	fmt.Println("  Set DEEPSEEK_API_KEY, then run: blueprint")

	return nil
}
