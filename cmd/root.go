package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pders01/blueprint/internal/agent"
	"github.com/pders01/blueprint/internal/config"
	"github.com/pders01/blueprint/internal/llm"
	"github.com/pders01/blueprint/internal/memory"
	"github.com/pders01/blueprint/internal/models"
	"github.com/pders01/blueprint/internal/ollama"
	"github.com/pders01/blueprint/internal/pipeline"
	"github.com/pders01/blueprint/internal/session"
	"github.com/pders01/blueprint/internal/source"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "blueprint",
	Short: "Turn videos and repositories into improvement blueprints for coding agents",
	Long: `blueprint reads a YouTube transcript, a GitHub repository or a local
directory and asks an LLM for an "Improvement and Re-implementation
Blueprint":
  - a summary of the original project and its core mechanics
  - an enhanced version with concrete steps for a coding agent
  - a suggested stack, critical files and a gap analysis

Each blueprint is saved as Markdown. Afterwards you can ask follow-up
questions or request refinements until you type "back" or "exit".`,
	SilenceUsage: true,
	RunE:         runRoot,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/blueprint/config.toml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(config.Dir())
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("BLUEPRINT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.BindEnv("llm.api_key", "BLUEPRINT_LLM_API_KEY", "DEEPSEEK_API_KEY")

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setDefaults() {
	viper.SetDefault("llm.provider", config.ProviderChat)
	viper.SetDefault("llm.endpoint", llm.DefaultEndpoint)
	viper.SetDefault("llm.timeout", llm.DefaultTimeout)
	viper.SetDefault("llm.extraction_retries", 1)
	viper.SetDefault("llm.summary.model", "deepseek-chat")
	viper.SetDefault("llm.summary.max_tokens", 1024)
	viper.SetDefault("llm.summary.temperature", 0.3)
	viper.SetDefault("llm.repo.model", "deepseek-chat")
	viper.SetDefault("llm.repo.max_tokens", 1024)
	viper.SetDefault("llm.repo.temperature", 0.3)
	viper.SetDefault("llm.followup.model", "deepseek-chat")
	viper.SetDefault("llm.followup.max_tokens", 500)
	viper.SetDefault("llm.followup.temperature", 0.2)
	viper.SetDefault("ollama.url", ollama.DefaultURL)
	viper.SetDefault("context.token_budget", 24000)
	viper.SetDefault("extraction.strict_cardinality", false)
	viper.SetDefault("followup.snippet_length", session.DefaultSnippetLength)
	viper.SetDefault("followup.blueprint_format", "json")
	viper.SetDefault("source.max_total_content_size", source.DefaultLimits().MaxTotalContentSize)
	viper.SetDefault("source.max_source_files_to_scan", source.DefaultLimits().MaxSourceFilesToScan)
	viper.SetDefault("source.max_source_file_size", source.DefaultLimits().MaxSourceFileSize)
	viper.SetDefault("transcript.mcp.command", "")
	viper.SetDefault("transcript.mcp.args", []string{})
	viper.SetDefault("transcript.mcp.tool", source.DefaultTranscriptTool)
	viper.SetDefault("transcript.timedtext_url", source.DefaultTimedTextURL)
	viper.SetDefault("transcript.language", "en")
	viper.SetDefault("memory.db_path", filepath.Join(config.Dir(), "memory.db"))
	viper.SetDefault("memory.limit_per_tier", memory.DefaultLimitPerTier)
	viper.SetDefault("developer.id", os.Getenv("USER"))
	viper.SetDefault("output.dir", "blueprints")
	viper.SetDefault("log.level", "warn")
}

func newLogger() *log.Logger {
	level, err := log.ParseLevel(config.GetLogLevel())
	if err != nil {
		level = log.WarnLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "blueprint",
		ReportTimestamp: true,
		Level:           level,
	})
}

// app holds the components built from configuration
type app struct {
	pipeline *pipeline.Pipeline
	session  *session.Session
	store    *memory.Store
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

func newCompleter(logger *log.Logger) (llm.Completer, error) {
	if config.GetProvider() == config.ProviderOllama {
		url := config.GetOllamaURL()
		client, err := ollama.NewClient(url, &http.Client{Timeout: config.GetTimeout()})
		if err != nil {
			return nil, err
		}
		if !ollama.IsAvailable(url) {
			fmt.Fprintf(os.Stderr, "Warning: ollama is not running at %s\n", url)
			return client, nil
		}
		model := config.GetStage(models.StageRepo).Model
		if err := client.CheckModel(context.Background(), model); err != nil {
			logger.Warn("model check failed", "model", model, "err", err)
		}
		return client, nil
	}

	if strings.TrimSpace(config.GetAPIKey()) == "" {
		fmt.Fprintln(os.Stderr, "Warning: no API key configured (set DEEPSEEK_API_KEY or llm.api_key)")
	}
	return llm.NewClient(config.GetEndpoint(), config.GetTimeout()), nil
}

func newApp(logger *log.Logger, sessionID string) (*app, error) {
	completer, err := newCompleter(logger)
	if err != nil {
		return nil, err
	}

	a := &app{}

	// memory is optional: without it runs start from an empty context
	var mem pipeline.Memory
	store, err := memory.Open(config.GetMemoryDBPath(), sessionID, config.GetMemoryLimit())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: memory disabled: %v\n", err)
	} else {
		a.store = store
		mem = store
	}

	var transcribers []source.Transcriber
	if command, args := config.GetMCPCommand(); command != "" {
		transcribers = append(transcribers, source.NewMCPTranscriber(command, args, config.GetMCPTool()))
	}
	transcribers = append(transcribers, source.NewTimedTextTranscriber(config.GetTimedTextURL(), config.GetTranscriptLanguage()))

	adapter := source.NewAdapter(config.GetSourceLimits(), logger, transcribers...)

	a.pipeline = pipeline.New(adapter, mem, completer, pipeline.Config{
		Summary:           config.GetStage(models.StageSummary),
		Repo:              config.GetStage(models.StageRepo),
		TokenBudget:       config.GetTokenBudget(),
		ExtractionRetries: config.GetExtractionRetries(),
		StrictCardinality: config.GetStrictCardinality(),
		OutputDir:         config.GetOutputDir(),
		DeveloperID:       config.GetDeveloperID(),
		SessionID:         sessionID,
	}, logger)

	a.session = session.New(completer, session.Config{
		LLM:           config.GetStage(models.StageFollowUp),
		SnippetLength: config.GetSnippetLength(),
		Format:        config.GetBlueprintFormat(),
	})

	return a, nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	a, err := newApp(logger, uuid.NewString())
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = agent.New(a.pipeline, a.session, os.Stdin, os.Stdout, logger).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
