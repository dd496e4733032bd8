package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pders01/blueprint/internal/pipeline"
	"github.com/pders01/blueprint/internal/prompt"
	"github.com/pders01/blueprint/internal/report"
)

var (
	analyzeFormat string
	analyzeNoSave bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <source>",
	Short: "Create a blueprint for one source and exit",
	Long: `Analyze a single source without entering the interactive loop.

The source is a YouTube URL, a GitHub repository URL or a local directory.

Examples:
  blueprint analyze https://www.youtube.com/watch?v=dQw4w9WgXcQ
  blueprint analyze https://github.com/pders01/git-context --format json
  blueprint analyze . --no-save

Formats:
  markdown (default) - rendered report
  json               - the blueprint object
  toon               - the blueprint in TOON notation`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "markdown", "Output format: markdown|json|toon")
	analyzeCmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "Do not write a report or update memory")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	switch analyzeFormat {
	case "markdown", prompt.FormatJSON, prompt.FormatToon:
	default:
		return fmt.Errorf("invalid format: %s (must be: markdown, json, toon)", analyzeFormat)
	}

	logger := newLogger()
	a, err := newApp(logger, uuid.NewString())
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer a.Close()

	ctx := context.Background()
	out, err := a.pipeline.Process(ctx, args[0])
	if err != nil {
		return fmt.Errorf("analysis failed (%s): %w", pipeline.Kind(err), err)
	}

	for _, w := range out.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	w := cmd.OutOrStdout()
	switch analyzeFormat {
	case prompt.FormatJSON, prompt.FormatToon:
		s, err := prompt.SerializeBlueprint(out.Blueprint, analyzeFormat)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, s)
	default:
		md, err := report.Markdown(report.Meta{
			Kind:       out.Target.Kind,
			Source:     out.Input,
			Identifier: out.Target.Identifier,
		}, out.Blueprint, report.DerivePrompts(out.Blueprint))
		if err != nil {
			return err
		}
		fmt.Fprintln(w, report.Terminal(md, 80))
	}

	if analyzeNoSave {
		return nil
	}

	path, err := a.pipeline.Record(ctx, out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return nil
	}
	fmt.Fprintf(os.Stderr, "✓ Blueprint saved to %s\n", path)

	return nil
}
