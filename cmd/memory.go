package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/blueprint/internal/config"
	"github.com/pders01/blueprint/internal/memory"
	"github.com/pders01/blueprint/internal/models"
)

var (
	memoryTier    string
	memoryKey     string
	memorySession string
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and extend the memory used to prime analyses",
	Long: `Memory holds short summaries of earlier analyses in three tiers:
  session - entries written during one interactive run
  project - entries about the same source across runs
  global  - notes that apply to every analysis

It also keeps the developer profile: technologies that recur in your
blueprints, which are mentioned to the model.`,
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List memory entries",
	Long: `List memory entries, newest first.

Examples:
  blueprint memory list
  blueprint memory list --tier project
  blueprint memory list --key github:pders01/git-context
  blueprint memory list --tier session --session <id>`,
	RunE: runMemoryList,
}

var memoryAddCmd = &cobra.Command{
	Use:   "add <note>",
	Short: "Add a global note included in every analysis",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMemoryAdd,
}

var memoryProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the recurring technologies of the developer profile",
	RunE:  runMemoryProfile,
}

func init() {
	rootCmd.AddCommand(memoryCmd)
	memoryCmd.AddCommand(memoryListCmd, memoryAddCmd, memoryProfileCmd)

	memoryListCmd.Flags().StringVar(&memoryTier, "tier", "", "Filter by tier: session|project|global")
	memoryListCmd.Flags().StringVar(&memoryKey, "key", "", "Show the entries relevant to a source key")
	memoryListCmd.Flags().StringVar(&memorySession, "session", "", "Session id for the session tier")
}

func openStore(sessionID string) (*memory.Store, error) {
	store, err := memory.Open(config.GetMemoryDBPath(), sessionID, config.GetMemoryLimit())
	if err != nil {
		return nil, fmt.Errorf("failed to open memory: %w", err)
	}
	return store, nil
}

func runMemoryList(cmd *cobra.Command, args []string) error {
	store, err := openStore(memorySession)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	var entries []models.MemoryEntry

	switch {
	case memoryKey != "":
		entries, err = store.GetRelevantMemory(ctx, memoryKey)
		if err != nil {
			return err
		}
	case memoryTier != "":
		tier := models.Tier(memoryTier)
		if !tier.Valid() {
			return fmt.Errorf("invalid tier: %s (must be: session, project, global)", memoryTier)
		}
		entries, err = store.GetMemoryEntries(ctx, tier)
		if err != nil {
			return err
		}
	default:
		for _, tier := range models.Tiers {
			got, err := store.GetMemoryEntries(ctx, tier)
			if err != nil {
				return err
			}
			entries = append(entries, got...)
		}
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(w, "No memory entries found")
		return nil
	}

	fmt.Fprintf(w, "Found %d entr%s:\n\n", len(entries), plural(len(entries), "y", "ies"))
	for _, e := range entries {
		fmt.Fprintf(w, "  [%s] %s\n", e.Tier, e.Summary)
		fmt.Fprintf(w, "    Source:  %s\n", e.SourceKey)
		fmt.Fprintf(w, "    Created: %s\n", e.Timestamp.Local().Format("2006-01-02 15:04"))
		fmt.Fprintln(w)
	}

	return nil
}

func runMemoryAdd(cmd *cobra.Command, args []string) error {
	note := strings.TrimSpace(strings.Join(args, " "))
	if note == "" {
		return fmt.Errorf("note must not be empty")
	}

	store, err := openStore("")
	if err != nil {
		return err
	}
	defer store.Close()

	entry, err := store.AddMemoryEntry(context.Background(), models.TierGlobal, models.SourceLocal, "note", note)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added global note %s\n", entry.ID)
	return nil
}

func runMemoryProfile(cmd *cobra.Command, args []string) error {
	store, err := openStore("")
	if err != nil {
		return err
	}
	defer store.Close()

	developer := config.GetDeveloperID()
	patterns, err := store.Patterns(context.Background(), developer, 20)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(patterns) == 0 {
		fmt.Fprintf(w, "No profile recorded for %q yet\n", developer)
		return nil
	}

	fmt.Fprintf(w, "Recurring technologies for %s:\n", developer)
	for _, p := range patterns {
		fmt.Fprintf(w, "  - %s\n", p)
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
