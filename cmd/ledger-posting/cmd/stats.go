package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display posting statistics",
	Long: `Display statistics about bank transactions and the ledger.

Shows:
- Bank transactions per state
- Journal entries and day book rows
- Exported journal entries
- Last posting timestamp

Example:
  ledger-posting stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	env := openLedger()
	defer env.Close()

	stats, err := env.store.GetStats(context.Background())
	exitOnError(err, "failed to get statistics")

	// Display statistics
	fmt.Println("\n=== Posting Statistics ===")
	fmt.Printf("Uncategorized:    %d\n", stats.Uncategorized)
	fmt.Printf("Categorized:      %d\n", stats.Categorized)
	fmt.Printf("Posted:           %d\n", stats.Posted)
	fmt.Printf("Journal entries:  %d\n", stats.JournalEntries)
	fmt.Printf("Day book rows:    %d\n", stats.DayBookEntries)
	fmt.Printf("Exported entries: %d\n", stats.Exported)

	if stats.LastPosting.Valid {
		fmt.Printf("Last posting:     %s\n", stats.LastPosting.String)
	} else {
		fmt.Printf("Last posting:     (never)\n")
	}

	fmt.Println()

	slog.Debug("Statistics displayed successfully")
}
