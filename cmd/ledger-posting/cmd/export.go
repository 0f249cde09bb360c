package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shunichi-ikebuchi/ledger-posting/pkg/beancount"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/db"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/export"
	"github.com/spf13/cobra"
)

var (
	dateFrom string
	dateTo   string
)

// exportCmd represents the export command.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export posted journal entries to Beancount",
	Long: `Export posted journal entries to monthly Beancount files.

This command:
1. Lists journal entries in the date range
2. Skips entries that were already exported
3. Maps chart accounts to Beancount accounts (LEDGER_MAPPING_PATH)
4. Appends to {export}/{YYYY}/{YYYY-MM}.beancount
5. Records each exported entry in SQLite

Example:
  ledger-posting export
  ledger-posting export --from 2025-01-01 --to 2025-01-31`,
	Run: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&dateFrom, "from", "", "Start date (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&dateTo, "to", "", "End date (YYYY-MM-DD)")
}

func runExport(cmd *cobra.Command, args []string) {
	from, err := parseOptionalDate(dateFrom)
	exitOnError(err, "invalid --from")
	to, err := parseOptionalDate(dateTo)
	exitOnError(err, "invalid --to")

	env := openLedger()
	defer env.Close()

	mapper := export.NewMapper()
	if mappingPath := env.paths.GetMappingPath(); env.paths.FileExists(mappingPath) {
		mapper, err = export.LoadMapper(mappingPath)
		exitOnError(err, "failed to load account mapping")
	} else {
		slog.Info("No account mapping found, using fallback names", "path", mappingPath)
	}

	exporter := export.NewExporter(
		env.store,
		beancount.NewFileSystemRepository(env.paths),
		export.NewConverter(mapper, env.cfg.Posting.Currency),
		nil,
	)

	summary, err := exporter.Export(context.Background(), from, to)
	exitOnError(err, "failed to export")

	fmt.Printf("Exported %d entries (%d already exported)\n", summary.Exported, summary.Skipped)
	for _, f := range summary.Files {
		fmt.Printf("  %s\n", f)
	}
}

func parseOptionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(db.DateLayout, s)
}
