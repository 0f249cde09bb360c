package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/shunichi-ikebuchi/ledger-posting/pkg/categorize"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/db"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/ledger"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/posting"
	"github.com/spf13/cobra"
)

var (
	categoryLabel  string
	allCategorized bool
)

// categorizeCmd represents the categorize command.
var categorizeCmd = &cobra.Command{
	Use:   "categorize <id>...",
	Short: "Set or clear the category of bank transactions",
	Long: `Set the category of one or more bank transactions and mark them reviewed.
An empty --category clears it. With several ids the change is all-or-nothing.

Example:
  ledger-posting categorize 7f3c... --category "Office Supplies"
  ledger-posting categorize 7f3c... 91ab... --category ""`,
	Args: cobra.MinimumNArgs(1),
	Run:  runCategorize,
}

// postCmd represents the post command.
var postCmd = &cobra.Command{
	Use:   "post <id>",
	Short: "Post one categorized bank transaction to the ledger",
	Args:  cobra.ExactArgs(1),
	Run:   runPost,
}

// bulkPostCmd represents the bulk-post command.
var bulkPostCmd = &cobra.Command{
	Use:   "bulk-post [id...]",
	Short: "Post several bank transactions, continuing past failures",
	Long: `Post bank transactions one at a time. A failure is reported and the
remaining transactions are still attempted.

Example:
  ledger-posting bulk-post 7f3c... 91ab...
  ledger-posting bulk-post --all-categorized`,
	Run: runBulkPost,
}

func init() {
	categorizeCmd.Flags().StringVar(&categoryLabel, "category", "", "category label (empty clears)")
	categorizeCmd.MarkFlagRequired("category")

	bulkPostCmd.Flags().BoolVar(&allCategorized, "all-categorized", false, "post every categorized transaction")
}

func runCategorize(cmd *cobra.Command, args []string) {
	env := openLedger()
	defer env.Close()
	ctx := context.Background()
	svc := env.categorizer()

	if len(args) == 1 {
		txn, err := categorize.Apply(ctx, svc, args[0], categoryLabel)
		exitOnError(err, "failed to categorize transaction")
		fmt.Printf("%s: %s\n", txn.ID, txn.State())
		return
	}

	txns, err := categorize.ApplyBulk(ctx, svc, args, categoryLabel)
	exitOnError(err, "failed to categorize transactions")
	for _, txn := range txns {
		fmt.Printf("%s: %s\n", txn.ID, txn.State())
	}
}

func runPost(cmd *cobra.Command, args []string) {
	env := openLedger()
	defer env.Close()

	result, err := env.engine().Post(context.Background(), args[0])
	exitOnError(err, "failed to post transaction")

	printEntry(result.Entry)
}

func runBulkPost(cmd *cobra.Command, args []string) {
	env := openLedger()
	defer env.Close()
	ctx := context.Background()

	ids := args
	if allCategorized {
		txns, err := env.store.ListBankTransactions(ctx, db.TransactionFilter{Status: ledger.StatusCategorized})
		exitOnError(err, "failed to list categorized transactions")
		// Oldest first so entry numbers follow the statement order.
		for i := len(txns) - 1; i >= 0; i-- {
			ids = append(ids, txns[i].ID)
		}
	}

	if len(ids) == 0 {
		fmt.Println("No transactions to post")
		return
	}

	result := env.engine().BulkPost(ctx, ids)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRESULT\tDETAIL")
	for _, item := range result.Results {
		if item.Success {
			fmt.Fprintf(w, "%s\tposted\t%s\n", item.ID, item.EntryNumber)
		} else {
			fmt.Fprintf(w, "%s\tfailed\t%v\n", item.ID, item.Err)
		}
	}
	_ = w.Flush()

	fmt.Printf("\n%d succeeded, %d failed (%s)\n", result.Succeeded, result.Failed, result.Outcome())

	if result.Outcome() == posting.OutcomeAllFailed {
		slog.Error("bulk posting failed for every transaction")
		os.Exit(1)
	}
}

func printEntry(entry *ledger.JournalEntry) {
	fmt.Printf("%s  %s  %s\n", entry.EntryNumber, entry.EntryDate.Format(db.DateLayout), entry.Description)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, line := range entry.Lines {
		debit, credit := "", ""
		if !line.DebitAmount.IsZero() {
			debit = line.DebitAmount.StringFixed(2)
		}
		if !line.CreditAmount.IsZero() {
			credit = line.CreditAmount.StringFixed(2)
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t\n", line.AccountName, debit, credit)
	}
	_ = w.Flush()
}
