package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shunichi-ikebuchi/ledger-posting/pkg/chart"
	"github.com/spf13/cobra"
)

var seedFile string

// seedCmd represents the seed command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the chart of accounts from a YAML file",
	Long: `Create chart-of-accounts entries and bank accounts from a YAML file.

Accounts and bank accounts that already exist (by name) are left alone,
so the command can be re-run after editing the file.

Example:
  ledger-posting seed --owner acme
  ledger-posting seed --file ./chart.yaml`,
	Run: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "chart file (default is LEDGER_CHART_PATH or {root}/chart.yaml)")
}

func runSeed(cmd *cobra.Command, args []string) {
	env := openLedger()
	defer env.Close()

	path := seedFile
	if path == "" {
		path = env.paths.GetChartPath()
	}

	c, err := chart.Load(path)
	exitOnError(err, "failed to load chart")

	result, err := c.Apply(context.Background(), env.store, nil)
	exitOnError(err, "failed to apply chart")

	fmt.Printf("Accounts created: %d (skipped %d)\n", result.AccountsCreated, result.AccountsSkipped)
	fmt.Printf("Bank accounts created: %d (skipped %d)\n", result.BankAccountsCreated, result.BankAccountsSkipped)
}

// accountsCmd represents the accounts command.
var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List the chart of accounts with balances",
	Run:   runAccounts,
}

func runAccounts(cmd *cobra.Command, args []string) {
	env := openLedger()
	defer env.Close()

	accounts, err := env.store.ListAccounts(context.Background())
	exitOnError(err, "failed to list accounts")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "NAME\tTYPE\tOPENING\tBALANCE\t")
	for _, a := range accounts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", a.Name, a.Type,
			a.OpeningBalance.StringFixed(2), a.PresentedBalance().StringFixed(2))
	}
	_ = w.Flush()
}
