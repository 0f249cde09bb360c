package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shunichi-ikebuchi/ledger-posting/pkg/db"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/ledger"
	"github.com/spf13/cobra"
)

var (
	txnBank        string
	txnDescription string
	txnAmount      string
	txnType        string
	txnDate        string
	txnCategory    string
	txnStatus      string
)

// transactionsCmd groups bank transaction commands.
var transactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "Add, list and edit bank transactions",
}

var transactionsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a bank transaction",
	Long: `Add a bank transaction to a bank account.

Example:
  ledger-posting transactions add --bank Checking --description "Printer paper" \
    --amount 42.10 --type debit --date 2025-03-08 --category "Office Supplies"`,
	Run: runTransactionsAdd,
}

var transactionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bank transactions",
	Run:   runTransactionsList,
}

var transactionsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Edit description, amount or date of a bank transaction",
	Long: `Edit the description, amount or date of a bank transaction.
Posted transactions can be edited too; their journal entry is not changed.`,
	Args: cobra.ExactArgs(1),
	Run:  runTransactionsUpdate,
}

func init() {
	transactionsAddCmd.Flags().StringVar(&txnBank, "bank", "", "bank account name (required)")
	transactionsAddCmd.Flags().StringVar(&txnDescription, "description", "", "description")
	transactionsAddCmd.Flags().StringVar(&txnAmount, "amount", "", "amount (required)")
	transactionsAddCmd.Flags().StringVar(&txnType, "type", "", "credit (money in) or debit (money out) (required)")
	transactionsAddCmd.Flags().StringVar(&txnDate, "date", "", "transaction date YYYY-MM-DD (required)")
	transactionsAddCmd.Flags().StringVar(&txnCategory, "category", "", "category label")
	transactionsAddCmd.MarkFlagRequired("bank")
	transactionsAddCmd.MarkFlagRequired("amount")
	transactionsAddCmd.MarkFlagRequired("type")
	transactionsAddCmd.MarkFlagRequired("date")

	transactionsListCmd.Flags().StringVar(&txnStatus, "status", "", "filter by status (uncategorized, categorized, posted)")

	transactionsUpdateCmd.Flags().StringVar(&txnDescription, "description", "", "new description")
	transactionsUpdateCmd.Flags().StringVar(&txnAmount, "amount", "", "new amount")
	transactionsUpdateCmd.Flags().StringVar(&txnDate, "date", "", "new date YYYY-MM-DD")

	transactionsCmd.AddCommand(transactionsAddCmd)
	transactionsCmd.AddCommand(transactionsListCmd)
	transactionsCmd.AddCommand(transactionsUpdateCmd)
}

func runTransactionsAdd(cmd *cobra.Command, args []string) {
	env := openLedger()
	defer env.Close()
	ctx := context.Background()

	bank, err := env.store.FindBankAccountByName(ctx, txnBank)
	exitOnError(err, "failed to find bank account")

	amount, err := ledger.ParseAmount(txnAmount)
	exitOnError(err, "invalid amount")

	typ, err := ledger.ParseTransactionType(txnType)
	exitOnError(err, "invalid type")

	date, err := time.Parse(db.DateLayout, txnDate)
	exitOnError(err, "invalid date")

	txn := &ledger.BankTransaction{
		BankAccountID: bank.ID,
		Description:   txnDescription,
		Amount:        amount,
		Type:          typ,
		Date:          date,
	}
	if txnCategory != "" {
		txn.Category = &txnCategory
	}

	exitOnError(env.store.CreateBankTransaction(ctx, txn), "failed to add transaction")
	fmt.Println(txn.ID)
}

func runTransactionsList(cmd *cobra.Command, args []string) {
	env := openLedger()
	defer env.Close()

	txns, err := env.store.ListBankTransactions(context.Background(), db.TransactionFilter{
		Status: ledger.TransactionStatus(txnStatus),
	})
	exitOnError(err, "failed to list transactions")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tAMOUNT\tSTATUS\tCATEGORY\tDESCRIPTION")
	for _, t := range txns {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Date.Format(db.DateLayout), t.Type, t.Amount.StringFixed(2),
			t.State(), t.CategoryLabel(), t.Description)
	}
	_ = w.Flush()
}

func runTransactionsUpdate(cmd *cobra.Command, args []string) {
	env := openLedger()
	defer env.Close()

	var patch db.TransactionPatch
	if cmd.Flags().Changed("description") {
		patch.Description = &txnDescription
	}
	if txnAmount != "" {
		amount, err := ledger.ParseAmount(txnAmount)
		exitOnError(err, "invalid amount")
		patch.Amount = &amount
	}
	if txnDate != "" {
		date, err := time.Parse(db.DateLayout, txnDate)
		exitOnError(err, "invalid date")
		patch.Date = &date
	}

	exitOnError(env.store.UpdateTransactionDetails(context.Background(), args[0], patch), "failed to update transaction")
	fmt.Println("Updated", args[0])
}
