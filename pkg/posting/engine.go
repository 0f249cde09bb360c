package posting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/ledger"
)

// Write steps, as reported in ledger.PostingError.
const (
	StepEntryNumber   = "generate entry number"
	StepJournalEntry  = "insert journal entry"
	StepJournalLines  = "insert journal entry lines"
	StepBalances      = "update account balances"
	StepDayBook       = "insert day book entries"
	StepMarkPosted    = "mark transaction posted"
	bankLineOrder     = 1
	categoryLineOrder = 2
)

// Config configures an Engine. Zero values select the defaults.
type Config struct {
	Logger    *slog.Logger
	Clock     func() time.Time
	Resolver  AccountResolver
	DaySource DaySource
}

// Engine posts bank transactions to the ledger.
type Engine struct {
	repo      Repository
	log       *slog.Logger
	clock     func() time.Time
	resolver  AccountResolver
	daySource DaySource
}

// NewEngine creates an Engine over an owner-scoped repository.
func NewEngine(repo Repository, config Config) *Engine {
	e := &Engine{
		repo:      repo,
		log:       config.Logger,
		clock:     config.Clock,
		resolver:  config.Resolver,
		daySource: config.DaySource,
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.resolver == nil {
		e.resolver = NameResolver{}
	}
	if e.daySource == "" {
		e.daySource = DayFromPostingTime
	}
	return e
}

// Result is everything a successful posting wrote.
type Result struct {
	Transaction *ledger.BankTransaction
	Entry       *ledger.JournalEntry
	Lines       []ledger.JournalEntryLine
	DayBook     []*ledger.DayBookEntry
}

// plan is the validated input of the write sequence.
type plan struct {
	txn             *ledger.BankTransaction
	bankAccount     *ledger.Account
	categoryAccount *ledger.Account
	amount          decimal.Decimal
}

// Post converts one categorized, unposted bank transaction into a journal
// entry with two lines, applies both balance deltas, writes two day-book rows
// and marks the transaction posted.
//
// Precondition failures are returned as-is (ledger.ErrNotFound,
// ledger.ErrAlreadyPosted, ledger.ErrNotCategorized, *ledger.AccountResolutionError,
// ledger.ErrInvalidAmount). Failures while writing are returned as
// *ledger.PostingError. Either way nothing is committed.
func (e *Engine) Post(ctx context.Context, transactionID string) (*Result, error) {
	var result *Result

	err := e.repo.WithinTx(ctx, func(tx Tx) error {
		p, err := e.check(ctx, tx, transactionID)
		if err != nil {
			return err
		}

		result, err = e.write(ctx, tx, p)
		return err
	})
	if err != nil {
		var postErr *ledger.PostingError
		if errors.As(err, &postErr) {
			e.log.Error("posting failed", "transaction_id", transactionID, "step", postErr.Step, "error", postErr.Err)
		} else {
			e.log.Warn("posting refused", "transaction_id", transactionID, "error", err)
		}
		return nil, err
	}

	e.log.Info("transaction posted",
		"transaction_id", transactionID,
		"entry_number", result.Entry.EntryNumber,
		"amount", result.Entry.TotalDebit.StringFixed(ledger.MinorUnitScale),
	)
	return result, nil
}

// check runs the preconditions in order. It performs no writes.
func (e *Engine) check(ctx context.Context, tx Tx, transactionID string) (*plan, error) {
	txn, err := tx.GetBankTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if txn.IsPosted() {
		return nil, fmt.Errorf("bank transaction %s: %w", txn.ID, ledger.ErrAlreadyPosted)
	}

	category := txn.CategoryLabel()
	if category == "" {
		return nil, fmt.Errorf("bank transaction %s: %w", txn.ID, ledger.ErrNotCategorized)
	}

	bank, err := tx.GetBankAccount(ctx, txn.BankAccountID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, &ledger.AccountResolutionError{Kind: ledger.BankAccountMissingInLedger, Label: txn.BankAccountID}
	}
	if err != nil {
		return nil, err
	}

	bankAccount, err := e.resolver.Resolve(ctx, tx, bank.AccountName)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, &ledger.AccountResolutionError{Kind: ledger.BankAccountMissingInLedger, Label: bank.AccountName}
	}
	if err != nil {
		return nil, err
	}

	categoryAccount, err := e.resolver.Resolve(ctx, tx, category)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, &ledger.AccountResolutionError{Kind: ledger.CategoryAccountMissing, Label: category}
	}
	if err != nil {
		return nil, err
	}

	amount := txn.Amount.Abs()
	if amount.IsZero() {
		return nil, fmt.Errorf("bank transaction %s: %w: zero amount", txn.ID, ledger.ErrInvalidAmount)
	}

	e.log.Debug("posting preconditions met",
		"transaction_id", txn.ID,
		"bank_account", bankAccount.Name,
		"category_account", categoryAccount.Name,
	)

	return &plan{
		txn:             txn,
		bankAccount:     bankAccount,
		categoryAccount: categoryAccount,
		amount:          amount,
	}, nil
}

// write performs the posting steps in order inside the caller's transaction.
func (e *Engine) write(ctx context.Context, tx Tx, p *plan) (*Result, error) {
	fail := func(step string, err error) (*Result, error) {
		return nil, &ledger.PostingError{TransactionID: p.txn.ID, Step: step, Err: err}
	}

	day := e.clock()
	if e.daySource == DayFromTransactionDate {
		day = p.txn.Date
	}
	number, err := NextEntryNumber(ctx, tx, day)
	if err != nil {
		return fail(StepEntryNumber, err)
	}
	e.log.Debug("entry number generated", "transaction_id", p.txn.ID, "entry_number", number)

	entry := &ledger.JournalEntry{
		EntryNumber:   number,
		EntryDate:     p.txn.Date,
		Description:   "Bank transaction: " + p.txn.Description,
		ReferenceType: ledger.ReferenceBankTransaction,
		ReferenceID:   p.txn.ID,
		TotalDebit:    p.amount,
		TotalCredit:   p.amount,
		Status:        ledger.JournalStatusPosted,
	}
	if err := tx.InsertJournalEntry(ctx, entry); err != nil {
		return fail(StepJournalEntry, err)
	}

	entry.Lines = buildLines(entry.ID, p)
	for i := range entry.Lines {
		if err := tx.InsertJournalEntryLine(ctx, &entry.Lines[i]); err != nil {
			return fail(StepJournalLines, err)
		}
	}

	for _, line := range entry.Lines {
		if err := tx.UpdateAccountBalance(ctx, line.AccountID, line.Delta()); err != nil {
			return fail(StepBalances, err)
		}
	}

	dayBook := make([]*ledger.DayBookEntry, 0, len(entry.Lines))
	for _, line := range entry.Lines {
		row := &ledger.DayBookEntry{
			EntryDate:       entry.EntryDate,
			AccountID:       line.AccountID,
			AccountName:     line.AccountName,
			Description:     line.Description,
			DebitAmount:     line.DebitAmount,
			CreditAmount:    line.CreditAmount,
			ReferenceNumber: entry.EntryNumber,
		}
		if err := tx.InsertDayBookEntry(ctx, row); err != nil {
			return fail(StepDayBook, err)
		}
		dayBook = append(dayBook, row)
	}

	if err := tx.MarkTransactionPosted(ctx, p.txn.ID, entry.ID); err != nil {
		return fail(StepMarkPosted, err)
	}

	posted := *p.txn
	posted.Status = ledger.StatusPosted
	posted.JournalEntryID = &entry.ID

	return &Result{Transaction: &posted, Entry: entry, Lines: entry.Lines, DayBook: dayBook}, nil
}

// buildLines returns the bank leg (line 1) and the category leg (line 2).
// Money into the bank (credit type) debits the bank leg; money out credits it.
func buildLines(entryID string, p *plan) []ledger.JournalEntryLine {
	bank := ledger.JournalEntryLine{
		JournalEntryID: entryID,
		AccountID:      p.bankAccount.ID,
		AccountName:    p.bankAccount.Name,
		Description:    p.txn.Description,
		LineOrder:      bankLineOrder,
	}
	category := ledger.JournalEntryLine{
		JournalEntryID: entryID,
		AccountID:      p.categoryAccount.ID,
		AccountName:    p.categoryAccount.Name,
		Description:    p.txn.Description,
		LineOrder:      categoryLineOrder,
	}

	if p.txn.Type == ledger.TransactionCredit {
		bank.DebitAmount, bank.CreditAmount = p.amount, decimal.Zero
		category.DebitAmount, category.CreditAmount = decimal.Zero, p.amount
	} else {
		bank.DebitAmount, bank.CreditAmount = decimal.Zero, p.amount
		category.DebitAmount, category.CreditAmount = p.amount, decimal.Zero
	}

	return []ledger.JournalEntryLine{bank, category}
}
