package posting

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/db"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/ledger"
)

var postingDay = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store    *db.Store
	engine   *Engine
	bank     *ledger.Account
	expense  *ledger.Account
	revenue  *ledger.Account
	checking *ledger.BankAccount
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	conn, err := db.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})

	f := &fixture{store: db.NewStore(conn, "owner-1")}

	f.bank = &ledger.Account{Name: "Checking", Type: ledger.AccountTypeAsset, OpeningBalance: decimal.NewFromInt(1000)}
	f.expense = &ledger.Account{Name: "Office Supplies", Type: ledger.AccountTypeExpense}
	f.revenue = &ledger.Account{Name: "Sales", Type: ledger.AccountTypeIncome}
	for _, a := range []*ledger.Account{f.bank, f.expense, f.revenue} {
		assert.NoError(t, f.store.CreateAccount(ctx, a))
	}

	f.checking = &ledger.BankAccount{AccountName: "Checking", BankName: "First Bank"}
	assert.NoError(t, f.store.CreateBankAccount(ctx, f.checking))

	f.engine = f.newEngine(FromStore(f.store))
	return f
}

func (f *fixture) newEngine(repo Repository) *Engine {
	return NewEngine(repo, Config{Clock: func() time.Time { return postingDay }})
}

func (f *fixture) addTransaction(t *testing.T, txnType ledger.TransactionType, amount, category string) *ledger.BankTransaction {
	t.Helper()

	txn := &ledger.BankTransaction{
		BankAccountID: f.checking.ID,
		Description:   "Paper and toner",
		Amount:        decimal.RequireFromString(amount),
		Type:          txnType,
		Date:          time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC),
	}
	if category != "" {
		txn.Category = &category
	}
	assert.NoError(t, f.store.CreateBankTransaction(context.Background(), txn))
	return txn
}

func (f *fixture) balance(t *testing.T, account *ledger.Account) string {
	t.Helper()
	got, err := f.store.GetAccount(context.Background(), account.ID)
	assert.NoError(t, err)
	return got.CurrentBalance.StringFixed(2)
}

func TestPostDebitTransaction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	txn := f.addTransaction(t, ledger.TransactionDebit, "150.00", "Office Supplies")

	result, err := f.engine.Post(ctx, txn.ID)
	assert.NoError(t, err)

	assert.Equal(t, "JE20250310001", result.Entry.EntryNumber)
	assert.Equal(t, "Bank transaction: Paper and toner", result.Entry.Description)
	assert.Equal(t, "150.00", result.Entry.TotalDebit.StringFixed(2))
	assert.Equal(t, "150.00", result.Entry.TotalCredit.StringFixed(2))

	assert.Equal(t, 2, len(result.Lines))
	bankLine, categoryLine := result.Lines[0], result.Lines[1]
	assert.Equal(t, f.bank.ID, bankLine.AccountID)
	assert.True(t, bankLine.DebitAmount.IsZero())
	assert.Equal(t, "150.00", bankLine.CreditAmount.StringFixed(2))
	assert.Equal(t, f.expense.ID, categoryLine.AccountID)
	assert.Equal(t, "150.00", categoryLine.DebitAmount.StringFixed(2))
	assert.True(t, categoryLine.CreditAmount.IsZero())

	assert.Equal(t, "850.00", f.balance(t, f.bank))
	assert.Equal(t, "150.00", f.balance(t, f.expense))

	stored, err := f.store.GetBankTransaction(ctx, txn.ID)
	assert.NoError(t, err)
	assert.Equal(t, ledger.StatusPosted, stored.Status)
	assert.Equal(t, result.Entry.ID, *stored.JournalEntryID)

	entry, err := f.store.GetJournalEntry(ctx, result.Entry.ID)
	assert.NoError(t, err)
	assert.Equal(t, ledger.ReferenceBankTransaction, entry.ReferenceType)
	assert.Equal(t, txn.ID, entry.ReferenceID)
	assert.Equal(t, "2025-03-08", entry.EntryDate.Format(db.DateLayout))
	assert.Equal(t, 2, len(entry.Lines))

	dayBook, err := f.store.ListDayBookByReference(ctx, "JE20250310001")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(dayBook))
}

func TestPostCreditTransaction(t *testing.T) {
	f := newFixture(t)
	txn := f.addTransaction(t, ledger.TransactionCredit, "200.50", "Sales")

	result, err := f.engine.Post(context.Background(), txn.ID)
	assert.NoError(t, err)

	assert.Equal(t, "200.50", result.Lines[0].DebitAmount.StringFixed(2))
	assert.Equal(t, "200.50", result.Lines[1].CreditAmount.StringFixed(2))

	assert.Equal(t, "1200.50", f.balance(t, f.bank))
	// Accumulator is debit minus credit, so income carries a negative raw balance.
	assert.Equal(t, "-200.50", f.balance(t, f.revenue))

	revenue, err := f.store.GetAccount(context.Background(), f.revenue.ID)
	assert.NoError(t, err)
	assert.Equal(t, "200.50", revenue.PresentedBalance().StringFixed(2))
}

func TestPostIsBalanced(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, tc := range []struct {
		typ    ledger.TransactionType
		amount string
		cat    string
	}{
		{ledger.TransactionDebit, "12.34", "Office Supplies"},
		{ledger.TransactionCredit, "99.99", "Sales"},
		{ledger.TransactionDebit, "0.01", "Office Supplies"},
	} {
		txn := f.addTransaction(t, tc.typ, tc.amount, tc.cat)
		result, err := f.engine.Post(ctx, txn.ID)
		assert.NoError(t, err)

		debit, credit := decimal.Zero, decimal.Zero
		for _, line := range result.Lines {
			debit = debit.Add(line.DebitAmount)
			credit = credit.Add(line.CreditAmount)
			assert.True(t, line.DebitAmount.IsZero() != line.CreditAmount.IsZero())
		}
		assert.True(t, debit.Equal(credit))
		assert.True(t, debit.Equal(result.Entry.TotalDebit))
	}

	accounts, err := f.store.ListAccounts(ctx)
	assert.NoError(t, err)
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.CurrentBalance.Sub(a.OpeningBalance))
	}
	assert.True(t, total.IsZero())
}

func TestPostPreconditions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.engine.Post(ctx, "missing")
	assert.True(t, errors.Is(err, ledger.ErrNotFound))

	uncategorized := f.addTransaction(t, ledger.TransactionDebit, "10.00", "")
	_, err = f.engine.Post(ctx, uncategorized.ID)
	assert.True(t, errors.Is(err, ledger.ErrNotCategorized))

	unknown := f.addTransaction(t, ledger.TransactionDebit, "10.00", "Travel")
	_, err = f.engine.Post(ctx, unknown.ID)
	assert.True(t, errors.Is(err, ledger.ErrCategoryAccountMissing))
	var resolution *ledger.AccountResolutionError
	assert.True(t, errors.As(err, &resolution))
	assert.Equal(t, ledger.CategoryAccountMissing, resolution.Kind)
	assert.Equal(t, "Travel", resolution.Label)

	zero := f.addTransaction(t, ledger.TransactionDebit, "0", "Office Supplies")
	_, err = f.engine.Post(ctx, zero.ID)
	assert.True(t, errors.Is(err, ledger.ErrInvalidAmount))

	orphan := &ledger.BankAccount{AccountName: "Savings"}
	assert.NoError(t, f.store.CreateBankAccount(ctx, orphan))
	category := "Office Supplies"
	savings := &ledger.BankTransaction{
		BankAccountID: orphan.ID,
		Description:   "Transfer",
		Amount:        decimal.NewFromInt(5),
		Type:          ledger.TransactionDebit,
		Date:          postingDay,
		Category:      &category,
	}
	assert.NoError(t, f.store.CreateBankTransaction(ctx, savings))
	_, err = f.engine.Post(ctx, savings.ID)
	assert.True(t, errors.Is(err, ledger.ErrBankAccountMissingInLedger))

	// None of the refusals wrote anything.
	entries, err := f.store.ListJournalEntries(ctx, time.Time{}, time.Time{})
	assert.NoError(t, err)
	assert.Equal(t, 0, len(entries))
	assert.Equal(t, "1000.00", f.balance(t, f.bank))
	assert.Equal(t, "0.00", f.balance(t, f.expense))
}

func TestPostTwiceFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	txn := f.addTransaction(t, ledger.TransactionDebit, "150.00", "Office Supplies")

	_, err := f.engine.Post(ctx, txn.ID)
	assert.NoError(t, err)

	_, err = f.engine.Post(ctx, txn.ID)
	assert.True(t, errors.Is(err, ledger.ErrAlreadyPosted))

	entries, err := f.store.ListJournalEntriesByReference(ctx, ledger.ReferenceBankTransaction, txn.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(entries))
	assert.Equal(t, "850.00", f.balance(t, f.bank))
}

func TestEntryNumbersIncreaseWithinDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var numbers []string
	for i := 0; i < 3; i++ {
		txn := f.addTransaction(t, ledger.TransactionDebit, "1.00", "Office Supplies")
		result, err := f.engine.Post(ctx, txn.ID)
		assert.NoError(t, err)
		numbers = append(numbers, result.Entry.EntryNumber)
	}

	assert.Equal(t, []string{"JE20250310001", "JE20250310002", "JE20250310003"}, numbers)
}

func TestEntryNumberFromTransactionDate(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(FromStore(f.store), Config{
		Clock:     func() time.Time { return postingDay },
		DaySource: DayFromTransactionDate,
	})
	txn := f.addTransaction(t, ledger.TransactionDebit, "1.00", "Office Supplies")

	result, err := engine.Post(context.Background(), txn.ID)
	assert.NoError(t, err)
	assert.Equal(t, "JE20250308001", result.Entry.EntryNumber)
}

func TestConcurrentPostingKeepsNumbersUnique(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	const n = 10
	ids := make([]string, n)
	for i := range ids {
		ids[i] = f.addTransaction(t, ledger.TransactionDebit, "10.00", "Office Supplies").ID
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = map[string]bool{}
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			result, err := f.engine.Post(ctx, id)
			if err != nil {
				t.Errorf("Post(%s) failed: %v", id, err)
				return
			}
			mu.Lock()
			numbers[result.Entry.EntryNumber] = true
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	assert.Equal(t, n, len(numbers))
	assert.Equal(t, "900.00", f.balance(t, f.bank))
	assert.Equal(t, "100.00", f.balance(t, f.expense))
}

// failingTx fails the named write step.
type failingTx struct {
	Tx
	failStep string
}

var errInjected = errors.New("injected failure")

func (f failingTx) InsertJournalEntryLine(ctx context.Context, line *ledger.JournalEntryLine) error {
	if f.failStep == StepJournalLines && line.LineOrder == categoryLineOrder {
		return errInjected
	}
	return f.Tx.InsertJournalEntryLine(ctx, line)
}

func (f failingTx) UpdateAccountBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	if f.failStep == StepBalances && delta.IsPositive() {
		return errInjected
	}
	return f.Tx.UpdateAccountBalance(ctx, accountID, delta)
}

func (f failingTx) InsertDayBookEntry(ctx context.Context, entry *ledger.DayBookEntry) error {
	if f.failStep == StepDayBook {
		return errInjected
	}
	return f.Tx.InsertDayBookEntry(ctx, entry)
}

func (f failingTx) MarkTransactionPosted(ctx context.Context, id, journalEntryID string) error {
	if f.failStep == StepMarkPosted {
		return errInjected
	}
	return f.Tx.MarkTransactionPosted(ctx, id, journalEntryID)
}

type failingRepo struct {
	inner    Repository
	failStep string
}

func (r failingRepo) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return r.inner.WithinTx(ctx, func(tx Tx) error {
		return fn(failingTx{Tx: tx, failStep: r.failStep})
	})
}

func TestPostRollsBackOnFailure(t *testing.T) {
	for _, step := range []string{StepJournalLines, StepBalances, StepDayBook, StepMarkPosted} {
		t.Run(step, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			txn := f.addTransaction(t, ledger.TransactionDebit, "150.00", "Office Supplies")

			engine := f.newEngine(failingRepo{inner: FromStore(f.store), failStep: step})
			_, err := engine.Post(ctx, txn.ID)

			var postErr *ledger.PostingError
			assert.True(t, errors.As(err, &postErr))
			assert.Equal(t, step, postErr.Step)
			assert.True(t, errors.Is(err, errInjected))

			assert.Equal(t, "1000.00", f.balance(t, f.bank))
			assert.Equal(t, "0.00", f.balance(t, f.expense))

			entries, err := f.store.ListJournalEntries(ctx, time.Time{}, time.Time{})
			assert.NoError(t, err)
			assert.Equal(t, 0, len(entries))

			dayBook, err := f.store.ListDayBook(ctx, time.Time{}, time.Time{})
			assert.NoError(t, err)
			assert.Equal(t, 0, len(dayBook))

			stored, err := f.store.GetBankTransaction(ctx, txn.ID)
			assert.NoError(t, err)
			assert.Equal(t, ledger.StatusCategorized, stored.State())
			assert.Zero(t, stored.JournalEntryID)

			// The same transaction posts cleanly once the fault is gone.
			result, err := f.engine.Post(ctx, txn.ID)
			assert.NoError(t, err)
			assert.Equal(t, "JE20250310001", result.Entry.EntryNumber)
		})
	}
}

func TestBulkPost(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	good1 := f.addTransaction(t, ledger.TransactionDebit, "100.00", "Office Supplies")
	bad := f.addTransaction(t, ledger.TransactionDebit, "5.00", "Travel")
	good2 := f.addTransaction(t, ledger.TransactionCredit, "40.00", "Sales")

	result := f.engine.BulkPost(ctx, []string{good1.ID, bad.ID, good2.ID, "missing"})

	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, OutcomePartialSuccess, result.Outcome())
	assert.Equal(t, 4, len(result.Results))

	assert.True(t, result.Results[0].Success)
	assert.Equal(t, "JE20250310001", result.Results[0].EntryNumber)
	assert.False(t, result.Results[1].Success)
	assert.True(t, errors.Is(result.Results[1].Err, ledger.ErrCategoryAccountMissing))
	assert.True(t, result.Results[2].Success)
	assert.Equal(t, "JE20250310002", result.Results[2].EntryNumber)
	assert.True(t, errors.Is(result.Results[3].Err, ledger.ErrNotFound))

	assert.Equal(t, "940.00", f.balance(t, f.bank))

	stored, err := f.store.GetBankTransaction(ctx, bad.ID)
	assert.NoError(t, err)
	assert.Equal(t, ledger.StatusCategorized, stored.State())
}

func TestBulkOutcome(t *testing.T) {
	tests := []struct {
		succeeded, failed int
		want              Outcome
	}{
		{0, 0, OutcomeNone},
		{3, 0, OutcomeAllSucceeded},
		{0, 2, OutcomeAllFailed},
		{1, 1, OutcomePartialSuccess},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%d", tt.succeeded, tt.failed), func(t *testing.T) {
			r := BulkResult{Succeeded: tt.succeeded, Failed: tt.failed}
			assert.Equal(t, tt.want, r.Outcome())
		})
	}

	f := newFixture(t)
	assert.Equal(t, OutcomeNone, f.engine.BulkPost(context.Background(), nil).Outcome())
}

type staticEntrySource string

func (s staticEntrySource) LastEntryNumber(context.Context, string) (string, error) {
	return string(s), nil
}

func TestNextEntryNumber(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2025, 1, 5, 23, 59, 0, 0, time.UTC)

	number, err := NextEntryNumber(ctx, staticEntrySource(""), day)
	assert.NoError(t, err)
	assert.Equal(t, "JE20250105001", number)

	number, err = NextEntryNumber(ctx, staticEntrySource("JE20250105009"), day)
	assert.NoError(t, err)
	assert.Equal(t, "JE20250105010", number)

	_, err = NextEntryNumber(ctx, staticEntrySource("JE20250105999"), day)
	assert.True(t, errors.Is(err, ledger.ErrEntrySequenceExhausted))
}

func TestParseDaySource(t *testing.T) {
	got, err := ParseDaySource("")
	assert.NoError(t, err)
	assert.Equal(t, DayFromPostingTime, got)

	got, err = ParseDaySource("transaction")
	assert.NoError(t, err)
	assert.Equal(t, DayFromTransactionDate, got)

	_, err = ParseDaySource("ledger")
	assert.Error(t, err)
}

type memoryCache struct {
	ids map[string]string
}

func (c *memoryCache) Lookup(name string) (string, bool, error) {
	id, ok := c.ids[name]
	return id, ok, nil
}

func (c *memoryCache) Remember(name, id string) error {
	c.ids[name] = id
	return nil
}

func (c *memoryCache) Forget(name string) error {
	delete(c.ids, name)
	return nil
}

func TestCachedResolverRefreshesStaleEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Cached id points at a different account; name lookup must win.
	cache := &memoryCache{ids: map[string]string{"Office Supplies": f.revenue.ID}}
	engine := NewEngine(FromStore(f.store), Config{
		Clock:    func() time.Time { return postingDay },
		Resolver: CachedResolver{Cache: cache},
	})

	txn := f.addTransaction(t, ledger.TransactionDebit, "20.00", "Office Supplies")
	result, err := engine.Post(ctx, txn.ID)
	assert.NoError(t, err)
	assert.Equal(t, f.expense.ID, result.Lines[1].AccountID)

	assert.Equal(t, f.expense.ID, cache.ids["Office Supplies"])
	assert.Equal(t, f.bank.ID, cache.ids["Checking"])
	assert.Equal(t, "0.00", f.balance(t, f.revenue))
}
