package categorize

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/db"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/ledger"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/posting"
)

type mapCache map[string]string

func (c mapCache) Lookup(name string) (string, bool, error) {
	id, ok := c[name]
	return id, ok, nil
}

func (c mapCache) Remember(name, id string) error {
	c[name] = id
	return nil
}

func (c mapCache) Forget(name string) error {
	delete(c, name)
	return nil
}

func setup(t *testing.T) (*db.Store, []string) {
	t.Helper()
	ctx := context.Background()

	conn, err := db.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	store := db.NewStore(conn, "owner-1")

	assert.NoError(t, store.CreateAccount(ctx, &ledger.Account{Name: "Checking", Type: ledger.AccountTypeAsset}))
	assert.NoError(t, store.CreateAccount(ctx, &ledger.Account{Name: "Meals", Type: ledger.AccountTypeExpense}))
	bank := &ledger.BankAccount{AccountName: "Checking"}
	assert.NoError(t, store.CreateBankAccount(ctx, bank))

	var ids []string
	for _, desc := range []string{"Lunch", "Dinner", "Coffee"} {
		txn := &ledger.BankTransaction{
			BankAccountID: bank.ID,
			Description:   desc,
			Amount:        decimal.NewFromInt(12),
			Type:          ledger.TransactionDebit,
			Date:          time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		}
		assert.NoError(t, store.CreateBankTransaction(ctx, txn))
		ids = append(ids, txn.ID)
	}
	return store, ids
}

func TestCategorizeAndUncategorize(t *testing.T) {
	ctx := context.Background()
	store, ids := setup(t)
	cache := mapCache{}
	svc := NewService(store, WithCache(cache))

	txn, err := svc.Categorize(ctx, ids[0], "Meals")
	assert.NoError(t, err)
	assert.Equal(t, "Meals", txn.CategoryLabel())
	assert.Equal(t, ledger.StatusCategorized, txn.Status)
	assert.True(t, txn.IsReviewed)

	meals, err := store.FindAccountByName(ctx, "Meals")
	assert.NoError(t, err)
	assert.Equal(t, meals.ID, cache["Meals"])

	txn, err = Apply(ctx, svc, ids[0], "  ")
	assert.NoError(t, err)
	assert.Zero(t, txn.Category)
	assert.Equal(t, ledger.StatusUncategorized, txn.Status)
	assert.False(t, txn.IsReviewed)

	// Unknown labels are stored as given; only posting needs them to resolve.
	txn, err = Apply(ctx, svc, ids[1], "Travel")
	assert.NoError(t, err)
	assert.Equal(t, "Travel", txn.CategoryLabel())
	_, cached := cache["Travel"]
	assert.False(t, cached)

	_, err = svc.Categorize(ctx, "missing", "Meals")
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
}

func TestBulkCategorizeIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	store, ids := setup(t)
	svc := NewService(store)

	_, err := svc.BulkCategorize(ctx, []string{ids[0], "missing", ids[1]}, "Meals")
	assert.True(t, errors.Is(err, ledger.ErrNotFound))

	first, err := store.GetBankTransaction(ctx, ids[0])
	assert.NoError(t, err)
	assert.Equal(t, ledger.StatusUncategorized, first.State())

	updated, err := ApplyBulk(ctx, svc, ids, "Meals")
	assert.NoError(t, err)
	assert.Equal(t, 3, len(updated))
	for _, txn := range updated {
		assert.Equal(t, ledger.StatusCategorized, txn.Status)
	}

	updated, err = ApplyBulk(ctx, svc, ids[:2], "")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(updated))

	list, err := store.ListBankTransactions(ctx, db.TransactionFilter{Status: ledger.StatusCategorized})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(list))
}

func TestCategorizePostedTransactionIsRefused(t *testing.T) {
	ctx := context.Background()
	store, ids := setup(t)
	svc := NewService(store)

	_, err := svc.Categorize(ctx, ids[0], "Meals")
	assert.NoError(t, err)

	engine := posting.NewEngine(posting.FromStore(store), posting.Config{})
	_, err = engine.Post(ctx, ids[0])
	assert.NoError(t, err)

	_, err = svc.Categorize(ctx, ids[0], "Other")
	assert.True(t, errors.Is(err, ledger.ErrAlreadyPosted))

	_, err = svc.Uncategorize(ctx, ids[0])
	assert.True(t, errors.Is(err, ledger.ErrAlreadyPosted))

	_, err = svc.BulkCategorize(ctx, []string{ids[1], ids[0]}, "Meals")
	assert.True(t, errors.Is(err, ledger.ErrAlreadyPosted))

	second, err := store.GetBankTransaction(ctx, ids[1])
	assert.NoError(t, err)
	assert.Equal(t, ledger.StatusUncategorized, second.State())
}

func TestPaddedLabelIsCachedTrimmed(t *testing.T) {
	ctx := context.Background()
	store, ids := setup(t)
	cache := mapCache{}
	svc := NewService(store, WithCache(cache))

	_, err := svc.Categorize(ctx, ids[0], "  Meals ")
	assert.NoError(t, err)

	meals, err := store.FindAccountByName(ctx, "Meals")
	assert.NoError(t, err)
	assert.Equal(t, mapCache{"Meals": meals.ID}, cache)

	engine := posting.NewEngine(posting.FromStore(store), posting.Config{
		Resolver: posting.CachedResolver{Cache: cache},
	})
	result, err := engine.Post(ctx, ids[0])
	assert.NoError(t, err)
	assert.Equal(t, meals.ID, result.Lines[1].AccountID)
}
