// Package posting turns categorized bank transactions into balanced journal
// entries, updating account balances and the day book in one unit of work.
package posting

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/db"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/ledger"
)

// Tx is the owner-scoped data access the engine needs inside one unit of work.
type Tx interface {
	EntrySource

	GetBankTransaction(ctx context.Context, id string) (*ledger.BankTransaction, error)
	GetBankAccount(ctx context.Context, id string) (*ledger.BankAccount, error)
	GetAccount(ctx context.Context, id string) (*ledger.Account, error)
	FindAccountByName(ctx context.Context, name string) (*ledger.Account, error)

	InsertJournalEntry(ctx context.Context, entry *ledger.JournalEntry) error
	InsertJournalEntryLine(ctx context.Context, line *ledger.JournalEntryLine) error
	UpdateAccountBalance(ctx context.Context, accountID string, delta decimal.Decimal) error
	InsertDayBookEntry(ctx context.Context, entry *ledger.DayBookEntry) error
	MarkTransactionPosted(ctx context.Context, id, journalEntryID string) error
}

// Repository runs a function inside a single database transaction.
// If fn returns an error, nothing it wrote is kept.
type Repository interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

type storeRepository struct {
	store *db.Store
}

// FromStore adapts an owner-scoped SQLite store to a Repository.
func FromStore(store *db.Store) Repository {
	return storeRepository{store: store}
}

func (r storeRepository) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return r.store.Transaction(ctx, func(tx *db.Store) error {
		return fn(tx)
	})
}
