// Package categorize assigns and clears category labels on bank transactions.
package categorize

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shunichi-ikebuchi/ledger-posting/pkg/db"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/ledger"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/posting"
)

// Service mutates the category of an owner's bank transactions.
type Service struct {
	store *db.Store
	cache posting.AccountCache
	log   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache remembers the account a category label resolves to.
func WithCache(cache posting.AccountCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// NewService creates a Service over an owner-scoped store.
func NewService(store *db.Store, opts ...Option) *Service {
	s := &Service{store: store, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Categorize sets the category of one transaction, marks it reviewed and
// moves it to categorized. Posted transactions are refused.
func (s *Service) Categorize(ctx context.Context, id, category string) (*ledger.BankTransaction, error) {
	var updated *ledger.BankTransaction
	err := s.store.Transaction(ctx, func(tx *db.Store) error {
		var err error
		updated, err = setCategory(ctx, tx, id, category)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.warm(ctx, category)
	s.log.Info("transaction categorized", "transaction_id", id, "category", category)
	return updated, nil
}

// BulkCategorize applies Categorize to every id in one database transaction.
// Any failing id aborts the whole batch.
func (s *Service) BulkCategorize(ctx context.Context, ids []string, category string) ([]*ledger.BankTransaction, error) {
	updated := make([]*ledger.BankTransaction, 0, len(ids))
	err := s.store.Transaction(ctx, func(tx *db.Store) error {
		for _, id := range ids {
			txn, err := setCategory(ctx, tx, id, category)
			if err != nil {
				return err
			}
			updated = append(updated, txn)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.warm(ctx, category)
	s.log.Info("transactions categorized", "count", len(updated), "category", category)
	return updated, nil
}

// Uncategorize clears the category and review flag of one transaction.
func (s *Service) Uncategorize(ctx context.Context, id string) (*ledger.BankTransaction, error) {
	var updated *ledger.BankTransaction
	err := s.store.Transaction(ctx, func(tx *db.Store) error {
		var err error
		updated, err = clearCategory(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("transaction uncategorized", "transaction_id", id)
	return updated, nil
}

// BulkUncategorize clears every id in one database transaction.
func (s *Service) BulkUncategorize(ctx context.Context, ids []string) ([]*ledger.BankTransaction, error) {
	updated := make([]*ledger.BankTransaction, 0, len(ids))
	err := s.store.Transaction(ctx, func(tx *db.Store) error {
		for _, id := range ids {
			txn, err := clearCategory(ctx, tx, id)
			if err != nil {
				return err
			}
			updated = append(updated, txn)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("transactions uncategorized", "count", len(updated))
	return updated, nil
}

// Apply is the caller-side rule shared by the API and the CLI: a blank label
// uncategorizes, anything else categorizes.
func Apply(ctx context.Context, s *Service, id, label string) (*ledger.BankTransaction, error) {
	if strings.TrimSpace(label) == "" {
		return s.Uncategorize(ctx, id)
	}
	return s.Categorize(ctx, id, label)
}

// ApplyBulk is Apply for a batch.
func ApplyBulk(ctx context.Context, s *Service, ids []string, label string) ([]*ledger.BankTransaction, error) {
	if strings.TrimSpace(label) == "" {
		return s.BulkUncategorize(ctx, ids)
	}
	return s.BulkCategorize(ctx, ids, label)
}

func setCategory(ctx context.Context, tx *db.Store, id, category string) (*ledger.BankTransaction, error) {
	if err := tx.UpdateCategory(ctx, id, &category, true, ledger.StatusCategorized); err != nil {
		return nil, err
	}
	return tx.GetBankTransaction(ctx, id)
}

func clearCategory(ctx context.Context, tx *db.Store, id string) (*ledger.BankTransaction, error) {
	if err := tx.UpdateCategory(ctx, id, nil, false, ledger.StatusUncategorized); err != nil {
		return nil, err
	}
	return tx.GetBankTransaction(ctx, id)
}

// warm remembers the account behind a label so posting can skip the name scan.
// Posting looks labels up trimmed, so they are remembered trimmed.
func (s *Service) warm(ctx context.Context, label string) {
	label = strings.TrimSpace(label)
	if s.cache == nil || label == "" {
		return
	}

	account, err := s.store.FindAccountByName(ctx, label)
	if errors.Is(err, ledger.ErrNotFound) {
		s.log.Debug("category has no chart account yet", "category", label)
		return
	}
	if err != nil {
		s.log.Warn("failed to resolve category account", "category", label, "error", err)
		return
	}

	if err := s.cache.Remember(label, account.ID); err != nil {
		s.log.Warn("account cache remember failed", "category", label, "error", err)
	}
}
