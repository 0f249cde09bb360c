package posting

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shunichi-ikebuchi/ledger-posting/pkg/ledger"
)

// AccountResolver matches a bank-account or category label to a chart account.
// It returns an error wrapping ledger.ErrNotFound when nothing matches.
type AccountResolver interface {
	Resolve(ctx context.Context, tx Tx, label string) (*ledger.Account, error)
}

// NameResolver resolves labels by exact account name.
type NameResolver struct{}

// Resolve looks the label up by name.
func (NameResolver) Resolve(ctx context.Context, tx Tx, label string) (*ledger.Account, error) {
	return tx.FindAccountByName(ctx, label)
}

// AccountCache remembers which account id a label resolved to.
type AccountCache interface {
	Lookup(name string) (string, bool, error)
	Remember(name, accountID string) error
	Forget(name string) error
}

// CachedResolver tries a remembered account id first. The hit is used only if
// the account still carries the same name; otherwise it falls back to a name
// lookup and refreshes the cache. Cache failures never fail a posting.
type CachedResolver struct {
	Cache  AccountCache
	Logger *slog.Logger
}

// Resolve implements AccountResolver.
func (r CachedResolver) Resolve(ctx context.Context, tx Tx, label string) (*ledger.Account, error) {
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}

	if id, ok, err := r.Cache.Lookup(label); err != nil {
		log.Warn("account cache lookup failed", "label", label, "error", err)
	} else if ok {
		account, err := tx.GetAccount(ctx, id)
		switch {
		case err == nil && account.Name == label:
			return account, nil
		case err != nil && !errors.Is(err, ledger.ErrNotFound):
			return nil, err
		}
		log.Debug("stale account cache entry", "label", label, "account_id", id)
		if err := r.Cache.Forget(label); err != nil {
			log.Warn("account cache forget failed", "label", label, "error", err)
		}
	}

	account, err := tx.FindAccountByName(ctx, label)
	if err != nil {
		return nil, err
	}
	if err := r.Cache.Remember(label, account.ID); err != nil {
		log.Warn("account cache remember failed", "label", label, "error", err)
	}
	return account, nil
}
