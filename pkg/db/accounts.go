package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/ledger"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

const accountColumns = `id, owner_id, account_name, account_type, account_subtype,
	opening_balance, current_balance, created_at, updated_at`

// CreateAccount inserts a chart-of-accounts entry.
// The current balance starts at the opening balance.
func (s *Store) CreateAccount(ctx context.Context, account *ledger.Account) error {
	if account.Name == "" {
		return fmt.Errorf("account name is required")
	}
	if _, err := ledger.ParseAccountType(string(account.Type)); err != nil {
		return err
	}
	opening, err := ledger.ToMinor(account.OpeningBalance)
	if err != nil {
		return err
	}

	if account.ID == "" {
		account.ID = newID()
	}
	account.OwnerID = s.ownerID
	account.CurrentBalance = account.OpeningBalance
	now := s.now()
	account.CreatedAt = now
	account.UpdatedAt = now

	query := `
		INSERT INTO chart_of_accounts (` + accountColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.q.ExecContext(ctx, query,
		account.ID,
		account.OwnerID,
		account.Name,
		string(account.Type),
		account.Subtype,
		opening,
		opening,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: account %q already exists", ErrDuplicate, account.Name)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetAccount retrieves an account by ID.
func (s *Store) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM chart_of_accounts WHERE id = ? AND owner_id = ?`
	account, err := scanAccount(s.q.QueryRowContext(ctx, query, id, s.ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}
	return account, nil
}

// FindAccountByName retrieves an account by its exact name.
func (s *Store) FindAccountByName(ctx context.Context, name string) (*ledger.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM chart_of_accounts WHERE account_name = ? AND owner_id = ?`
	account, err := scanAccount(s.q.QueryRowContext(ctx, query, name, s.ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to find account %q: %w", name, err)
	}
	return account, nil
}

// ListAccounts retrieves all accounts ordered by type and name.
func (s *Store) ListAccounts(ctx context.Context) ([]*ledger.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM chart_of_accounts WHERE owner_id = ? ORDER BY account_type, account_name`

	rows, err := s.q.QueryContext(ctx, query, s.ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*ledger.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// UpdateAccountBalance adds delta to the account's current balance in a
// single UPDATE statement, so concurrent postings never lose an update.
func (s *Store) UpdateAccountBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	minor, err := ledger.ToMinor(delta)
	if err != nil {
		return err
	}

	query := `
		UPDATE chart_of_accounts
		SET current_balance = current_balance + ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
	`
	result, err := s.q.ExecContext(ctx, query, minor, s.now(), accountID, s.ownerID)
	if err != nil {
		return fmt.Errorf("failed to update account balance: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("failed to update account balance %s: %w", accountID, ledger.ErrNotFound)
	}

	return nil
}

func scanAccount(row rowScanner) (*ledger.Account, error) {
	var (
		account          ledger.Account
		accountType      string
		opening, current int64
	)
	err := row.Scan(
		&account.ID,
		&account.OwnerID,
		&account.Name,
		&accountType,
		&account.Subtype,
		&opening,
		&current,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	account.Type = ledger.AccountType(accountType)
	account.OpeningBalance = ledger.FromMinor(opening)
	account.CurrentBalance = ledger.FromMinor(current)
	return &account, nil
}
