package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shunichi-ikebuchi/ledger-posting/pkg/ledger"
)

const bankAccountColumns = `id, owner_id, account_name, bank_name, account_number, created_at`

// CreateBankAccount inserts a bank account.
func (s *Store) CreateBankAccount(ctx context.Context, account *ledger.BankAccount) error {
	if account.AccountName == "" {
		return fmt.Errorf("bank account name is required")
	}
	if account.ID == "" {
		account.ID = newID()
	}
	account.OwnerID = s.ownerID
	account.CreatedAt = s.now()

	query := `INSERT INTO bank_accounts (` + bankAccountColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.q.ExecContext(ctx, query,
		account.ID,
		account.OwnerID,
		account.AccountName,
		account.BankName,
		account.AccountNumber,
		account.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: bank account %q already exists", ErrDuplicate, account.AccountName)
		}
		return fmt.Errorf("failed to create bank account: %w", err)
	}

	return nil
}

// GetBankAccount retrieves a bank account by ID.
func (s *Store) GetBankAccount(ctx context.Context, id string) (*ledger.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE id = ? AND owner_id = ?`
	account, err := scanBankAccount(s.q.QueryRowContext(ctx, query, id, s.ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to get bank account %s: %w", id, err)
	}
	return account, nil
}

// FindBankAccountByName retrieves a bank account by its account name.
func (s *Store) FindBankAccountByName(ctx context.Context, name string) (*ledger.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE account_name = ? AND owner_id = ?`
	account, err := scanBankAccount(s.q.QueryRowContext(ctx, query, name, s.ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to find bank account %q: %w", name, err)
	}
	return account, nil
}

// ListBankAccounts retrieves all bank accounts ordered by name.
func (s *Store) ListBankAccounts(ctx context.Context) ([]*ledger.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE owner_id = ? ORDER BY account_name`

	rows, err := s.q.QueryContext(ctx, query, s.ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*ledger.BankAccount
	for rows.Next() {
		account, err := scanBankAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank account: %w", err)
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func scanBankAccount(row rowScanner) (*ledger.BankAccount, error) {
	var account ledger.BankAccount
	err := row.Scan(
		&account.ID,
		&account.OwnerID,
		&account.AccountName,
		&account.BankName,
		&account.AccountNumber,
		&account.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}
