package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/ledger"
)

const bankTransactionColumns = `id, owner_id, bank_account_id, description, amount,
	transaction_type, transaction_date, category, status, journal_entry_id,
	is_reviewed, created_at, updated_at`

// TransactionFilter narrows ListBankTransactions. Zero values match everything.
type TransactionFilter struct {
	Status        ledger.TransactionStatus
	BankAccountID string
}

// TransactionPatch holds the editable fields of a bank transaction.
// Nil fields are left unchanged.
type TransactionPatch struct {
	Description *string
	Amount      *decimal.Decimal
	Date        *time.Time
}

// CreateBankTransaction inserts an imported bank transaction.
// The amount is stored as a positive magnitude.
func (s *Store) CreateBankTransaction(ctx context.Context, txn *ledger.BankTransaction) error {
	if _, err := ledger.ParseTransactionType(string(txn.Type)); err != nil {
		return err
	}
	amount, err := ledger.ToMinor(txn.Amount.Abs())
	if err != nil {
		return err
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("transaction date is required")
	}

	if txn.ID == "" {
		txn.ID = newID()
	}
	txn.OwnerID = s.ownerID
	txn.Amount = txn.Amount.Abs()
	txn.JournalEntryID = nil
	txn.Status = ledger.StatusUncategorized
	if txn.CategoryLabel() != "" {
		txn.Status = ledger.StatusCategorized
	}
	now := s.now()
	txn.CreatedAt = now
	txn.UpdatedAt = now

	query := `
		INSERT INTO bank_transactions (` + bankTransactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?, ?)
	`
	_, err = s.q.ExecContext(ctx, query,
		txn.ID,
		txn.OwnerID,
		txn.BankAccountID,
		txn.Description,
		amount,
		string(txn.Type),
		txn.Date.Format(DateLayout),
		nullString(txn.Category),
		string(txn.Status),
		txn.IsReviewed,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create bank transaction: %w", err)
	}

	return nil
}

// GetBankTransaction retrieves a bank transaction by ID.
func (s *Store) GetBankTransaction(ctx context.Context, id string) (*ledger.BankTransaction, error) {
	query := `SELECT ` + bankTransactionColumns + ` FROM bank_transactions WHERE id = ? AND owner_id = ?`
	txn, err := scanBankTransaction(s.q.QueryRowContext(ctx, query, id, s.ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to get bank transaction %s: %w", id, err)
	}
	return txn, nil
}

// ListBankTransactions retrieves bank transactions, newest first.
func (s *Store) ListBankTransactions(ctx context.Context, filter TransactionFilter) ([]*ledger.BankTransaction, error) {
	conditions := []string{"owner_id = ?"}
	args := []interface{}{s.ownerID}

	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.BankAccountID != "" {
		conditions = append(conditions, "bank_account_id = ?")
		args = append(args, filter.BankAccountID)
	}

	query := `SELECT ` + bankTransactionColumns + ` FROM bank_transactions
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY transaction_date DESC, created_at DESC`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank transactions: %w", err)
	}
	defer rows.Close()

	var txns []*ledger.BankTransaction
	for rows.Next() {
		txn, err := scanBankTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}

// UpdateCategory writes the category, review flag and status of an unposted transaction.
func (s *Store) UpdateCategory(ctx context.Context, id string, category *string, reviewed bool, status ledger.TransactionStatus) error {
	query := `
		UPDATE bank_transactions
		SET category = ?, is_reviewed = ?, status = ?, updated_at = ?
		WHERE id = ? AND owner_id = ? AND status != 'posted'
	`
	result, err := s.q.ExecContext(ctx, query, nullString(category), reviewed, string(status), s.now(), id, s.ownerID)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return s.checkTransactionUpdated(ctx, id, result)
}

// UpdateTransactionDetails edits description, amount or date. Allowed in any state.
func (s *Store) UpdateTransactionDetails(ctx context.Context, id string, patch TransactionPatch) error {
	sets := []string{"updated_at = ?"}
	args := []interface{}{s.now()}

	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Amount != nil {
		amount, err := ledger.ToMinor(patch.Amount.Abs())
		if err != nil {
			return err
		}
		sets = append(sets, "amount = ?")
		args = append(args, amount)
	}
	if patch.Date != nil {
		sets = append(sets, "transaction_date = ?")
		args = append(args, patch.Date.Format(DateLayout))
	}
	args = append(args, id, s.ownerID)

	query := `UPDATE bank_transactions SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND owner_id = ?`
	result, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update bank transaction: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("failed to update bank transaction %s: %w", id, ledger.ErrNotFound)
	}
	return nil
}

// MarkTransactionPosted flips a transaction to posted and links its journal entry.
// The link is written only while it is still empty.
func (s *Store) MarkTransactionPosted(ctx context.Context, id, journalEntryID string) error {
	query := `
		UPDATE bank_transactions
		SET status = 'posted', journal_entry_id = ?, updated_at = ?
		WHERE id = ? AND owner_id = ? AND journal_entry_id IS NULL
	`
	result, err := s.q.ExecContext(ctx, query, journalEntryID, s.now(), id, s.ownerID)
	if err != nil {
		return fmt.Errorf("failed to mark transaction posted: %w", err)
	}
	return s.checkTransactionUpdated(ctx, id, result)
}

// checkTransactionUpdated tells a missing row apart from a posted one
// when a guarded UPDATE touched nothing.
func (s *Store) checkTransactionUpdated(ctx context.Context, id string, result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	txn, err := s.GetBankTransaction(ctx, id)
	if err != nil {
		return err
	}
	if txn.IsPosted() {
		return fmt.Errorf("bank transaction %s: %w", id, ledger.ErrAlreadyPosted)
	}
	return fmt.Errorf("bank transaction %s was not updated", id)
}

func scanBankTransaction(row rowScanner) (*ledger.BankTransaction, error) {
	var (
		txn             ledger.BankTransaction
		amount          int64
		txnType, status string
		date            string
		category, entry sql.NullString
	)
	err := row.Scan(
		&txn.ID,
		&txn.OwnerID,
		&txn.BankAccountID,
		&txn.Description,
		&amount,
		&txnType,
		&date,
		&category,
		&status,
		&entry,
		&txn.IsReviewed,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	txn.Date, err = parseDate(date)
	if err != nil {
		return nil, err
	}
	txn.Amount = ledger.FromMinor(amount)
	txn.Type = ledger.TransactionType(txnType)
	txn.Status = ledger.TransactionStatus(status)
	txn.Category = stringPtr(category)
	txn.JournalEntryID = stringPtr(entry)
	return &txn, nil
}
