// Package db provides SQLite storage for the chart of accounts, bank transactions,
// journal entries and the day book.
package db

// Schema defines the SQL statements to create database tables.
// Money columns hold integer minor units (cents). Dates are YYYY-MM-DD text.
const Schema = `
-- Chart of accounts
-- current_balance is a debit-minus-credit accumulator
CREATE TABLE IF NOT EXISTS chart_of_accounts (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    account_name TEXT NOT NULL,
    account_type TEXT NOT NULL,
    account_subtype TEXT NOT NULL DEFAULT '',
    opening_balance INTEGER NOT NULL DEFAULT 0,
    current_balance INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    UNIQUE(owner_id, account_name)
);

CREATE TABLE IF NOT EXISTS bank_accounts (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    account_name TEXT NOT NULL,
    bank_name TEXT NOT NULL DEFAULT '',
    account_number TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    UNIQUE(owner_id, account_name)
);

CREATE TABLE IF NOT EXISTS journal_entries (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    entry_number TEXT NOT NULL,
    entry_date TEXT NOT NULL,
    description TEXT NOT NULL,
    reference_type TEXT NOT NULL,
    reference_id TEXT NOT NULL,
    total_debit INTEGER NOT NULL,
    total_credit INTEGER NOT NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    UNIQUE(owner_id, entry_number)
);

CREATE INDEX IF NOT EXISTS idx_journal_entries_reference
    ON journal_entries(owner_id, reference_type, reference_id);

CREATE TABLE IF NOT EXISTS journal_entry_lines (
    id TEXT PRIMARY KEY,
    journal_entry_id TEXT NOT NULL REFERENCES journal_entries(id),
    account_id TEXT NOT NULL REFERENCES chart_of_accounts(id),
    account_name TEXT NOT NULL,
    description TEXT NOT NULL,
    debit_amount INTEGER NOT NULL DEFAULT 0,
    credit_amount INTEGER NOT NULL DEFAULT 0,
    line_order INTEGER NOT NULL,
    UNIQUE(journal_entry_id, line_order)
);

CREATE TABLE IF NOT EXISTS bank_transactions (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    bank_account_id TEXT NOT NULL REFERENCES bank_accounts(id),
    description TEXT NOT NULL,
    amount INTEGER NOT NULL,
    transaction_type TEXT NOT NULL,  -- 'credit' or 'debit'
    transaction_date TEXT NOT NULL,
    category TEXT,
    status TEXT NOT NULL DEFAULT 'uncategorized',
    journal_entry_id TEXT REFERENCES journal_entries(id),
    is_reviewed INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bank_transactions_status
    ON bank_transactions(owner_id, status);

-- Day book
-- Append-only copy of every posted line
CREATE TABLE IF NOT EXISTS day_book_entries (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    entry_date TEXT NOT NULL,
    account_id TEXT NOT NULL,
    account_name TEXT NOT NULL,
    description TEXT NOT NULL,
    debit_amount INTEGER NOT NULL DEFAULT 0,
    credit_amount INTEGER NOT NULL DEFAULT 0,
    reference_number TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_day_book_date
    ON day_book_entries(owner_id, entry_date);

-- Journal exports
-- Tracks which journal entries have been written to Beancount files
CREATE TABLE IF NOT EXISTS journal_exports (
    journal_entry_id TEXT PRIMARY KEY REFERENCES journal_entries(id),
    export_file TEXT NOT NULL,
    exported_at TIMESTAMP NOT NULL
);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
