package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shunichi-ikebuchi/ledger-posting/pkg/ledger"
)

const journalEntryColumns = `id, owner_id, entry_number, entry_date, description,
	reference_type, reference_id, total_debit, total_credit, status, created_at`

// LastEntryNumber returns the entry number with the highest numeric sequence
// for the given prefix, or "" when the day has no entries yet.
func (s *Store) LastEntryNumber(ctx context.Context, prefix string) (string, error) {
	query := `
		SELECT entry_number FROM journal_entries
		WHERE owner_id = ? AND entry_number LIKE ?
		ORDER BY CAST(substr(entry_number, ?) AS INTEGER) DESC
		LIMIT 1
	`

	var number string
	err := s.q.QueryRowContext(ctx, query, s.ownerID, prefix+"%", len(prefix)+1).Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get last entry number: %w", err)
	}

	return number, nil
}

// InsertJournalEntry inserts a journal entry header.
func (s *Store) InsertJournalEntry(ctx context.Context, entry *ledger.JournalEntry) error {
	totalDebit, err := ledger.ToMinor(entry.TotalDebit)
	if err != nil {
		return err
	}
	totalCredit, err := ledger.ToMinor(entry.TotalCredit)
	if err != nil {
		return err
	}

	if entry.ID == "" {
		entry.ID = newID()
	}
	entry.OwnerID = s.ownerID
	entry.CreatedAt = s.now()

	query := `INSERT INTO journal_entries (` + journalEntryColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.q.ExecContext(ctx, query,
		entry.ID,
		entry.OwnerID,
		entry.EntryNumber,
		entry.EntryDate.Format(DateLayout),
		entry.Description,
		entry.ReferenceType,
		entry.ReferenceID,
		totalDebit,
		totalCredit,
		entry.Status,
		entry.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: entry number %s", ErrDuplicate, entry.EntryNumber)
		}
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}

	return nil
}

// InsertJournalEntryLine inserts one line of a journal entry.
func (s *Store) InsertJournalEntryLine(ctx context.Context, line *ledger.JournalEntryLine) error {
	debit, err := ledger.ToMinor(line.DebitAmount)
	if err != nil {
		return err
	}
	credit, err := ledger.ToMinor(line.CreditAmount)
	if err != nil {
		return err
	}
	if line.ID == "" {
		line.ID = newID()
	}

	query := `
		INSERT INTO journal_entry_lines
			(id, journal_entry_id, account_id, account_name, description, debit_amount, credit_amount, line_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.q.ExecContext(ctx, query,
		line.ID,
		line.JournalEntryID,
		line.AccountID,
		line.AccountName,
		line.Description,
		debit,
		credit,
		line.LineOrder,
	)
	if err != nil {
		return fmt.Errorf("failed to insert journal entry line: %w", err)
	}

	return nil
}

// GetJournalEntry retrieves a journal entry with its lines.
func (s *Store) GetJournalEntry(ctx context.Context, id string) (*ledger.JournalEntry, error) {
	query := `SELECT ` + journalEntryColumns + ` FROM journal_entries WHERE id = ? AND owner_id = ?`
	entry, err := scanJournalEntry(s.q.QueryRowContext(ctx, query, id, s.ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to get journal entry %s: %w", id, err)
	}

	entry.Lines, err = s.listJournalEntryLines(ctx, entry.ID)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListJournalEntries retrieves entries dated within [from, to], with lines,
// ordered by date and entry number. Zero bounds are open.
func (s *Store) ListJournalEntries(ctx context.Context, from, to time.Time) ([]*ledger.JournalEntry, error) {
	query := `SELECT ` + journalEntryColumns + ` FROM journal_entries
		WHERE owner_id = ? AND entry_date >= ? AND entry_date <= ?
		ORDER BY entry_date, entry_number`

	lo, hi := dateBounds(from, to)
	rows, err := s.q.QueryContext(ctx, query, s.ownerID, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}

	var entries []*ledger.JournalEntry
	for rows.Next() {
		entry, err := scanJournalEntry(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.Lines, err = s.listJournalEntryLines(ctx, entry.ID); err != nil {
			return nil, err
		}
	}

	return entries, nil
}

// ListJournalEntriesByReference retrieves the entries created from one source row.
func (s *Store) ListJournalEntriesByReference(ctx context.Context, referenceType, referenceID string) ([]*ledger.JournalEntry, error) {
	query := `SELECT ` + journalEntryColumns + ` FROM journal_entries
		WHERE owner_id = ? AND reference_type = ? AND reference_id = ?
		ORDER BY entry_number`

	rows, err := s.q.QueryContext(ctx, query, s.ownerID, referenceType, referenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries by reference: %w", err)
	}
	defer rows.Close()

	var entries []*ledger.JournalEntry
	for rows.Next() {
		entry, err := scanJournalEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (s *Store) listJournalEntryLines(ctx context.Context, entryID string) ([]ledger.JournalEntryLine, error) {
	query := `
		SELECT id, journal_entry_id, account_id, account_name, description, debit_amount, credit_amount, line_order
		FROM journal_entry_lines
		WHERE journal_entry_id = ?
		ORDER BY line_order
	`

	rows, err := s.q.QueryContext(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entry lines: %w", err)
	}
	defer rows.Close()

	var lines []ledger.JournalEntryLine
	for rows.Next() {
		var (
			line          ledger.JournalEntryLine
			debit, credit int64
		)
		if err := rows.Scan(
			&line.ID,
			&line.JournalEntryID,
			&line.AccountID,
			&line.AccountName,
			&line.Description,
			&debit,
			&credit,
			&line.LineOrder,
		); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry line: %w", err)
		}
		line.DebitAmount = ledger.FromMinor(debit)
		line.CreditAmount = ledger.FromMinor(credit)
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

func scanJournalEntry(row rowScanner) (*ledger.JournalEntry, error) {
	var (
		entry         ledger.JournalEntry
		date          string
		debit, credit int64
	)
	err := row.Scan(
		&entry.ID,
		&entry.OwnerID,
		&entry.EntryNumber,
		&date,
		&entry.Description,
		&entry.ReferenceType,
		&entry.ReferenceID,
		&debit,
		&credit,
		&entry.Status,
		&entry.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	entry.EntryDate, err = parseDate(date)
	if err != nil {
		return nil, err
	}
	entry.TotalDebit = ledger.FromMinor(debit)
	entry.TotalCredit = ledger.FromMinor(credit)
	return &entry, nil
}

// dateBounds turns optional bounds into inclusive YYYY-MM-DD strings.
func dateBounds(from, to time.Time) (string, string) {
	lo, hi := "0000-01-01", "9999-12-31"
	if !from.IsZero() {
		lo = from.Format(DateLayout)
	}
	if !to.IsZero() {
		hi = to.Format(DateLayout)
	}
	return lo, hi
}
