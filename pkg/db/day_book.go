package db

import (
	"context"
	"fmt"
	"time"

	"github.com/shunichi-ikebuchi/ledger-posting/pkg/ledger"
)

// InsertDayBookEntry appends an audit row. Day-book rows are never updated.
func (s *Store) InsertDayBookEntry(ctx context.Context, entry *ledger.DayBookEntry) error {
	debit, err := ledger.ToMinor(entry.DebitAmount)
	if err != nil {
		return err
	}
	credit, err := ledger.ToMinor(entry.CreditAmount)
	if err != nil {
		return err
	}

	if entry.ID == "" {
		entry.ID = newID()
	}
	entry.OwnerID = s.ownerID
	entry.CreatedAt = s.now()

	query := `
		INSERT INTO day_book_entries
			(id, owner_id, entry_date, account_id, account_name, description,
			 debit_amount, credit_amount, reference_number, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.q.ExecContext(ctx, query,
		entry.ID,
		entry.OwnerID,
		entry.EntryDate.Format(DateLayout),
		entry.AccountID,
		entry.AccountName,
		entry.Description,
		debit,
		credit,
		entry.ReferenceNumber,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert day book entry: %w", err)
	}

	return nil
}

// ListDayBook retrieves day-book rows dated within [from, to]. Zero bounds are open.
func (s *Store) ListDayBook(ctx context.Context, from, to time.Time) ([]*ledger.DayBookEntry, error) {
	lo, hi := dateBounds(from, to)
	return s.queryDayBook(ctx, `owner_id = ? AND entry_date >= ? AND entry_date <= ?`, s.ownerID, lo, hi)
}

// ListDayBookByReference retrieves the day-book rows written for one entry number.
func (s *Store) ListDayBookByReference(ctx context.Context, referenceNumber string) ([]*ledger.DayBookEntry, error) {
	return s.queryDayBook(ctx, `owner_id = ? AND reference_number = ?`, s.ownerID, referenceNumber)
}

func (s *Store) queryDayBook(ctx context.Context, where string, args ...interface{}) ([]*ledger.DayBookEntry, error) {
	query := `
		SELECT id, owner_id, entry_date, account_id, account_name, description,
			debit_amount, credit_amount, reference_number, created_at
		FROM day_book_entries
		WHERE ` + where + `
		ORDER BY entry_date, reference_number, created_at`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list day book: %w", err)
	}
	defer rows.Close()

	var entries []*ledger.DayBookEntry
	for rows.Next() {
		var (
			entry         ledger.DayBookEntry
			date          string
			debit, credit int64
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.OwnerID,
			&date,
			&entry.AccountID,
			&entry.AccountName,
			&entry.Description,
			&debit,
			&credit,
			&entry.ReferenceNumber,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan day book entry: %w", err)
		}
		if entry.EntryDate, err = parseDate(date); err != nil {
			return nil, err
		}
		entry.DebitAmount = ledger.FromMinor(debit)
		entry.CreditAmount = ledger.FromMinor(credit)
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
