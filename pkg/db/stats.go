package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Stats represents posting statistics for one owner.
type Stats struct {
	Uncategorized  int
	Categorized    int
	Posted         int
	JournalEntries int
	DayBookEntries int
	Exported       int
	LastPosting    sql.NullString
}

// GetStats retrieves posting statistics.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats

	// Transaction counts by status
	rows, err := s.q.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM bank_transactions WHERE owner_id = ? GROUP BY status`, s.ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction counts: %w", err)
	}
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan transaction count: %w", err)
		}
		switch status {
		case "posted":
			stats.Posted = count
		case "categorized":
			stats.Categorized = count
		default:
			stats.Uncategorized += count
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Get journal entry count
	err = s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM journal_entries WHERE owner_id = ?`, s.ownerID).Scan(&stats.JournalEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to get journal entry count: %w", err)
	}

	// Get day book count
	err = s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM day_book_entries WHERE owner_id = ?`, s.ownerID).Scan(&stats.DayBookEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to get day book count: %w", err)
	}

	// Get export count
	err = s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM journal_exports e
		JOIN journal_entries j ON j.id = e.journal_entry_id
		WHERE j.owner_id = ?`, s.ownerID).Scan(&stats.Exported)
	if err != nil {
		return nil, fmt.Errorf("failed to get export count: %w", err)
	}

	// Get last posting time
	err = s.q.QueryRowContext(ctx,
		`SELECT MAX(created_at) FROM journal_entries WHERE owner_id = ?`, s.ownerID).Scan(&stats.LastPosting)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get last posting time: %w", err)
	}

	return &stats, nil
}
