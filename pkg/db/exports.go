package db

import (
	"context"
	"fmt"
)

// RecordExport records that a journal entry was written to an export file.
// Re-recording the same entry updates the file and timestamp.
func (s *Store) RecordExport(ctx context.Context, journalEntryID, exportFile string) error {
	query := `
		INSERT INTO journal_exports (journal_entry_id, export_file, exported_at)
		VALUES (?, ?, ?)
		ON CONFLICT(journal_entry_id) DO UPDATE SET
			export_file = excluded.export_file,
			exported_at = excluded.exported_at
	`

	_, err := s.q.ExecContext(ctx, query, journalEntryID, exportFile, s.now())
	if err != nil {
		return fmt.Errorf("failed to record export: %w", err)
	}

	return nil
}

// GetExportedIDs retrieves the IDs of this owner's exported journal entries.
// This is useful for bulk filtering.
func (s *Store) GetExportedIDs(ctx context.Context) (map[string]bool, error) {
	query := `
		SELECT e.journal_entry_id FROM journal_exports e
		JOIN journal_entries j ON j.id = e.journal_entry_id
		WHERE j.owner_id = ?
	`

	rows, err := s.q.QueryContext(ctx, query, s.ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exported IDs: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry ID: %w", err)
		}
		ids[id] = true
	}

	return ids, rows.Err()
}
