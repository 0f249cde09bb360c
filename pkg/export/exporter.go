package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shunichi-ikebuchi/ledger-posting/pkg/beancount"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/db"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/ledger"
)

// Summary reports one export run.
type Summary struct {
	Exported int
	Skipped  int
	Files    []string
}

// Exporter appends not-yet-exported journal entries to monthly Beancount files.
type Exporter struct {
	store     *db.Store
	repo      beancount.Repository
	converter *Converter
	log       *slog.Logger
}

// NewExporter creates a new Exporter.
func NewExporter(store *db.Store, repo beancount.Repository, converter *Converter, log *slog.Logger) *Exporter {
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{store: store, repo: repo, converter: converter, log: log}
}

// Export writes entries dated within [from, to]. Zero bounds are open.
// Entries already recorded as exported are skipped, so reruns append nothing twice.
func (e *Exporter) Export(ctx context.Context, from, to time.Time) (*Summary, error) {
	entries, err := e.store.ListJournalEntries(ctx, from, to)
	if err != nil {
		return nil, err
	}

	exported, err := e.store.GetExportedIDs(ctx)
	if err != nil {
		return nil, err
	}

	accountList, err := e.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	accounts := make(map[string]*ledger.Account, len(accountList))
	for _, a := range accountList {
		accounts[a.ID] = a
	}

	summary := &Summary{}
	files := map[string]bool{}

	for _, entry := range entries {
		if exported[entry.ID] {
			summary.Skipped++
			continue
		}

		txn, err := e.converter.ConvertEntry(entry, accounts)
		if err != nil {
			return summary, err
		}

		// The record is written first and only committed once the append
		// succeeded, so a failed record never leaves an unrecorded entry on disk.
		path := e.repo.MonthFilePath(txn.Date)
		comment := fmt.Sprintf("%s from %s %s", entry.EntryNumber, entry.ReferenceType, entry.ReferenceID)
		err = e.store.Transaction(ctx, func(tx *db.Store) error {
			if err := tx.RecordExport(ctx, entry.ID, path); err != nil {
				return err
			}
			_, err := e.repo.AppendTransaction(txn, comment)
			return err
		})
		if err != nil {
			return summary, fmt.Errorf("failed to export %s: %w", entry.EntryNumber, err)
		}

		e.log.Debug("journal entry exported", "entry_number", entry.EntryNumber, "file", path)
		summary.Exported++
		if !files[path] {
			files[path] = true
			summary.Files = append(summary.Files, path)
		}
	}

	e.log.Info("export finished", "exported", summary.Exported, "skipped", summary.Skipped, "files", len(summary.Files))
	return summary, nil
}
