package export

import (
	"fmt"

	"github.com/shunichi-ikebuchi/ledger-posting/pkg/beancount"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/ledger"
)

// Converter converts journal entries to Beancount transactions.
type Converter struct {
	mapper   *Mapper
	currency string
}

// NewConverter creates a new Converter.
func NewConverter(mapper *Mapper, currency string) *Converter {
	if mapper == nil {
		mapper = NewMapper()
	}
	if currency == "" {
		currency = "USD"
	}
	return &Converter{
		mapper:   mapper,
		currency: currency,
	}
}

// ConvertEntry converts a journal entry. Debits are positive, credits negative.
// accounts maps account id to chart account and must contain every line's account.
func (c *Converter) ConvertEntry(entry *ledger.JournalEntry, accounts map[string]*ledger.Account) (beancount.Transaction, error) {
	postings := make([]beancount.Posting, 0, len(entry.Lines))

	for _, line := range entry.Lines {
		account, ok := accounts[line.AccountID]
		if !ok {
			return beancount.Transaction{}, fmt.Errorf("journal entry %s: account %s (%s): %w",
				entry.EntryNumber, line.AccountID, line.AccountName, ledger.ErrNotFound)
		}

		postings = append(postings, beancount.Posting{
			Account:  c.mapper.Resolve(account),
			Amount:   line.Delta(),
			Currency: c.currency,
		})
	}

	return beancount.Transaction{
		Date:      entry.EntryDate,
		Narration: entry.Description,
		Tags:      []string{"ledger-posting"},
		Links:     []string{entry.EntryNumber},
		Metadata: map[string]string{
			"reference_type": entry.ReferenceType,
			"reference_id":   entry.ReferenceID,
		},
		Postings: postings,
	}, nil
}
