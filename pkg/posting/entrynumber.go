package posting

import (
	"context"
	"fmt"
	"time"

	"github.com/shunichi-ikebuchi/ledger-posting/pkg/ledger"
)

// EntrySource reports the highest existing entry number for a day prefix.
type EntrySource interface {
	LastEntryNumber(ctx context.Context, prefix string) (string, error)
}

// NextEntryNumber returns the next JE{YYYYMMDD}{NNN} number for day.
//
// Callers must hold the database write lock while reading and inserting,
// otherwise two postings on the same day can pick the same number.
func NextEntryNumber(ctx context.Context, src EntrySource, day time.Time) (string, error) {
	prefix := ledger.EntryPrefix(day)

	last, err := src.LastEntryNumber(ctx, prefix)
	if err != nil {
		return "", err
	}

	seq := 1
	if last != "" {
		prev, err := ledger.ParseEntrySequence(last, prefix)
		if err != nil {
			return "", err
		}
		seq = prev + 1
	}

	if seq > ledger.MaxEntrySequence {
		return "", fmt.Errorf("%w: %s", ledger.ErrEntrySequenceExhausted, prefix)
	}

	return ledger.FormatEntryNumber(day, seq)
}

// DaySource selects which day feeds the entry number prefix.
type DaySource string

const (
	// DayFromPostingTime uses the wall-clock day the posting runs.
	DayFromPostingTime DaySource = "posting"
	// DayFromTransactionDate uses the bank transaction's own date.
	DayFromTransactionDate DaySource = "transaction"
)

// ParseDaySource parses "posting" or "transaction"; empty means posting.
func ParseDaySource(s string) (DaySource, error) {
	switch DaySource(s) {
	case "", DayFromPostingTime:
		return DayFromPostingTime, nil
	case DayFromTransactionDate:
		return DayFromTransactionDate, nil
	}
	return "", fmt.Errorf("invalid entry date source %q (expected posting or transaction)", s)
}
