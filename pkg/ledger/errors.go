package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced row does not exist for the owner.
	ErrNotFound = errors.New("record not found")

	// ErrNotCategorized is returned when posting a transaction without a category.
	ErrNotCategorized = errors.New("transaction is not categorized")

	// ErrAlreadyPosted is returned when a transaction already has a journal entry.
	ErrAlreadyPosted = errors.New("transaction is already posted")

	// ErrInvalidAmount is returned for zero amounts or amounts finer than a cent.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrEntrySequenceExhausted is returned when a day already has 999 entries.
	ErrEntrySequenceExhausted = errors.New("journal entry sequence exhausted for day")

	// ErrBankAccountMissingInLedger matches any AccountResolutionError for the bank leg.
	ErrBankAccountMissingInLedger = errors.New("bank account missing in chart of accounts")

	// ErrCategoryAccountMissing matches any AccountResolutionError for the category leg.
	ErrCategoryAccountMissing = errors.New("category account missing in chart of accounts")
)

// ResolutionKind says which leg of a posting could not be matched to an account.
type ResolutionKind string

const (
	BankAccountMissingInLedger ResolutionKind = "bank_account_missing_in_ledger"
	CategoryAccountMissing     ResolutionKind = "category_account_missing"
)

// AccountResolutionError is returned when a bank-account or category label
// does not match any chart-of-accounts name for the owner.
type AccountResolutionError struct {
	Kind  ResolutionKind
	Label string
}

func (e *AccountResolutionError) Error() string {
	switch e.Kind {
	case BankAccountMissingInLedger:
		return fmt.Sprintf("bank account %q not found in chart of accounts", e.Label)
	case CategoryAccountMissing:
		return fmt.Sprintf("category account %q not found in chart of accounts", e.Label)
	}
	return fmt.Sprintf("account %q not found in chart of accounts", e.Label)
}

// Is lets errors.Is match the per-kind sentinels.
func (e *AccountResolutionError) Is(target error) bool {
	switch target {
	case ErrBankAccountMissingInLedger:
		return e.Kind == BankAccountMissingInLedger
	case ErrCategoryAccountMissing:
		return e.Kind == CategoryAccountMissing
	}
	return false
}

// PostingError wraps a failure inside the posting write sequence.
// The sequence runs in one database transaction, so nothing was committed.
type PostingError struct {
	TransactionID string
	Step          string
	Err           error
}

func (e *PostingError) Error() string {
	return fmt.Sprintf("posting transaction %s failed at %s: %v", e.TransactionID, e.Step, e.Err)
}

func (e *PostingError) Unwrap() error {
	return e.Err
}
