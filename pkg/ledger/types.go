// Package ledger defines the chart-of-accounts, bank transaction and journal types
// shared by the store, the posting engine and the categorization layer.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the accounting class of a chart-of-accounts entry.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeIncome    AccountType = "income"
	AccountTypeExpense   AccountType = "expense"
)

// ParseAccountType parses a case-insensitive account type name.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return t, nil
	}
	return "", fmt.Errorf("invalid account type %q", s)
}

// NormalBalance returns the side that increases an account of this type.
func (t AccountType) NormalBalance() Side {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// Side is a debit or credit leg.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// Account is a chart-of-accounts entry with a running balance.
//
// CurrentBalance is a signed debit-minus-credit accumulator regardless of
// the account type. Use PresentedBalance for display.
type Account struct {
	ID             string
	OwnerID        string
	Name           string
	Type           AccountType
	Subtype        string
	OpeningBalance decimal.Decimal
	CurrentBalance decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PresentedBalance returns the balance signed by the account's normal side,
// so a credit-normal account with net credits shows a positive amount.
func (a *Account) PresentedBalance() decimal.Decimal {
	if a.Type.NormalBalance() == SideCredit {
		return a.CurrentBalance.Neg()
	}
	return a.CurrentBalance
}

// BankAccount is a real-world bank account. Its AccountName must match a
// chart-of-accounts entry for its transactions to be posted.
type BankAccount struct {
	ID            string
	OwnerID       string
	AccountName   string
	BankName      string
	AccountNumber string
	CreatedAt     time.Time
}

// TransactionType is the bank's view of a statement line.
type TransactionType string

const (
	// TransactionCredit is money into the bank account.
	TransactionCredit TransactionType = "credit"
	// TransactionDebit is money out of the bank account.
	TransactionDebit TransactionType = "debit"
)

// ParseTransactionType parses "credit" or "debit".
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if t != TransactionCredit && t != TransactionDebit {
		return "", fmt.Errorf("invalid transaction type %q", s)
	}
	return t, nil
}

// TransactionStatus is the stored status column of a bank transaction.
type TransactionStatus string

const (
	StatusUncategorized TransactionStatus = "uncategorized"
	StatusCategorized   TransactionStatus = "categorized"
	StatusPosted        TransactionStatus = "posted"
)

// BankTransaction is an imported statement line.
type BankTransaction struct {
	ID             string
	OwnerID        string
	BankAccountID  string
	Description    string
	Amount         decimal.Decimal
	Type           TransactionType
	Date           time.Time
	Category       *string
	Status         TransactionStatus
	JournalEntryID *string
	IsReviewed     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CategoryLabel returns the trimmed category or "" when unset.
func (t *BankTransaction) CategoryLabel() string {
	if t.Category == nil {
		return ""
	}
	return strings.TrimSpace(*t.Category)
}

// State derives the lifecycle state from the status and category columns.
// Posted wins over everything; otherwise a non-empty category means categorized.
func (t *BankTransaction) State() TransactionStatus {
	if t.Status == StatusPosted {
		return StatusPosted
	}
	if t.CategoryLabel() != "" {
		return StatusCategorized
	}
	return StatusUncategorized
}

// IsPosted reports whether the transaction already produced a journal entry.
func (t *BankTransaction) IsPosted() bool {
	return t.Status == StatusPosted || t.JournalEntryID != nil
}

// Reference types and journal statuses written by the posting pipeline.
const (
	ReferenceBankTransaction = "bank_transaction"
	JournalStatusPosted      = "posted"
)

// JournalEntry is the header uniting a balanced set of lines.
type JournalEntry struct {
	ID            string
	OwnerID       string
	EntryNumber   string
	EntryDate     time.Time
	Description   string
	ReferenceType string
	ReferenceID   string
	TotalDebit    decimal.Decimal
	TotalCredit   decimal.Decimal
	Status        string
	CreatedAt     time.Time
	Lines         []JournalEntryLine
}

// JournalEntryLine is one debit or credit leg of a journal entry.
// Exactly one of DebitAmount and CreditAmount is non-zero.
type JournalEntryLine struct {
	ID             string
	JournalEntryID string
	AccountID      string
	AccountName    string
	Description    string
	DebitAmount    decimal.Decimal
	CreditAmount   decimal.Decimal
	LineOrder      int
}

// Delta is the change this line applies to its account's running balance.
func (l *JournalEntryLine) Delta() decimal.Decimal {
	return l.DebitAmount.Sub(l.CreditAmount)
}

// DayBookEntry is the append-only audit copy of a posted line.
type DayBookEntry struct {
	ID              string
	OwnerID         string
	EntryDate       time.Time
	AccountID       string
	AccountName     string
	Description     string
	DebitAmount     decimal.Decimal
	CreditAmount    decimal.Decimal
	ReferenceNumber string
	CreatedAt       time.Time
}
