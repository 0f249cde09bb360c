package api

import (
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/db"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/ledger"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/posting"
)

// Amounts are rendered as fixed two-decimal strings.

type accountResponse struct {
	ID               string `json:"id"`
	Name             string `json:"account_name"`
	Type             string `json:"account_type"`
	Subtype          string `json:"account_subtype,omitempty"`
	OpeningBalance   string `json:"opening_balance"`
	CurrentBalance   string `json:"current_balance"`
	PresentedBalance string `json:"presented_balance"`
}

func newAccountResponse(a *ledger.Account) accountResponse {
	return accountResponse{
		ID:               a.ID,
		Name:             a.Name,
		Type:             string(a.Type),
		Subtype:          a.Subtype,
		OpeningBalance:   a.OpeningBalance.StringFixed(ledger.MinorUnitScale),
		CurrentBalance:   a.CurrentBalance.StringFixed(ledger.MinorUnitScale),
		PresentedBalance: a.PresentedBalance().StringFixed(ledger.MinorUnitScale),
	}
}

type transactionResponse struct {
	ID             string  `json:"id"`
	BankAccountID  string  `json:"bank_account_id"`
	Description    string  `json:"description"`
	Amount         string  `json:"amount"`
	Type           string  `json:"transaction_type"`
	Date           string  `json:"transaction_date"`
	Category       *string `json:"category"`
	Status         string  `json:"status"`
	JournalEntryID *string `json:"journal_entry_id"`
	IsReviewed     bool    `json:"is_reviewed"`
}

func newTransactionResponse(t *ledger.BankTransaction) transactionResponse {
	return transactionResponse{
		ID:             t.ID,
		BankAccountID:  t.BankAccountID,
		Description:    t.Description,
		Amount:         t.Amount.StringFixed(ledger.MinorUnitScale),
		Type:           string(t.Type),
		Date:           t.Date.Format(db.DateLayout),
		Category:       t.Category,
		Status:         string(t.State()),
		JournalEntryID: t.JournalEntryID,
		IsReviewed:     t.IsReviewed,
	}
}

func newTransactionResponses(txns []*ledger.BankTransaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, newTransactionResponse(t))
	}
	return out
}

type lineResponse struct {
	AccountID    string `json:"account_id"`
	AccountName  string `json:"account_name"`
	Description  string `json:"description"`
	DebitAmount  string `json:"debit_amount"`
	CreditAmount string `json:"credit_amount"`
	LineOrder    int    `json:"line_order"`
}

type journalEntryResponse struct {
	ID            string         `json:"id"`
	EntryNumber   string         `json:"entry_number"`
	EntryDate     string         `json:"entry_date"`
	Description   string         `json:"description"`
	ReferenceType string         `json:"reference_type"`
	ReferenceID   string         `json:"reference_id"`
	TotalDebit    string         `json:"total_debit"`
	TotalCredit   string         `json:"total_credit"`
	Status        string         `json:"status"`
	Lines         []lineResponse `json:"lines"`
}

func newJournalEntryResponse(e *ledger.JournalEntry) journalEntryResponse {
	lines := make([]lineResponse, 0, len(e.Lines))
	for _, l := range e.Lines {
		lines = append(lines, lineResponse{
			AccountID:    l.AccountID,
			AccountName:  l.AccountName,
			Description:  l.Description,
			DebitAmount:  l.DebitAmount.StringFixed(ledger.MinorUnitScale),
			CreditAmount: l.CreditAmount.StringFixed(ledger.MinorUnitScale),
			LineOrder:    l.LineOrder,
		})
	}

	return journalEntryResponse{
		ID:            e.ID,
		EntryNumber:   e.EntryNumber,
		EntryDate:     e.EntryDate.Format(db.DateLayout),
		Description:   e.Description,
		ReferenceType: e.ReferenceType,
		ReferenceID:   e.ReferenceID,
		TotalDebit:    e.TotalDebit.StringFixed(ledger.MinorUnitScale),
		TotalCredit:   e.TotalCredit.StringFixed(ledger.MinorUnitScale),
		Status:        e.Status,
		Lines:         lines,
	}
}

type dayBookResponse struct {
	EntryDate       string `json:"entry_date"`
	AccountID       string `json:"account_id"`
	AccountName     string `json:"account_name"`
	Description     string `json:"description"`
	DebitAmount     string `json:"debit_amount"`
	CreditAmount    string `json:"credit_amount"`
	ReferenceNumber string `json:"reference_number"`
}

func newDayBookResponse(d *ledger.DayBookEntry) dayBookResponse {
	return dayBookResponse{
		EntryDate:       d.EntryDate.Format(db.DateLayout),
		AccountID:       d.AccountID,
		AccountName:     d.AccountName,
		Description:     d.Description,
		DebitAmount:     d.DebitAmount.StringFixed(ledger.MinorUnitScale),
		CreditAmount:    d.CreditAmount.StringFixed(ledger.MinorUnitScale),
		ReferenceNumber: d.ReferenceNumber,
	}
}

type postResponse struct {
	Transaction  transactionResponse  `json:"transaction"`
	JournalEntry journalEntryResponse `json:"journal_entry"`
}

type bulkItemResponse struct {
	ID          string `json:"id"`
	Success     bool   `json:"success"`
	EntryNumber string `json:"entry_number,omitempty"`
	Error       string `json:"error,omitempty"`
	ErrorCode   string `json:"error_code,omitempty"`
}

type bulkPostResponse struct {
	Results   []bulkItemResponse `json:"results"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Outcome   string             `json:"outcome"`
}

func newBulkPostResponse(r posting.BulkResult) bulkPostResponse {
	items := make([]bulkItemResponse, 0, len(r.Results))
	for _, item := range r.Results {
		resp := bulkItemResponse{ID: item.ID, Success: item.Success, EntryNumber: item.EntryNumber}
		if item.Err != nil {
			_, resp.ErrorCode = errorCode(item.Err)
			resp.Error = item.Err.Error()
		}
		items = append(items, resp)
	}

	return bulkPostResponse{
		Results:   items,
		Succeeded: r.Succeeded,
		Failed:    r.Failed,
		Outcome:   string(r.Outcome()),
	}
}
