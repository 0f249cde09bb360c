// Package beancount renders journal entries as Beancount text and appends
// them to monthly ledger files.
package beancount

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a Beancount transaction.
type Transaction struct {
	Date      time.Time
	Narration string            // Transaction description
	Payee     string            // Payee name (optional)
	Tags      []string          // Tags (e.g., ["bank-import"])
	Links     []string          // Links (e.g., ["JE20250310001"])
	Metadata  map[string]string // Metadata key-value pairs
	Postings  []Posting
}

// Posting represents a posting in a Beancount transaction.
type Posting struct {
	Account  string          // Account name (e.g., "Assets:Bank:Checking")
	Amount   decimal.Decimal // Positive for debit, negative for credit
	Currency string          // Currency code (e.g., "USD")
	Comment  string          // Posting comment (optional)
}

// amountColumn is where posting amounts are right-aligned.
const amountColumn = 60

// Format renders the transaction in Beancount syntax.
func (t Transaction) Format() string {
	var sb strings.Builder

	sb.WriteString(t.Date.Format("2006-01-02"))
	sb.WriteString(" *")
	if t.Payee != "" {
		fmt.Fprintf(&sb, " %q", t.Payee)
	}
	fmt.Fprintf(&sb, " %q", t.Narration)
	for _, tag := range t.Tags {
		sb.WriteString(" #" + tag)
	}
	for _, link := range t.Links {
		sb.WriteString(" ^" + link)
	}
	sb.WriteString("\n")

	for _, key := range sortedKeys(t.Metadata) {
		fmt.Fprintf(&sb, "  %s: %q\n", key, t.Metadata[key])
	}

	for _, p := range t.Postings {
		sb.WriteString("  ")
		sb.WriteString(p.Account)

		amount := p.Amount.StringFixed(2)
		spaces := amountColumn - len(p.Account) - len(amount)
		if spaces < 2 {
			spaces = 2
		}
		sb.WriteString(strings.Repeat(" ", spaces))
		sb.WriteString(amount + " " + p.Currency)

		if p.Comment != "" {
			sb.WriteString(" ; " + p.Comment)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
