package beancount

import (
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/pathutil"
)

func sampleTransaction() Transaction {
	return Transaction{
		Date:      time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC),
		Narration: "Paper and toner",
		Tags:      []string{"bank-import"},
		Links:     []string{"JE20250310001"},
		Metadata:  map[string]string{"reference_id": "txn-1", "entry_number": "JE20250310001"},
		Postings: []Posting{
			{Account: "Assets:Bank:Checking", Amount: decimal.RequireFromString("-150"), Currency: "USD"},
			{Account: "Expenses:OfficeSupplies", Amount: decimal.RequireFromString("150"), Currency: "USD"},
		},
	}
}

func TestFormat(t *testing.T) {
	out := sampleTransaction().Format()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	assert.Equal(t, 5, len(lines))
	assert.Equal(t, `2025-03-08 * "Paper and toner" #bank-import ^JE20250310001`, lines[0])
	assert.Equal(t, `  entry_number: "JE20250310001"`, lines[1])
	assert.Equal(t, `  reference_id: "txn-1"`, lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "  Assets:Bank:Checking "))
	assert.True(t, strings.HasSuffix(lines[3], "-150.00 USD"))
	assert.True(t, strings.HasSuffix(lines[4], " 150.00 USD"))
	// Amounts line up on the same column.
	assert.Equal(t, len(lines[3]), len(lines[4]))
}

func TestAppendTransaction(t *testing.T) {
	resolver := pathutil.New(pathutil.Config{Root: t.TempDir()})
	repo := NewFileSystemRepository(resolver)
	txn := sampleTransaction()

	path, err := repo.AppendTransaction(txn, "first")
	assert.NoError(t, err)
	assert.Equal(t, resolver.GetMonthFilePath(txn.Date), path)

	_, err = repo.AppendTransaction(txn)
	assert.NoError(t, err)

	content, err := repo.ReadMonthFile(txn.Date)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(content, "; Beancount file for 2025-03\n"))
	assert.Contains(t, content, "; first\n2025-03-08 *")
	assert.Equal(t, 2, strings.Count(content, "Paper and toner"))

	months, err := repo.GetMonthFilesInYear(2025)
	assert.NoError(t, err)
	assert.Equal(t, []string{"2025-03"}, months)

	months, err = repo.GetMonthFilesInYear(2024)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(months))

	content, err = repo.ReadMonthFile(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.Equal(t, "", content)
}
