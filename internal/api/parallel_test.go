package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pigeonworks-llc/go-portalloc/pkg/ports"
	"github.com/shopspring/decimal"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/db"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/ledger"
)

// startListeningServer runs the router on a real port like the serve command.
func startListeningServer(t *testing.T, conn *db.Connection) string {
	t.Helper()

	// Allocate a free port using go-portalloc
	allocator := ports.NewAllocator(nil)
	port, err := allocator.AllocateRange(1)
	if err != nil {
		t.Fatalf("Failed to allocate port: %v", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: NewRouter(Deps{Conn: conn}),
	}
	go func() {
		_ = server.ListenAndServe()
	}()
	t.Cleanup(func() {
		_ = server.Close()
	})

	// Wait for server to be ready
	baseURL := fmt.Sprintf("http://localhost:%d", port)
	maxRetries := 10
	for i := 0; i < maxRetries; i++ {
		resp, err := http.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			break
		}
		if i == maxRetries-1 {
			t.Fatalf("Server did not start: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	return baseURL
}

func seedOwner(t *testing.T, store *db.Store, n int) []string {
	t.Helper()
	ctx := context.Background()

	if err := store.CreateAccount(ctx, &ledger.Account{Name: "Checking", Type: ledger.AccountTypeAsset}); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if err := store.CreateAccount(ctx, &ledger.Account{Name: "Sales", Type: ledger.AccountTypeIncome}); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	bank := &ledger.BankAccount{AccountName: "Checking"}
	if err := store.CreateBankAccount(ctx, bank); err != nil {
		t.Fatalf("CreateBankAccount: %v", err)
	}

	category := "Sales"
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		txn := &ledger.BankTransaction{
			BankAccountID: bank.ID,
			Description:   fmt.Sprintf("Invoice %d", i+1),
			Amount:        decimal.NewFromInt(25),
			Type:          ledger.TransactionCredit,
			Date:          time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			Category:      &category,
		}
		if err := store.CreateBankTransaction(ctx, txn); err != nil {
			t.Fatalf("CreateBankTransaction: %v", err)
		}
		ids = append(ids, txn.ID)
	}
	return ids
}

func TestParallelOwnersPostIndependently(t *testing.T) {
	conn, err := db.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	baseURL := startListeningServer(t, conn)

	const perOwner = 5
	owners := []string{"alpha", "bravo", "charlie", "delta"}
	ids := map[string][]string{}
	for _, o := range owners {
		ids[o] = seedOwner(t, db.NewStore(conn, o), perOwner)
	}

	var wg sync.WaitGroup
	for _, o := range owners {
		wg.Add(1)
		go func(owner string) {
			defer wg.Done()

			body, _ := json.Marshal(map[string]interface{}{"ids": ids[owner]})
			req, _ := http.NewRequest(http.MethodPost, baseURL+"/api/v1/transactions/post", bytes.NewReader(body))
			req.Header.Set(OwnerHeader, owner)
			req.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Errorf("%s: request failed: %v", owner, err)
				return
			}
			defer resp.Body.Close()

			var result bulkPostResponse
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				t.Errorf("%s: decode failed: %v", owner, err)
				return
			}
			if result.Outcome != "all_succeeded" {
				t.Errorf("%s: expected all_succeeded, got %+v", owner, result)
			}
		}(o)
	}
	wg.Wait()

	ctx := context.Background()
	for _, o := range owners {
		store := db.NewStore(conn, o)

		checking, err := store.FindAccountByName(ctx, "Checking")
		if err != nil {
			t.Fatalf("%s: %v", o, err)
		}
		if got := checking.CurrentBalance.StringFixed(2); got != "125.00" {
			t.Errorf("%s: Checking balance = %s, want 125.00", o, got)
		}

		// Each owner has its own entry number sequence.
		entries, err := store.ListJournalEntries(ctx, time.Time{}, time.Time{})
		if err != nil {
			t.Fatalf("%s: %v", o, err)
		}
		if len(entries) != perOwner {
			t.Fatalf("%s: expected %d entries, got %d", o, perOwner, len(entries))
		}
		seen := map[string]bool{}
		for _, e := range entries {
			seen[e.EntryNumber[len(e.EntryNumber)-3:]] = true
		}
		for i := 1; i <= perOwner; i++ {
			if !seen[fmt.Sprintf("%03d", i)] {
				t.Errorf("%s: missing sequence %03d in %v", o, i, seen)
			}
		}
	}
}
