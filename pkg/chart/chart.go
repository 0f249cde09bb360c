// Package chart loads a chart-of-accounts seed file and applies it to an
// owner's ledger.
package chart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/db"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/ledger"
	"gopkg.in/yaml.v3"
)

// AccountSpec is one chart-of-accounts entry in the seed file.
type AccountSpec struct {
	Name           string `yaml:"name"`
	Type           string `yaml:"type"`
	Subtype        string `yaml:"subtype"`
	OpeningBalance string `yaml:"opening_balance"`
}

// BankAccountSpec is one bank account in the seed file. With LedgerAccount
// set, a matching asset account is created in the chart as well.
type BankAccountSpec struct {
	AccountName    string `yaml:"account_name"`
	BankName       string `yaml:"bank_name"`
	AccountNumber  string `yaml:"account_number"`
	LedgerAccount  bool   `yaml:"ledger_account"`
	OpeningBalance string `yaml:"opening_balance"`
}

// Chart is the seed file.
type Chart struct {
	Accounts     []AccountSpec     `yaml:"accounts"`
	BankAccounts []BankAccountSpec `yaml:"bank_accounts"`
}

// Load reads and validates a seed file.
func Load(path string) (*Chart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chart file: %w", err)
	}

	var c Chart
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports every problem in the file at once.
func (c *Chart) Validate() error {
	var problems []string
	names := map[string]bool{}

	for i, a := range c.Accounts {
		if strings.TrimSpace(a.Name) == "" {
			problems = append(problems, fmt.Sprintf("accounts[%d]: name is required", i))
		} else if names[a.Name] {
			problems = append(problems, fmt.Sprintf("accounts[%d]: duplicate name %q", i, a.Name))
		}
		names[a.Name] = true

		if _, err := ledger.ParseAccountType(a.Type); err != nil {
			problems = append(problems, fmt.Sprintf("accounts[%d]: %v", i, err))
		}
		if _, err := parseOpening(a.OpeningBalance); err != nil {
			problems = append(problems, fmt.Sprintf("accounts[%d]: %v", i, err))
		}
	}

	banks := map[string]bool{}
	for i, b := range c.BankAccounts {
		if strings.TrimSpace(b.AccountName) == "" {
			problems = append(problems, fmt.Sprintf("bank_accounts[%d]: account_name is required", i))
		} else if banks[b.AccountName] {
			problems = append(problems, fmt.Sprintf("bank_accounts[%d]: duplicate account_name %q", i, b.AccountName))
		}
		banks[b.AccountName] = true

		if b.LedgerAccount && names[b.AccountName] {
			problems = append(problems, fmt.Sprintf("bank_accounts[%d]: %q is already listed under accounts", i, b.AccountName))
		}
		if _, err := parseOpening(b.OpeningBalance); err != nil {
			problems = append(problems, fmt.Sprintf("bank_accounts[%d]: %v", i, err))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid chart:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// Result counts what Apply created and skipped.
type Result struct {
	AccountsCreated     int
	AccountsSkipped     int
	BankAccountsCreated int
	BankAccountsSkipped int
}

// Apply creates every account and bank account that does not exist yet,
// in one database transaction. Existing names are left untouched.
func (c *Chart) Apply(ctx context.Context, store *db.Store, log *slog.Logger) (*Result, error) {
	if log == nil {
		log = slog.Default()
	}

	accounts := append([]AccountSpec(nil), c.Accounts...)
	for _, b := range c.BankAccounts {
		if b.LedgerAccount {
			accounts = append(accounts, AccountSpec{
				Name:           b.AccountName,
				Type:           string(ledger.AccountTypeAsset),
				Subtype:        "bank",
				OpeningBalance: b.OpeningBalance,
			})
		}
	}

	var result Result
	err := store.Transaction(ctx, func(tx *db.Store) error {
		for _, spec := range accounts {
			created, err := applyAccount(ctx, tx, spec)
			if err != nil {
				return err
			}
			if created {
				result.AccountsCreated++
				log.Debug("account created", "name", spec.Name, "type", spec.Type)
			} else {
				result.AccountsSkipped++
			}
		}

		for _, spec := range c.BankAccounts {
			created, err := applyBankAccount(ctx, tx, spec)
			if err != nil {
				return err
			}
			if created {
				result.BankAccountsCreated++
				log.Debug("bank account created", "account_name", spec.AccountName)
			} else {
				result.BankAccountsSkipped++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("chart applied",
		"owner_id", store.OwnerID(),
		"accounts_created", result.AccountsCreated,
		"accounts_skipped", result.AccountsSkipped,
		"bank_accounts_created", result.BankAccountsCreated,
		"bank_accounts_skipped", result.BankAccountsSkipped,
	)
	return &result, nil
}

func applyAccount(ctx context.Context, tx *db.Store, spec AccountSpec) (bool, error) {
	_, err := tx.FindAccountByName(ctx, spec.Name)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ledger.ErrNotFound) {
		return false, err
	}

	accountType, err := ledger.ParseAccountType(spec.Type)
	if err != nil {
		return false, err
	}
	opening, err := parseOpening(spec.OpeningBalance)
	if err != nil {
		return false, err
	}

	return true, tx.CreateAccount(ctx, &ledger.Account{
		Name:           spec.Name,
		Type:           accountType,
		Subtype:        spec.Subtype,
		OpeningBalance: opening,
	})
}

func applyBankAccount(ctx context.Context, tx *db.Store, spec BankAccountSpec) (bool, error) {
	_, err := tx.FindBankAccountByName(ctx, spec.AccountName)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ledger.ErrNotFound) {
		return false, err
	}

	return true, tx.CreateBankAccount(ctx, &ledger.BankAccount{
		AccountName:   spec.AccountName,
		BankName:      spec.BankName,
		AccountNumber: spec.AccountNumber,
	})
}

func parseOpening(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, err := ledger.ParseAmount(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("opening_balance: %w", err)
	}
	return d, nil
}
