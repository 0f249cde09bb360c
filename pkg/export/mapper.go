// Package export writes posted journal entries to Beancount files.
package export

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/shunichi-ikebuchi/ledger-posting/pkg/ledger"
	"gopkg.in/yaml.v3"
)

// AccountMapping maps one chart-of-accounts name to a Beancount account.
type AccountMapping struct {
	Ledger    string `yaml:"ledger"`
	Beancount string `yaml:"beancount"`
}

// MappingConfig is the YAML mapping file, grouped by account class.
type MappingConfig struct {
	Assets      []AccountMapping `yaml:"assets"`
	Liabilities []AccountMapping `yaml:"liabilities"`
	Equity      []AccountMapping `yaml:"equity"`
	Income      []AccountMapping `yaml:"income"`
	Expenses    []AccountMapping `yaml:"expenses"`
}

// Mapper maps chart-of-accounts names to Beancount account names.
type Mapper struct {
	ledgerToBean map[string]string
}

// NewMapper creates an empty Mapper; every account uses the fallback name.
func NewMapper() *Mapper {
	return &Mapper{ledgerToBean: make(map[string]string)}
}

// LoadMapper creates a Mapper from a YAML configuration file.
func LoadMapper(configPath string) (*Mapper, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	var config MappingConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	m := NewMapper()
	for _, group := range [][]AccountMapping{config.Assets, config.Liabilities, config.Equity, config.Income, config.Expenses} {
		for _, mapping := range group {
			if mapping.Ledger == "" || mapping.Beancount == "" {
				return nil, fmt.Errorf("mapping entries need both ledger and beancount names: %+v", mapping)
			}
			m.ledgerToBean[mapping.Ledger] = mapping.Beancount
		}
	}

	return m, nil
}

// GetBeancountAccount returns the mapped Beancount account, or "" when unmapped.
func (m *Mapper) GetBeancountAccount(ledgerName string) string {
	return m.ledgerToBean[ledgerName]
}

// Resolve returns the mapped name, falling back to {Root}:Unmapped:{Name}
// where Root follows the account type.
func (m *Mapper) Resolve(account *ledger.Account) string {
	if name := m.ledgerToBean[account.Name]; name != "" {
		return name
	}
	return fmt.Sprintf("%s:Unmapped:%s", rootFor(account.Type), sanitizeAccountName(account.Name))
}

// HasMapping checks if a mapping exists for a chart account.
func (m *Mapper) HasMapping(ledgerName string) bool {
	_, ok := m.ledgerToBean[ledgerName]
	return ok
}

func rootFor(t ledger.AccountType) string {
	switch t {
	case ledger.AccountTypeAsset:
		return "Assets"
	case ledger.AccountTypeLiability:
		return "Liabilities"
	case ledger.AccountTypeEquity:
		return "Equity"
	case ledger.AccountTypeIncome:
		return "Income"
	default:
		return "Expenses"
	}
}

// sanitizeAccountName turns "office supplies & paper" into "OfficeSuppliesPaper".
// Beancount components must start with a capital letter or digit.
func sanitizeAccountName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var sb strings.Builder
	for _, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		sb.WriteString(string(runes))
	}

	if sb.Len() == 0 {
		return "Unnamed"
	}
	return sb.String()
}
