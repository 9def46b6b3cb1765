package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// AccountKind discriminates the account variants on the wire.
type AccountKind string

const (
	KindIncome     AccountKind = "income"
	KindSSA        AccountKind = "ssa"
	KindSavings    AccountKind = "savings"
	KindRetirement AccountKind = "retirement"
	KindHSA        AccountKind = "hsa"
	KindCollege    AccountKind = "college"
	KindLoan       AccountKind = "loan"
	KindMortgage   AccountKind = "mortgage"
	KindExpense    AccountKind = "expense"
)

// TaxStatus controls whether contributions reduce taxable income and how
// withdrawals are taxed.
type TaxStatus string

const (
	TaxStatusTaxable      TaxStatus = "taxable"
	TaxStatusDeferred     TaxStatus = "tax_deferred"
	TaxStatusFree         TaxStatus = "tax_free"
	TaxStatusCapitalGains TaxStatus = "capital_gains"
)

// ContributionPreTax reports whether contributions reduce taxable income.
func (s TaxStatus) ContributionPreTax() bool {
	return s == TaxStatusDeferred
}

// WithdrawalTaxed reports whether withdrawals count as ordinary taxable income.
func (s TaxStatus) WithdrawalTaxed() bool {
	return s == TaxStatusDeferred
}

// WithdrawalCapitalGains reports whether withdrawals are taxed as capital gains.
func (s TaxStatus) WithdrawalCapitalGains() bool {
	return s == TaxStatusCapitalGains
}

// Per-account policy enums selecting the formula for that year's amount.
const (
	PolicyFixed           = "fixed"
	PolicyFixedInflation  = "fixed_with_inflation"
	PolicyPercentOfIncome = "percent_of_income"
	PolicyEndAtZero       = "end_at_zero"
	PolicyShareOfExpenses = "share_of_expenses"
)

// MatchTier is one employer matching tier: Rate percent of the employee
// contribution slice, up to Limit percent of the linked income.
type MatchTier struct {
	Rate  decimal.Decimal `yaml:"rate" json:"rate"`
	Limit decimal.Decimal `yaml:"limit" json:"limit"`
}

// Account is the tagged union over the plan's account kinds. Concrete
// variants are dispatched by type switch in the yearly pipeline.
type Account interface {
	AccountKind() AccountKind
	AccountName() string
	// CarriesBalance reports whether the balance persists across years
	// (savings-like, loan, mortgage) or resets each year (income, expense).
	CarriesBalance() bool
}

// AccountBase carries the fields common to every account variant.
type AccountBase struct {
	Kind  AccountKind `yaml:"kind" json:"kind"`
	Name  string      `yaml:"name" json:"name"`
	Notes string      `yaml:"notes,omitempty" json:"notes,omitempty"`
}

func (b AccountBase) AccountKind() AccountKind { return b.Kind }
func (b AccountBase) AccountName() string      { return b.Name }

// IncomeAccount covers the income-like kinds: ordinary income and social
// security. Base is the yearly amount in the first active year; Raise
// compounds it each year inside the active window.
type IncomeAccount struct {
	AccountBase `yaml:",inline"`
	Base        decimal.Decimal `yaml:"base" json:"base"`
	StartIn     Formula         `yaml:"start_in,omitempty" json:"start_in,omitempty"`
	EndIn       Formula         `yaml:"end_in,omitempty" json:"end_in,omitempty"`
	Raise       Formula         `yaml:"raise,omitempty" json:"raise,omitempty"`
}

func (a *IncomeAccount) CarriesBalance() bool { return false }

// SavingsAccount covers the savings-like kinds: savings, retirement, hsa and
// college funds. Balance is the starting balance at the plan start year.
type SavingsAccount struct {
	AccountBase      `yaml:",inline"`
	Balance          decimal.Decimal `yaml:"balance" json:"balance"`
	StartIn          Formula         `yaml:"start_in,omitempty" json:"start_in,omitempty"`
	EndIn            Formula         `yaml:"end_in,omitempty" json:"end_in,omitempty"`
	StartOut         Formula         `yaml:"start_out,omitempty" json:"start_out,omitempty"`
	EndOut           Formula         `yaml:"end_out,omitempty" json:"end_out,omitempty"`
	Return           decimal.Decimal `yaml:"return" json:"return"`
	Contribution     decimal.Decimal `yaml:"contribution" json:"contribution"`
	ContributionType string          `yaml:"contribution_type,omitempty" json:"contribution_type,omitempty"`
	Withdrawal       decimal.Decimal `yaml:"withdrawal" json:"withdrawal"`
	WithdrawalType   string          `yaml:"withdrawal_type,omitempty" json:"withdrawal_type,omitempty"`
	TaxStatus        TaxStatus       `yaml:"tax_status,omitempty" json:"tax_status,omitempty"`
	IncomeLink       string          `yaml:"income_link,omitempty" json:"income_link,omitempty"`
	Match            []MatchTier     `yaml:"match,omitempty" json:"match,omitempty"`

	// Flat employer contribution, used when no match tiers apply.
	EmployerContribution     decimal.Decimal `yaml:"employer_contribution" json:"employer_contribution"`
	EmployerContributionType string          `yaml:"employer_contribution_type,omitempty" json:"employer_contribution_type,omitempty"`
}

func (a *SavingsAccount) CarriesBalance() bool { return true }

// LoanAccount is a generic amortizing debt. Owed money is a negative balance.
type LoanAccount struct {
	AccountBase `yaml:",inline"`
	Balance     decimal.Decimal `yaml:"balance" json:"balance"`
	StartOut    Formula         `yaml:"start_out,omitempty" json:"start_out,omitempty"`
	EndOut      Formula         `yaml:"end_out,omitempty" json:"end_out,omitempty"`
	Payment     decimal.Decimal `yaml:"payment" json:"payment"`
	PaymentType string          `yaml:"payment_type,omitempty" json:"payment_type,omitempty"`
	Rate        decimal.Decimal `yaml:"rate" json:"rate"`
}

func (a *LoanAccount) CarriesBalance() bool { return true }

// MortgageAccount is a loan with compounding, mortgage insurance, escrow and
// a loan-to-value cutoff against the home value.
type MortgageAccount struct {
	AccountBase  `yaml:",inline"`
	Balance      decimal.Decimal `yaml:"balance" json:"balance"`
	StartOut     Formula         `yaml:"start_out,omitempty" json:"start_out,omitempty"`
	EndOut       Formula         `yaml:"end_out,omitempty" json:"end_out,omitempty"`
	Payment      decimal.Decimal `yaml:"payment" json:"payment"`
	PaymentType  string          `yaml:"payment_type,omitempty" json:"payment_type,omitempty"`
	Rate         decimal.Decimal `yaml:"rate" json:"rate"`
	CompoundTime decimal.Decimal `yaml:"compound_time" json:"compound_time"`
	Insurance    decimal.Decimal `yaml:"insurance" json:"insurance"`
	LTVLimit     decimal.Decimal `yaml:"ltv_limit" json:"ltv_limit"`
	Escrow       decimal.Decimal `yaml:"escrow" json:"escrow"`
	HomeValue    decimal.Decimal `yaml:"home_value" json:"home_value"`
}

func (a *MortgageAccount) CarriesBalance() bool { return true }

// ExpenseAccount is a discretionary yearly expense. Healthcare expenses may
// link to an HSA account that is drawn down before cash is charged.
type ExpenseAccount struct {
	AccountBase `yaml:",inline"`
	Amount      decimal.Decimal `yaml:"amount" json:"amount"`
	ExpenseType string          `yaml:"expense_type,omitempty" json:"expense_type,omitempty"`
	StartOut    Formula         `yaml:"start_out,omitempty" json:"start_out,omitempty"`
	EndOut      Formula         `yaml:"end_out,omitempty" json:"end_out,omitempty"`
	TaxStatus   TaxStatus       `yaml:"tax_status,omitempty" json:"tax_status,omitempty"`
	Healthcare  bool            `yaml:"healthcare,omitempty" json:"healthcare,omitempty"`
	HSALink     string          `yaml:"hsa_link,omitempty" json:"hsa_link,omitempty"`
}

func (a *ExpenseAccount) CarriesBalance() bool { return false }

// AccountMap maps an opaque account id to its account variant.
type AccountMap map[string]Account

// NewAccountID generates an id for accounts declared without one.
func NewAccountID() string {
	return uuid.NewString()
}

// newAccountForKind returns an empty concrete variant for a discriminant.
func newAccountForKind(kind AccountKind) (Account, error) {
	switch kind {
	case KindIncome, KindSSA:
		return &IncomeAccount{}, nil
	case KindSavings, KindRetirement, KindHSA, KindCollege:
		return &SavingsAccount{}, nil
	case KindLoan:
		return &LoanAccount{}, nil
	case KindMortgage:
		return &MortgageAccount{}, nil
	case KindExpense:
		return &ExpenseAccount{}, nil
	default:
		return nil, fmt.Errorf("unknown account kind %q", kind)
	}
}

// UnmarshalJSON decodes a map of accounts, dispatching each entry on its
// "kind" discriminant field.
func (m *AccountMap) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(AccountMap, len(raw))
	for id, msg := range raw {
		var probe struct {
			Kind AccountKind `json:"kind"`
		}
		if err := json.Unmarshal(msg, &probe); err != nil {
			return fmt.Errorf("account %s: %w", id, err)
		}
		acct, err := newAccountForKind(probe.Kind)
		if err != nil {
			return fmt.Errorf("account %s: %w", id, err)
		}
		if err := json.Unmarshal(msg, acct); err != nil {
			return fmt.Errorf("account %s: %w", id, err)
		}
		out[id] = acct
	}
	*m = out
	return nil
}

// UnmarshalYAML accepts either a mapping of id to account or a sequence of
// accounts with optional "id" fields; sequence entries without an id get a
// generated one.
func (m *AccountMap) UnmarshalYAML(value *yaml.Node) error {
	out := AccountMap{}
	switch value.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			id := value.Content[i].Value
			acct, err := decodeAccountNode(value.Content[i+1])
			if err != nil {
				return fmt.Errorf("account %s: %w", id, err)
			}
			out[id] = acct
		}
	case yaml.SequenceNode:
		for i, node := range value.Content {
			var probe struct {
				ID string `yaml:"id"`
			}
			if err := node.Decode(&probe); err != nil {
				return fmt.Errorf("account %d: %w", i, err)
			}
			id := probe.ID
			if id == "" {
				id = NewAccountID()
			}
			acct, err := decodeAccountNode(node)
			if err != nil {
				return fmt.Errorf("account %d: %w", i, err)
			}
			out[id] = acct
		}
	default:
		return fmt.Errorf("accounts must be a mapping or a sequence")
	}
	*m = out
	return nil
}

func decodeAccountNode(node *yaml.Node) (Account, error) {
	var probe struct {
		Kind AccountKind `yaml:"kind"`
	}
	if err := node.Decode(&probe); err != nil {
		return nil, err
	}
	acct, err := newAccountForKind(probe.Kind)
	if err != nil {
		return nil, err
	}
	if err := node.Decode(acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// Plan pairs the settings with the account map; it is what a plan file
// decodes into.
type Plan struct {
	Settings Settings   `yaml:"settings" json:"settings"`
	Accounts AccountMap `yaml:"accounts" json:"accounts"`
}
