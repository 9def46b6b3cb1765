package domain

import (
	"github.com/shopspring/decimal"
)

// YearTable is a year-indexed table of decimal values. Missing years read
// as zero.
type YearTable map[int]decimal.Decimal

// Get returns the value for a year, or zero if the year is absent.
func (t YearTable) Get(year int) decimal.Decimal {
	if v, ok := t[year]; ok {
		return v
	}
	return decimal.Zero
}

// Set stores a value for a year.
func (t YearTable) Set(year int, v decimal.Decimal) {
	t[year] = v
}

// Add accumulates a value into a year's entry.
func (t YearTable) Add(year int, v decimal.Decimal) {
	t[year] = t.Get(year).Add(v)
}

// Latest returns the value for the greatest year not after the given year,
// falling back to zero when no earlier entry exists. Carry-over uses it to
// bridge gaps in an account's balance history.
func (t YearTable) Latest(year int) decimal.Decimal {
	best := 0
	found := false
	for y := range t {
		if y <= year && (!found || y > best) {
			best = y
			found = true
		}
	}
	if !found {
		return decimal.Zero
	}
	return t[best]
}

// AccountTables are the derived year-indexed tables attached to one account
// during simulation. Tables that never apply to the account's kind stay nil
// and are omitted from serialized output.
type AccountTables struct {
	Balance       YearTable `json:"balance"`
	Earnings      YearTable `json:"earnings,omitempty"`
	Contribution  YearTable `json:"contribution,omitempty"`
	EmployerMatch YearTable `json:"employerMatch,omitempty"`
	Payment       YearTable `json:"payment,omitempty"`
	Withdrawal    YearTable `json:"withdrawal,omitempty"`
	Escrow        YearTable `json:"escrow,omitempty"`
}

// AccountResult is the per-account slice of a ProjectionResult.
type AccountResult struct {
	Name string      `json:"name"`
	Kind AccountKind `json:"kind"`
	AccountTables
}

// WarningCode identifies a non-fatal policy violation class.
type WarningCode string

const (
	WarnNegativeEarnings     WarningCode = "negative_earnings"
	WarnNegativeContribution WarningCode = "negative_contribution"
	WarnNegativePayment      WarningCode = "negative_payment"
	WarnNegativeWithdrawal   WarningCode = "negative_withdrawal"
	WarnNegativeExpense      WarningCode = "negative_expense"
	WarnUnknownPolicy        WarningCode = "unknown_policy"
	WarnMissingIncomeLink    WarningCode = "missing_income_link"
	WarnMissingHSALink       WarningCode = "missing_hsa_link"
)

// Warning is one accumulated policy violation. The run continues with the
// clamped or defaulted value.
type Warning struct {
	AccountID string      `json:"accountId"`
	Year      int         `json:"year"`
	Code      WarningCode `json:"code"`
	Message   string      `json:"message"`
}

// ProjectionResult is the complete output of one simulation run.
type ProjectionResult struct {
	Years []int `json:"years"`

	// Aggregate year tables.
	Income         YearTable `json:"income"`
	TaxableIncome  YearTable `json:"taxableIncome"`
	CapitalGains   YearTable `json:"capitalGains"`
	AfterTaxIncome YearTable `json:"afterTaxIncome"`
	TotalExpenses  YearTable `json:"totalExpenses"`
	TotalSavings   YearTable `json:"totalSavings"`
	Net            YearTable `json:"net"`

	// Per-year per-account expense entries (expense values, loan/mortgage
	// payments, savings-like contributions), keyed by account id.
	Expenses map[string]YearTable `json:"expenses"`

	// Per-account derived tables, keyed by account id.
	Accounts map[string]*AccountResult `json:"accounts"`

	Warnings []Warning `json:"warnings,omitempty"`
}
