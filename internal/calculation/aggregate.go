package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/hpgo/household-planner/internal/domain"
)

// Aggregator accumulates the per-year household totals while the pipeline
// walks the accounts. Later kinds in the fixed ordering read totals as far
// as earlier kinds have accumulated them.
type Aggregator struct {
	income        domain.YearTable
	taxable       domain.YearTable
	capGains      domain.YearTable
	afterTax      domain.YearTable
	totalExpenses domain.YearTable
	totalSavings  domain.YearTable
	net           domain.YearTable
	expenses      map[string]domain.YearTable
}

func newAggregator() *Aggregator {
	return &Aggregator{
		income:        domain.YearTable{},
		taxable:       domain.YearTable{},
		capGains:      domain.YearTable{},
		afterTax:      domain.YearTable{},
		totalExpenses: domain.YearTable{},
		totalSavings:  domain.YearTable{},
		net:           domain.YearTable{},
		expenses:      map[string]domain.YearTable{},
	}
}

func (a *Aggregator) addIncome(year int, v decimal.Decimal) {
	a.income.Add(year, v)
}

func (a *Aggregator) addTaxable(year int, v decimal.Decimal) {
	a.taxable.Add(year, v)
}

func (a *Aggregator) addCapitalGains(year int, v decimal.Decimal) {
	a.capGains.Add(year, v)
}

func (a *Aggregator) addSavings(year int, v decimal.Decimal) {
	a.totalSavings.Add(year, v)
}

// recordExpense books one account's expense-table entry (an expense value, a
// loan payment or a savings-like contribution) and folds it into the year's
// household total.
func (a *Aggregator) recordExpense(accountID string, year int, v decimal.Decimal) {
	t, ok := a.expenses[accountID]
	if !ok {
		t = domain.YearTable{}
		a.expenses[accountID] = t
	}
	t.Add(year, v)
	a.totalExpenses.Add(year, v)
}

// finalizeYear closes a year once every account has been processed:
// after-tax income and the running net cash position.
func (a *Aggregator) finalizeYear(settings *domain.Settings, year int) {
	tax := a.taxable.Get(year).Mul(settings.TaxRate).Div(decimalHundred)
	capTax := a.capGains.Get(year).Mul(settings.CapGainsRate).Div(decimalHundred)
	afterTax := a.income.Get(year).Sub(tax).Sub(capTax)
	a.afterTax.Set(year, afterTax)
	a.net.Set(year, a.net.Get(year-1).Add(afterTax).Sub(a.totalExpenses.Get(year)))

	// Make the zero entries explicit so every aggregate table carries one
	// value per simulated year.
	for _, t := range []domain.YearTable{a.income, a.taxable, a.capGains, a.totalExpenses, a.totalSavings} {
		t.Set(year, t.Get(year))
	}
}
