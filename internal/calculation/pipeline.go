package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/hpgo/household-planner/internal/domain"
)

// runState bundles the engine-owned mutable state for one run: the ledger,
// the aggregator and the diagnostic sink.
type runState struct {
	settings *domain.Settings
	ledger   *Ledger
	agg      *Aggregator
	sink     *DiagnosticSink
}

// stepAccount applies the yearly sub-steps to one account, dispatched on the
// account's concrete variant.
func (st *runState) stepAccount(la *ledgerAccount, year int) {
	switch a := la.acct.(type) {
	case *domain.IncomeAccount:
		st.stepIncome(la, a, year)
	case *domain.SavingsAccount:
		st.stepSavings(la, a, year)
	case *domain.LoanAccount:
		st.stepLoan(la, a, year)
	case *domain.MortgageAccount:
		st.stepMortgage(la, a, year)
	case *domain.ExpenseAccount:
		st.stepExpense(la, a, year)
	}
}

// carryOver seeds the year's balance: carrying kinds inherit the prior
// year's ending balance (bridging any gap via the latest known value),
// non-carrying kinds reset to zero. The first simulated year starts from the
// account's declared balance.
func (st *runState) carryOver(la *ledgerAccount, year int) decimal.Decimal {
	if !la.acct.CarriesBalance() {
		la.tables.Balance.Set(year, decimalZero)
		return decimalZero
	}
	bal := la.startBalance
	if year > st.settings.YearStart {
		bal = la.tables.Balance.Latest(year - 1)
	}
	la.tables.Balance.Set(year, bal)
	return bal
}

// inflationFactor compounds the base inflation rate from the plan start year
// to the given year.
func (st *runState) inflationFactor(year int) decimal.Decimal {
	n := year - st.settings.YearStart
	if n <= 0 {
		return decimalOne
	}
	return onePlusPct(st.settings.Inflation).Pow(decimal.NewFromInt(int64(n)))
}

// fixedOrInflated applies the shared fixed / fixed_with_inflation policy
// pair; unknown policies fall back to zero with a warning.
func (st *runState) fixedOrInflated(la *ledgerAccount, year int, policy string, amount decimal.Decimal) decimal.Decimal {
	switch policy {
	case domain.PolicyFixed:
		return amount
	case domain.PolicyFixedInflation:
		return amount.Mul(st.inflationFactor(year))
	default:
		st.sink.Record(la.id, year, domain.WarnUnknownPolicy, "unsupported policy %q", policy)
		return decimalZero
	}
}

func inWindow(year, start, end int) bool {
	return year >= start && year <= end
}

func onePlusPct(rate decimal.Decimal) decimal.Decimal {
	return decimalOne.Add(rate.Div(decimalHundred))
}

func pct(v decimal.Decimal) decimal.Decimal {
	return v.Div(decimalHundred)
}
