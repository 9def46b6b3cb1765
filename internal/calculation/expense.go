package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/hpgo/household-planner/internal/domain"
)

// stepExpense evaluates a discretionary expense for one year. Expenses reset
// each year; after the plan reaches retirement the amount is scaled by the
// retirement cost-of-living factor. Healthcare expenses linked to an HSA
// draw that account down first and only the shortfall is charged as cash.
func (st *runState) stepExpense(la *ledgerAccount, a *domain.ExpenseAccount, year int) {
	st.carryOver(la, year)

	if a.ExpenseType == "" || !inWindow(year, la.startOut, la.endOut) {
		st.agg.recordExpense(la.id, year, decimalZero)
		return
	}

	amount := st.fixedOrInflated(la, year, a.ExpenseType, a.Amount)
	if amount.IsNegative() {
		st.sink.Record(la.id, year, domain.WarnNegativeExpense, "expense %s clamped to 0", amount.StringFixed(2))
		amount = decimalZero
	}
	if year >= st.settings.YearRetire() {
		amount = amount.Mul(pct(st.settings.RetireFactor))
	}

	residual := amount
	if a.Healthcare && a.HSALink != "" {
		residual = st.drawFromHSA(la, a.HSALink, year, residual)
	}

	la.tables.Balance.Add(year, residual)
	st.agg.recordExpense(la.id, year, residual)
	if a.TaxStatus.ContributionPreTax() && residual.GreaterThan(decimalZero) {
		st.agg.addTaxable(year, residual.Neg())
	}
}

// drawFromHSA pays as much of the amount as the linked HSA's current-year
// balance covers, recording the draw as an HSA withdrawal, and returns the
// unfunded remainder.
func (st *runState) drawFromHSA(la *ledgerAccount, hsaID string, year int, amount decimal.Decimal) decimal.Decimal {
	hsa, ok := st.ledger.account(hsaID)
	if !ok || hsa.kind() != domain.KindHSA {
		st.sink.Record(la.id, year, domain.WarnMissingHSALink, "hsa link %q does not resolve to an hsa account", hsaID)
		return amount
	}

	available := hsa.tables.Balance.Get(year)
	if available.LessThanOrEqual(decimalZero) || amount.LessThanOrEqual(decimalZero) {
		return amount
	}
	draw := amount
	if draw.GreaterThan(available) {
		draw = available
	}
	hsa.tables.Balance.Set(year, available.Sub(draw))
	hsa.tables.Withdrawal.Add(year, draw)
	return amount.Sub(draw)
}
