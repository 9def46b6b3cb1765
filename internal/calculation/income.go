package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/hpgo/household-planner/internal/domain"
)

// stepIncome evaluates an income-like account (ordinary income or social
// security) for one year. Income resets each year; earnings compound the
// base by the raise rate from the first active year.
func (st *runState) stepIncome(la *ledgerAccount, a *domain.IncomeAccount, year int) {
	st.carryOver(la, year)

	earnings := decimalZero
	if inWindow(year, la.startIn, la.endIn) {
		n := year - la.startIn
		earnings = a.Base.Mul(onePlusPct(la.raise).Pow(decimal.NewFromInt(int64(n))))
		if earnings.IsNegative() {
			st.sink.Record(la.id, year, domain.WarnNegativeEarnings, "earnings %s clamped to 0", earnings.StringFixed(2))
			earnings = decimalZero
		}
	}
	la.tables.Earnings.Set(year, earnings)
	la.tables.Balance.Add(year, earnings)

	if earnings.IsZero() {
		return
	}
	st.agg.addIncome(year, earnings)
	if la.kind() == domain.KindSSA {
		st.agg.addTaxable(year, st.taxableSocialSecurity(earnings, st.agg.taxable.Get(year)))
	} else {
		st.agg.addTaxable(year, earnings)
	}
}

// taxableSocialSecurity applies the two-threshold provisional-income method:
// no benefit is taxable below the first breakpoint, up to 50% between the
// breakpoints and up to 85% above the second.
func (st *runState) taxableSocialSecurity(benefit, otherTaxable decimal.Decimal) decimal.Decimal {
	t1 := st.settings.SSA.Threshold1
	t2 := st.settings.SSA.Threshold2
	half := decimal.NewFromFloat(0.5)
	most := decimal.NewFromFloat(0.85)

	provisional := otherTaxable.Add(benefit.Mul(half))
	if provisional.LessThanOrEqual(t1) {
		return decimalZero
	}
	if provisional.LessThanOrEqual(t2) {
		return decimal.Min(benefit.Mul(half), provisional.Sub(t1).Mul(half))
	}
	lower := decimal.Min(benefit.Mul(half), t2.Sub(t1).Mul(half))
	return decimal.Min(benefit.Mul(most), provisional.Sub(t2).Mul(most).Add(lower))
}
