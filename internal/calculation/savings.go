package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/hpgo/household-planner/internal/domain"
)

// stepSavings evaluates a savings-like account (savings, retirement, hsa,
// college) for one year: carry-over, earnings, contribution plus employer
// match, then withdrawal.
func (st *runState) stepSavings(la *ledgerAccount, a *domain.SavingsAccount, year int) {
	bal := st.carryOver(la, year)

	earnings := bal.Mul(pct(a.Return))
	if earnings.IsNegative() {
		st.sink.Record(la.id, year, domain.WarnNegativeEarnings, "earnings %s clamped to 0", earnings.StringFixed(2))
		earnings = decimalZero
	}
	la.tables.Earnings.Set(year, earnings)
	bal = bal.Add(earnings)

	contribution := decimalZero
	match := decimalZero
	if a.ContributionType != "" && inWindow(year, la.startIn, la.endIn) {
		contribution = st.contributionAmount(la, a, year)
		if contribution.IsNegative() {
			st.sink.Record(la.id, year, domain.WarnNegativeContribution, "contribution %s clamped to 0", contribution.StringFixed(2))
			contribution = decimalZero
		}
		match = st.employerContribution(la, a, year, contribution)
	}
	la.tables.Contribution.Set(year, contribution)
	la.tables.EmployerMatch.Set(year, match)
	bal = bal.Add(contribution).Add(match)
	if a.TaxStatus.ContributionPreTax() && contribution.GreaterThan(decimalZero) {
		st.agg.addTaxable(year, contribution.Neg())
	}

	withdrawal := decimalZero
	if a.WithdrawalType != "" && inWindow(year, la.startOut, la.endOut) {
		withdrawal = st.withdrawalAmount(la, a, year, bal)
		if withdrawal.IsNegative() {
			st.sink.Record(la.id, year, domain.WarnNegativeWithdrawal, "withdrawal %s clamped to 0", withdrawal.StringFixed(2))
			withdrawal = decimalZero
		}
		if withdrawal.GreaterThan(bal) {
			withdrawal = bal
		}
		if withdrawal.IsNegative() {
			withdrawal = decimalZero
		}
		bal = bal.Sub(withdrawal)
		if la.kind() != domain.KindCollege && withdrawal.GreaterThan(decimalZero) {
			st.agg.addIncome(year, withdrawal)
			if a.TaxStatus.WithdrawalTaxed() {
				st.agg.addTaxable(year, withdrawal)
			} else if a.TaxStatus.WithdrawalCapitalGains() {
				st.agg.addCapitalGains(year, withdrawal)
			}
		}
	}
	la.tables.Withdrawal.Set(year, withdrawal)

	la.tables.Balance.Set(year, bal)
	st.agg.recordExpense(la.id, year, contribution)
	if k := la.kind(); k == domain.KindSavings || k == domain.KindRetirement {
		st.agg.addSavings(year, bal)
	}
}

// contributionAmount applies the account's contribution policy. Percent-of-
// income contributions read the linked income account's earnings for the
// year; without a usable link they fall back to the taxable income
// accumulated so far this year.
func (st *runState) contributionAmount(la *ledgerAccount, a *domain.SavingsAccount, year int) decimal.Decimal {
	switch a.ContributionType {
	case domain.PolicyFixed:
		return a.Contribution
	case domain.PolicyFixedInflation:
		return a.Contribution.Mul(st.inflationFactor(year))
	case domain.PolicyPercentOfIncome:
		base, ok := decimalZero, false
		if a.IncomeLink != "" {
			base, ok = st.ledger.incomeEarnings(a.IncomeLink, year)
			if !ok {
				st.sink.Record(la.id, year, domain.WarnMissingIncomeLink, "income link %q does not resolve to an income account", a.IncomeLink)
			}
		}
		if !ok {
			base = st.agg.taxable.Get(year)
		}
		return base.Mul(pct(a.Contribution))
	default:
		st.sink.Record(la.id, year, domain.WarnUnknownPolicy, "unsupported contribution policy %q", a.ContributionType)
		return decimalZero
	}
}

// employerContribution computes the employer's addition for the year: tiered
// matching against the linked income when match tiers are configured, or a
// flat employer contribution otherwise.
func (st *runState) employerContribution(la *ledgerAccount, a *domain.SavingsAccount, year int, contribution decimal.Decimal) decimal.Decimal {
	if len(a.Match) > 0 {
		income, ok := st.ledger.incomeEarnings(a.IncomeLink, year)
		if !ok {
			st.sink.Record(la.id, year, domain.WarnMissingIncomeLink, "employer match configured without a valid income link")
			return decimalZero
		}
		if income.IsZero() || contribution.LessThanOrEqual(decimalZero) {
			return decimalZero
		}

		// Each tier matches the slice of the contribution percentage that
		// falls between the previous tier's limit and its own.
		contribPct := contribution.Div(income).Mul(decimalHundred)
		match := decimalZero
		prevLimit := decimalZero
		for _, tier := range a.Match {
			top := decimal.Min(contribPct, tier.Limit)
			slice := top.Sub(prevLimit)
			if slice.GreaterThan(decimalZero) {
				match = match.Add(income.Mul(pct(slice)).Mul(pct(tier.Rate)))
			}
			prevLimit = tier.Limit
		}
		return match
	}

	if a.EmployerContributionType != "" {
		flat := st.fixedOrInflated(la, year, a.EmployerContributionType, a.EmployerContribution)
		if flat.IsNegative() {
			st.sink.Record(la.id, year, domain.WarnNegativeContribution, "employer contribution %s clamped to 0", flat.StringFixed(2))
			return decimalZero
		}
		return flat
	}
	return decimalZero
}

// withdrawalAmount applies the account's withdrawal policy against the
// balance as it stands after earnings and contributions.
func (st *runState) withdrawalAmount(la *ledgerAccount, a *domain.SavingsAccount, year int, bal decimal.Decimal) decimal.Decimal {
	switch a.WithdrawalType {
	case domain.PolicyFixed:
		return a.Withdrawal
	case domain.PolicyFixedInflation:
		return a.Withdrawal.Mul(st.inflationFactor(year))
	case domain.PolicyEndAtZero:
		remaining := la.endOut - year + 1
		if remaining <= 1 {
			return bal
		}
		return bal.Div(decimal.NewFromInt(int64(remaining)))
	case domain.PolicyShareOfExpenses:
		prevTotal := st.agg.totalSavings.Get(year - 1)
		if prevTotal.IsZero() {
			return decimalZero
		}
		prevBal := la.tables.Balance.Latest(year - 1)
		amount := prevBal.Div(prevTotal).Mul(st.agg.totalExpenses.Get(year))
		if a.TaxStatus.WithdrawalTaxed() {
			// Gross up so the after-tax proceeds cover the share.
			divisor := decimalOne.Sub(pct(st.settings.TaxRate))
			if divisor.GreaterThan(decimalZero) {
				amount = amount.Div(divisor)
			}
		}
		return amount
	default:
		st.sink.Record(la.id, year, domain.WarnUnknownPolicy, "unsupported withdrawal policy %q", a.WithdrawalType)
		return decimalZero
	}
}
