package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/hpgo/household-planner/internal/domain"
)

// Debts are carried as negative balances. Interest keeps the balance's sign,
// so an owed balance deepens; a payment always moves the balance toward zero
// and is clamped to the outstanding magnitude.

// stepLoan evaluates a plain loan for one year. Loans compound annually.
func (st *runState) stepLoan(la *ledgerAccount, a *domain.LoanAccount, year int) {
	bal := st.carryOver(la, year)

	interest := compoundInterest(bal, a.Rate, decimalOne)
	la.tables.Earnings.Set(year, interest)
	bal = bal.Add(interest)

	payment := decimalZero
	if a.PaymentType != "" && inWindow(year, la.startOut, la.endOut) {
		payment = st.paymentAmount(la, year, a.PaymentType, a.Payment, bal)
	}
	la.tables.Payment.Set(year, payment)
	bal = bal.Add(payment)

	la.tables.Balance.Set(year, bal)
	st.agg.recordExpense(la.id, year, payment)
}

// stepMortgage evaluates a mortgage for one year: compounding interest at
// the configured frequency, plus mortgage insurance while the loan-to-value
// ratio exceeds the cutoff, plus the escrow charge.
func (st *runState) stepMortgage(la *ledgerAccount, a *domain.MortgageAccount, year int) {
	bal := st.carryOver(la, year)

	compound := a.CompoundTime
	if compound.LessThanOrEqual(decimalZero) {
		compound = decimalOne
	}
	charge := compoundInterest(bal, a.Rate, compound)

	if insuranceDue(bal, a.HomeValue, a.LTVLimit) {
		charge = charge.Sub(a.Insurance)
	}
	if a.Escrow.GreaterThan(decimalZero) {
		charge = charge.Sub(a.Escrow)
	}
	la.tables.Escrow.Set(year, a.Escrow)
	la.tables.Earnings.Set(year, charge)
	bal = bal.Add(charge)

	payment := decimalZero
	if a.PaymentType != "" && inWindow(year, la.startOut, la.endOut) {
		payment = st.paymentAmount(la, year, a.PaymentType, a.Payment, bal)
	}
	la.tables.Payment.Set(year, payment)
	bal = bal.Add(payment)

	la.tables.Balance.Set(year, bal)
	st.agg.recordExpense(la.id, year, payment)
}

// paymentAmount resolves the payment policy and clamps the result so it
// never exceeds what is owed. Non-negative balances take no payment.
func (st *runState) paymentAmount(la *ledgerAccount, year int, policy string, amount, bal decimal.Decimal) decimal.Decimal {
	payment := st.fixedOrInflated(la, year, policy, amount)
	if payment.IsNegative() {
		st.sink.Record(la.id, year, domain.WarnNegativePayment, "payment %s clamped to 0", payment.StringFixed(2))
		return decimalZero
	}
	if !bal.IsNegative() {
		return decimalZero
	}
	owed := bal.Neg()
	if payment.GreaterThan(owed) {
		payment = owed
	}
	return payment
}

// compoundInterest returns balance * ((1 + rate/100/n)^n - 1).
func compoundInterest(bal, rate, n decimal.Decimal) decimal.Decimal {
	if bal.IsZero() || rate.IsZero() {
		return decimalZero
	}
	perPeriod := rate.Div(decimalHundred).Div(n)
	factor := decimalOne.Add(perPeriod).Pow(n)
	return bal.Mul(factor.Sub(decimalOne))
}

// insuranceDue reports whether mortgage insurance is still charged: the owed
// magnitude as a percentage of the home value exceeds the LTV cutoff.
func insuranceDue(bal, homeValue, ltvLimit decimal.Decimal) bool {
	if !bal.IsNegative() || homeValue.LessThanOrEqual(decimalZero) {
		return false
	}
	ltv := bal.Neg().Div(homeValue).Mul(decimalHundred)
	return ltv.GreaterThan(ltvLimit)
}
