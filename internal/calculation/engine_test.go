package calculation

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpgo/household-planner/internal/domain"
)

// testSettings covers 2026 through 2028 with a 20% income tax rate.
func testSettings() *domain.Settings {
	return &domain.Settings{
		YearStart:    2026,
		YearBorn:     1980,
		AgeRetire:    60,
		AgeDie:       48,
		Inflation:    decimal.Zero,
		TaxRate:      decimal.NewFromInt(20),
		CapGainsRate: decimal.NewFromInt(15),
		RetireFactor: decimal.NewFromInt(100),
		SSA: domain.SSAThresholds{
			Threshold1: decimal.NewFromInt(25000),
			Threshold2: decimal.NewFromInt(34000),
		},
	}
}

func runPlan(t *testing.T, settings *domain.Settings, accounts domain.AccountMap) *domain.ProjectionResult {
	t.Helper()
	engine := NewEngine()
	result, err := engine.Project(context.Background(), settings, accounts)
	require.NoError(t, err, "Projection should succeed")
	require.NotNil(t, result)
	return result
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s got %s: %v", want, got, msgAndArgs)
}

func TestTimeline(t *testing.T) {
	years, err := Timeline(testSettings())
	require.NoError(t, err)
	assert.Equal(t, []int{2026, 2027, 2028}, years, "Should span yearStart through yearStart+(ageDie-ageNow)")

	s := testSettings()
	s.AgeDie = s.AgeNow()
	years, err = Timeline(s)
	require.NoError(t, err)
	assert.Equal(t, []int{2026}, years, "Equal ages give a single year")

	s.AgeDie = 40
	_, err = Timeline(s)
	assert.Error(t, err, "Death before the current age is fatal")
	assert.True(t, domain.IsConfigurationError(err))
}

func TestEngine_SetLogger(t *testing.T) {
	engine := NewEngine()
	assert.NotNil(t, engine.Logger, "Should initialize logger")

	engine.SetLogger(nil)
	assert.IsType(t, NopLogger{}, engine.Logger, "Nil restores the no-op logger")
}

func TestEngine_IncomeTaxAndNet(t *testing.T) {
	result := runPlan(t, testSettings(), domain.AccountMap{
		"job": &domain.IncomeAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindIncome, Name: "Day Job"},
			Base:        decimal.NewFromInt(100000),
		},
	})

	for _, year := range result.Years {
		assertDecimal(t, "100000", result.Income.Get(year), "income", year)
		assertDecimal(t, "100000", result.TaxableIncome.Get(year), "taxable", year)
		assertDecimal(t, "80000", result.AfterTaxIncome.Get(year), "after tax", year)
		assertDecimal(t, "0", result.TotalExpenses.Get(year), "expenses", year)
	}
	assertDecimal(t, "80000", result.Net.Get(2026))
	assertDecimal(t, "160000", result.Net.Get(2027))
	assertDecimal(t, "240000", result.Net.Get(2028), "net accumulates year over year")
}

func TestEngine_IncomeRaiseCompounds(t *testing.T) {
	result := runPlan(t, testSettings(), domain.AccountMap{
		"job": &domain.IncomeAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindIncome, Name: "Day Job"},
			Base:        decimal.NewFromInt(100000),
			Raise:       domain.Formula("10"),
		},
	})

	job := result.Accounts["job"]
	assertDecimal(t, "100000", job.Earnings.Get(2026))
	assertDecimal(t, "110000", job.Earnings.Get(2027))
	assertDecimal(t, "121000", job.Earnings.Get(2028), "raise compounds from the first active year")
}

func TestEngine_IncomeWindow(t *testing.T) {
	result := runPlan(t, testSettings(), domain.AccountMap{
		"job": &domain.IncomeAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindIncome, Name: "Day Job"},
			Base:        decimal.NewFromInt(60000),
			EndIn:       domain.Formula("2027"),
		},
	})

	assertDecimal(t, "60000", result.Income.Get(2027))
	assertDecimal(t, "0", result.Income.Get(2028), "income stops after end_in")
	assertDecimal(t, "0", result.AfterTaxIncome.Get(2028))
}

func TestEngine_LoanInterestDeepensDebt(t *testing.T) {
	result := runPlan(t, testSettings(), domain.AccountMap{
		"car": &domain.LoanAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindLoan, Name: "Car Loan"},
			Balance:     decimal.NewFromInt(-10000),
			Rate:        decimal.NewFromInt(12),
		},
	})

	car := result.Accounts["car"]
	assertDecimal(t, "-1200", car.Earnings.Get(2026), "interest keeps the balance's sign")
	assertDecimal(t, "-11200", car.Balance.Get(2026), "unpaid debt deepens")
	assertDecimal(t, "0", car.Payment.Get(2026), "no payment policy means no payment")
}

func TestEngine_LoanPaymentClampedToOwed(t *testing.T) {
	result := runPlan(t, testSettings(), domain.AccountMap{
		"car": &domain.LoanAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindLoan, Name: "Car Loan"},
			Balance:     decimal.NewFromInt(-10000),
			Rate:        decimal.NewFromInt(12),
			Payment:     decimal.NewFromInt(20000),
			PaymentType: domain.PolicyFixed,
		},
	})

	car := result.Accounts["car"]
	assertDecimal(t, "11200", car.Payment.Get(2026), "payment clamps to the owed magnitude")
	assertDecimal(t, "0", car.Balance.Get(2026), "loan pays off exactly")
	assertDecimal(t, "0", car.Earnings.Get(2027), "paid-off loan accrues no interest")
	assertDecimal(t, "0", car.Payment.Get(2027), "non-negative balance takes no payment")
	assertDecimal(t, "11200", result.TotalExpenses.Get(2026), "the payment is a household expense")
	assertDecimal(t, "-11200", result.Net.Get(2026))
}

func TestEngine_EmployerMatchSingleTier(t *testing.T) {
	result := runPlan(t, testSettings(), domain.AccountMap{
		"job": &domain.IncomeAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindIncome, Name: "Day Job"},
			Base:        decimal.NewFromInt(50000),
		},
		"401k": &domain.SavingsAccount{
			AccountBase:      domain.AccountBase{Kind: domain.KindRetirement, Name: "401k"},
			Return:           decimal.Zero,
			Contribution:     decimal.NewFromInt(3000),
			ContributionType: domain.PolicyFixed,
			TaxStatus:        domain.TaxStatusDeferred,
			IncomeLink:       "job",
			Match: []domain.MatchTier{
				{Rate: decimal.NewFromInt(50), Limit: decimal.NewFromInt(6)},
			},
		},
	})

	nest := result.Accounts["401k"]
	assertDecimal(t, "3000", nest.Contribution.Get(2026))
	assertDecimal(t, "1500", nest.EmployerMatch.Get(2026), "50% match on a 6% contribution of 50000")
	assertDecimal(t, "4500", nest.Balance.Get(2026))

	assertDecimal(t, "47000", result.TaxableIncome.Get(2026), "pre-tax contribution reduces taxable income")
	assertDecimal(t, "3000", result.TotalExpenses.Get(2026), "only the employee contribution is an expense")
}

func TestEngine_EmployerMatchTwoTiers(t *testing.T) {
	result := runPlan(t, testSettings(), domain.AccountMap{
		"job": &domain.IncomeAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindIncome, Name: "Day Job"},
			Base:        decimal.NewFromInt(50000),
		},
		"401k": &domain.SavingsAccount{
			AccountBase:      domain.AccountBase{Kind: domain.KindRetirement, Name: "401k"},
			Contribution:     decimal.NewFromInt(3000),
			ContributionType: domain.PolicyFixed,
			IncomeLink:       "job",
			Match: []domain.MatchTier{
				{Rate: decimal.NewFromInt(100), Limit: decimal.NewFromInt(3)},
				{Rate: decimal.NewFromInt(50), Limit: decimal.NewFromInt(5)},
			},
		},
	})

	// 6% contribution: first 3% matched at 100%, the next 2% at 50%.
	assertDecimal(t, "2000", result.Accounts["401k"].EmployerMatch.Get(2026))
}

func TestEngine_PercentOfIncomeContribution(t *testing.T) {
	result := runPlan(t, testSettings(), domain.AccountMap{
		"job": &domain.IncomeAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindIncome, Name: "Day Job"},
			Base:        decimal.NewFromInt(50000),
		},
		"save": &domain.SavingsAccount{
			AccountBase:      domain.AccountBase{Kind: domain.KindSavings, Name: "Brokerage"},
			Contribution:     decimal.NewFromInt(10),
			ContributionType: domain.PolicyPercentOfIncome,
			IncomeLink:       "job",
		},
	})

	save := result.Accounts["save"]
	assertDecimal(t, "5000", save.Contribution.Get(2026), "10% of the linked income")
	assertDecimal(t, "15000", save.Balance.Get(2028), "contributions accumulate with zero return")
	assertDecimal(t, "15000", result.TotalSavings.Get(2028))
}

func TestEngine_EndAtZeroWithdrawal(t *testing.T) {
	result := runPlan(t, testSettings(), domain.AccountMap{
		"save": &domain.SavingsAccount{
			AccountBase:    domain.AccountBase{Kind: domain.KindSavings, Name: "Drawdown"},
			Balance:        decimal.NewFromInt(9000),
			WithdrawalType: domain.PolicyEndAtZero,
			StartOut:       domain.Formula("2026"),
			EndOut:         domain.Formula("2028"),
		},
	})

	save := result.Accounts["save"]
	assertDecimal(t, "3000", save.Withdrawal.Get(2026))
	assertDecimal(t, "3000", save.Withdrawal.Get(2027))
	assertDecimal(t, "3000", save.Withdrawal.Get(2028))
	assertDecimal(t, "0", save.Balance.Get(2028), "balance reaches exactly zero in the final window year")
	assertDecimal(t, "3000", result.Income.Get(2026), "withdrawals count as household income")
}

func TestEngine_WithdrawalClampedToBalance(t *testing.T) {
	result := runPlan(t, testSettings(), domain.AccountMap{
		"save": &domain.SavingsAccount{
			AccountBase:    domain.AccountBase{Kind: domain.KindSavings, Name: "Rainy Day"},
			Balance:        decimal.NewFromInt(5000),
			Withdrawal:     decimal.NewFromInt(8000),
			WithdrawalType: domain.PolicyFixed,
			StartOut:       domain.Formula("2026"),
		},
	})

	save := result.Accounts["save"]
	assertDecimal(t, "5000", save.Withdrawal.Get(2026), "withdrawal clamps to the balance before subtraction")
	assertDecimal(t, "0", save.Balance.Get(2026), "an over-drawn account ends at zero, never negative")
	assertDecimal(t, "5000", result.Income.Get(2026), "only what was actually withdrawn is income")
	assertDecimal(t, "0", save.Withdrawal.Get(2027), "a drained account yields nothing")
	assertDecimal(t, "0", save.Balance.Get(2027))
}

func TestEngine_WithdrawalClampAfterEarnings(t *testing.T) {
	result := runPlan(t, testSettings(), domain.AccountMap{
		"save": &domain.SavingsAccount{
			AccountBase:    domain.AccountBase{Kind: domain.KindSavings, Name: "Rainy Day"},
			Balance:        decimal.NewFromInt(10000),
			Return:         decimal.NewFromInt(10),
			Withdrawal:     decimal.NewFromInt(50000),
			WithdrawalType: domain.PolicyFixed,
			StartOut:       domain.Formula("2026"),
		},
	})

	// The clamp target is the balance as it stands after earnings: 11000.
	save := result.Accounts["save"]
	assertDecimal(t, "11000", save.Withdrawal.Get(2026))
	assertDecimal(t, "0", save.Balance.Get(2026))
}

func TestEngine_ShareOfExpensesWithdrawal(t *testing.T) {
	accounts := domain.AccountMap{
		"save": &domain.SavingsAccount{
			AccountBase:    domain.AccountBase{Kind: domain.KindSavings, Name: "Brokerage"},
			Balance:        decimal.NewFromInt(100000),
			WithdrawalType: domain.PolicyShareOfExpenses,
			StartOut:       domain.Formula("2026"),
		},
		"living": &domain.ExpenseAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindExpense, Name: "Living"},
			Amount:      decimal.NewFromInt(20000),
			ExpenseType: domain.PolicyFixed,
		},
	}
	result := runPlan(t, testSettings(), accounts)

	save := result.Accounts["save"]
	assertDecimal(t, "0", save.Withdrawal.Get(2026), "no prior-year total savings means no share")
	assertDecimal(t, "20000", save.Withdrawal.Get(2027), "sole account funds the full expense total")
	assertDecimal(t, "80000", save.Balance.Get(2027))
}

func TestEngine_ShareOfExpensesGrossedUpWhenTaxed(t *testing.T) {
	result := runPlan(t, testSettings(), domain.AccountMap{
		"ira": &domain.SavingsAccount{
			AccountBase:    domain.AccountBase{Kind: domain.KindRetirement, Name: "IRA"},
			Balance:        decimal.NewFromInt(100000),
			WithdrawalType: domain.PolicyShareOfExpenses,
			TaxStatus:      domain.TaxStatusDeferred,
			StartOut:       domain.Formula("2026"),
		},
		"living": &domain.ExpenseAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindExpense, Name: "Living"},
			Amount:      decimal.NewFromInt(20000),
			ExpenseType: domain.PolicyFixed,
		},
	})

	ira := result.Accounts["ira"]
	// 20000 / (1 - 0.20): the after-tax proceeds must cover the share.
	assertDecimal(t, "25000", ira.Withdrawal.Get(2027))
	assertDecimal(t, "25000", result.TaxableIncome.Get(2027), "deferred withdrawals are ordinary income")
}

func TestEngine_CollegeWithdrawalNotIncome(t *testing.T) {
	result := runPlan(t, testSettings(), domain.AccountMap{
		"529": &domain.SavingsAccount{
			AccountBase:    domain.AccountBase{Kind: domain.KindCollege, Name: "529"},
			Balance:        decimal.NewFromInt(20000),
			Withdrawal:     decimal.NewFromInt(5000),
			WithdrawalType: domain.PolicyFixed,
			StartOut:       domain.Formula("2026"),
		},
	})

	fund := result.Accounts["529"]
	assertDecimal(t, "5000", fund.Withdrawal.Get(2026))
	assertDecimal(t, "15000", fund.Balance.Get(2026))
	assertDecimal(t, "0", result.Income.Get(2026), "college draws stay out of household income")
	assertDecimal(t, "0", result.TotalSavings.Get(2026), "college funds are not counted as savings")
}

func TestEngine_CapitalGainsWithdrawal(t *testing.T) {
	result := runPlan(t, testSettings(), domain.AccountMap{
		"brokerage": &domain.SavingsAccount{
			AccountBase:    domain.AccountBase{Kind: domain.KindSavings, Name: "Brokerage"},
			Balance:        decimal.NewFromInt(50000),
			Withdrawal:     decimal.NewFromInt(10000),
			WithdrawalType: domain.PolicyFixed,
			TaxStatus:      domain.TaxStatusCapitalGains,
			StartOut:       domain.Formula("2026"),
		},
	})

	assertDecimal(t, "10000", result.Income.Get(2026))
	assertDecimal(t, "0", result.TaxableIncome.Get(2026), "capital gains are not ordinary income")
	assertDecimal(t, "10000", result.CapitalGains.Get(2026))
	assertDecimal(t, "8500", result.AfterTaxIncome.Get(2026), "taxed at the capital gains rate")
}

func TestEngine_HSAHealthcareOffset(t *testing.T) {
	result := runPlan(t, testSettings(), domain.AccountMap{
		"h": &domain.SavingsAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindHSA, Name: "HSA"},
			Balance:     decimal.NewFromInt(3000),
		},
		"medical": &domain.ExpenseAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindExpense, Name: "Medical"},
			Amount:      decimal.NewFromInt(5000),
			ExpenseType: domain.PolicyFixed,
			Healthcare:  true,
			HSALink:     "h",
		},
	})

	hsa := result.Accounts["h"]
	assertDecimal(t, "3000", hsa.Withdrawal.Get(2026), "the HSA funds what it can")
	assertDecimal(t, "0", hsa.Balance.Get(2026))
	assertDecimal(t, "2000", result.TotalExpenses.Get(2026), "only the shortfall is a cash expense")
	assertDecimal(t, "5000", result.TotalExpenses.Get(2027), "a drained HSA covers nothing")
	assertDecimal(t, "0", result.Income.Get(2026), "HSA draws are not household income")
}

func TestEngine_MortgageInsuranceAndEscrow(t *testing.T) {
	result := runPlan(t, testSettings(), domain.AccountMap{
		"house": &domain.MortgageAccount{
			AccountBase:  domain.AccountBase{Kind: domain.KindMortgage, Name: "House"},
			Balance:      decimal.NewFromInt(-200000),
			Rate:         decimal.NewFromInt(5),
			CompoundTime: decimal.NewFromInt(1),
			Payment:      decimal.NewFromInt(30000),
			PaymentType:  domain.PolicyFixed,
			HomeValue:    decimal.NewFromInt(220000),
			LTVLimit:     decimal.NewFromInt(80),
			Insurance:    decimal.NewFromInt(1200),
			Escrow:       decimal.NewFromInt(2400),
		},
	})

	house := result.Accounts["house"]
	// LTV 200000/220000 = 90.9% > 80%, so insurance is charged on top of
	// interest (-10000) and escrow.
	assertDecimal(t, "-13600", house.Earnings.Get(2026))
	assertDecimal(t, "2400", house.Escrow.Get(2026))
	assertDecimal(t, "-183600", house.Balance.Get(2026))
	assertDecimal(t, "30000", result.TotalExpenses.Get(2026))

	// By 2028 the balance is under the cutoff and insurance drops off:
	// charge is interest on -166380 plus escrow only.
	assertDecimal(t, "-166380", house.Balance.Get(2027))
	assertDecimal(t, "-10719", house.Earnings.Get(2028))
}

func TestEngine_SocialSecurityTaxation(t *testing.T) {
	result := runPlan(t, testSettings(), domain.AccountMap{
		"job": &domain.IncomeAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindIncome, Name: "Part Time"},
			Base:        decimal.NewFromInt(40000),
		},
		"ss": &domain.IncomeAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindSSA, Name: "Social Security"},
			Base:        decimal.NewFromInt(30000),
		},
	})

	assertDecimal(t, "70000", result.Income.Get(2026), "the full benefit is income")
	// Provisional income 40000 + 15000 = 55000, above the second breakpoint:
	// taxable benefit = min(0.85*30000, 0.85*(55000-34000) + 0.5*(34000-25000)).
	assertDecimal(t, "62350", result.TaxableIncome.Get(2026))
}

func TestEngine_SocialSecurityUntaxedBelowFirstThreshold(t *testing.T) {
	result := runPlan(t, testSettings(), domain.AccountMap{
		"ss": &domain.IncomeAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindSSA, Name: "Social Security"},
			Base:        decimal.NewFromInt(30000),
		},
	})

	// Provisional income is 15000, below the first breakpoint.
	assertDecimal(t, "30000", result.Income.Get(2026))
	assertDecimal(t, "0", result.TaxableIncome.Get(2026))
	assertDecimal(t, "30000", result.AfterTaxIncome.Get(2026))
}

func TestEngine_ExpenseRetireFactor(t *testing.T) {
	s := testSettings()
	s.AgeRetire = 47 // retirement in 2027
	s.RetireFactor = decimal.NewFromInt(80)

	result := runPlan(t, s, domain.AccountMap{
		"living": &domain.ExpenseAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindExpense, Name: "Living"},
			Amount:      decimal.NewFromInt(10000),
			ExpenseType: domain.PolicyFixed,
		},
	})

	assertDecimal(t, "10000", result.TotalExpenses.Get(2026))
	assertDecimal(t, "8000", result.TotalExpenses.Get(2027), "retirement scales expenses by the factor")
	assertDecimal(t, "8000", result.TotalExpenses.Get(2028))
}

func TestEngine_ExpenseInflation(t *testing.T) {
	s := testSettings()
	s.Inflation = decimal.NewFromInt(10)

	result := runPlan(t, s, domain.AccountMap{
		"living": &domain.ExpenseAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindExpense, Name: "Living"},
			Amount:      decimal.NewFromInt(10000),
			ExpenseType: domain.PolicyFixedInflation,
		},
	})

	assertDecimal(t, "10000", result.TotalExpenses.Get(2026), "no inflation in the start year")
	assertDecimal(t, "11000", result.TotalExpenses.Get(2027))
	assertDecimal(t, "12100", result.TotalExpenses.Get(2028))
}

func TestEngine_UnknownPolicyWarns(t *testing.T) {
	result := runPlan(t, testSettings(), domain.AccountMap{
		"living": &domain.ExpenseAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindExpense, Name: "Living"},
			Amount:      decimal.NewFromInt(10000),
			ExpenseType: "bogus",
		},
	})

	assertDecimal(t, "0", result.TotalExpenses.Get(2026), "unknown policy resolves to zero")
	require.NotEmpty(t, result.Warnings, "Should record a policy warning")
	assert.Equal(t, domain.WarnUnknownPolicy, result.Warnings[0].Code)
	assert.Equal(t, "living", result.Warnings[0].AccountID)
	assert.Equal(t, 2026, result.Warnings[0].Year)
}

func TestEngine_MissingIncomeLinkWarns(t *testing.T) {
	result := runPlan(t, testSettings(), domain.AccountMap{
		"401k": &domain.SavingsAccount{
			AccountBase:      domain.AccountBase{Kind: domain.KindRetirement, Name: "401k"},
			Contribution:     decimal.NewFromInt(3000),
			ContributionType: domain.PolicyFixed,
			IncomeLink:       "nope",
			Match: []domain.MatchTier{
				{Rate: decimal.NewFromInt(50), Limit: decimal.NewFromInt(6)},
			},
		},
	})

	assertDecimal(t, "0", result.Accounts["401k"].EmployerMatch.Get(2026), "no match without a usable link")
	require.NotEmpty(t, result.Warnings)
	assert.Equal(t, domain.WarnMissingIncomeLink, result.Warnings[0].Code)
}

func TestEngine_BadFormulaIsFatal(t *testing.T) {
	engine := NewEngine()
	_, err := engine.Project(context.Background(), testSettings(), domain.AccountMap{
		"job": &domain.IncomeAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindIncome, Name: "Day Job"},
			Base:        decimal.NewFromInt(100000),
			EndIn:       domain.Formula("yearFoo + 1"),
		},
	})

	require.Error(t, err, "Unresolvable formulas are fatal")
	assert.True(t, domain.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "end_in")
}

func TestEngine_InvalidTimelineIsFatal(t *testing.T) {
	s := testSettings()
	s.AgeDie = 40

	engine := NewEngine()
	result, err := engine.Project(context.Background(), s, domain.AccountMap{})
	require.Error(t, err)
	assert.Nil(t, result, "No partial result on fatal errors")
	assert.True(t, domain.IsConfigurationError(err))
}

func TestEngine_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine()
	result, err := engine.Project(ctx, testSettings(), domain.AccountMap{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

func TestEngine_NetAndBalanceIdentities(t *testing.T) {
	result := runPlan(t, testSettings(), domain.AccountMap{
		"job": &domain.IncomeAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindIncome, Name: "Day Job"},
			Base:        decimal.NewFromInt(90000),
			Raise:       domain.Formula("3"),
		},
		"401k": &domain.SavingsAccount{
			AccountBase:      domain.AccountBase{Kind: domain.KindRetirement, Name: "401k"},
			Balance:          decimal.NewFromInt(40000),
			Return:           decimal.NewFromInt(5),
			Contribution:     decimal.NewFromInt(6000),
			ContributionType: domain.PolicyFixed,
			TaxStatus:        domain.TaxStatusDeferred,
			IncomeLink:       "job",
			Match: []domain.MatchTier{
				{Rate: decimal.NewFromInt(50), Limit: decimal.NewFromInt(6)},
			},
		},
		"car": &domain.LoanAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindLoan, Name: "Car Loan"},
			Balance:     decimal.NewFromInt(-15000),
			Rate:        decimal.NewFromInt(6),
			Payment:     decimal.NewFromInt(6000),
			PaymentType: domain.PolicyFixed,
		},
		"living": &domain.ExpenseAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindExpense, Name: "Living"},
			Amount:      decimal.NewFromInt(30000),
			ExpenseType: domain.PolicyFixed,
		},
	})

	nest := result.Accounts["401k"]
	for _, year := range result.Years {
		// net[y] = net[y-1] + afterTax[y] - totalExpenses[y]
		wantNet := result.Net.Get(year - 1).
			Add(result.AfterTaxIncome.Get(year)).
			Sub(result.TotalExpenses.Get(year))
		assert.True(t, wantNet.Equal(result.Net.Get(year)),
			"net identity broken in %d: want %s got %s", year, wantNet, result.Net.Get(year))

		// balance[y] = balance[y-1] + earnings + contribution + match - withdrawal
		prev := decimal.NewFromInt(40000)
		if year > 2026 {
			prev = nest.Balance.Get(year - 1)
		}
		wantBal := prev.
			Add(nest.Earnings.Get(year)).
			Add(nest.Contribution.Get(year)).
			Add(nest.EmployerMatch.Get(year)).
			Sub(nest.Withdrawal.Get(year))
		assert.True(t, wantBal.Equal(nest.Balance.Get(year)),
			"balance identity broken in %d: want %s got %s", year, wantBal, nest.Balance.Get(year))
	}
}

func TestEngine_ExpenseEntriesPerAccount(t *testing.T) {
	result := runPlan(t, testSettings(), domain.AccountMap{
		"living": &domain.ExpenseAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindExpense, Name: "Living"},
			Amount:      decimal.NewFromInt(12000),
			ExpenseType: domain.PolicyFixed,
		},
		"car": &domain.LoanAccount{
			AccountBase: domain.AccountBase{Kind: domain.KindLoan, Name: "Car Loan"},
			Balance:     decimal.NewFromInt(-5000),
			Rate:        decimal.Zero,
			Payment:     decimal.NewFromInt(2000),
			PaymentType: domain.PolicyFixed,
		},
	})

	require.Contains(t, result.Expenses, "living")
	require.Contains(t, result.Expenses, "car")
	assertDecimal(t, "12000", result.Expenses["living"].Get(2026))
	assertDecimal(t, "2000", result.Expenses["car"].Get(2026))
	assertDecimal(t, "14000", result.TotalExpenses.Get(2026))
}
