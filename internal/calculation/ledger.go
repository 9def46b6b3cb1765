package calculation

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/hpgo/household-planner/internal/domain"
	"github.com/hpgo/household-planner/internal/formula"
)

var (
	decimalZero    = decimal.Zero
	decimalOne     = decimal.NewFromInt(1)
	decimalHundred = decimal.NewFromInt(100)
)

// kindOrder is the fixed per-year processing order. Later kinds read
// aggregate totals partially accumulated by earlier kinds (percent-of-income
// contributions, share-of-expenses withdrawals), so this ordering is a
// correctness requirement, not a convenience.
var kindOrder = []domain.AccountKind{
	domain.KindIncome,
	domain.KindSSA,
	domain.KindHSA,
	domain.KindExpense,
	domain.KindMortgage,
	domain.KindLoan,
	domain.KindCollege,
	domain.KindRetirement,
	domain.KindSavings,
}

// ledgerAccount is one account's engine-owned view: the input variant, its
// formula-resolved numeric bounds and the derived year tables.
type ledgerAccount struct {
	id     string
	acct   domain.Account
	tables *domain.AccountTables

	startBalance decimal.Decimal
	startIn      int
	endIn        int
	startOut     int
	endOut       int
	raise        decimal.Decimal
}

func (la *ledgerAccount) kind() domain.AccountKind {
	return la.acct.AccountKind()
}

// Ledger is the mutable per-account collection the pipeline reads and
// writes. It is built fresh for every run; the caller's accounts are never
// aliased.
type Ledger struct {
	accounts map[string]*ledgerAccount
	order    []*ledgerAccount
}

func (l *Ledger) account(id string) (*ledgerAccount, bool) {
	la, ok := l.accounts[id]
	return la, ok
}

// incomeEarnings returns the named income account's earnings for a year.
// The second result is false when the id does not resolve to an income-like
// account.
func (l *Ledger) incomeEarnings(id string, year int) (decimal.Decimal, bool) {
	la, ok := l.accounts[id]
	if !ok {
		return decimalZero, false
	}
	if k := la.kind(); k != domain.KindIncome && k != domain.KindSSA {
		return decimalZero, false
	}
	return la.tables.Earnings.Get(year), true
}

// buildLedger resolves every account's formula fields to plain numbers and
// lays the accounts out in the fixed kind order. Income-like accounts
// resolve first so the incomeLink sentinel can copy their bounds.
func buildLedger(settings *domain.Settings, accounts domain.AccountMap) (*Ledger, error) {
	res := formula.NewResolver(settings)
	ledger := &Ledger{accounts: make(map[string]*ledgerAccount, len(accounts))}

	defStart := settings.YearStart
	defEnd := settings.YearDie()

	// Income-like accounts carry no sentinel references of their own.
	for id, acct := range accounts {
		a, ok := acct.(*domain.IncomeAccount)
		if !ok {
			continue
		}
		la := &ledgerAccount{id: id, acct: acct, tables: &domain.AccountTables{
			Balance:  domain.YearTable{},
			Earnings: domain.YearTable{},
		}}
		var err error
		if la.startIn, err = res.ResolveYear(a.StartIn, defStart); err != nil {
			return nil, accountFieldError(id, "start_in", err)
		}
		if la.endIn, err = res.ResolveYear(a.EndIn, defEnd); err != nil {
			return nil, accountFieldError(id, "end_in", err)
		}
		if la.raise, err = res.Resolve(a.Raise, decimalZero); err != nil {
			return nil, accountFieldError(id, "raise", err)
		}
		ledger.accounts[id] = la
	}

	for id, acct := range accounts {
		var la *ledgerAccount
		var err error
		switch a := acct.(type) {
		case *domain.IncomeAccount:
			continue
		case *domain.SavingsAccount:
			la = &ledgerAccount{id: id, acct: acct, startBalance: a.Balance, tables: &domain.AccountTables{
				Balance:       domain.YearTable{},
				Earnings:      domain.YearTable{},
				Contribution:  domain.YearTable{},
				EmployerMatch: domain.YearTable{},
				Withdrawal:    domain.YearTable{},
			}}
			// The incomeLink sentinel copies the same-named field from
			// the linked income account; for the withdrawal window it
			// copies the year the linked income ends.
			startInRes, endInRes, outRes := res, res, res
			if linked, ok := ledger.accounts[a.IncomeLink]; ok {
				startInRes = res.WithLink(decimal.NewFromInt(int64(linked.startIn)))
				endInRes = res.WithLink(decimal.NewFromInt(int64(linked.endIn)))
				outRes = endInRes
			}
			if la.startIn, err = startInRes.ResolveYear(a.StartIn, defStart); err != nil {
				return nil, accountFieldError(id, "start_in", err)
			}
			if la.endIn, err = endInRes.ResolveYear(a.EndIn, defEnd); err != nil {
				return nil, accountFieldError(id, "end_in", err)
			}
			if la.startOut, err = outRes.ResolveYear(a.StartOut, defStart); err != nil {
				return nil, accountFieldError(id, "start_out", err)
			}
			if la.endOut, err = outRes.ResolveYear(a.EndOut, defEnd); err != nil {
				return nil, accountFieldError(id, "end_out", err)
			}
		case *domain.LoanAccount:
			la = &ledgerAccount{id: id, acct: acct, startBalance: a.Balance, tables: &domain.AccountTables{
				Balance:  domain.YearTable{},
				Earnings: domain.YearTable{},
				Payment:  domain.YearTable{},
			}}
			if la.startOut, err = res.ResolveYear(a.StartOut, defStart); err != nil {
				return nil, accountFieldError(id, "start_out", err)
			}
			if la.endOut, err = res.ResolveYear(a.EndOut, defEnd); err != nil {
				return nil, accountFieldError(id, "end_out", err)
			}
		case *domain.MortgageAccount:
			la = &ledgerAccount{id: id, acct: acct, startBalance: a.Balance, tables: &domain.AccountTables{
				Balance:  domain.YearTable{},
				Earnings: domain.YearTable{},
				Payment:  domain.YearTable{},
				Escrow:   domain.YearTable{},
			}}
			if la.startOut, err = res.ResolveYear(a.StartOut, defStart); err != nil {
				return nil, accountFieldError(id, "start_out", err)
			}
			if la.endOut, err = res.ResolveYear(a.EndOut, defEnd); err != nil {
				return nil, accountFieldError(id, "end_out", err)
			}
		case *domain.ExpenseAccount:
			la = &ledgerAccount{id: id, acct: acct, tables: &domain.AccountTables{
				Balance: domain.YearTable{},
			}}
			if la.startOut, err = res.ResolveYear(a.StartOut, defStart); err != nil {
				return nil, accountFieldError(id, "start_out", err)
			}
			if la.endOut, err = res.ResolveYear(a.EndOut, defEnd); err != nil {
				return nil, accountFieldError(id, "end_out", err)
			}
		default:
			return nil, domain.ConfigErrorf("account %s: unsupported account kind %q", id, acct.AccountKind())
		}
		ledger.accounts[id] = la
	}

	// Fixed kind order; ascending id inside one kind keeps runs
	// deterministic over the map-backed input.
	byKind := map[domain.AccountKind][]*ledgerAccount{}
	for _, la := range ledger.accounts {
		byKind[la.kind()] = append(byKind[la.kind()], la)
	}
	for _, group := range byKind {
		sort.Slice(group, func(i, j int) bool { return group[i].id < group[j].id })
	}
	for _, kind := range kindOrder {
		ledger.order = append(ledger.order, byKind[kind]...)
	}

	return ledger, nil
}

func accountFieldError(id, field string, err error) error {
	return domain.ConfigErrorf("account %s: field %s: %v", id, field, err)
}
