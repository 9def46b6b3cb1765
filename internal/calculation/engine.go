package calculation

import (
	"context"

	"github.com/hpgo/household-planner/internal/domain"
)

// Logger is the minimal logging surface the engine uses for run-level
// progress output. Structured policy violations go to the DiagnosticSink
// instead.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debugf(format string, args ...any) {}
func (NopLogger) Infof(format string, args ...any)  {}
func (NopLogger) Warnf(format string, args ...any)  {}
func (NopLogger) Errorf(format string, args ...any) {}

// Engine runs household finance projections. One Engine may serve many
// concurrent runs; each run owns a private ledger, aggregator and sink.
type Engine struct {
	Logger Logger
}

// NewEngine creates an engine with a no-op logger.
func NewEngine() *Engine {
	return &Engine{Logger: NopLogger{}}
}

// SetLogger installs a logger; nil restores the no-op logger.
func (e *Engine) SetLogger(logger Logger) {
	if logger == nil {
		e.Logger = NopLogger{}
		return
	}
	e.Logger = logger
}

// Project simulates the plan year by year and returns the projection. The
// inputs are never mutated; the engine works on a resolved copy. Fatal
// problems (invalid timeline, unresolvable formulas) return a
// ConfigurationError with no partial result.
func (e *Engine) Project(ctx context.Context, settings *domain.Settings, accounts domain.AccountMap) (*domain.ProjectionResult, error) {
	years, err := Timeline(settings)
	if err != nil {
		return nil, err
	}

	ledger, err := buildLedger(settings, accounts)
	if err != nil {
		return nil, err
	}

	st := &runState{
		settings: settings,
		ledger:   ledger,
		agg:      newAggregator(),
		sink:     &DiagnosticSink{},
	}

	e.Logger.Debugf("projecting %d accounts over %d years starting %d", len(ledger.order), len(years), settings.YearStart)

	for _, year := range years {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, la := range ledger.order {
			st.stepAccount(la, year)
		}
		st.agg.finalizeYear(settings, year)
	}

	if n := len(st.sink.Warnings()); n > 0 {
		e.Logger.Infof("projection finished with %d policy warnings", n)
	}

	return buildResult(years, st), nil
}

func buildResult(years []int, st *runState) *domain.ProjectionResult {
	result := &domain.ProjectionResult{
		Years:          years,
		Income:         st.agg.income,
		TaxableIncome:  st.agg.taxable,
		CapitalGains:   st.agg.capGains,
		AfterTaxIncome: st.agg.afterTax,
		TotalExpenses:  st.agg.totalExpenses,
		TotalSavings:   st.agg.totalSavings,
		Net:            st.agg.net,
		Expenses:       st.agg.expenses,
		Accounts:       make(map[string]*domain.AccountResult, len(st.ledger.accounts)),
		Warnings:       st.sink.Warnings(),
	}
	for id, la := range st.ledger.accounts {
		result.Accounts[id] = &domain.AccountResult{
			Name:          la.acct.AccountName(),
			Kind:          la.kind(),
			AccountTables: *la.tables,
		}
	}
	return result
}
