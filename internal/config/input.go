package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/hpgo/household-planner/internal/domain"
)

// InputParser handles parsing of plan files.
type InputParser struct{}

// NewInputParser creates a new input parser.
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads a plan from a YAML or JSON file, chosen by extension.
func (ip *InputParser) LoadFromFile(filename string) (*domain.Plan, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var plan domain.Plan
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		if err := json.Unmarshal(data, &plan); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &plan); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	ip.normalizeSettings(&plan.Settings)
	if err := ip.ValidatePlan(&plan); err != nil {
		return nil, fmt.Errorf("plan validation failed: %w", err)
	}

	return &plan, nil
}

// LoadFromFileWithOverrides loads a plan and layers a TOML assumptions file
// over its settings (inflation, tax rates, retirement factor, social
// security breakpoints).
func (ip *InputParser) LoadFromFileWithOverrides(filename, overridesFile string) (*domain.Plan, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var plan domain.Plan
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		if err := json.Unmarshal(data, &plan); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &plan); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := ip.applyOverrides(&plan.Settings, overridesFile); err != nil {
		return nil, fmt.Errorf("failed to apply overrides from %s: %w", overridesFile, err)
	}

	ip.normalizeSettings(&plan.Settings)
	if err := ip.ValidatePlan(&plan); err != nil {
		return nil, fmt.Errorf("plan validation failed: %w", err)
	}

	return &plan, nil
}

// settingsOverrides mirrors the TOML assumptions file; pointer fields
// distinguish "absent" from "zero".
type settingsOverrides struct {
	Inflation    *float64 `toml:"inflation"`
	TaxRate      *float64 `toml:"tax_rate"`
	CapGainsRate *float64 `toml:"cap_gains_rate"`
	RetireFactor *float64 `toml:"retire_factor"`
	AgeRetire    *int     `toml:"age_retire"`
	AgeDie       *int     `toml:"age_die"`
	SSA          *struct {
		Threshold1 *float64 `toml:"threshold1"`
		Threshold2 *float64 `toml:"threshold2"`
	} `toml:"ssa"`
}

func (ip *InputParser) applyOverrides(settings *domain.Settings, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	var ov settingsOverrides
	if err := toml.Unmarshal(data, &ov); err != nil {
		return fmt.Errorf("failed to parse TOML: %w", err)
	}

	if ov.Inflation != nil {
		settings.Inflation = decimal.NewFromFloat(*ov.Inflation)
	}
	if ov.TaxRate != nil {
		settings.TaxRate = decimal.NewFromFloat(*ov.TaxRate)
	}
	if ov.CapGainsRate != nil {
		settings.CapGainsRate = decimal.NewFromFloat(*ov.CapGainsRate)
	}
	if ov.RetireFactor != nil {
		settings.RetireFactor = decimal.NewFromFloat(*ov.RetireFactor)
	}
	if ov.AgeRetire != nil {
		settings.AgeRetire = *ov.AgeRetire
	}
	if ov.AgeDie != nil {
		settings.AgeDie = *ov.AgeDie
	}
	if ov.SSA != nil {
		if ov.SSA.Threshold1 != nil {
			settings.SSA.Threshold1 = decimal.NewFromFloat(*ov.SSA.Threshold1)
		}
		if ov.SSA.Threshold2 != nil {
			settings.SSA.Threshold2 = decimal.NewFromFloat(*ov.SSA.Threshold2)
		}
	}
	return nil
}

// normalizeSettings fills settings defaults a plan file may omit.
func (ip *InputParser) normalizeSettings(settings *domain.Settings) {
	if settings.RetireFactor.IsZero() {
		settings.RetireFactor = decimal.NewFromInt(100)
	}
}

// ValidatePlan validates the loaded plan. Failures are the fatal class: the
// engine is never invoked on a plan that fails here.
func (ip *InputParser) ValidatePlan(plan *domain.Plan) error {
	if err := ip.validateSettings(&plan.Settings); err != nil {
		return fmt.Errorf("settings validation failed: %w", err)
	}
	for id, acct := range plan.Accounts {
		if err := ip.validateAccount(id, acct, plan.Accounts); err != nil {
			return fmt.Errorf("account %s (%s) validation failed: %w", id, acct.AccountName(), err)
		}
	}
	return nil
}

func (ip *InputParser) validateSettings(settings *domain.Settings) error {
	if settings.YearStart <= 0 {
		return domain.ConfigErrorf("simulation start year is required")
	}
	if settings.YearBorn <= 0 || settings.YearBorn > settings.YearStart {
		return domain.ConfigErrorf("birth year must be positive and not after the start year")
	}
	if settings.AgeDie < settings.AgeNow() {
		return domain.ConfigErrorf("age at death %d precedes current age %d", settings.AgeDie, settings.AgeNow())
	}
	if settings.Inflation.LessThan(decimal.NewFromInt(-10)) {
		return domain.ConfigErrorf("inflation rate cannot be less than -10%% (extreme deflation)")
	}
	if settings.TaxRate.LessThan(decimal.Zero) || settings.TaxRate.GreaterThan(decimal.NewFromInt(100)) {
		return domain.ConfigErrorf("income tax rate must be between 0 and 100")
	}
	if settings.CapGainsRate.LessThan(decimal.Zero) || settings.CapGainsRate.GreaterThan(decimal.NewFromInt(100)) {
		return domain.ConfigErrorf("capital gains tax rate must be between 0 and 100")
	}
	if settings.RetireFactor.LessThan(decimal.Zero) {
		return domain.ConfigErrorf("retirement cost-of-living factor cannot be negative")
	}
	if settings.SSA.Threshold2.LessThan(settings.SSA.Threshold1) {
		return domain.ConfigErrorf("social security threshold2 cannot be below threshold1")
	}
	return nil
}

func (ip *InputParser) validateAccount(id string, acct domain.Account, all domain.AccountMap) error {
	if acct.AccountName() == "" {
		return domain.ConfigErrorf("name is required")
	}

	switch a := acct.(type) {
	case *domain.IncomeAccount:
		if a.Base.LessThan(decimal.Zero) {
			return domain.ConfigErrorf("base amount cannot be negative")
		}
	case *domain.SavingsAccount:
		if a.Return.LessThan(decimal.NewFromInt(-100)) {
			return domain.ConfigErrorf("yearly return cannot be less than -100%%")
		}
		if len(a.Match) > 2 {
			return domain.ConfigErrorf("at most two employer match tiers are supported")
		}
		if len(a.Match) > 0 && a.IncomeLink == "" {
			return domain.ConfigErrorf("employer match requires an income link")
		}
		prevLimit := decimal.Zero
		for i, tier := range a.Match {
			if tier.Rate.LessThan(decimal.Zero) || tier.Rate.GreaterThan(decimal.NewFromInt(100)) {
				return domain.ConfigErrorf("match tier %d rate must be between 0 and 100", i)
			}
			if tier.Limit.LessThanOrEqual(prevLimit) {
				return domain.ConfigErrorf("match tier %d limit must exceed the previous tier's", i)
			}
			prevLimit = tier.Limit
		}
		if a.IncomeLink != "" {
			if err := requireKind(all, a.IncomeLink, "income link", domain.KindIncome, domain.KindSSA); err != nil {
				return err
			}
		}
	case *domain.LoanAccount:
		if a.Payment.LessThan(decimal.Zero) {
			return domain.ConfigErrorf("payment cannot be negative")
		}
	case *domain.MortgageAccount:
		if a.Payment.LessThan(decimal.Zero) {
			return domain.ConfigErrorf("payment cannot be negative")
		}
		if a.HomeValue.LessThan(decimal.Zero) {
			return domain.ConfigErrorf("home value cannot be negative")
		}
		if a.LTVLimit.LessThan(decimal.Zero) || a.LTVLimit.GreaterThan(decimal.NewFromInt(100)) {
			return domain.ConfigErrorf("loan-to-value cutoff must be between 0 and 100")
		}
		if a.CompoundTime.LessThan(decimal.Zero) {
			return domain.ConfigErrorf("compounding frequency cannot be negative")
		}
	case *domain.ExpenseAccount:
		if a.Amount.LessThan(decimal.Zero) {
			return domain.ConfigErrorf("expense amount cannot be negative")
		}
		if a.HSALink != "" {
			if err := requireKind(all, a.HSALink, "hsa link", domain.KindHSA); err != nil {
				return err
			}
		}
	}
	return nil
}

func requireKind(all domain.AccountMap, id, what string, kinds ...domain.AccountKind) error {
	target, ok := all[id]
	if !ok {
		return domain.ConfigErrorf("%s references unknown account %q", what, id)
	}
	for _, k := range kinds {
		if target.AccountKind() == k {
			return nil
		}
	}
	return domain.ConfigErrorf("%s references account %q of kind %q", what, id, target.AccountKind())
}
