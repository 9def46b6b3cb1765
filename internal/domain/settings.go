package domain

import (
	"github.com/shopspring/decimal"
)

// Settings holds the immutable per-run plan parameters. Rates are expressed
// in percent (5 means 5%).
type Settings struct {
	YearStart    int             `yaml:"year_start" json:"year_start"`
	YearBorn     int             `yaml:"year_born" json:"year_born"`
	AgeRetire    int             `yaml:"age_retire" json:"age_retire"`
	AgeDie       int             `yaml:"age_die" json:"age_die"`
	Inflation    decimal.Decimal `yaml:"inflation" json:"inflation"`
	TaxRate      decimal.Decimal `yaml:"tax_rate" json:"tax_rate"`
	CapGainsRate decimal.Decimal `yaml:"cap_gains_rate" json:"cap_gains_rate"`
	RetireFactor decimal.Decimal `yaml:"retire_factor" json:"retire_factor"`
	SSA          SSAThresholds   `yaml:"ssa" json:"ssa"`
}

// SSAThresholds are the provisional-income breakpoints used to decide how
// much of a social security benefit counts as taxable income.
type SSAThresholds struct {
	Threshold1 decimal.Decimal `yaml:"threshold1" json:"threshold1"`
	Threshold2 decimal.Decimal `yaml:"threshold2" json:"threshold2"`
}

// AgeNow returns the plan holder's age in the simulation start year.
func (s *Settings) AgeNow() int {
	return s.YearStart - s.YearBorn
}

// YearRetire returns the calendar year in which the plan reaches retirement.
func (s *Settings) YearRetire() int {
	return s.YearBorn + s.AgeRetire
}

// YearDie returns the last simulated calendar year.
func (s *Settings) YearDie() int {
	return s.YearBorn + s.AgeDie
}
