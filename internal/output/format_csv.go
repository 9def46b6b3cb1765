package output

import (
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/hpgo/household-planner/internal/domain"
)

// CSVFormatter formats a projection as CSV, one row per simulated year.
type CSVFormatter struct{}

// Format generates CSV output for the aggregate projection tables.
func (cf *CSVFormatter) Format(result *domain.ProjectionResult) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := []string{
		"Year",
		"Income",
		"Taxable Income",
		"Capital Gains",
		"After Tax Income",
		"Total Expenses",
		"Total Savings",
		"Net",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	for _, year := range result.Years {
		row := []string{
			strconv.Itoa(year),
			result.Income.Get(year).StringFixed(2),
			result.TaxableIncome.Get(year).StringFixed(2),
			result.CapitalGains.Get(year).StringFixed(2),
			result.AfterTaxIncome.Get(year).StringFixed(2),
			result.TotalExpenses.Get(year).StringFixed(2),
			result.TotalSavings.Get(year).StringFixed(2),
			result.Net.Get(year).StringFixed(2),
		}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return sb.String(), nil
}
