package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hpgo/household-planner/internal/domain"
)

// TableFormatter formats a projection as a console table.
type TableFormatter struct{}

// Format generates a year-by-year table of the aggregate projection,
// followed by final account balances and any accumulated policy warnings.
func (tf *TableFormatter) Format(result *domain.ProjectionResult) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("HOUSEHOLD FINANCE PROJECTION"))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 96) + "\n")

	yearWidth := 6
	numWidth := 14

	sb.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %*s %*s %*s %*s %*s %*s\n",
		yearWidth, "Year",
		numWidth, "Income",
		numWidth, "Taxable",
		numWidth, "After Tax",
		numWidth, "Expenses",
		numWidth, "Savings",
		numWidth, "Net")))
	sb.WriteString(strings.Repeat("-", 96) + "\n")

	for _, year := range result.Years {
		net := result.Net.Get(year)
		netStr := formatMoney(net)
		if net.IsNegative() {
			netStr = negativeStyle.Render(netStr)
		}
		sb.WriteString(fmt.Sprintf("%-*d %*s %*s %*s %*s %*s %*s\n",
			yearWidth, year,
			numWidth, formatMoney(result.Income.Get(year)),
			numWidth, formatMoney(result.TaxableIncome.Get(year)),
			numWidth, formatMoney(result.AfterTaxIncome.Get(year)),
			numWidth, formatMoney(result.TotalExpenses.Get(year)),
			numWidth, formatMoney(result.TotalSavings.Get(year)),
			numWidth, netStr))
	}
	sb.WriteString(strings.Repeat("=", 96) + "\n")

	if len(result.Years) > 0 {
		tf.writeFinalBalances(&sb, result)
	}
	if len(result.Warnings) > 0 {
		tf.writeWarnings(&sb, result.Warnings)
	}

	return sb.String()
}

func (tf *TableFormatter) writeFinalBalances(sb *strings.Builder, result *domain.ProjectionResult) {
	finalYear := result.Years[len(result.Years)-1]

	ids := make([]string, 0, len(result.Accounts))
	for id, acct := range result.Accounts {
		if acct.Balance.Get(finalYear).IsZero() {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return
	}
	sort.Strings(ids)

	sb.WriteString("\n")
	sb.WriteString(headerStyle.Render(fmt.Sprintf("FINAL BALANCES (%d)", finalYear)))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 56) + "\n")
	for _, id := range ids {
		acct := result.Accounts[id]
		bal := acct.Balance.Get(finalYear)
		balStr := formatMoney(bal)
		if bal.IsNegative() {
			balStr = negativeStyle.Render(balStr)
		}
		sb.WriteString(fmt.Sprintf("%-30s %-10s %14s\n",
			truncate(acct.Name, 30), acct.Kind, balStr))
	}
}

func (tf *TableFormatter) writeWarnings(sb *strings.Builder, warnings []domain.Warning) {
	sb.WriteString("\n")
	sb.WriteString(warningStyle.Render(fmt.Sprintf("POLICY WARNINGS (%d)", len(warnings))))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 96) + "\n")
	for _, w := range warnings {
		sb.WriteString(fmt.Sprintf("  %d  %s  [%s] %s\n", w.Year, w.AccountID, w.Code, w.Message))
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
