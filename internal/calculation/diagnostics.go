package calculation

import (
	"fmt"

	"github.com/hpgo/household-planner/internal/domain"
)

// DiagnosticSink accumulates non-fatal policy violations during one run.
// Each run owns its own sink; the caller decides how to surface it.
type DiagnosticSink struct {
	warnings []domain.Warning
}

// Record appends a warning keyed by account and simulated year.
func (d *DiagnosticSink) Record(accountID string, year int, code domain.WarningCode, format string, args ...any) {
	d.warnings = append(d.warnings, domain.Warning{
		AccountID: accountID,
		Year:      year,
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
	})
}

// Warnings returns the accumulated warnings in record order.
func (d *DiagnosticSink) Warnings() []domain.Warning {
	return d.warnings
}
