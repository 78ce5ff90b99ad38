package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationResult is the outcome of processing one expense row.
// Exactly one result is produced per input row, whether or not the row
// could be attributed; failures are described in Notes.
type ReconciliationResult struct {
	Date      time.Time
	Amount    decimal.Decimal
	Client    string
	Project   string
	Category  string
	Notes     string
	FirstName string
	LastName  string
	Billable  bool
}

// ResultFieldNames is the column order of the results artifact and the
// warehouse results table.
var ResultFieldNames = []string{
	"Date", "Amount", "Client", "Project", "Category",
	"Notes", "First Name", "Last Name", "Billable",
}

// Record returns the result as a row in ResultFieldNames order.
func (r ReconciliationResult) Record() []string {
	billable := "false"
	if r.Billable {
		billable = "true"
	}
	return []string{
		r.Date.Format("2006-01-02"),
		r.Amount.String(),
		r.Client,
		r.Project,
		r.Category,
		r.Notes,
		r.FirstName,
		r.LastName,
		billable,
	}
}
