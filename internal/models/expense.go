package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseRow is one line of an uploaded travel-expense report. Rows are
// immutable once parsed; each row is consumed exactly once by the
// reconciliation pipeline.
type ExpenseRow struct {
	BookingDate time.Time
	BookerName  string
	TravelDate  time.Time
	TotalCost   decimal.Decimal
	ProjectHint string // free-text project/client description entered by the traveller
	Answer      string // billable/internal classification text
}

// Billable reports whether the row's classification text marks it as
// billable project travel.
func (r ExpenseRow) Billable(billableAnswer string) bool {
	return r.Answer == billableAnswer
}

// Internal reports whether the row belongs to an internal division rather
// than a client project.
func (r ExpenseRow) Internal() bool {
	return strings.Contains(strings.ToLower(r.Answer), "division")
}
