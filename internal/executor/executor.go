package executor

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tpxdata/expense-pipeline/internal/models"
	"github.com/tpxdata/expense-pipeline/internal/router"
)

// ErrAssignTeamProject is returned when the person-to-project link for an
// internal cost center could not be created. It aborts only the current
// row and is not retried.
var ErrAssignTeamProject = errors.New("unable to assign TPX team project")

// TimeTracker is the slice of the external time-tracking API the executor
// needs.
type TimeTracker interface {
	CreateUserAssignment(ctx context.Context, personID, projectID int64) error
	PostExpense(ctx context.Context, personID, projectID int64, spentDate time.Time, amount decimal.Decimal, billable bool) error
}

// Executor performs the side effects for one attributed row: it ensures
// the person-to-project link exists for internal rows, then posts the
// expense. Each step is independently fallible; the first failure stops
// the row.
type Executor struct {
	tracker TimeTracker
	logger  *zap.Logger
}

// New creates a new Executor
func New(tracker TimeTracker, logger *zap.Logger) *Executor {
	return &Executor{
		tracker: tracker,
		logger:  logger,
	}
}

// Execute posts one attributed expense. links is the run-scoped
// accumulator of known person-to-project assignments: a link already in
// the set is never created again, and links created here are added so the
// same pair is not created twice within one batch.
func (e *Executor) Execute(ctx context.Context, attr router.Attribution, amount decimal.Decimal, spentDate time.Time, links models.LinkSet) error {
	if attr.Internal {
		if !links.Contains(attr.PersonID, attr.ProjectID) {
			if err := e.tracker.CreateUserAssignment(ctx, attr.PersonID, attr.ProjectID); err != nil {
				e.logger.Error("Failed to assign team project",
					zap.Int64("person_id", attr.PersonID),
					zap.Int64("project_id", attr.ProjectID),
					zap.Error(err))
				return ErrAssignTeamProject
			}
			links.Add(attr.PersonID, attr.ProjectID)
		}
	}

	e.logger.Info("Posting expense",
		zap.String("amount", amount.String()),
		zap.String("client", attr.Client),
		zap.String("project", attr.Project),
		zap.Bool("billable", attr.Billable))

	if err := e.tracker.PostExpense(ctx, attr.PersonID, attr.ProjectID, spentDate, amount, attr.Billable); err != nil {
		return err
	}
	return nil
}
