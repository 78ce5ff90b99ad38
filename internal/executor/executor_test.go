package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tpxdata/expense-pipeline/internal/models"
	"github.com/tpxdata/expense-pipeline/internal/router"
)

type fakeTracker struct {
	assignErr   error
	postErr     error
	assignments []models.LinkKey
	posted      int
}

func (f *fakeTracker) CreateUserAssignment(ctx context.Context, personID, projectID int64) error {
	if f.assignErr != nil {
		return f.assignErr
	}
	f.assignments = append(f.assignments, models.LinkKey{PersonID: personID, ProjectID: projectID})
	return nil
}

func (f *fakeTracker) PostExpense(ctx context.Context, personID, projectID int64, spentDate time.Time, amount decimal.Decimal, billable bool) error {
	if f.postErr != nil {
		return f.postErr
	}
	f.posted++
	return nil
}

var (
	spentDate = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	amount    = decimal.RequireFromString("42.50")
)

func internalAttr() router.Attribution {
	return router.Attribution{
		PersonID:  7,
		ProjectID: 42580512,
		Client:    "TPXimpact",
		Project:   "Design",
		Internal:  true,
	}
}

func TestExecute_ExistingLinkSkipsCreation(t *testing.T) {
	tracker := &fakeTracker{}
	e := New(tracker, zap.NewNop())
	links := models.NewLinkSet([]models.LinkKey{{PersonID: 7, ProjectID: 42580512}})

	err := e.Execute(context.Background(), internalAttr(), amount, spentDate, links)
	require.NoError(t, err)
	assert.Empty(t, tracker.assignments)
	assert.Equal(t, 1, tracker.posted)
}

func TestExecute_MissingLinkIsCreatedOnce(t *testing.T) {
	tracker := &fakeTracker{}
	e := New(tracker, zap.NewNop())
	links := models.NewLinkSet(nil)

	require.NoError(t, e.Execute(context.Background(), internalAttr(), amount, spentDate, links))
	require.NoError(t, e.Execute(context.Background(), internalAttr(), amount, spentDate, links))

	// The accumulator prevents a second creation within the same run.
	assert.Len(t, tracker.assignments, 1)
	assert.Equal(t, 2, tracker.posted)
	assert.True(t, links.Contains(7, 42580512))
}

func TestExecute_AssignmentFailureAbortsRow(t *testing.T) {
	tracker := &fakeTracker{assignErr: errors.New("403 forbidden")}
	e := New(tracker, zap.NewNop())
	links := models.NewLinkSet(nil)

	err := e.Execute(context.Background(), internalAttr(), amount, spentDate, links)
	assert.ErrorIs(t, err, ErrAssignTeamProject)
	assert.Equal(t, "unable to assign TPX team project", err.Error())
	assert.Equal(t, 0, tracker.posted)
	assert.False(t, links.Contains(7, 42580512))
}

func TestExecute_BillableRowNeverCreatesLink(t *testing.T) {
	tracker := &fakeTracker{}
	e := New(tracker, zap.NewNop())

	attr := router.Attribution{PersonID: 7, ProjectID: 10, Client: "Acme", Project: "Rollout", Billable: true}
	err := e.Execute(context.Background(), attr, amount, spentDate, models.NewLinkSet(nil))
	require.NoError(t, err)
	assert.Empty(t, tracker.assignments)
	assert.Equal(t, 1, tracker.posted)
}

func TestExecute_PostFailurePropagatesVerbatim(t *testing.T) {
	tracker := &fakeTracker{postErr: errors.New("expense rejected: 422 category is inactive")}
	e := New(tracker, zap.NewNop())

	attr := router.Attribution{PersonID: 7, ProjectID: 10, Billable: true}
	err := e.Execute(context.Background(), attr, amount, spentDate, models.NewLinkSet(nil))
	require.Error(t, err)
	assert.Equal(t, "expense rejected: 422 category is inactive", err.Error())
}
