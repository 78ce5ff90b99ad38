package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tpxdata/expense-pipeline/internal/executor"
	"github.com/tpxdata/expense-pipeline/internal/models"
	"github.com/tpxdata/expense-pipeline/internal/roster"
	"github.com/tpxdata/expense-pipeline/internal/router"
)

// Processor turns expense rows into reconciliation results. Every row the
// processor sees produces exactly one result; classification and
// side-effect failures are recorded in the result's notes and never abort
// the batch.
type Processor struct {
	router         *router.Router
	executor       *executor.Executor
	categoryName   string
	billableAnswer string
	logger         *zap.Logger
}

// New creates a new Processor
func New(r *router.Router, e *executor.Executor, categoryName, billableAnswer string, logger *zap.Logger) *Processor {
	return &Processor{
		router:         r,
		executor:       e,
		categoryName:   categoryName,
		billableAnswer: billableAnswer,
		logger:         logger,
	}
}

// ProcessBatch processes rows sequentially, one at a time. links is the
// run-scoped link accumulator threaded through every row; a side-effect
// failure on one row does not cancel the rows after it.
func (p *Processor) ProcessBatch(ctx context.Context, rows []models.ExpenseRow, pool []models.CandidateAssignment, links models.LinkSet, processingDate time.Time) []models.ReconciliationResult {
	results := make([]models.ReconciliationResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, p.ProcessRow(ctx, row, pool, links, processingDate))
	}
	return results
}

// ProcessRow processes a single expense row. The returned result is
// always populated, even when the row could not be attributed or its side
// effects failed.
func (p *Processor) ProcessRow(ctx context.Context, row models.ExpenseRow, pool []models.CandidateAssignment, links models.LinkSet, processingDate time.Time) (result models.ReconciliationResult) {
	result = models.ReconciliationResult{
		Date:     processingDate,
		Amount:   row.TotalCost,
		Category: p.categoryName,
		Billable: row.Billable(p.billableAnswer),
	}

	// Row boundary: a panic while processing one row becomes that row's
	// notes, not a batch failure.
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Row processing panicked",
				zap.String("booker", row.BookerName),
				zap.Any("panic", r))
			result.Notes = fmt.Sprintf("row processing failed: %v", r)
		}
	}()

	personRows := roster.Resolve(row.BookerName, pool)
	if len(personRows) == 0 {
		result.Notes = fmt.Sprintf("no match for '%s' on forecast", row.BookerName)
		return result
	}

	result.FirstName = personRows[0].FirstName
	result.LastName = personRows[0].LastName

	attr, err := p.router.Route(row, personRows)
	if err != nil {
		p.logger.Info("Could not attribute row",
			zap.String("first_name", result.FirstName),
			zap.String("last_name", result.LastName),
			zap.Error(err))
		result.Notes = err.Error()
		return result
	}

	if !attr.Resolved() {
		result.Notes = "unable to retrieve project id"
		return result
	}

	result.Client = attr.Client
	result.Project = attr.Project

	if err := p.executor.Execute(ctx, attr, row.TotalCost, processingDate, links); err != nil {
		result.Notes = err.Error()
	}
	return result
}
