package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tpxdata/expense-pipeline/internal/models"
	"github.com/tpxdata/expense-pipeline/pkg/database"
)

// Reader loads run inputs from the warehouse.
type Reader interface {
	CandidatePool(ctx context.Context) ([]models.CandidateAssignment, error)
	ExistingLinks(ctx context.Context) ([]models.LinkKey, error)
}

// Writer appends run outputs to the warehouse.
type Writer interface {
	AppendResults(ctx context.Context, results []models.ReconciliationResult) error
}

// Store reads and writes the local warehouse mirror. The mirror tables
// are refreshed by the extraction jobs; this store only consumes them and
// appends reconciliation results.
type Store struct {
	db     *database.DB
	logger *zap.Logger
}

// NewStore creates a new warehouse Store
func NewStore(db *database.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// CandidatePool returns every known person x project engagement window.
// Rows with unparseable dates are returned with zero dates; the pool
// builder drops them.
func (s *Store) CandidatePool(ctx context.Context) ([]models.CandidateAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT person_id, project_id, client_name, project_name,
		       LOWER(email), first_name, last_name, department, team,
		       start_date, end_date
		FROM candidate_assignments
		WHERE email IS NOT NULL AND email != ''
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidate pool: %w", err)
	}
	defer rows.Close()

	var pool []models.CandidateAssignment
	for rows.Next() {
		var c models.CandidateAssignment
		var start, end sql.NullString
		if err := rows.Scan(
			&c.PersonID, &c.ProjectID, &c.ClientName, &c.ProjectName,
			&c.Email, &c.FirstName, &c.LastName, &c.Department, &c.Team,
			&start, &end,
		); err != nil {
			return nil, fmt.Errorf("failed to scan candidate row: %w", err)
		}
		c.StartDate = parseWarehouseDate(start)
		c.EndDate = parseWarehouseDate(end)
		pool = append(pool, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candidate pool: %w", err)
	}
	return pool, nil
}

// ExistingLinks returns the person-to-project assignments already present
// in the time-tracking system.
func (s *Store) ExistingLinks(ctx context.Context) ([]models.LinkKey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, project_id FROM user_project_assignments
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query user assignments: %w", err)
	}
	defer rows.Close()

	var keys []models.LinkKey
	for rows.Next() {
		var k models.LinkKey
		if err := rows.Scan(&k.PersonID, &k.ProjectID); err != nil {
			return nil, fmt.Errorf("failed to scan assignment row: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read user assignments: %w", err)
	}
	return keys, nil
}

// AppendResults appends the run's results to the results table. Append
// only; the table is never truncated by this service.
func (s *Store) AppendResults(ctx context.Context, results []models.ReconciliationResult) error {
	if len(results) == 0 {
		return nil
	}

	err := s.db.WithTransaction(func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO reconciliation_results
				(date, amount, client, project, category, notes, first_name, last_name, billable)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range results {
			if _, err := stmt.ExecContext(ctx,
				r.Date.Format("2006-01-02"), r.Amount.String(),
				r.Client, r.Project, r.Category, r.Notes,
				r.FirstName, r.LastName, r.Billable,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append results: %w", err)
	}

	s.logger.Info("Results appended to warehouse", zap.Int("rows", len(results)))
	return nil
}

func parseWarehouseDate(v sql.NullString) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	d, err := time.Parse("2006-01-02", v.String)
	if err != nil {
		return time.Time{}
	}
	return d
}

// Interface compliance
var (
	_ Reader = (*Store)(nil)
	_ Writer = (*Store)(nil)
)
