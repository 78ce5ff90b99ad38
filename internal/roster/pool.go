package roster

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tpxdata/expense-pipeline/internal/models"
)

// Source supplies the raw roster and link data the pool is built from.
type Source interface {
	CandidatePool(ctx context.Context) ([]models.CandidateAssignment, error)
	ExistingLinks(ctx context.Context) ([]models.LinkKey, error)
}

// Builder loads the candidate pool and the pre-existing link set for a
// run. Both are loaded fresh each invocation; there is no cross-run
// cache.
type Builder struct {
	source Source
	logger *zap.Logger
}

// NewBuilder creates a new pool Builder
func NewBuilder(source Source, logger *zap.Logger) *Builder {
	return &Builder{
		source: source,
		logger: logger,
	}
}

// Build returns the candidate pool and the set of person-to-project links
// already present in the time-tracking system. Rows without an email or
// without a usable engagement window are dropped, matching what the
// matcher can act on.
func (b *Builder) Build(ctx context.Context) ([]models.CandidateAssignment, models.LinkSet, error) {
	raw, err := b.source.CandidatePool(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load candidate pool: %w", err)
	}

	pool := make([]models.CandidateAssignment, 0, len(raw))
	for _, row := range raw {
		if row.Email == "" || row.StartDate.IsZero() || row.EndDate.IsZero() {
			continue
		}
		pool = append(pool, row)
	}

	keys, err := b.source.ExistingLinks(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load existing assignments: %w", err)
	}

	b.logger.Info("Candidate pool loaded",
		zap.Int("assignments", len(pool)),
		zap.Int("dropped", len(raw)-len(pool)),
		zap.Int("existing_links", len(keys)))

	return pool, models.NewLinkSet(keys), nil
}
