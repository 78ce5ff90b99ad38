package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/tpxdata/expense-pipeline/internal/config"
	"github.com/tpxdata/expense-pipeline/internal/docstore"
	"github.com/tpxdata/expense-pipeline/internal/models"
	"github.com/tpxdata/expense-pipeline/internal/notification"
	"github.com/tpxdata/expense-pipeline/internal/pipeline"
	"github.com/tpxdata/expense-pipeline/internal/report"
	"github.com/tpxdata/expense-pipeline/internal/roster"
	"github.com/tpxdata/expense-pipeline/internal/warehouse"
)

// CategoryGate toggles the shared expense category's active flag. The
// external system only accepts postings while the flag is true.
type CategoryGate interface {
	SetCategoryActive(ctx context.Context, active bool) error
}

// Controller drives one report document through New -> InProgress ->
// Done. Failed runs still land in Done: a malformed report is never
// silently retried, a human acts on the notification and re-uploads.
type Controller struct {
	store     docstore.Store
	notifier  notification.Notifier
	pool      *roster.Builder
	processor *pipeline.Processor
	results   warehouse.Writer
	gate      CategoryGate
	reportCfg config.ReportConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewController creates a new lifecycle Controller
func NewController(
	store docstore.Store,
	notifier notification.Notifier,
	pool *roster.Builder,
	processor *pipeline.Processor,
	results warehouse.Writer,
	gate CategoryGate,
	reportCfg config.ReportConfig,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		store:     store,
		notifier:  notifier,
		pool:      pool,
		processor: processor,
		results:   results,
		gate:      gate,
		reportCfg: reportCfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes one reconciliation run. It returns an error only when the
// inbound folder cannot be read; everything past discovery is handled at
// the document boundary so the document always ends up in Done.
func (c *Controller) Run(ctx context.Context) error {
	processingDate := c.reportCfg.ProcessingDate(c.now())

	files, err := c.store.ListFolder(ctx, docstore.FolderNew)
	if err != nil {
		return fmt.Errorf("failed to list inbound folder: %w", err)
	}

	// The category gate is cleared on every path, even when no report is
	// processed.
	defer func() {
		if err := c.gate.SetCategoryActive(ctx, false); err != nil {
			c.logger.Warn("Failed to deactivate expense category", zap.Error(err))
		}
	}()

	if len(files) != 1 {
		// Ambiguous inbound state. Never auto-pick; leave every file
		// untouched and escalate.
		c.logger.Warn("Ambiguous inbound folder, halting",
			zap.Int("files", len(files)))
		c.notifier.Notify(ctx, fmt.Sprintf(
			"Expected exactly one report in the %s folder, found %d - please check manually",
			docstore.FolderNew, len(files)))
		return nil
	}

	file := files[0]
	machine := NewMachine(StateNew)
	c.notifier.Notify(ctx, fmt.Sprintf("Processing %s", file.Name))

	localPath := filepath.Join(c.reportCfg.WorkDir, file.Name)
	if err := c.store.Download(ctx, file.ID, localPath); err != nil {
		c.logger.Error("Failed to download report", zap.String("file", file.Name), zap.Error(err))
		c.notifier.Notify(ctx, fmt.Sprintf("Could not download %s - please check manually", file.Name))
		return nil
	}

	var results []models.ReconciliationResult
	if err := c.claim(ctx, file, machine); err != nil {
		c.logger.Error("Failed to claim report", zap.String("file", file.Name), zap.Error(err))
	} else {
		results, err = c.processGuarded(ctx, localPath, processingDate)
		if err != nil {
			c.logger.Error("Report processing failed",
				zap.String("file", file.Name),
				zap.Error(err))
		}
	}

	// Fail forward: delete the local copy and move the document to Done
	// whether or not processing succeeded.
	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
		c.logger.Warn("Failed to remove local report copy", zap.Error(err))
	}
	if err := c.store.Move(ctx, file.ID, StateDone.Folder()); err != nil {
		c.logger.Error("Failed to move report to Done", zap.String("file", file.Name), zap.Error(err))
	} else if machine.CanFire(TriggerComplete) {
		_ = machine.Fire(TriggerComplete)
	}

	if len(results) > 0 {
		c.persistResults(ctx, results, processingDate)
	}

	c.logger.Info("Run finished",
		zap.String("file", file.Name),
		zap.String("state", machine.State().String()),
		zap.Int("results", len(results)))
	return nil
}

// claim moves the document into InProgress.
func (c *Controller) claim(ctx context.Context, file docstore.File, machine *Machine) error {
	if err := c.store.Move(ctx, file.ID, StateInProgress.Folder()); err != nil {
		return err
	}
	return machine.Fire(TriggerClaim)
}

// processGuarded runs the batch with a document-boundary recover so an
// unexpected panic is logged and the fail-forward path still runs.
func (c *Controller) processGuarded(ctx context.Context, localPath string, processingDate time.Time) (results []models.ReconciliationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("report processing panicked: %v", r)
		}
	}()
	return c.process(ctx, localPath, processingDate)
}

// process opens the category gate, parses the report and runs the batch.
func (c *Controller) process(ctx context.Context, localPath string, processingDate time.Time) ([]models.ReconciliationResult, error) {
	if err := c.gate.SetCategoryActive(ctx, true); err != nil {
		return nil, fmt.Errorf("failed to activate expense category: %w", err)
	}

	parser := report.NewParser(processingDate, c.reportCfg.ExcludeBooker, c.logger)
	rows, err := parser.Parse(localPath)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		c.logger.Info("No rows for processing date",
			zap.String("processing_date", processingDate.Format("2006-01-02")))
		return nil, nil
	}

	pool, links, err := c.pool.Build(ctx)
	if err != nil {
		return nil, err
	}

	return c.processor.ProcessBatch(ctx, rows, pool, links, processingDate), nil
}

// persistResults writes the results artifact next to the source report
// and appends the rows to the warehouse results table.
func (c *Controller) persistResults(ctx context.Context, results []models.ReconciliationResult, processingDate time.Time) {
	artifactPath := filepath.Join(c.reportCfg.WorkDir, report.ResultsFileName(processingDate))
	if err := report.WriteResults(artifactPath, results); err != nil {
		c.logger.Error("Failed to write results artifact", zap.Error(err))
	} else {
		if err := c.store.Upload(ctx, artifactPath); err != nil {
			c.logger.Error("Failed to upload results artifact", zap.Error(err))
		}
		if err := os.Remove(artifactPath); err != nil {
			c.logger.Warn("Failed to remove local results artifact", zap.Error(err))
		}
	}

	if err := c.results.AppendResults(ctx, results); err != nil {
		c.logger.Error("Failed to append results to warehouse", zap.Error(err))
	}
}
