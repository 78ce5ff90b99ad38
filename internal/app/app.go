package app

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/tpxdata/expense-pipeline/internal/config"
	"github.com/tpxdata/expense-pipeline/internal/docstore"
	"github.com/tpxdata/expense-pipeline/internal/executor"
	"github.com/tpxdata/expense-pipeline/internal/harvest"
	"github.com/tpxdata/expense-pipeline/internal/lifecycle"
	"github.com/tpxdata/expense-pipeline/internal/matcher"
	"github.com/tpxdata/expense-pipeline/internal/notification"
	"github.com/tpxdata/expense-pipeline/internal/pipeline"
	"github.com/tpxdata/expense-pipeline/internal/roster"
	"github.com/tpxdata/expense-pipeline/internal/router"
	"github.com/tpxdata/expense-pipeline/internal/warehouse"
	"github.com/tpxdata/expense-pipeline/pkg/database"
)

// App wires the reconciliation pipeline together.
type App struct {
	Controller *lifecycle.Controller
	db         *database.DB
	logger     *zap.Logger
}

// New builds the application from configuration.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.New(database.Config{
		Path:            cfg.Warehouse.Path,
		MaxOpenConns:    cfg.Warehouse.MaxOpenConns,
		MaxIdleConns:    cfg.Warehouse.MaxIdleConns,
		ConnMaxLifetime: cfg.Warehouse.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse: %w", err)
	}

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Warehouse.MigrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run warehouse migrations: %w", err)
	}

	if err := os.MkdirAll(cfg.Report.WorkDir, 0755); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}

	store, err := docstore.NewLocalStore(cfg.Report.InboxDir, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}

	wh := warehouse.NewStore(db, logger)
	pool := roster.NewBuilder(wh, logger)

	tracker := harvest.NewClient(harvest.Config{
		BaseURL:      cfg.Harvest.BaseURL,
		AccountID:    cfg.Harvest.AccountID,
		AccessToken:  cfg.Harvest.AccessToken,
		CategoryID:   cfg.Harvest.CategoryID,
		CategoryName: cfg.Harvest.CategoryName,
		ExpenseNote:  cfg.Report.ExpenseNote,
		Timeout:      cfg.Harvest.APITimeout,
	}, logger)

	m := matcher.New(cfg.Matching.Confidence, cfg.Matching.InternalClientMarker, logger)
	r := router.New(cfg.Teams.Projects, m, cfg.Matching.InternalClientName, cfg.Report.BillableAnswer, logger)
	e := executor.New(tracker, logger)
	processor := pipeline.New(r, e, cfg.Harvest.CategoryName, cfg.Report.BillableAnswer, logger)

	notifier := notification.NewSlackNotifier(cfg.Slack.WebhookURL, cfg.Slack.Timeout, logger)

	controller := lifecycle.NewController(store, notifier, pool, processor, wh, tracker, cfg.Report, logger)

	return &App{
		Controller: controller,
		db:         db,
		logger:     logger,
	}, nil
}

// Close releases application resources.
func (a *App) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error("Failed to close warehouse", zap.Error(err))
	}
}
