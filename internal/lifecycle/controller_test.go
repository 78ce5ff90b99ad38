package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tpxdata/expense-pipeline/internal/config"
	"github.com/tpxdata/expense-pipeline/internal/docstore"
	"github.com/tpxdata/expense-pipeline/internal/executor"
	"github.com/tpxdata/expense-pipeline/internal/matcher"
	"github.com/tpxdata/expense-pipeline/internal/models"
	"github.com/tpxdata/expense-pipeline/internal/pipeline"
	"github.com/tpxdata/expense-pipeline/internal/roster"
	"github.com/tpxdata/expense-pipeline/internal/router"
)

const reportBody = "BookingDate,BookerName,OutwardLegDate,TotalCost,Answer2,Answer3\n" +
	"2024-03-04,J Smith,2024-03-04,42.50,Acme,Billable Project Travel\n"

type fakeStore struct {
	newFiles    []docstore.File
	content     []byte
	listErr     error
	downloadErr error
	moveErr     error
	moves       []string
	downloads   []string
	uploads     []string
}

func (f *fakeStore) ListFolder(ctx context.Context, folder string) ([]docstore.File, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if folder == docstore.FolderNew {
		return f.newFiles, nil
	}
	return nil, nil
}

func (f *fakeStore) Move(ctx context.Context, fileID, targetFolder string) error {
	if f.moveErr != nil {
		return f.moveErr
	}
	f.moves = append(f.moves, fileID+"->"+targetFolder)
	return nil
}

func (f *fakeStore) Download(ctx context.Context, fileID, localPath string) error {
	if f.downloadErr != nil {
		return f.downloadErr
	}
	f.downloads = append(f.downloads, fileID)
	return os.WriteFile(localPath, f.content, 0o644)
}

func (f *fakeStore) Upload(ctx context.Context, localPath string) error {
	f.uploads = append(f.uploads, filepath.Base(localPath))
	return nil
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) Notify(ctx context.Context, message string) {
	f.messages = append(f.messages, message)
}

type fakeGate struct {
	calls []bool
}

func (f *fakeGate) SetCategoryActive(ctx context.Context, active bool) error {
	f.calls = append(f.calls, active)
	return nil
}

type fakeWarehouse struct {
	pool    []models.CandidateAssignment
	poolErr error
	results []models.ReconciliationResult
}

func (f *fakeWarehouse) CandidatePool(ctx context.Context) ([]models.CandidateAssignment, error) {
	return f.pool, f.poolErr
}

func (f *fakeWarehouse) ExistingLinks(ctx context.Context) ([]models.LinkKey, error) {
	return nil, nil
}

func (f *fakeWarehouse) AppendResults(ctx context.Context, results []models.ReconciliationResult) error {
	f.results = append(f.results, results...)
	return nil
}

type fakeTracker struct{ posted int }

func (f *fakeTracker) CreateUserAssignment(ctx context.Context, personID, projectID int64) error {
	return nil
}

func (f *fakeTracker) PostExpense(ctx context.Context, personID, projectID int64, spentDate time.Time, amount decimal.Decimal, billable bool) error {
	f.posted++
	return nil
}

type fixture struct {
	controller *Controller
	store      *fakeStore
	notifier   *fakeNotifier
	gate       *fakeGate
	warehouse  *fakeWarehouse
	tracker    *fakeTracker
}

func day(value string) time.Time {
	d, _ := time.Parse("2006-01-02", value)
	return d
}

func acmePool() []models.CandidateAssignment {
	return []models.CandidateAssignment{{
		PersonID:    7,
		ProjectID:   10,
		ClientName:  "Acme",
		ProjectName: "Rollout",
		Email:       "jane.smith@tpximpact.com",
		FirstName:   "Jane",
		LastName:    "Smith",
		Department:  "Design",
		StartDate:   day("2024-03-04"),
		EndDate:     day("2024-03-04"),
	}}
}

func newFixture(t *testing.T, store *fakeStore) *fixture {
	t.Helper()
	logger := zap.NewNop()
	wh := &fakeWarehouse{pool: acmePool()}
	tracker := &fakeTracker{}

	m := matcher.New(75, "TPX", logger)
	r := router.New(map[string]int64{"Design": 42580512}, m, "TPXimpact", "Billable Project Travel", logger)
	e := executor.New(tracker, logger)
	p := pipeline.New(r, e, "Travel - Business Account: Trainline", "Billable Project Travel", logger)

	cfg := config.ReportConfig{
		WorkDir:       t.TempDir(),
		OffsetDays:    2,
		ExcludeBooker: "TPX LIMITED",
	}
	gate := &fakeGate{}
	notifier := &fakeNotifier{}

	c := NewController(store, notifier, roster.NewBuilder(wh, logger), p, wh, gate, cfg, logger)
	c.now = func() time.Time { return day("2024-03-06") }

	return &fixture{
		controller: c,
		store:      store,
		notifier:   notifier,
		gate:       gate,
		warehouse:  wh,
		tracker:    tracker,
	}
}

func TestRun_HappyPath(t *testing.T) {
	store := &fakeStore{
		newFiles: []docstore.File{{ID: "f1", Name: "report.csv"}},
		content:  []byte(reportBody),
	}
	f := newFixture(t, store)

	require.NoError(t, f.controller.Run(context.Background()))

	assert.Equal(t, []string{"f1->InProgress", "f1->Done"}, store.moves)
	assert.Equal(t, []string{"f1"}, store.downloads)
	assert.Equal(t, []string{"results_2024-03-04.csv"}, store.uploads)
	assert.Equal(t, []bool{true, false}, f.gate.calls)
	assert.Contains(t, f.notifier.messages, "Processing report.csv")
	assert.Equal(t, 1, f.tracker.posted)

	require.Len(t, f.warehouse.results, 1)
	result := f.warehouse.results[0]
	assert.Equal(t, "Acme", result.Client)
	assert.Empty(t, result.Notes)
	assert.True(t, result.Billable)
}

func TestRun_AmbiguousInboundHalts(t *testing.T) {
	tests := []struct {
		name  string
		files []docstore.File
	}{
		{"no files", nil},
		{"two files", []docstore.File{{ID: "f1", Name: "a.csv"}, {ID: "f2", Name: "b.csv"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{newFiles: tt.files}
			f := newFixture(t, store)

			require.NoError(t, f.controller.Run(context.Background()))

			assert.Empty(t, store.moves, "no file may be touched")
			assert.Empty(t, store.downloads)
			require.Len(t, f.notifier.messages, 1)
			assert.Equal(t, fmt.Sprintf(
				"Expected exactly one report in the New folder, found %d - please check manually",
				len(tt.files)), f.notifier.messages[0])
			assert.Equal(t, []bool{false}, f.gate.calls, "gate is still cleared")
			assert.Empty(t, f.warehouse.results)
		})
	}
}

func TestRun_ListFailureReturnsError(t *testing.T) {
	store := &fakeStore{listErr: errors.New("store unavailable")}
	f := newFixture(t, store)

	err := f.controller.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list inbound folder")
	assert.Empty(t, f.gate.calls)
}

func TestRun_DownloadFailureLeavesFileInNew(t *testing.T) {
	store := &fakeStore{
		newFiles:    []docstore.File{{ID: "f1", Name: "report.csv"}},
		downloadErr: errors.New("connection reset"),
	}
	f := newFixture(t, store)

	require.NoError(t, f.controller.Run(context.Background()))

	assert.Empty(t, store.moves)
	assert.Contains(t, f.notifier.messages, "Could not download report.csv - please check manually")
	assert.Equal(t, []bool{false}, f.gate.calls)
}

func TestRun_MalformedReportStillLandsInDone(t *testing.T) {
	store := &fakeStore{
		newFiles: []docstore.File{{ID: "f1", Name: "report.csv"}},
		content:  []byte("BookingDate,BookerName\n2024-03-04,J Smith\n"),
	}
	f := newFixture(t, store)

	require.NoError(t, f.controller.Run(context.Background()))

	assert.Equal(t, []string{"f1->InProgress", "f1->Done"}, store.moves)
	assert.Empty(t, store.uploads)
	assert.Empty(t, f.warehouse.results)
	assert.Equal(t, []bool{true, false}, f.gate.calls, "gate must be cleared after a failed run")
}

func TestRun_PoolFailureStillLandsInDone(t *testing.T) {
	store := &fakeStore{
		newFiles: []docstore.File{{ID: "f1", Name: "report.csv"}},
		content:  []byte(reportBody),
	}
	f := newFixture(t, store)
	f.warehouse.poolErr = errors.New("warehouse locked")

	require.NoError(t, f.controller.Run(context.Background()))

	assert.Equal(t, []string{"f1->InProgress", "f1->Done"}, store.moves)
	assert.Equal(t, 0, f.tracker.posted)
	assert.Empty(t, f.warehouse.results)
	assert.Equal(t, []bool{true, false}, f.gate.calls)
}

func TestRun_NoRowsForProcessingDate(t *testing.T) {
	store := &fakeStore{
		newFiles: []docstore.File{{ID: "f1", Name: "report.csv"}},
		content: []byte("BookingDate,BookerName,OutwardLegDate,TotalCost,Answer2,Answer3\n" +
			"2024-01-01,J Smith,2024-01-01,42.50,Acme,Billable Project Travel\n"),
	}
	f := newFixture(t, store)

	require.NoError(t, f.controller.Run(context.Background()))

	assert.Equal(t, []string{"f1->InProgress", "f1->Done"}, store.moves)
	assert.Empty(t, store.uploads)
	assert.Empty(t, f.warehouse.results)
}
