package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/tpxdata/expense-pipeline/internal/models"
)

// ResultsFileName returns the name of the results artifact for a run.
func ResultsFileName(processingDate time.Time) string {
	return fmt.Sprintf("results_%s.csv", processingDate.Format("2006-01-02"))
}

// WriteResults writes the reconciliation results to a CSV file at path,
// one row per processed expense row.
func WriteResults(path string, results []models.ReconciliationResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(models.ResultFieldNames); err != nil {
		return fmt.Errorf("failed to write results header: %w", err)
	}
	for _, r := range results {
		if err := w.Write(r.Record()); err != nil {
			return fmt.Errorf("failed to write result row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush results file: %w", err)
	}
	return nil
}
