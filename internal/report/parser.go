package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/tpxdata/expense-pipeline/internal/models"
)

// Column names the travel report must carry. Anything else in the file is
// ignored.
const (
	colBookingDate = "BookingDate"
	colBookerName  = "BookerName"
	colTravelDate  = "OutwardLegDate"
	colTotalCost   = "TotalCost"
	colProjectHint = "Answer2"
	colAnswer      = "Answer3"
)

var requiredColumns = []string{
	colBookingDate, colBookerName, colTravelDate, colTotalCost, colProjectHint, colAnswer,
}

// dateLayouts are tried in order when parsing report dates. Rows whose
// dates fit none of them are dropped, mirroring a coerced-to-null parse.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006",
	"02/01/2006 15:04",
}

// Parser reads an uploaded travel report into expense rows. CSV and xlsx
// files are supported, selected by extension.
type Parser struct {
	processingDate time.Time
	excludeBooker  string
	logger         *zap.Logger
}

// NewParser creates a new Parser. Only rows booked on processingDate are
// kept, and rows whose booker contains excludeBooker (the company's own
// account rows) are dropped.
func NewParser(processingDate time.Time, excludeBooker string, logger *zap.Logger) *Parser {
	return &Parser{
		processingDate: processingDate,
		excludeBooker:  excludeBooker,
		logger:         logger,
	}
}

// Parse reads the report at path and returns the rows for this run.
func (p *Parser) Parse(path string) ([]models.ExpenseRow, error) {
	var records [][]string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		records, err = readExcel(path)
	default:
		records, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("report %s is empty", filepath.Base(path))
	}

	index, err := columnIndex(records[0])
	if err != nil {
		return nil, err
	}

	var rows []models.ExpenseRow
	for i, record := range records[1:] {
		row, ok := p.parseRecord(record, index, i+2)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}

	p.logger.Info("Report parsed",
		zap.String("file", filepath.Base(path)),
		zap.Int("total_records", len(records)-1),
		zap.Int("rows_for_run", len(rows)))

	return rows, nil
}

// parseRecord converts one record into an ExpenseRow, applying the
// processing-date and booker filters. ok is false when the record is not
// part of this run.
func (p *Parser) parseRecord(record []string, index map[string]int, line int) (models.ExpenseRow, bool) {
	get := func(col string) string {
		i := index[col]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	bookingDate, err := parseDate(get(colBookingDate))
	if err != nil || !sameDay(bookingDate, p.processingDate) {
		return models.ExpenseRow{}, false
	}

	booker := get(colBookerName)
	if strings.Contains(booker, p.excludeBooker) {
		return models.ExpenseRow{}, false
	}

	travelDate, err := parseDate(get(colTravelDate))
	if err != nil {
		p.logger.Warn("Dropping row with unparseable travel date",
			zap.Int("line", line),
			zap.String("value", get(colTravelDate)))
		return models.ExpenseRow{}, false
	}

	cost, err := decimal.NewFromString(get(colTotalCost))
	if err != nil {
		p.logger.Warn("Dropping row with unparseable cost",
			zap.Int("line", line),
			zap.String("value", get(colTotalCost)))
		return models.ExpenseRow{}, false
	}

	return models.ExpenseRow{
		BookingDate: bookingDate,
		BookerName:  booker,
		TravelDate:  travelDate,
		TotalCost:   cost,
		ProjectHint: get(colProjectHint),
		Answer:      get(colAnswer),
	}, true
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read report csv: %w", err)
	}
	return records, nil
}

func readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("report workbook has no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read report sheet: %w", err)
	}
	return records, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("report is missing column %s", col)
		}
	}
	return index, nil
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, value); err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date format: %s", value)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
