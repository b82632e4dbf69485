package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/parkingutility/revenue_backend/config"
	"github.com/parkingutility/revenue_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const insertBatchSize = 500

// ErrNoLoader means the file's data source has no file-based loader
// (sql_cash rows arrive by direct query, not upload).
var ErrNoLoader = errors.New("data source has no file loader")

// LoadFile parses an uploaded revenue report into its staging table and
// marks the file loaded with the inserted row count. The parse and insert
// run in one transaction so a malformed file leaves no partial staging
// rows behind.
func LoadFile(ctx context.Context, logger *logrus.Logger, fileId int) (int, error) {
	file, err := models.GetUploadedFile(ctx, fileId)
	if err != nil {
		config.LogError(logger, "loader.go", "LoadFile", "GetUploadedFile", fileId, err)
		return 0, err
	}

	rows, err := readTable(file.FilePath)
	if err != nil {
		config.LogError(logger, "loader.go", "LoadFile", "readTable", file.FilePath, err)
		return 0, err
	}
	table, err := newTable(rows)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", file.OriginalFilename, err)
	}

	count := 0
	db := config.GetDB()
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		switch file.DataSourceType {
		case models.DataSourceWindcave:
			count, err = insertWindcaveRows(ctx, tx, fileId, table)
		case models.DataSourcePISales:
			count, err = insertPISalesRows(ctx, tx, fileId, table)
		case models.DataSourcePIPayments:
			count, err = insertPIPaymentsRows(ctx, tx, fileId, table)
		case models.DataSourceIPSCC:
			count, err = insertIPSCreditCardRows(ctx, tx, fileId, table)
		case models.DataSourceIPSMobile:
			count, err = insertIPSMobileRows(ctx, tx, fileId, table)
		case models.DataSourceIPSCash:
			count, err = insertIPSCashRows(ctx, tx, fileId, table)
		case models.DataSourceIPSPole:
			count, err = insertIPSPoleRows(ctx, tx, fileId, table)
		default:
			return fmt.Errorf("%w: %s", ErrNoLoader, file.DataSourceType)
		}
		return err
	})
	if err != nil {
		config.LogError(logger, "loader.go", "LoadFile", "insert staging rows", fileId, err)
		return 0, err
	}

	if err := models.MarkFileLoaded(ctx, fileId, count); err != nil {
		config.LogError(logger, "loader.go", "LoadFile", "MarkFileLoaded", fileId, err)
		return 0, err
	}

	logger.WithFields(logrus.Fields{
		"source_file_id":   fileId,
		"data_source_type": file.DataSourceType,
		"records":          count,
	}).Info("staging load completed")
	return count, nil
}

// readTable reads an .xlsx or .csv report into raw string rows.
func readTable(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return readXLSX(path)
	case ".csv":
		return readCSV(path)
	}
	return nil, fmt.Errorf("unsupported file extension: %s", path)
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// table pairs a normalized header index with the report's data rows,
// totals rows already dropped.
type table struct {
	columns map[string]int
	rows    [][]string
}

func newTable(raw [][]string) (*table, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty report")
	}
	columns := map[string]int{}
	for i, name := range raw[0] {
		key := NormalizeHeader(name)
		if key != "" {
			columns[key] = i
		}
	}
	if len(columns) == 0 {
		return nil, errors.New("report has no header row")
	}

	rows := make([][]string, 0, len(raw)-1)
	for _, row := range raw[1:] {
		if isSkippableRow(row) {
			continue
		}
		rows = append(rows, row)
	}
	return &table{columns: columns, rows: rows}, nil
}

// cell returns the trimmed value under a normalized header name; missing
// columns and ragged rows read as empty.
func (t *table) cell(row []string, column string) string {
	i, ok := t.columns[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// NormalizeHeader canonicalizes a report column header: trimmed,
// lowercased, spaces to underscores, slashes stripped.
func NormalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "/", "")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

// isSkippableRow drops blank rows and the "Total"/"Grand Total" footer
// lines the vendor reports append.
func isSkippableRow(row []string) bool {
	for _, cell := range row {
		v := strings.TrimSpace(cell)
		if v == "" {
			continue
		}
		return strings.HasPrefix(strings.ToLower(v), "total") ||
			strings.HasPrefix(strings.ToLower(v), "grand total")
	}
	return true
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 3:04:05 PM",
	"01/02/2006",
	"1/2/2006 15:04",
	"1/2/2006",
	"02-Jan-2006",
}

func parseDate(s string) *time.Time {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}

// parseAmount reads a money cell, tolerating currency symbols, thousand
// separators and accounting-style parentheses for negatives.
func parseAmount(s string) (decimal.Decimal, bool) {
	v := strings.TrimSpace(s)
	if v == "" {
		return decimal.Zero, false
	}
	negative := strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")")
	v = strings.Trim(v, "()")
	v = strings.ReplaceAll(v, "$", "")
	v = strings.ReplaceAll(v, ",", "")
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

func parseAmountPtr(s string) *decimal.Decimal {
	if d, ok := parseAmount(s); ok {
		return &d
	}
	return nil
}

func parseIntPtr(s string) *int {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}
