package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/localnerve/dbreview/internal/database"
	"github.com/localnerve/dbreview/internal/models"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Employee upload formats
const (
	EmployeeFormatCSV  = "csv"
	EmployeeFormatXLSX = "xlsx"
)

var (
	// ErrInvalidEmployeeRow means an upload row or header could not be read.
	// Employee uploads are all or nothing.
	ErrInvalidEmployeeRow = errors.New("invalid employee row")

	employeeColumns = []string{"user_id", "user_state", "user_manager", "user_mail"}
)

// EmployeeImportResult is the outcome of an employee upload
type EmployeeImportResult struct {
	Success bool   `json:"success"`
	Total   int    `json:"total"`
	Detail  string `json:"detail,omitempty"`
}

// DetectEmployeeFormat picks the upload format from the file name, falling
// back to sniffing the zip signature of an xlsx workbook
func DetectEmployeeFormat(filename string, payload []byte) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return EmployeeFormatXLSX
	case ".csv":
		return EmployeeFormatCSV
	}
	if bytes.HasPrefix(payload, []byte("PK\x03\x04")) {
		return EmployeeFormatXLSX
	}
	return EmployeeFormatCSV
}

// ParseEmployeesCSV reads employees from CSV text with a header row.
// Columns are located by name; extra columns are ignored.
func ParseEmployeesCSV(r io.Reader) ([]models.Employee, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEmployeeRow, err)
	}
	return rowsToEmployees(rows)
}

// ParseEmployeesXLSX reads employees from the first sheet of a workbook
func ParseEmployeesXLSX(r io.Reader) ([]models.Employee, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEmployeeRow, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidEmployeeRow)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEmployeeRow, err)
	}
	return rowsToEmployees(rows)
}

func rowsToEmployees(rows [][]string) ([]models.Employee, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrInvalidEmployeeRow)
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, column := range employeeColumns {
		if _, ok := index[column]; !ok {
			return nil, fmt.Errorf("%w: missing column %s", ErrInvalidEmployeeRow, column)
		}
	}

	employees := make([]models.Employee, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}

		cell := func(column string) string {
			i := index[column]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		userID, err := strconv.ParseInt(cell("user_id"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: user_id %q", ErrInvalidEmployeeRow, n+1, cell("user_id"))
		}
		managerID, err := strconv.ParseInt(cell("user_manager"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: user_manager %q", ErrInvalidEmployeeRow, n+1, cell("user_manager"))
		}

		employees = append(employees, models.Employee{
			UserID:    userID,
			IsActive:  strings.ToLower(cell("user_state")) == "true",
			ManagerID: managerID,
			Email:     cell("user_mail"),
		})
	}

	return employees, nil
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ImportEmployees parses an upload and stores every employee in one transaction
func ImportEmployees(ctx context.Context, db *gorm.DB, payload []byte, format string) (*EmployeeImportResult, error) {
	var (
		employees []models.Employee
		err       error
	)

	switch format {
	case EmployeeFormatXLSX:
		employees, err = ParseEmployeesXLSX(bytes.NewReader(payload))
	case EmployeeFormatCSV, "":
		employees, err = ParseEmployeesCSV(bytes.NewReader(payload))
	default:
		return nil, fmt.Errorf("unsupported employee format: %s", format)
	}
	if err != nil {
		return nil, err
	}

	return SaveEmployees(ctx, db, employees)
}

// SaveEmployees inserts employees so that managers precede their reports.
// A duplicate user_id or unknown manager rolls back the whole upload.
func SaveEmployees(ctx context.Context, db *gorm.DB, employees []models.Employee) (*EmployeeImportResult, error) {
	if len(employees) == 0 {
		return &EmployeeImportResult{Success: true, Total: 0}, nil
	}

	ordered := managersFirst(employees)

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&ordered, 500).Error
	})
	if err != nil {
		detail := database.ConstraintDetail(err)
		zap.L().Warn("employee upload rolled back",
			zap.Int("rows", len(employees)),
			zap.String("detail", detail),
			zap.Error(err),
		)

		result := &EmployeeImportResult{Success: false, Total: 0, Detail: detail}
		if database.IsConstraintViolation(err) {
			return result, fmt.Errorf("%w: %s", ErrBatchRejected, detail)
		}
		return result, fmt.Errorf("failed to persist employees: %w", err)
	}

	zap.L().Info("employees imported", zap.Int("rows", len(ordered)))

	return &EmployeeImportResult{Success: true, Total: len(ordered)}, nil
}

// managersFirst orders the upload so every row whose manager is also in the
// upload comes after that manager. Rows in a cycle keep their input order.
func managersFirst(employees []models.Employee) []models.Employee {
	pending := make(map[int64]bool, len(employees))
	for _, e := range employees {
		pending[e.UserID] = true
	}

	ordered := make([]models.Employee, 0, len(employees))
	remaining := employees

	for len(remaining) > 0 {
		next := remaining[:0:0]
		for _, e := range remaining {
			if e.ManagerID == e.UserID || !pending[e.ManagerID] {
				ordered = append(ordered, e)
				continue
			}
			next = append(next, e)
		}

		if len(next) == len(remaining) {
			// cycle
			return append(ordered, next...)
		}

		for _, e := range ordered {
			delete(pending, e.UserID)
		}
		remaining = next
	}

	return ordered
}
