package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/localnerve/dbreview/data"
	"github.com/localnerve/dbreview/internal/models"
	"github.com/localnerve/dbreview/internal/notifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseEmployeesCSV(t *testing.T) {
	employees, err := ParseEmployeesCSV(strings.NewReader(
		"user_mail,user_id,user_manager,user_state,row_id\n" +
			"a@x.com,1,1,TRUE,9\n" +
			"\n" +
			"b@x.com, 2 ,1,yes,10\n"))
	require.NoError(t, err)

	assert.Equal(t, []models.Employee{
		{UserID: 1, IsActive: true, ManagerID: 1, Email: "a@x.com"},
		{UserID: 2, IsActive: false, ManagerID: 1, Email: "b@x.com"},
	}, employees)
}

func TestParseEmployeesCSVRejectsBadRows(t *testing.T) {
	for _, payload := range []string{
		"",
		"user_id,user_state,user_mail\n1,true,a@x.com\n",
		"user_id,user_state,user_manager,user_mail\nabc,true,1,a@x.com\n",
		"user_id,user_state,user_manager,user_mail\n1,true,1.5,a@x.com\n",
	} {
		_, err := ParseEmployeesCSV(strings.NewReader(payload))
		assert.ErrorIs(t, err, ErrInvalidEmployeeRow, payload)
	}
}

func TestParseEmployeesXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"user_id", "user_state", "user_manager", "user_mail"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{100, "true", 100, "root@x.com"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{101, "false", 100, "report@x.com"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, EmployeeFormatXLSX, DetectEmployeeFormat("", buf.Bytes()))

	employees, err := ParseEmployeesXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []models.Employee{
		{UserID: 100, IsActive: true, ManagerID: 100, Email: "root@x.com"},
		{UserID: 101, IsActive: false, ManagerID: 100, Email: "report@x.com"},
	}, employees)

	_, err = ParseEmployeesXLSX(strings.NewReader("not a workbook"))
	assert.ErrorIs(t, err, ErrInvalidEmployeeRow)
}

func TestDetectEmployeeFormat(t *testing.T) {
	assert.Equal(t, EmployeeFormatXLSX, DetectEmployeeFormat("staff.XLSX", nil))
	assert.Equal(t, EmployeeFormatCSV, DetectEmployeeFormat("staff.csv", []byte("PK\x03\x04")))
	assert.Equal(t, EmployeeFormatCSV, DetectEmployeeFormat("", []byte("user_id,...")))
}

func TestManagersFirst(t *testing.T) {
	employees := []models.Employee{
		{UserID: 4, ManagerID: 3},
		{UserID: 3, ManagerID: 2},
		{UserID: 2, ManagerID: 1},
		{UserID: 1, ManagerID: 1},
		{UserID: 9, ManagerID: 500},
	}

	ordered := managersFirst(employees)
	require.Len(t, ordered, len(employees))

	position := make(map[int64]int)
	for i, e := range ordered {
		position[e.UserID] = i
	}
	for _, e := range ordered {
		if mgr, ok := position[e.ManagerID]; ok && e.ManagerID != e.UserID {
			assert.Less(t, mgr, position[e.UserID], "manager %d after report %d", e.ManagerID, e.UserID)
		}
	}

	cycle := managersFirst([]models.Employee{{UserID: 1, ManagerID: 2}, {UserID: 2, ManagerID: 1}})
	assert.Len(t, cycle, 2)
}

func TestImportEmployeesSample(t *testing.T) {
	db := setupTestDB(t)

	result, err := ImportEmployees(context.Background(), db, data.SampleEmployeesCSV, EmployeeFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, &EmployeeImportResult{Success: true, Total: 5}, result)

	var n int64
	require.NoError(t, db.Model(&models.Employee{}).Count(&n).Error)
	assert.Equal(t, int64(5), n)
}

func TestImportEmployeesRollsBack(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate user", func(t *testing.T) {
		db := setupTestDB(t)
		result, err := ImportEmployees(ctx, db, []byte(
			"user_id,user_state,user_manager,user_mail\n1,true,1,a@x.com\n1,true,1,b@x.com\n"), EmployeeFormatCSV)

		assert.ErrorIs(t, err, ErrBatchRejected)
		assert.False(t, result.Success)
		assert.NotEmpty(t, result.Detail)
	})

	t.Run("unknown manager", func(t *testing.T) {
		db := setupTestDB(t)
		_, err := ImportEmployees(ctx, db, []byte(
			"user_id,user_state,user_manager,user_mail\n1,true,1,a@x.com\n2,true,99,b@x.com\n"), EmployeeFormatCSV)
		assert.ErrorIs(t, err, ErrBatchRejected)

		var n int64
		require.NoError(t, db.Model(&models.Employee{}).Count(&n).Error)
		assert.Equal(t, int64(0), n)
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, err := ImportEmployees(ctx, nil, []byte("x"), "ods")
		assert.ErrorContains(t, err, "unsupported employee format")
	})
}

func TestSampleDataEndToEnd(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := ImportEmployees(ctx, db, data.SampleEmployeesCSV, EmployeeFormatCSV)
	require.NoError(t, err)

	result, err := IngestDatabaseRecords(ctx, db, data.SampleDBInfoJSON)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Total)
	assert.Len(t, result.Rejected, 2)

	mailer := &recordingMailer{}
	failed, err := NewDispatcher(db, notifier.MailerFunc(mailer.Send), nil).DispatchEscalations(ctx)
	require.NoError(t, err)
	assert.Empty(t, failed)
	assert.ElementsMatch(t, []sentMail{
		{"payroll", "dev@example.com", "cto@example.com"},
		{"ledger", "cfo@example.com", "ceo@example.com"},
	}, mailer.sent)
}
