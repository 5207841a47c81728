package services

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockPostgres(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestIngestBatchSingleInsertInOneTransaction(t *testing.T) {
	db, mock := setupMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "db_info"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectCommit()

	entries := []json.RawMessage{
		json.RawMessage(`{"db_name": "a", "owner_id": 1, "classification": 1}`),
		json.RawMessage(`{"db_name": "b", "owner_id": 2, "classification": 3}`),
	}
	result, err := IngestBatch(context.Background(), db, entries, fixedClock(1))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, uint64(1), result.Accepted[0].ID)
	assert.Equal(t, uint64(2), result.Accepted[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngestBatchRollsBackWithConstraintDetail(t *testing.T) {
	db, mock := setupMockPostgres(t)

	detail := `Key (owner_id)=(42) is not present in table "employee".`
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "db_info"`)).
		WillReturnError(&pgconn.PgError{Code: "23503", Message: "insert or update violates foreign key constraint", Detail: detail})
	mock.ExpectRollback()

	entries := []json.RawMessage{
		json.RawMessage(`{"db_name": "a", "owner_id": 42, "classification": 1}`),
		json.RawMessage(`{"db_name": "b"}`),
	}
	result, err := IngestBatch(context.Background(), db, entries, fixedClock(1))

	assert.ErrorIs(t, err, ErrBatchRejected)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Equal(t, 0, result.Total)
	assert.Equal(t, detail, result.Detail)
	assert.Len(t, result.Rejected, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngestBatchOtherStorageFailure(t *testing.T) {
	db, mock := setupMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "db_info"`)).
		WillReturnError(&pgconn.PgError{Code: "53300", Message: "too many connections"})
	mock.ExpectRollback()

	entries := []json.RawMessage{json.RawMessage(`{"db_name": "a", "owner_id": 42, "classification": 1}`)}
	result, err := IngestBatch(context.Background(), db, entries, fixedClock(1))

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBatchRejected)
	assert.False(t, result.Success)
	assert.NoError(t, mock.ExpectationsWereMet())
}
