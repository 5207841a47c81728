package services

import (
	"testing"

	"github.com/localnerve/dbreview/internal/config"
	"github.com/localnerve/dbreview/internal/database"
	"github.com/localnerve/dbreview/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		DBType:            "sqlite",
		DBDatabase:        ":memory:",
		DBLogLevel:        "silent",
		MailTransport:     config.MailTransportLog,
		NotifyConcurrency: 1,
	}
}

// setupTestDB opens a private in-memory database with foreign keys enforced
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Connect(testConfig())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		database.Close(db)
	})
	return db
}

func createEmployee(t *testing.T, db *gorm.DB, userID, managerID int64, email string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Employee{
		UserID:    userID,
		IsActive:  true,
		ManagerID: managerID,
		Email:     email,
	}).Error)
}

func countRecords(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.DatabaseRecord{}).Count(&n).Error)
	return n
}
