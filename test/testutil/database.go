package testutil

import (
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/narwhalmedia/watchtrack/internal/watchstatus/repository"
	"github.com/narwhalmedia/watchtrack/pkg/database"
)

// TestDatabase wraps a migrated in-memory SQLite database
type TestDatabase struct {
	DB *gorm.DB
}

// SetupTestDatabase opens a fresh in-memory database with the full schema
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()

	db, cleanup, err := database.Open(sqlite.Open(":memory:"), database.Config{Driver: database.DriverSQLite}, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(cleanup)

	if _, err := database.NewMigrator(db, nil, repository.Migrations()).Migrate(); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return &TestDatabase{DB: db}
}

// TruncateTables deletes every row of the given tables
func (td *TestDatabase) TruncateTables(tableNames ...string) error {
	for _, table := range tableNames {
		if err := td.DB.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			return err
		}
	}
	return nil
}

// SetupMockDB returns a gorm connection backed by sqlmock using the postgres dialect
func SetupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open gorm on sqlmock: %v", err)
	}

	return db, mock
}
