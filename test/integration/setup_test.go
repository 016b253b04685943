package integration

import (
	"os"
	"testing"

	"knowledge-workspace/internal/model"
	"knowledge-workspace/pkg/database"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// openDB connects to DB_CONNECTION_STRING and migrates the schema, or skips.
func openDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Tests run in the package dir, so the .env sits two levels up.
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, true)
	require.NoError(t, err, "failed to connect to DB")

	require.NoError(t, db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Document{}, &model.ImportBatch{}))
	return db
}
