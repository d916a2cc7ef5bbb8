package postgresql_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/postgresql"
	"github.com/cmlabs-hris/attendance-backend-go/migrations"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TEST_DATABASE_URL, applies the schema and empties
// every table. The test is skipped when no database is reachable.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		t.Skipf("test database unreachable: %v", err)
	}
	t.Cleanup(db.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err = postgresql.Migrate(ctx, db, migrations.FS)
	require.NoError(t, err)

	_, err = db.Exec(ctx, "TRUNCATE TABLE refresh_tokens, leaves, attendances, users, shifts CASCADE")
	require.NoError(t, err)

	return db
}
