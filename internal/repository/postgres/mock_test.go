package postgres

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return NewDBForTest(sqlx.NewDb(mockDB, "sqlmock"), zap.NewNop()), mock
}

var complaintMockColumns = []string{
	"id", "village_id", "complaint_type_id", "description", "mobile_number", "status",
	"assigned_worker_id", "version", "created_at", "updated_at",
}
