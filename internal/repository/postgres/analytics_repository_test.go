package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanitation-complaints/internal/domain"
)

func TestAnalyticsRepository_CountByStatus_BlockLevel(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAnalyticsRepository(db)

	mock.ExpectQuery(`SELECT b\.id AS node_id, b\.name AS node_name`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"node_id", "node_name", "status", "count"}).
			AddRow(2, "Sanganer", "OPEN", 3).
			AddRow(2, "Sanganer", "CLOSED", 1))

	counts, err := repo.CountByStatus(context.Background(), domain.AnalyticsQuery{
		Level:    domain.NodeBlock,
		Villages: domain.NewVillageSet(3, 4),
	})

	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, domain.NodeBlock, counts[0].Level)
	assert.Equal(t, int64(3), counts[0].Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsRepository_CountByStatus_UnknownLevel(t *testing.T) {
	db, _ := setupMockDB(t)
	repo := NewAnalyticsRepository(db)

	_, err := repo.CountByStatus(context.Background(), domain.AnalyticsQuery{Level: "STATE"})
	assert.Error(t, err)
}

func TestAnalyticsRepository_ResolutionStats(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAnalyticsRepository(db)

	avg := 86400.0
	from := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	mock.ExpectQuery(`SELECT v\.id AS node_id, v\.name AS node_name,\s+COUNT\(\*\) AS total,\s+COUNT\(r\.resolved_at\) AS resolved`).
		WithArgs(sqlmock.AnyArg(), from, to).
		WillReturnRows(sqlmock.NewRows([]string{"node_id", "node_name", "total", "resolved", "avg_resolution_seconds"}).
			AddRow(3, "Bagru", 4, 2, avg).
			AddRow(4, "Muhana", 1, 0, nil))

	stats, err := repo.ResolutionStats(context.Background(), domain.AnalyticsQuery{
		Level:    domain.NodeVillage,
		Villages: domain.NewVillageSet(3, 4),
		From:     &from,
		To:       &to,
	})

	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, domain.NodeVillage, stats[0].Level)
	assert.Equal(t, int64(2), stats[0].Resolved)
	require.NotNil(t, stats[0].AvgResolutionSeconds)
	assert.Equal(t, avg, *stats[0].AvgResolutionSeconds)
	assert.Nil(t, stats[1].AvgResolutionSeconds)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsRepository_EmptyJurisdictionSkipsQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAnalyticsRepository(db)
	q := domain.AnalyticsQuery{Level: domain.NodeDistrict, Villages: domain.NewVillageSet()}

	stats, err := repo.ResolutionStats(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, stats)

	counts, err := repo.CountByStatus(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsWhere_UpperBoundIsExclusive(t *testing.T) {
	from := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	where, args := analyticsWhere(domain.AnalyticsQuery{From: &from, To: &to})

	assert.Equal(t, " WHERE c.created_at >= $1 AND c.created_at < $2", where)
	require.Len(t, args, 2)
	filed := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	assert.True(t, !filed.Before(args[0].(time.Time)) && filed.Before(args[1].(time.Time)))
}
