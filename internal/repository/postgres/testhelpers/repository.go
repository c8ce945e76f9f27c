package testhelpers

import (
	"github.com/jmoiron/sqlx"
	"github.com/sanitation-complaints/internal/domain/repository"
	"github.com/sanitation-complaints/internal/repository/postgres"
	"go.uber.org/zap"
)

// Repositories - every postgres repository bound to one test database
type Repositories struct {
	Tx         repository.TxManager
	Geography  repository.GeographyRepository
	Positions  repository.PositionRepository
	Complaints repository.ComplaintRepository
	Activity   repository.ActivityRepository
	Analytics  repository.AnalyticsRepository
}

// NewDBForTest creates a postgres.DB with test database and logger
func NewDBForTest(db *sqlx.DB, logger *zap.Logger) *postgres.DB {
	return postgres.NewDBForTest(db, logger)
}

// NewRepositoriesForTest wires all repositories against the test database
func NewRepositoriesForTest(db *sqlx.DB, logger *zap.Logger) *Repositories {
	pgDB := NewDBForTest(db, logger)
	return &Repositories{
		Tx:         postgres.NewTxManager(pgDB),
		Geography:  postgres.NewGeographyRepository(pgDB),
		Positions:  postgres.NewPositionRepository(pgDB),
		Complaints: postgres.NewComplaintRepository(pgDB),
		Activity:   postgres.NewActivityRepository(pgDB),
		Analytics:  postgres.NewAnalyticsRepository(pgDB),
	}
}
