package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/domain/repository"
	"github.com/sanitation-complaints/internal/pkg/errors"
	"github.com/sanitation-complaints/internal/repository/postgres/testhelpers"
)

// RepositoryIntegrationTestSuite runs every repository against a live PostgreSQL
type RepositoryIntegrationTestSuite struct {
	suite.Suite
	testDB *testhelpers.TestDB
	repos  *testhelpers.Repositories
	ctx    context.Context
	now    time.Time
}

func (s *RepositoryIntegrationTestSuite) SetupSuite() {
	s.testDB = testhelpers.SetupTestDB(s.T())

	err := testhelpers.ApplyMigrations(s.testDB.DB.DB, "../../../migrations")
	s.Require().NoError(err, "Failed to apply migrations")

	s.repos = testhelpers.NewRepositoriesForTest(s.testDB.DB, s.testDB.Logger)
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *RepositoryIntegrationTestSuite) TearDownSuite() {
	if s.testDB != nil {
		s.testDB.Close()
	}
}

// SetupTest reloads fixtures so every test starts from the same tree
func (s *RepositoryIntegrationTestSuite) SetupTest() {
	s.ctx = context.Background()

	s.Require().NoError(s.testDB.Cleanup(s.ctx))
	err := testhelpers.LoadFixtures(s.testDB.DB.DB, "testdata/fixtures", []string{
		"geography.sql",
		"positions.sql",
	})
	s.Require().NoError(err, "Failed to load fixtures")
}

func (s *RepositoryIntegrationTestSuite) createComplaint(villageID int64, status domain.Status, worker *int64) *domain.Complaint {
	mobile := "9876543210"
	c := &domain.Complaint{
		VillageID:        villageID,
		ComplaintTypeID:  1,
		Description:      "garbage near the well",
		MobileNumber:     &mobile,
		Status:           status,
		AssignedWorkerID: worker,
		CreatedAt:        s.now,
	}
	s.Require().NoError(s.repos.Complaints.Create(s.ctx, c))
	return c
}

// ============================================================================
// Geography
// ============================================================================

func (s *RepositoryIntegrationTestSuite) TestAncestors_VillageChain() {
	chain, err := s.repos.Geography.Ancestors(s.ctx, 3)

	s.NoError(err)
	s.Len(chain, 3)
	s.Equal("Jaipur", chain[0].Name)
	s.Equal("Sanganer", chain[1].Name)
	s.Equal("Bagru", chain[2].Name)
}

func (s *RepositoryIntegrationTestSuite) TestDescendantVillages() {
	district, err := s.repos.Geography.DescendantVillages(s.ctx, 1)
	s.NoError(err)
	s.ElementsMatch([]int64{3, 4, 6}, district)

	block, err := s.repos.Geography.DescendantVillages(s.ctx, 2)
	s.NoError(err)
	s.ElementsMatch([]int64{3, 4}, block)

	village, err := s.repos.Geography.DescendantVillages(s.ctx, 12)
	s.NoError(err)
	s.Equal([]int64{12}, village)
}

func (s *RepositoryIntegrationTestSuite) TestGetByID_NotFound() {
	_, err := s.repos.Geography.GetByID(s.ctx, 999)
	s.True(errors.Is(err, errors.ErrNotFound))
}

// ============================================================================
// Positions
// ============================================================================

func (s *RepositoryIntegrationTestSuite) TestListActiveByVillage_SkipsEndedPositions() {
	workers, err := s.repos.Positions.ListActiveByVillage(s.ctx, 3, domain.RoleWorker, s.now)

	s.NoError(err)
	s.Len(workers, 1)
	s.Equal(int64(500), workers[0].HolderID)
}

func (s *RepositoryIntegrationTestSuite) TestEndPosition() {
	err := s.repos.Positions.End(s.ctx, 2, s.now)
	s.NoError(err)

	vdos, err := s.repos.Positions.ListActiveByVillage(s.ctx, 3, domain.RoleVDO, s.now.Add(time.Second))
	s.NoError(err)
	s.Empty(vdos)

	// ending twice is rejected
	err = s.repos.Positions.End(s.ctx, 2, s.now.Add(time.Hour))
	s.True(errors.Is(err, errors.ErrValidation))
}

// ============================================================================
// Complaints
// ============================================================================

func (s *RepositoryIntegrationTestSuite) TestUpdateStatus_CompareAndSwap() {
	c := s.createComplaint(3, domain.StatusOpen, nil)
	worker := int64(500)

	updated, err := s.repos.Complaints.UpdateStatus(s.ctx, repository.StatusUpdate{
		ComplaintID:      c.ID,
		ExpectedStatus:   domain.StatusOpen,
		ExpectedVersion:  c.Version,
		NewStatus:        domain.StatusAssigned,
		AssignedWorkerID: &worker,
		At:               s.now.Add(time.Minute),
	})
	s.Require().NoError(err)
	s.Equal(domain.StatusAssigned, updated.Status)
	s.Equal(c.Version+1, updated.Version)

	// a second writer holding the stale version loses
	_, err = s.repos.Complaints.UpdateStatus(s.ctx, repository.StatusUpdate{
		ComplaintID:     c.ID,
		ExpectedStatus:  domain.StatusOpen,
		ExpectedVersion: c.Version,
		NewStatus:       domain.StatusInvalid,
		At:              s.now.Add(time.Minute),
	})
	s.True(errors.Is(err, errors.ErrConflict))
}

func (s *RepositoryIntegrationTestSuite) TestUpdateStatus_ConcurrentWritersOneWins() {
	c := s.createComplaint(3, domain.StatusAssigned, nil)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for _, next := range []domain.Status{domain.StatusInProgress, domain.StatusInvalid} {
		wg.Add(1)
		go func(next domain.Status) {
			defer wg.Done()
			_, err := s.repos.Complaints.UpdateStatus(s.ctx, repository.StatusUpdate{
				ComplaintID:     c.ID,
				ExpectedStatus:  domain.StatusAssigned,
				ExpectedVersion: c.Version,
				NewStatus:       next,
				At:              s.now,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.Is(err, errors.ErrConflict) {
				conflicts++
			}
		}(next)
	}
	wg.Wait()

	s.Equal(1, successes)
	s.Equal(1, conflicts)
}

func (s *RepositoryIntegrationTestSuite) TestList_Filters() {
	s.createComplaint(3, domain.StatusOpen, nil)
	s.createComplaint(4, domain.StatusOpen, nil)
	s.createComplaint(12, domain.StatusOpen, nil)

	items, total, err := s.repos.Complaints.List(s.ctx, domain.ComplaintQuery{
		Villages: domain.NewVillageSet(3, 4),
		Limit:    10,
	})
	s.NoError(err)
	s.Equal(2, total)
	s.Len(items, 2)

	items, total, err = s.repos.Complaints.List(s.ctx, domain.ComplaintQuery{Limit: 1})
	s.NoError(err)
	s.Equal(3, total)
	s.Len(items, 1)
}

func (s *RepositoryIntegrationTestSuite) TestCountLoad() {
	worker := int64(500)
	s.createComplaint(3, domain.StatusAssigned, &worker)
	s.createComplaint(3, domain.StatusInProgress, &worker)
	s.createComplaint(3, domain.StatusCompleted, &worker)

	loads, err := s.repos.Complaints.CountLoad(s.ctx, []int64{500, 501})

	s.NoError(err)
	s.Equal(2, loads[500])
	s.Equal(0, loads[501])
}

func (s *RepositoryIntegrationTestSuite) TestLockActiveWorkers_InsideTx() {
	err := s.repos.Tx.WithinTx(s.ctx, func(ctx context.Context) error {
		workers, err := s.repos.Positions.LockActiveWorkers(ctx, 3, s.now)
		s.Len(workers, 1)
		return err
	})
	s.NoError(err)
}

// ============================================================================
// Activity and analytics
// ============================================================================

func (s *RepositoryIntegrationTestSuite) TestHasEvidenceBy() {
	c := s.createComplaint(3, domain.StatusInProgress, nil)
	worker := int64(500)

	found, err := s.repos.Activity.HasEvidenceBy(s.ctx, c.ID, worker)
	s.NoError(err)
	s.False(found)

	s.Require().NoError(s.repos.Activity.AddMedia(s.ctx, &domain.Media{
		ComplaintID:  c.ID,
		URL:          "http://media.local/complaints/a.jpg",
		UploadedByID: &worker,
		UploadedAt:   s.now,
	}))

	found, err = s.repos.Activity.HasEvidenceBy(s.ctx, c.ID, worker)
	s.NoError(err)
	s.True(found)
}

func (s *RepositoryIntegrationTestSuite) TestCountByStatus_BlockLevel() {
	s.createComplaint(3, domain.StatusOpen, nil)
	s.createComplaint(4, domain.StatusOpen, nil)
	s.createComplaint(6, domain.StatusOpen, nil)

	counts, err := s.repos.Analytics.CountByStatus(s.ctx, domain.AnalyticsQuery{Level: domain.NodeBlock})

	s.NoError(err)
	byBlock := make(map[string]int64)
	for _, c := range counts {
		byBlock[c.NodeName] += c.Count
	}
	s.Equal(int64(2), byBlock["Sanganer"])
	s.Equal(int64(1), byBlock["Amber"])
}

func TestRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryIntegrationTestSuite))
}
