package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/domain/repository"
	"github.com/sanitation-complaints/internal/pkg/errors"
	"github.com/sanitation-complaints/internal/pkg/metrics"
	"github.com/sanitation-complaints/internal/usecase/dto"
	"go.uber.org/zap"
)

// AssignmentUseCase picks the least loaded worker of a village
type AssignmentUseCase struct {
	positionRepo  repository.PositionRepository
	complaintRepo repository.ComplaintRepository
	geography     *GeographyUseCase
	authz         *AuthorizationUseCase
	metrics       *metrics.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

func NewAssignmentUseCase(
	positionRepo repository.PositionRepository,
	complaintRepo repository.ComplaintRepository,
	geography *GeographyUseCase,
	authz *AuthorizationUseCase,
	m *metrics.Metrics,
	logger *zap.Logger,
) *AssignmentUseCase {
	return &AssignmentUseCase{
		positionRepo:  positionRepo,
		complaintRepo: complaintRepo,
		geography:     geography,
		authz:         authz,
		metrics:       m,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// candidate - one worker eligible for a village
type candidate struct {
	position domain.Position
	load     int
}

// Choice - outcome of a selection. Worker is nil when the village has no active worker.
type Choice struct {
	Worker     *int64
	PositionID *int64
	Load       int
	Candidates []int64
}

func (c Choice) allows(workerID int64) bool {
	for _, id := range c.Candidates {
		if id == workerID {
			return true
		}
	}
	return false
}

// SelectWorker previews the choice without taking locks
func (uc *AssignmentUseCase) SelectWorker(ctx context.Context, villageID int64) (Choice, error) {
	positions, err := uc.positionRepo.ListActiveByVillage(ctx, villageID, domain.RoleWorker, uc.now())
	if err != nil {
		return Choice{}, err
	}
	return uc.choose(ctx, positions)
}

// SelectWorkerLocked locks the village's active worker positions and chooses among them.
// Must run inside the caller's transaction; concurrent callers for the same village
// wait for each other until commit.
func (uc *AssignmentUseCase) SelectWorkerLocked(ctx context.Context, villageID int64) (Choice, error) {
	positions, err := uc.positionRepo.LockActiveWorkers(ctx, villageID, uc.now())
	if err != nil {
		return Choice{}, err
	}
	return uc.choose(ctx, positions)
}

// PreviewWorker - GET /assignment/villages/:id/worker, BDO and above in the village
func (uc *AssignmentUseCase) PreviewWorker(ctx context.Context, actor domain.Actor, villageID int64) (*dto.WorkerPreview, error) {
	if _, err := uc.geography.Village(ctx, villageID); err != nil {
		return nil, err
	}

	j, err := uc.authz.ResolveJurisdiction(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !j.HasRoleIn(villageID, domain.RoleBDO) {
		return nil, errors.Forbidden("assignment.preview", map[string]interface{}{
			"actor_id":   actor.ID,
			"village_id": villageID,
		})
	}

	choice, err := uc.SelectWorker(ctx, villageID)
	if err != nil {
		return nil, err
	}
	return &dto.WorkerPreview{
		VillageID:  villageID,
		WorkerID:   choice.Worker,
		PositionID: choice.PositionID,
		Load:       choice.Load,
		Candidates: len(choice.Candidates),
	}, nil
}

func (uc *AssignmentUseCase) choose(ctx context.Context, positions []domain.Position) (Choice, error) {
	candidates := dedupeHolders(positions)
	if len(candidates) == 0 {
		return Choice{}, nil
	}

	ids := make([]int64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.position.HolderID
	}
	loads, err := uc.complaintRepo.CountLoad(ctx, ids)
	if err != nil {
		return Choice{}, err
	}
	for i := range candidates {
		candidates[i].load = loads[candidates[i].position.HolderID]
	}

	best := pickWorker(candidates)
	worker, positionID := best.position.HolderID, best.position.ID
	return Choice{
		Worker:     &worker,
		PositionID: &positionID,
		Load:       best.load,
		Candidates: ids,
	}, nil
}

// dedupeHolders keeps the earliest position of each holder
func dedupeHolders(positions []domain.Position) []candidate {
	byHolder := make(map[int64]int, len(positions))
	out := make([]candidate, 0, len(positions))
	for _, p := range positions {
		if idx, ok := byHolder[p.HolderID]; ok {
			if earlier(p, out[idx].position) {
				out[idx].position = p
			}
			continue
		}
		byHolder[p.HolderID] = len(out)
		out = append(out, candidate{position: p})
	}
	return out
}

func earlier(a, b domain.Position) bool {
	if !a.StartDate.Equal(b.StartDate) {
		return a.StartDate.Before(b.StartDate)
	}
	return a.ID < b.ID
}

// pickWorker - fewest open assignments, then earliest start_date, then lowest position id
func pickWorker(candidates []candidate) candidate {
	sorted := make([]candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].load != sorted[j].load {
			return sorted[i].load < sorted[j].load
		}
		return earlier(sorted[i].position, sorted[j].position)
	})
	return sorted[0]
}
