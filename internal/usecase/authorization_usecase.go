package usecase

import (
	"context"
	"time"

	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/domain/repository"
	"github.com/sanitation-complaints/internal/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// descendant queries issued concurrently for one resolution
const resolveParallelism = 4

// AuthorizationUseCase resolves jurisdictions and answers access checks
type AuthorizationUseCase struct {
	positionRepo repository.PositionRepository
	geography    *GeographyUseCase
	cache        repository.JurisdictionCache
	cacheTTL     time.Duration
	metrics      *metrics.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// NewAuthorizationUseCase - cache may be nil, resolution then always hits the database
func NewAuthorizationUseCase(
	positionRepo repository.PositionRepository,
	geography *GeographyUseCase,
	cache repository.JurisdictionCache,
	cacheTTL time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *AuthorizationUseCase {
	return &AuthorizationUseCase{
		positionRepo: positionRepo,
		geography:    geography,
		cache:        cache,
		cacheTTL:     cacheTTL,
		metrics:      m,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ResolveJurisdiction returns the actor's jurisdiction, from cache when possible.
// Actors without active positions get an empty jurisdiction, never an error.
func (uc *AuthorizationUseCase) ResolveJurisdiction(ctx context.Context, actor domain.Actor) (*domain.Jurisdiction, error) {
	now := uc.now()
	if !actor.IsStaff() {
		return domain.EmptyJurisdiction(actor.ID, now), nil
	}
	if uc.cache == nil || uc.cacheTTL <= 0 {
		return uc.resolve(ctx, actor.ID, now)
	}

	cached, epoch, err := uc.cache.Get(ctx, actor.ID)
	if err != nil {
		uc.logger.Warn("Jurisdiction cache unavailable, resolving fresh",
			zap.Int64("actor_id", actor.ID), zap.Error(err))
		uc.metrics.IncJurisdictionCache("error")
		return uc.resolve(ctx, actor.ID, now)
	}
	if cached != nil && (cached.ExpiresAt == nil || cached.ExpiresAt.After(now)) {
		uc.metrics.IncJurisdictionCache("hit")
		return cached, nil
	}
	uc.metrics.IncJurisdictionCache("miss")

	j, err := uc.resolve(ctx, actor.ID, now)
	if err != nil {
		return nil, err
	}

	ttl := uc.cacheTTL
	if j.ExpiresAt != nil {
		if untilChange := j.ExpiresAt.Sub(now); untilChange < ttl {
			ttl = untilChange
		}
	}
	if err := uc.cache.Set(ctx, j, epoch, ttl); err != nil {
		uc.logger.Warn("Failed to cache jurisdiction", zap.Int64("actor_id", actor.ID), zap.Error(err))
	}
	return j, nil
}

// ResolveFresh bypasses the cache. Used by every state-changing operation.
func (uc *AuthorizationUseCase) ResolveFresh(ctx context.Context, actor domain.Actor) (*domain.Jurisdiction, error) {
	now := uc.now()
	if !actor.IsStaff() {
		return domain.EmptyJurisdiction(actor.ID, now), nil
	}
	return uc.resolve(ctx, actor.ID, now)
}

func (uc *AuthorizationUseCase) resolve(ctx context.Context, actorID int64, now time.Time) (*domain.Jurisdiction, error) {
	defer uc.metrics.ObserveResolution(time.Now())

	positions, err := uc.positionRepo.ListByHolder(ctx, actorID)
	if err != nil {
		return nil, err
	}

	j := domain.EmptyJurisdiction(actorID, now)
	var active []domain.Position
	for _, p := range positions {
		switch {
		case p.IsActive(now):
			active = append(active, p)
			if p.EndDate != nil {
				j.NarrowExpiry(*p.EndDate)
			}
		case p.StartDate.After(now):
			// scheduled position becomes active later
			j.NarrowExpiry(p.StartDate)
		}
	}

	scope := uc.geography.NewScope()
	expanded := make([]domain.VillageSet, len(active))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveParallelism)
	for i, p := range active {
		if p.Role.Unscoped() || p.ScopeNodeID == nil {
			continue
		}
		i, nodeID := i, *p.ScopeNodeID
		g.Go(func() error {
			villages, err := scope.Descendants(gctx, nodeID)
			if err != nil {
				return err
			}
			expanded[i] = villages
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		uc.logger.Error("Failed to expand position scopes",
			zap.Int64("actor_id", actorID), zap.Error(err))
		return nil, err
	}

	for i, p := range active {
		j.Grant(p.Role, expanded[i])
	}

	uc.logger.Debug("Jurisdiction resolved",
		zap.Int64("actor_id", actorID),
		zap.Int("active_positions", len(active)),
		zap.Bool("all", j.All),
		zap.Int("villages", len(j.Villages)))
	return j, nil
}

// CanAccessVillage - read predicate
func (uc *AuthorizationUseCase) CanAccessVillage(ctx context.Context, actor domain.Actor, villageID int64) (bool, error) {
	j, err := uc.ResolveJurisdiction(ctx, actor)
	if err != nil {
		return false, err
	}
	return j.Covers(villageID), nil
}

// CanMutateComplaint - write predicate for comments and media, resolved fresh
func (uc *AuthorizationUseCase) CanMutateComplaint(ctx context.Context, actor domain.Actor, c *domain.Complaint) (bool, error) {
	j, err := uc.ResolveFresh(ctx, actor)
	if err != nil {
		return false, err
	}
	return canMutate(actor, j, c), nil
}

// VillageFilter - nil means every village; an empty set means none
func (uc *AuthorizationUseCase) VillageFilter(ctx context.Context, actor domain.Actor) (domain.VillageSet, error) {
	j, err := uc.ResolveJurisdiction(ctx, actor)
	if err != nil {
		return nil, err
	}
	return j.Filter(), nil
}

func canRead(actor domain.Actor, j *domain.Jurisdiction, c *domain.Complaint) bool {
	return actor.OwnsComplaint(c) || j.Covers(c.VillageID)
}

// canMutate - VDO and above in the village may write; a worker only on complaints
// assigned to them, even when the village is readable through another role
func canMutate(actor domain.Actor, j *domain.Jurisdiction, c *domain.Complaint) bool {
	if actor.OwnsComplaint(c) {
		return true
	}
	if !actor.IsStaff() {
		return false
	}
	if j.HasRoleIn(c.VillageID, domain.RoleVDO) {
		return true
	}
	return j.IsWorkerIn(c.VillageID) && c.IsAssignedTo(actor.ID)
}
