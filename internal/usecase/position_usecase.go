package usecase

import (
	"context"
	"time"

	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/domain/repository"
	"github.com/sanitation-complaints/internal/pkg/errors"
	"github.com/sanitation-complaints/internal/usecase/dto"
	"go.uber.org/zap"
)

// PositionUseCase appoints and ends positions
type PositionUseCase struct {
	positionRepo repository.PositionRepository
	geography    *GeographyUseCase
	cache        repository.JurisdictionCache
	logger       *zap.Logger
	now          func() time.Time
}

// NewPositionUseCase - cache may be nil
func NewPositionUseCase(
	positionRepo repository.PositionRepository,
	geography *GeographyUseCase,
	cache repository.JurisdictionCache,
	logger *zap.Logger,
) *PositionUseCase {
	return &PositionUseCase{
		positionRepo: positionRepo,
		geography:    geography,
		cache:        cache,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Appoint creates a position for req.HolderID. The appointer needs an active
// position whose role may appoint the target role and whose scope contains the
// target scope.
func (uc *PositionUseCase) Appoint(ctx context.Context, appointer domain.Actor, req dto.AppointPositionRequest) (*domain.Position, error) {
	if err := validate("position.appoint", req); err != nil {
		return nil, err
	}

	role := domain.Role(req.Role)
	if err := uc.checkScope(ctx, role, req.ScopeNodeID); err != nil {
		return nil, err
	}

	now := uc.now()
	start := now
	if req.StartDate != nil {
		start = req.StartDate.UTC()
	}

	if err := uc.authorize(ctx, appointer, role, req.ScopeNodeID, now, "position.appoint"); err != nil {
		return nil, err
	}

	existing, err := uc.positionRepo.ListByHolder(ctx, req.HolderID)
	if err != nil {
		return nil, err
	}
	for _, p := range existing {
		if p.Role == role && sameScope(p.ScopeNodeID, req.ScopeNodeID) && (p.EndDate == nil || p.EndDate.After(start)) {
			return nil, errors.Validation("position.appoint", "holder already has this position", map[string]interface{}{
				"holder_id":   req.HolderID,
				"position_id": p.ID,
			})
		}
	}

	p := &domain.Position{
		HolderID:    req.HolderID,
		Role:        role,
		ScopeNodeID: req.ScopeNodeID,
		StartDate:   start,
	}
	if err := uc.positionRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	uc.logger.Info("Position appointed",
		zap.Int64("position_id", p.ID),
		zap.Int64("holder_id", p.HolderID),
		zap.String("role", string(p.Role)),
		zap.String("appointer", appointer.String()))

	uc.invalidate(ctx, p.HolderID)
	return p, nil
}

// End closes a position at req.EndDate (default now)
func (uc *PositionUseCase) End(ctx context.Context, actor domain.Actor, positionID int64, req dto.EndPositionRequest) (*domain.Position, error) {
	p, err := uc.positionRepo.GetByID(ctx, positionID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	if err := uc.authorize(ctx, actor, p.Role, p.ScopeNodeID, now, "position.end"); err != nil {
		return nil, err
	}

	at := now
	if req.EndDate != nil {
		at = req.EndDate.UTC()
	}
	if err := uc.positionRepo.End(ctx, p.ID, at); err != nil {
		return nil, err
	}
	p.EndDate = &at

	uc.logger.Info("Position ended",
		zap.Int64("position_id", p.ID),
		zap.Int64("holder_id", p.HolderID),
		zap.Time("end_date", at),
		zap.String("actor", actor.String()))

	uc.invalidate(ctx, p.HolderID)
	return p, nil
}

// ListByHolder - a holder sees their own history; others need to outrank
// the holder in the scope of at least one of the positions
func (uc *PositionUseCase) ListByHolder(ctx context.Context, actor domain.Actor, holderID int64) ([]domain.Position, error) {
	positions, err := uc.positionRepo.ListByHolder(ctx, holderID)
	if err != nil {
		return nil, err
	}
	if actor.IsStaff() && actor.ID == holderID {
		return positions, nil
	}

	now := uc.now()
	for _, p := range positions {
		err := uc.authorize(ctx, actor, p.Role, p.ScopeNodeID, now, "position.list")
		if err == nil {
			return positions, nil
		}
		if !errors.Is(err, errors.ErrForbidden) {
			return nil, err
		}
	}
	return nil, errors.Forbidden("position.list", map[string]interface{}{"holder_id": holderID})
}

func (uc *PositionUseCase) checkScope(ctx context.Context, role domain.Role, scopeNodeID *int64) error {
	if role.Unscoped() {
		if scopeNodeID != nil {
			return errors.Validation("position.appoint", "role must not have a scope node", map[string]interface{}{
				"role": string(role),
			})
		}
		return nil
	}
	if scopeNodeID == nil {
		return errors.Validation("position.appoint", "role requires a scope node", map[string]interface{}{
			"role": string(role),
		})
	}

	node, err := uc.geography.Node(ctx, *scopeNodeID)
	if err != nil {
		return err
	}
	if node.Kind != role.ScopeKind() {
		return errors.Validation("position.appoint", "scope node kind does not match the role", map[string]interface{}{
			"role":          string(role),
			"scope_node_id": node.ID,
			"kind":          string(node.Kind),
			"expected_kind": string(role.ScopeKind()),
		})
	}
	return nil
}

// authorize - some active position of actor may appoint role at scope
func (uc *PositionUseCase) authorize(ctx context.Context, actor domain.Actor, role domain.Role, scopeNodeID *int64, at time.Time, operation string) error {
	forbidden := errors.Forbidden(operation, map[string]interface{}{
		"actor": actor.String(),
		"role":  string(role),
	})
	if !actor.IsStaff() {
		return forbidden
	}

	positions, err := uc.positionRepo.ListByHolder(ctx, actor.ID)
	if err != nil {
		return err
	}

	var chain []domain.GeographyNode
	for _, p := range positions {
		if !p.IsActive(at) || !p.Role.CanAppoint(role) {
			continue
		}
		if p.Role.Unscoped() {
			return nil
		}
		if scopeNodeID == nil || p.ScopeNodeID == nil {
			continue
		}
		if chain == nil {
			if chain, err = uc.geography.Ancestors(ctx, *scopeNodeID); err != nil {
				return err
			}
		}
		for _, node := range chain {
			if node.ID == *p.ScopeNodeID {
				return nil
			}
		}
	}
	return forbidden
}

// invalidate bumps the holder's jurisdiction epoch; a failure leaves entries to expire by TTL
func (uc *PositionUseCase) invalidate(ctx context.Context, holderID int64) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(context.WithoutCancel(ctx), holderID); err != nil {
		uc.logger.Error("Failed to invalidate jurisdiction cache",
			zap.Int64("holder_id", holderID), zap.Error(err))
	}
}

func sameScope(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
