package usecase

import (
	"context"

	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/domain/repository"
	"github.com/sanitation-complaints/internal/pkg/errors"
	"github.com/sanitation-complaints/internal/usecase/dto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AnalyticsUseCase - complaint counts restricted to the caller's jurisdiction
type AnalyticsUseCase struct {
	analyticsRepo repository.AnalyticsRepository
	authz         *AuthorizationUseCase
	logger        *zap.Logger
}

func NewAnalyticsUseCase(
	analyticsRepo repository.AnalyticsRepository,
	authz *AuthorizationUseCase,
	logger *zap.Logger,
) *AnalyticsUseCase {
	return &AnalyticsUseCase{
		analyticsRepo: analyticsRepo,
		authz:         authz,
		logger:        logger,
	}
}

// defaultTopN - ranking size when the request leaves n unset
const defaultTopN = 5

// query - grouped operations aggregate per node of req.Level, so a node filter
// must sit above that level.
func (uc *AnalyticsUseCase) query(ctx context.Context, actor domain.Actor, req dto.AnalyticsRequest, operation string, grouped bool) (domain.AnalyticsQuery, error) {
	if err := validate(operation, req); err != nil {
		return domain.AnalyticsQuery{}, err
	}
	if !actor.IsStaff() {
		return domain.AnalyticsQuery{}, errors.Forbidden(operation, map[string]interface{}{"actor": actor.String()})
	}

	level := domain.NodeDistrict
	if req.Level != "" {
		level = domain.NodeKind(req.Level)
	}

	filter, err := uc.authz.VillageFilter(ctx, actor)
	if err != nil {
		return domain.AnalyticsQuery{}, err
	}
	narrowLevel := level
	if !grouped {
		narrowLevel = ""
	}
	filter, err = uc.narrow(ctx, filter, req, narrowLevel, operation)
	if err != nil {
		return domain.AnalyticsQuery{}, err
	}

	return domain.AnalyticsQuery{
		Level:    level,
		Villages: filter,
		From:     req.From,
		To:       req.To,
	}, nil
}

// narrow intersects the jurisdiction filter with the villages under the
// requested district, block or village. An empty level skips the level check.
func (uc *AnalyticsUseCase) narrow(ctx context.Context, filter domain.VillageSet, req dto.AnalyticsRequest, level domain.NodeKind, operation string) (domain.VillageSet, error) {
	var (
		nodeID int64
		kind   domain.NodeKind
		set    int
	)
	for _, f := range []struct {
		id   *int64
		kind domain.NodeKind
	}{
		{req.DistrictID, domain.NodeDistrict},
		{req.BlockID, domain.NodeBlock},
		{req.VillageID, domain.NodeVillage},
	} {
		if f.id != nil {
			nodeID, kind = *f.id, f.kind
			set++
		}
	}
	switch {
	case set == 0:
		return filter, nil
	case set > 1:
		return nil, errors.Validation(operation, "provide only one of district_id, block_id or village_id", nil)
	case level != "" && kind.Depth() >= level.Depth():
		return nil, errors.Validation(operation, "node filter must be above the grouping level", map[string]interface{}{
			"level":  string(level),
			"filter": string(kind),
		})
	}

	node, err := uc.authz.geography.Node(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if node.Kind != kind {
		return nil, errors.Validation(operation, "node filter does not match the node kind", map[string]interface{}{
			"node_id": nodeID,
			"kind":    string(node.Kind),
			"want":    string(kind),
		})
	}

	villages, err := uc.authz.geography.Descendants(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		return villages, nil
	}
	return filter.Intersect(villages), nil
}

// StatusCounts - counts per node of the requested level and status
func (uc *AnalyticsUseCase) StatusCounts(ctx context.Context, actor domain.Actor, req dto.AnalyticsRequest) ([]domain.StatusCount, error) {
	q, err := uc.query(ctx, actor, req, "analytics.status", true)
	if err != nil {
		return nil, err
	}
	return uc.analyticsRepo.CountByStatus(ctx, q)
}

// DailyCounts - complaints created per day, by current status
func (uc *AnalyticsUseCase) DailyCounts(ctx context.Context, actor domain.Actor, req dto.AnalyticsRequest) ([]domain.DailyCount, error) {
	q, err := uc.query(ctx, actor, req, "analytics.daily", false)
	if err != nil {
		return nil, err
	}
	return uc.analyticsRepo.CountByDay(ctx, q)
}

// Summary runs every level and the daily series concurrently
func (uc *AnalyticsUseCase) Summary(ctx context.Context, actor domain.Actor, req dto.AnalyticsRequest) (*dto.AnalyticsSummary, error) {
	q, err := uc.query(ctx, actor, req, "analytics.summary", false)
	if err != nil {
		return nil, err
	}

	summary := &dto.AnalyticsSummary{}
	levels := map[domain.NodeKind]*[]domain.StatusCount{
		domain.NodeDistrict: &summary.ByDistrict,
		domain.NodeBlock:    &summary.ByBlock,
		domain.NodeVillage:  &summary.ByVillage,
	}

	g, gctx := errgroup.WithContext(ctx)
	for level, dst := range levels {
		lq := q
		lq.Level = level
		dst := dst
		g.Go(func() error {
			counts, err := uc.analyticsRepo.CountByStatus(gctx, lq)
			if err != nil {
				return err
			}
			*dst = counts
			return nil
		})
	}
	g.Go(func() error {
		daily, err := uc.analyticsRepo.CountByDay(gctx, q)
		if err != nil {
			return err
		}
		summary.Daily = daily
		return nil
	})

	if err := g.Wait(); err != nil {
		uc.logger.Error("Failed to build analytics summary",
			zap.Int64("actor_id", actor.ID), zap.Error(err))
		return nil, err
	}
	return summary, nil
}

// Resolution - totals and average time to completion per node of the requested level
func (uc *AnalyticsUseCase) Resolution(ctx context.Context, actor domain.Actor, req dto.AnalyticsRequest) ([]domain.NodeResolution, error) {
	q, err := uc.query(ctx, actor, req, "analytics.resolution", true)
	if err != nil {
		return nil, err
	}
	return uc.analyticsRepo.ResolutionStats(ctx, q)
}

// TopGeographies ranks nodes of the requested level by resolution score within a date range
func (uc *AnalyticsUseCase) TopGeographies(ctx context.Context, actor domain.Actor, req dto.AnalyticsRequest) ([]domain.GeographyScore, error) {
	if req.From == nil || req.To == nil {
		return nil, errors.Validation("analytics.top", "from and to are required", nil)
	}
	q, err := uc.query(ctx, actor, req, "analytics.top", true)
	if err != nil {
		return nil, err
	}

	stats, err := uc.analyticsRepo.ResolutionStats(ctx, q)
	if err != nil {
		return nil, err
	}

	n := req.N
	if n == 0 {
		n = defaultTopN
	}
	return domain.RankGeographies(stats, n), nil
}
