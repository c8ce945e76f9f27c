package usecase

import (
	"context"
	"sync"

	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/domain/repository"
	"github.com/sanitation-complaints/internal/pkg/errors"
	"go.uber.org/zap"
)

// GeographyUseCase - read access to the district/block/village tree
type GeographyUseCase struct {
	geoRepo repository.GeographyRepository
	logger  *zap.Logger
}

func NewGeographyUseCase(geoRepo repository.GeographyRepository, logger *zap.Logger) *GeographyUseCase {
	return &GeographyUseCase{
		geoRepo: geoRepo,
		logger:  logger,
	}
}

func (uc *GeographyUseCase) Node(ctx context.Context, id int64) (*domain.GeographyNode, error) {
	return uc.geoRepo.GetByID(ctx, id)
}

// Village returns the node only when it is a village
func (uc *GeographyUseCase) Village(ctx context.Context, id int64) (*domain.GeographyNode, error) {
	node, err := uc.geoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if node.Kind != domain.NodeVillage {
		return nil, errors.Validation("geography.village", "node is not a village", map[string]interface{}{
			"node_id": id,
			"kind":    string(node.Kind),
		})
	}
	return node, nil
}

func (uc *GeographyUseCase) Children(ctx context.Context, id int64) ([]domain.GeographyNode, error) {
	if _, err := uc.geoRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return uc.geoRepo.Children(ctx, id)
}

// Ancestors - district first, the node itself last
func (uc *GeographyUseCase) Ancestors(ctx context.Context, id int64) ([]domain.GeographyNode, error) {
	return uc.geoRepo.Ancestors(ctx, id)
}

func (uc *GeographyUseCase) Districts(ctx context.Context) ([]domain.GeographyNode, error) {
	return uc.geoRepo.Districts(ctx)
}

func (uc *GeographyUseCase) Descendants(ctx context.Context, id int64) (domain.VillageSet, error) {
	ids, err := uc.geoRepo.DescendantVillages(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.NewVillageSet(ids...), nil
}

// NewScope returns a memo for one operation. Never share it across requests.
func (uc *GeographyUseCase) NewScope() *GeographyScope {
	return &GeographyScope{
		uc:       uc,
		villages: make(map[int64]domain.VillageSet),
	}
}

// GeographyScope caches descendant sets for the lifetime of one operation.
// Safe for concurrent use by the goroutines of that operation.
type GeographyScope struct {
	uc       *GeographyUseCase
	mu       sync.Mutex
	villages map[int64]domain.VillageSet
}

func (s *GeographyScope) Descendants(ctx context.Context, id int64) (domain.VillageSet, error) {
	s.mu.Lock()
	cached, ok := s.villages[id]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	set, err := s.uc.Descendants(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.villages[id] = set
	s.mu.Unlock()
	return set, nil
}
