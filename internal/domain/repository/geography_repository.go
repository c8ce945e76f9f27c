package repository

import (
	"context"

	"github.com/sanitation-complaints/internal/domain"
)

// GeographyRepository - read access to the district/block/village tree
type GeographyRepository interface {
	// GetByID returns the node or a NOT_FOUND error
	GetByID(ctx context.Context, id int64) (*domain.GeographyNode, error)

	// Ancestors returns the chain from the district down to the node itself
	Ancestors(ctx context.Context, id int64) ([]domain.GeographyNode, error)

	// DescendantVillages expands a node into the villages it covers
	DescendantVillages(ctx context.Context, id int64) ([]int64, error)

	// Children returns direct children ordered by name
	Children(ctx context.Context, id int64) ([]domain.GeographyNode, error)

	// Districts returns all root nodes
	Districts(ctx context.Context) ([]domain.GeographyNode, error)
}
