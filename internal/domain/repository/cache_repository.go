package repository

import (
	"context"
	"time"

	"github.com/sanitation-complaints/internal/domain"
)

// JurisdictionCache - resolved jurisdictions keyed by actor and a per-actor epoch
type JurisdictionCache interface {
	// Get returns the cached entry for the current epoch, or nil on a miss.
	// The returned epoch must be passed back to Set.
	Get(ctx context.Context, actorID int64) (*domain.Jurisdiction, int64, error)

	// Set stores j under epoch; an epoch bumped in between makes the entry unreachable
	Set(ctx context.Context, j *domain.Jurisdiction, epoch int64, ttl time.Duration) error

	// Invalidate bumps the actor's epoch so earlier entries are never read again
	Invalidate(ctx context.Context, actorID int64) error
}
