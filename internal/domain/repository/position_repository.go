package repository

import (
	"context"
	"time"

	"github.com/sanitation-complaints/internal/domain"
)

// PositionRepository - role assignments of staff members
type PositionRepository interface {
	Create(ctx context.Context, p *domain.Position) error

	GetByID(ctx context.Context, id int64) (*domain.Position, error)

	// End sets end_date on a position that is still open at the given time
	End(ctx context.Context, id int64, at time.Time) error

	// ListByHolder returns the full history of a holder, newest first
	ListByHolder(ctx context.Context, holderID int64) ([]domain.Position, error)

	// ListActiveByVillage returns positions with the given role scoped to the village
	ListActiveByVillage(ctx context.Context, villageID int64, role domain.Role, at time.Time) ([]domain.Position, error)

	// LockActiveWorkers selects the village's active WORKER positions FOR UPDATE.
	// Must run inside a transaction.
	LockActiveWorkers(ctx context.Context, villageID int64, at time.Time) ([]domain.Position, error)
}
