package repository

import (
	"context"
	"time"

	"github.com/sanitation-complaints/internal/domain"
)

// StatusUpdate - compare-and-swap write of a complaint status
type StatusUpdate struct {
	ComplaintID      int64
	ExpectedStatus   domain.Status
	ExpectedVersion  int64
	NewStatus        domain.Status
	AssignedWorkerID *int64
	At               time.Time
}

// ComplaintRepository - complaint rows and their append-only children
type ComplaintRepository interface {
	Create(ctx context.Context, c *domain.Complaint) error

	GetByID(ctx context.Context, id int64) (*domain.Complaint, error)

	// UpdateStatus applies the update only if status and version still match.
	// Returns the updated row or a CONFLICT error when zero rows matched.
	UpdateStatus(ctx context.Context, u StatusUpdate) (*domain.Complaint, error)

	// List returns one page and the total number of matching rows
	List(ctx context.Context, q domain.ComplaintQuery) ([]domain.Complaint, int, error)

	// CountLoad counts ASSIGNED/IN_PROGRESS complaints per worker
	CountLoad(ctx context.Context, workerIDs []int64) (map[int64]int, error)

	ListTypes(ctx context.Context) ([]domain.ComplaintType, error)

	TypeExists(ctx context.Context, id int64) (bool, error)
}

// ActivityRepository - comments, media and status history
type ActivityRepository interface {
	AddComment(ctx context.Context, c *domain.Comment) error
	ListComments(ctx context.Context, complaintID int64) ([]domain.Comment, error)

	AddMedia(ctx context.Context, m *domain.Media) error
	ListMedia(ctx context.Context, complaintID int64) ([]domain.Media, error)

	AddStatusChange(ctx context.Context, sc *domain.StatusChange) error
	ListStatusChanges(ctx context.Context, complaintID int64) ([]domain.StatusChange, error)

	// HasEvidenceBy reports whether the author attached a comment or media to the complaint
	HasEvidenceBy(ctx context.Context, complaintID, authorID int64) (bool, error)
}

// AnalyticsRepository - aggregate counts
type AnalyticsRepository interface {
	CountByStatus(ctx context.Context, q domain.AnalyticsQuery) ([]domain.StatusCount, error)
	CountByDay(ctx context.Context, q domain.AnalyticsQuery) ([]domain.DailyCount, error)

	// ResolutionStats - per node of q.Level, resolution measured to the first COMPLETED entry of the history
	ResolutionStats(ctx context.Context, q domain.AnalyticsQuery) ([]domain.NodeResolution, error)
}
