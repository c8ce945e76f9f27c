package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/domain/repository"
	"go.uber.org/zap"
)

type activityRepository struct {
	db *DB
}

func NewActivityRepository(db *DB) repository.ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) AddComment(ctx context.Context, c *domain.Comment) error {
	const query = `
		INSERT INTO complaint_comments (complaint_id, author_id, author_mobile, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.db.conn(ctx).QueryRowxContext(ctx, query,
		c.ComplaintID, c.AuthorID, c.AuthorMobile, c.Text, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return r.db.dbError("comment.create", err, zap.Int64("complaint_id", c.ComplaintID))
	}
	return nil
}

func (r *activityRepository) ListComments(ctx context.Context, complaintID int64) ([]domain.Comment, error) {
	const query = `
		SELECT id, complaint_id, author_id, author_mobile, text, created_at
		FROM complaint_comments WHERE complaint_id = $1 ORDER BY created_at, id`

	comments := make([]domain.Comment, 0)
	if err := sqlx.SelectContext(ctx, r.db.conn(ctx), &comments, query, complaintID); err != nil {
		return nil, r.db.dbError("comment.list", err, zap.Int64("complaint_id", complaintID))
	}
	return comments, nil
}

func (r *activityRepository) AddMedia(ctx context.Context, m *domain.Media) error {
	const query = `
		INSERT INTO complaint_media (complaint_id, url, uploaded_by_id, uploaded_by_mobile, uploaded_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.db.conn(ctx).QueryRowxContext(ctx, query,
		m.ComplaintID, m.URL, m.UploadedByID, m.UploadedByMobile, m.UploadedAt,
	).Scan(&m.ID)
	if err != nil {
		return r.db.dbError("media.create", err, zap.Int64("complaint_id", m.ComplaintID))
	}
	return nil
}

func (r *activityRepository) ListMedia(ctx context.Context, complaintID int64) ([]domain.Media, error) {
	const query = `
		SELECT id, complaint_id, url, uploaded_by_id, uploaded_by_mobile, uploaded_at
		FROM complaint_media WHERE complaint_id = $1 ORDER BY uploaded_at, id`

	media := make([]domain.Media, 0)
	if err := sqlx.SelectContext(ctx, r.db.conn(ctx), &media, query, complaintID); err != nil {
		return nil, r.db.dbError("media.list", err, zap.Int64("complaint_id", complaintID))
	}
	return media, nil
}

func (r *activityRepository) AddStatusChange(ctx context.Context, sc *domain.StatusChange) error {
	const query = `
		INSERT INTO complaint_status_history (complaint_id, from_status, to_status, actor_id, actor_mobile, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := r.db.conn(ctx).QueryRowxContext(ctx, query,
		sc.ComplaintID, sc.FromStatus, sc.ToStatus, sc.ActorID, sc.ActorMobile, sc.Note, sc.CreatedAt,
	).Scan(&sc.ID)
	if err != nil {
		return r.db.dbError("status_history.create", err, zap.Int64("complaint_id", sc.ComplaintID))
	}
	return nil
}

func (r *activityRepository) ListStatusChanges(ctx context.Context, complaintID int64) ([]domain.StatusChange, error) {
	const query = `
		SELECT id, complaint_id, from_status, to_status, actor_id, actor_mobile, note, created_at
		FROM complaint_status_history WHERE complaint_id = $1 ORDER BY created_at, id`

	history := make([]domain.StatusChange, 0)
	if err := sqlx.SelectContext(ctx, r.db.conn(ctx), &history, query, complaintID); err != nil {
		return nil, r.db.dbError("status_history.list", err, zap.Int64("complaint_id", complaintID))
	}
	return history, nil
}

func (r *activityRepository) HasEvidenceBy(ctx context.Context, complaintID, authorID int64) (bool, error) {
	const query = `
		SELECT EXISTS(SELECT 1 FROM complaint_comments WHERE complaint_id = $1 AND author_id = $2)
		    OR EXISTS(SELECT 1 FROM complaint_media WHERE complaint_id = $1 AND uploaded_by_id = $2)`

	var found bool
	if err := sqlx.GetContext(ctx, r.db.conn(ctx), &found, query, complaintID, authorID); err != nil {
		return false, r.db.dbError("complaint.evidence", err,
			zap.Int64("complaint_id", complaintID), zap.Int64("author_id", authorID))
	}
	return found, nil
}
