package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/domain/repository"
	"github.com/sanitation-complaints/internal/pkg/errors"
	"go.uber.org/zap"
)

const positionColumns = `id, holder_id, role, scope_node_id, start_date, end_date`

type positionRepository struct {
	db *DB
}

func NewPositionRepository(db *DB) repository.PositionRepository {
	return &positionRepository{db: db}
}

func (r *positionRepository) Create(ctx context.Context, p *domain.Position) error {
	const query = `
		INSERT INTO positions (holder_id, role, scope_node_id, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.db.conn(ctx).QueryRowxContext(ctx, query,
		p.HolderID, p.Role, p.ScopeNodeID, p.StartDate, p.EndDate,
	).Scan(&p.ID)
	if err != nil {
		return r.db.dbError("position.create", err, zap.Int64("holder_id", p.HolderID))
	}
	return nil
}

func (r *positionRepository) GetByID(ctx context.Context, id int64) (*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE id = $1`

	var p domain.Position
	if err := sqlx.GetContext(ctx, r.db.conn(ctx), &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("position", id)
		}
		return nil, r.db.dbError("position.get", err, zap.Int64("position_id", id))
	}
	return &p, nil
}

func (r *positionRepository) End(ctx context.Context, id int64, at time.Time) error {
	const query = `
		UPDATE positions SET end_date = $2
		WHERE id = $1 AND start_date < $2 AND (end_date IS NULL OR end_date > $2)`

	res, err := r.db.conn(ctx).ExecContext(ctx, query, id, at)
	if err != nil {
		return r.db.dbError("position.end", err, zap.Int64("position_id", id))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return r.db.dbError("position.end", err, zap.Int64("position_id", id))
	}
	if n == 0 {
		return errors.Validation("position.end", "position is not open at the requested end date", map[string]interface{}{
			"position_id": id,
		})
	}
	return nil
}

func (r *positionRepository) ListByHolder(ctx context.Context, holderID int64) ([]domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE holder_id = $1 ORDER BY start_date DESC, id DESC`

	positions := make([]domain.Position, 0)
	if err := sqlx.SelectContext(ctx, r.db.conn(ctx), &positions, query, holderID); err != nil {
		return nil, r.db.dbError("position.list_by_holder", err, zap.Int64("holder_id", holderID))
	}
	return positions, nil
}

func (r *positionRepository) ListActiveByVillage(ctx context.Context, villageID int64, role domain.Role, at time.Time) ([]domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions
		WHERE scope_node_id = $1 AND role = $2
		  AND start_date <= $3 AND (end_date IS NULL OR end_date > $3)
		ORDER BY start_date, id`

	positions := make([]domain.Position, 0)
	if err := sqlx.SelectContext(ctx, r.db.conn(ctx), &positions, query, villageID, role, at); err != nil {
		return nil, r.db.dbError("position.list_active_by_village", err,
			zap.Int64("village_id", villageID), zap.String("role", string(role)))
	}
	return positions, nil
}

// LockActiveWorkers - row locks serialize concurrent assignments within one village
func (r *positionRepository) LockActiveWorkers(ctx context.Context, villageID int64, at time.Time) ([]domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions
		WHERE scope_node_id = $1 AND role = 'WORKER'
		  AND start_date <= $2 AND (end_date IS NULL OR end_date > $2)
		ORDER BY start_date, id
		FOR UPDATE`

	positions := make([]domain.Position, 0)
	if err := sqlx.SelectContext(ctx, r.db.conn(ctx), &positions, query, villageID, at); err != nil {
		return nil, r.db.dbError("position.lock_active_workers", err, zap.Int64("village_id", villageID))
	}
	return positions, nil
}
