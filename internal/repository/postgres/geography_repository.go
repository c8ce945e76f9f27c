package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/domain/repository"
	"github.com/sanitation-complaints/internal/pkg/errors"
	"go.uber.org/zap"
)

type geographyRepository struct {
	db *DB
}

func NewGeographyRepository(db *DB) repository.GeographyRepository {
	return &geographyRepository{db: db}
}

func (r *geographyRepository) GetByID(ctx context.Context, id int64) (*domain.GeographyNode, error) {
	const query = `SELECT id, kind, parent_id, name FROM geography_nodes WHERE id = $1`

	var node domain.GeographyNode
	if err := sqlx.GetContext(ctx, r.db.conn(ctx), &node, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("geography_node", id)
		}
		return nil, r.db.dbError("geography.get", err, zap.Int64("node_id", id))
	}
	return &node, nil
}

// Ancestors - district first, the node itself last
func (r *geographyRepository) Ancestors(ctx context.Context, id int64) ([]domain.GeographyNode, error) {
	const query = `
		WITH RECURSIVE chain AS (
			SELECT id, kind, parent_id, name, 0 AS depth
			FROM geography_nodes
			WHERE id = $1
			UNION ALL
			SELECT g.id, g.kind, g.parent_id, g.name, c.depth + 1
			FROM geography_nodes g
			JOIN chain c ON g.id = c.parent_id
			WHERE c.depth < 3
		)
		SELECT id, kind, parent_id, name FROM chain ORDER BY depth DESC`

	var chain []domain.GeographyNode
	if err := sqlx.SelectContext(ctx, r.db.conn(ctx), &chain, query, id); err != nil {
		return nil, r.db.dbError("geography.ancestors", err, zap.Int64("node_id", id))
	}
	if len(chain) == 0 {
		return nil, errors.NotFound("geography_node", id)
	}
	if err := domain.CheckChain(chain); err != nil {
		r.db.logger.Error("Geography integrity violation", zap.Int64("node_id", id), zap.Error(err))
		return nil, errors.ErrInternalServer.WithDetails(map[string]interface{}{
			"operation": "geography.ancestors",
			"node_id":   id,
			"reason":    err.Error(),
		})
	}
	return chain, nil
}

type subtreeRow struct {
	ID   int64           `db:"id"`
	Kind domain.NodeKind `db:"kind"`
}

// DescendantVillages - the whole subtree in one query; a village yields itself
func (r *geographyRepository) DescendantVillages(ctx context.Context, id int64) ([]int64, error) {
	const query = `
		WITH RECURSIVE subtree AS (
			SELECT id, kind, 0 AS depth
			FROM geography_nodes
			WHERE id = $1
			UNION ALL
			SELECT g.id, g.kind, s.depth + 1
			FROM geography_nodes g
			JOIN subtree s ON g.parent_id = s.id
			WHERE s.depth < 2
		)
		SELECT id, kind FROM subtree ORDER BY id`

	var rows []subtreeRow
	if err := sqlx.SelectContext(ctx, r.db.conn(ctx), &rows, query, id); err != nil {
		return nil, r.db.dbError("geography.descendants", err, zap.Int64("node_id", id))
	}
	if len(rows) == 0 {
		return nil, errors.NotFound("geography_node", id)
	}

	villages := make([]int64, 0, len(rows))
	for _, row := range rows {
		if row.Kind == domain.NodeVillage {
			villages = append(villages, row.ID)
		}
	}
	return villages, nil
}

func (r *geographyRepository) Children(ctx context.Context, id int64) ([]domain.GeographyNode, error) {
	const query = `SELECT id, kind, parent_id, name FROM geography_nodes WHERE parent_id = $1 ORDER BY name, id`

	nodes := make([]domain.GeographyNode, 0)
	if err := sqlx.SelectContext(ctx, r.db.conn(ctx), &nodes, query, id); err != nil {
		return nil, r.db.dbError("geography.children", err, zap.Int64("node_id", id))
	}
	return nodes, nil
}

func (r *geographyRepository) Districts(ctx context.Context) ([]domain.GeographyNode, error) {
	const query = `SELECT id, kind, parent_id, name FROM geography_nodes WHERE kind = 'DISTRICT' ORDER BY name, id`

	nodes := make([]domain.GeographyNode, 0)
	if err := sqlx.SelectContext(ctx, r.db.conn(ctx), &nodes, query); err != nil {
		return nil, r.db.dbError("geography.districts", err)
	}
	return nodes, nil
}
