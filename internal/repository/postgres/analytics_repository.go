package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/domain/repository"
	"github.com/sanitation-complaints/internal/pkg/errors"
)

// complaints joined with their village, block and district
const analyticsFrom = `
	FROM complaints c
	JOIN geography_nodes v ON v.id = c.village_id
	JOIN geography_nodes b ON b.id = v.parent_id
	JOIN geography_nodes d ON d.id = b.parent_id`

var levelAlias = map[domain.NodeKind]string{
	domain.NodeDistrict: "d",
	domain.NodeBlock:    "b",
	domain.NodeVillage:  "v",
}

type analyticsRepository struct {
	db *DB
}

func NewAnalyticsRepository(db *DB) repository.AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func analyticsWhere(q domain.AnalyticsQuery) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if q.Villages != nil {
		args = append(args, pq.Array(q.Villages.IDs()))
		conds = append(conds, fmt.Sprintf("c.village_id = ANY($%d)", len(args)))
	}
	if q.From != nil {
		args = append(args, *q.From)
		conds = append(conds, fmt.Sprintf("c.created_at >= $%d", len(args)))
	}
	if q.To != nil {
		args = append(args, *q.To)
		conds = append(conds, fmt.Sprintf("c.created_at < $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *analyticsRepository) CountByStatus(ctx context.Context, q domain.AnalyticsQuery) ([]domain.StatusCount, error) {
	counts := make([]domain.StatusCount, 0)
	if q.Villages != nil && len(q.Villages) == 0 {
		return counts, nil
	}

	alias, ok := levelAlias[q.Level]
	if !ok {
		return nil, errors.Validation("analytics.status", "unknown geography level", map[string]interface{}{
			"level": string(q.Level),
		})
	}

	where, args := analyticsWhere(q)
	query := fmt.Sprintf(`
		SELECT %[1]s.id AS node_id, %[1]s.name AS node_name, c.status AS status, COUNT(*) AS count
		%[2]s%[3]s
		GROUP BY %[1]s.id, %[1]s.name, c.status
		ORDER BY %[1]s.name, %[1]s.id, c.status`, alias, analyticsFrom, where)

	if err := sqlx.SelectContext(ctx, r.db.conn(ctx), &counts, query, args...); err != nil {
		return nil, r.db.dbError("analytics.count_by_status", err)
	}
	for i := range counts {
		counts[i].Level = q.Level
	}
	return counts, nil
}

func (r *analyticsRepository) CountByDay(ctx context.Context, q domain.AnalyticsQuery) ([]domain.DailyCount, error) {
	counts := make([]domain.DailyCount, 0)
	if q.Villages != nil && len(q.Villages) == 0 {
		return counts, nil
	}

	where, args := analyticsWhere(q)
	query := fmt.Sprintf(`
		SELECT date_trunc('day', c.created_at) AS day, c.status AS status, COUNT(*) AS count
		FROM complaints c%s
		GROUP BY 1, 2
		ORDER BY 1, 2`, where)

	if err := sqlx.SelectContext(ctx, r.db.conn(ctx), &counts, query, args...); err != nil {
		return nil, r.db.dbError("analytics.count_by_day", err)
	}
	return counts, nil
}

func (r *analyticsRepository) ResolutionStats(ctx context.Context, q domain.AnalyticsQuery) ([]domain.NodeResolution, error) {
	stats := make([]domain.NodeResolution, 0)
	if q.Villages != nil && len(q.Villages) == 0 {
		return stats, nil
	}

	alias, ok := levelAlias[q.Level]
	if !ok {
		return nil, errors.Validation("analytics.resolution", "unknown geography level", map[string]interface{}{
			"level": string(q.Level),
		})
	}

	where, args := analyticsWhere(q)
	query := fmt.Sprintf(`
		SELECT %[1]s.id AS node_id, %[1]s.name AS node_name,
			COUNT(*) AS total,
			COUNT(r.resolved_at) AS resolved,
			AVG(EXTRACT(EPOCH FROM r.resolved_at - c.created_at))::float8 AS avg_resolution_seconds
		%[2]s
		LEFT JOIN LATERAL (
			SELECT MIN(h.created_at) AS resolved_at
			FROM complaint_status_history h
			WHERE h.complaint_id = c.id AND h.to_status = '%[4]s'
		) r ON TRUE%[3]s
		GROUP BY %[1]s.id, %[1]s.name
		ORDER BY %[1]s.name, %[1]s.id`, alias, analyticsFrom, where, domain.StatusCompleted)

	if err := sqlx.SelectContext(ctx, r.db.conn(ctx), &stats, query, args...); err != nil {
		return nil, r.db.dbError("analytics.resolution_stats", err)
	}
	for i := range stats {
		stats[i].Level = q.Level
	}
	return stats, nil
}
