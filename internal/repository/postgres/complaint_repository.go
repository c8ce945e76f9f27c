package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/domain/repository"
	"github.com/sanitation-complaints/internal/pkg/errors"
	"go.uber.org/zap"
)

const complaintColumns = `id, village_id, complaint_type_id, description, mobile_number, status,
	assigned_worker_id, version, created_at, updated_at`

var complaintOrder = map[domain.OrderBy]string{
	domain.OrderNewest:  "created_at DESC, id DESC",
	domain.OrderOldest:  "created_at ASC, id ASC",
	domain.OrderStatus:  "status ASC, created_at DESC, id DESC",
	domain.OrderVillage: "village_id ASC, created_at DESC, id DESC",
}

type complaintRepository struct {
	db *DB
}

func NewComplaintRepository(db *DB) repository.ComplaintRepository {
	return &complaintRepository{db: db}
}

func (r *complaintRepository) Create(ctx context.Context, c *domain.Complaint) error {
	const query = `
		INSERT INTO complaints (village_id, complaint_type_id, description, mobile_number, status,
			assigned_worker_id, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $7)
		RETURNING id, version`

	err := r.db.conn(ctx).QueryRowxContext(ctx, query,
		c.VillageID, c.ComplaintTypeID, c.Description, c.MobileNumber, c.Status,
		c.AssignedWorkerID, c.CreatedAt,
	).Scan(&c.ID, &c.Version)
	if err != nil {
		return r.db.dbError("complaint.create", err, zap.Int64("village_id", c.VillageID))
	}
	c.UpdatedAt = c.CreatedAt
	return nil
}

func (r *complaintRepository) GetByID(ctx context.Context, id int64) (*domain.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id = $1`

	var c domain.Complaint
	if err := sqlx.GetContext(ctx, r.db.conn(ctx), &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("complaint", id)
		}
		return nil, r.db.dbError("complaint.get", err, zap.Int64("complaint_id", id))
	}
	return &c, nil
}

// UpdateStatus - compare-and-swap on (status, version)
func (r *complaintRepository) UpdateStatus(ctx context.Context, u repository.StatusUpdate) (*domain.Complaint, error) {
	query := `
		UPDATE complaints
		SET status = $1,
			assigned_worker_id = COALESCE($2, assigned_worker_id),
			version = version + 1,
			updated_at = $3
		WHERE id = $4 AND status = $5 AND version = $6
		RETURNING ` + complaintColumns

	var c domain.Complaint
	err := sqlx.GetContext(ctx, r.db.conn(ctx), &c, query,
		u.NewStatus, u.AssignedWorkerID, u.At, u.ComplaintID, u.ExpectedStatus, u.ExpectedVersion,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.db.logger.Warn("Complaint status update lost the race",
				zap.Int64("complaint_id", u.ComplaintID),
				zap.String("expected_status", string(u.ExpectedStatus)),
				zap.Int64("expected_version", u.ExpectedVersion))
			return nil, errors.Conflict("complaint", u.ComplaintID, "transition").WithDetails(map[string]interface{}{
				"from": string(u.ExpectedStatus),
				"to":   string(u.NewStatus),
			})
		}
		return nil, r.db.dbError("complaint.update_status", err, zap.Int64("complaint_id", u.ComplaintID))
	}
	return &c, nil
}

// complaintWhere - one predicate per set filter, numbered placeholders
func complaintWhere(q domain.ComplaintQuery) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if q.Villages != nil {
		add("village_id = ANY($%d)", pq.Array(q.Villages.IDs()))
	}
	if q.Status != nil {
		add("status = $%d", *q.Status)
	}
	if q.MobileNumber != nil {
		add("mobile_number = $%d", *q.MobileNumber)
	}
	if q.AssignedTo != nil {
		add("assigned_worker_id = $%d", *q.AssignedTo)
	}
	if q.From != nil {
		add("created_at >= $%d", *q.From)
	}
	if q.To != nil {
		add("created_at < $%d", *q.To)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *complaintRepository) List(ctx context.Context, q domain.ComplaintQuery) ([]domain.Complaint, int, error) {
	complaints := make([]domain.Complaint, 0)
	if q.Villages != nil && len(q.Villages) == 0 {
		return complaints, 0, nil
	}

	where, args := complaintWhere(q)

	var total int
	if err := sqlx.GetContext(ctx, r.db.conn(ctx), &total, `SELECT COUNT(*) FROM complaints`+where, args...); err != nil {
		return nil, 0, r.db.dbError("complaint.count", err)
	}
	if total == 0 {
		return complaints, 0, nil
	}

	order, ok := complaintOrder[q.OrderBy]
	if !ok {
		order = complaintOrder[domain.OrderNewest]
	}

	args = append(args, q.Limit, q.Skip)
	query := fmt.Sprintf(`SELECT %s FROM complaints%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		complaintColumns, where, order, len(args)-1, len(args))

	if err := sqlx.SelectContext(ctx, r.db.conn(ctx), &complaints, query, args...); err != nil {
		return nil, 0, r.db.dbError("complaint.list", err)
	}
	return complaints, total, nil
}

type loadRow struct {
	WorkerID int64 `db:"worker_id"`
	Load     int   `db:"load"`
}

func (r *complaintRepository) CountLoad(ctx context.Context, workerIDs []int64) (map[int64]int, error) {
	loads := make(map[int64]int, len(workerIDs))
	if len(workerIDs) == 0 {
		return loads, nil
	}

	const query = `
		SELECT assigned_worker_id AS worker_id, COUNT(*) AS load
		FROM complaints
		WHERE assigned_worker_id = ANY($1) AND status IN ('ASSIGNED', 'IN_PROGRESS')
		GROUP BY assigned_worker_id`

	var rows []loadRow
	if err := sqlx.SelectContext(ctx, r.db.conn(ctx), &rows, query, pq.Array(workerIDs)); err != nil {
		return nil, r.db.dbError("complaint.count_load", err)
	}
	for _, id := range workerIDs {
		loads[id] = 0
	}
	for _, row := range rows {
		loads[row.WorkerID] = row.Load
	}
	return loads, nil
}

func (r *complaintRepository) ListTypes(ctx context.Context) ([]domain.ComplaintType, error) {
	const query = `SELECT id, name, description FROM complaint_types ORDER BY name, id`

	types := make([]domain.ComplaintType, 0)
	if err := sqlx.SelectContext(ctx, r.db.conn(ctx), &types, query); err != nil {
		return nil, r.db.dbError("complaint_type.list", err)
	}
	return types, nil
}

func (r *complaintRepository) TypeExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, r.db.conn(ctx), &exists,
		`SELECT EXISTS(SELECT 1 FROM complaint_types WHERE id = $1)`, id)
	if err != nil {
		return false, r.db.dbError("complaint_type.exists", err, zap.Int64("complaint_type_id", id))
	}
	return exists, nil
}
