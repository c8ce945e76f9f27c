package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/domain/repository"
	"github.com/sanitation-complaints/internal/pkg/errors"
	"github.com/sanitation-complaints/internal/pkg/metrics"
	"github.com/sanitation-complaints/internal/usecase/dto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TransitionOptions - Note is stored as a comment; WorkerID only applies to OPEN -> ASSIGNED
type TransitionOptions struct {
	Note     string
	WorkerID *int64
}

// ComplaintUseCase drives the complaint lifecycle
type ComplaintUseCase struct {
	tx         repository.TxManager
	complaints repository.ComplaintRepository
	activity   repository.ActivityRepository
	positions  repository.PositionRepository
	geography  *GeographyUseCase
	authz      *AuthorizationUseCase
	assignment *AssignmentUseCase
	media      repository.MediaStore
	notifier   repository.Notifier
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

func NewComplaintUseCase(
	tx repository.TxManager,
	complaints repository.ComplaintRepository,
	activity repository.ActivityRepository,
	positions repository.PositionRepository,
	geography *GeographyUseCase,
	authz *AuthorizationUseCase,
	assignment *AssignmentUseCase,
	media repository.MediaStore,
	notifier repository.Notifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ComplaintUseCase {
	return &ComplaintUseCase{
		tx:         tx,
		complaints: complaints,
		activity:   activity,
		positions:  positions,
		geography:  geography,
		authz:      authz,
		assignment: assignment,
		media:      media,
		notifier:   notifier,
		metrics:    m,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create files a complaint and runs the assignment engine in the same transaction.
// A village without active workers leaves the complaint OPEN.
func (uc *ComplaintUseCase) Create(ctx context.Context, actor domain.Actor, req dto.CreateComplaintRequest) (*domain.Complaint, error) {
	if err := validate("complaint.create", req); err != nil {
		return nil, err
	}
	if !actor.IsCitizen() && !actor.IsSystem() {
		return nil, errors.Forbidden("complaint.create", map[string]interface{}{"actor": actor.String()})
	}

	mobile := req.MobileNumber
	if actor.IsCitizen() {
		m := actor.Mobile
		mobile = &m
	}

	if _, err := uc.geography.Village(ctx, req.VillageID); err != nil {
		return nil, err
	}
	exists, err := uc.complaints.TypeExists(ctx, req.ComplaintTypeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.Validation("complaint.create", "unknown complaint type", map[string]interface{}{
			"complaint_type_id": req.ComplaintTypeID,
		})
	}

	now := uc.now()
	c := &domain.Complaint{
		VillageID:       req.VillageID,
		ComplaintTypeID: req.ComplaintTypeID,
		Description:     strings.TrimSpace(req.Description),
		MobileNumber:    mobile,
		Status:          domain.StatusOpen,
		CreatedAt:       now,
	}

	var choice Choice
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.complaints.Create(ctx, c); err != nil {
			return err
		}
		if err := uc.recordChange(ctx, c.ID, nil, domain.StatusOpen, actor, "", now); err != nil {
			return err
		}

		var err error
		choice, err = uc.assignment.SelectWorkerLocked(ctx, c.VillageID)
		if err != nil || choice.Worker == nil {
			return err
		}

		assigned, err := uc.complaints.UpdateStatus(ctx, repository.StatusUpdate{
			ComplaintID:      c.ID,
			ExpectedStatus:   domain.StatusOpen,
			ExpectedVersion:  c.Version,
			NewStatus:        domain.StatusAssigned,
			AssignedWorkerID: choice.Worker,
			At:               now,
		})
		if err != nil {
			return err
		}
		from := domain.StatusOpen
		if err := uc.recordChange(ctx, c.ID, &from, domain.StatusAssigned, domain.SystemActor(), "", now); err != nil {
			return err
		}
		c = assigned
		return nil
	})
	if err != nil {
		uc.logger.Error("Failed to create complaint",
			zap.Int64("village_id", req.VillageID), zap.Error(err))
		return nil, err
	}

	uc.logger.Info("Complaint created",
		zap.Int64("complaint_id", c.ID),
		zap.Int64("village_id", c.VillageID),
		zap.String("status", string(c.Status)))

	uc.afterCreate(ctx, c, choice)
	return c, nil
}

func (uc *ComplaintUseCase) afterCreate(ctx context.Context, c *domain.Complaint, choice Choice) {
	if c.MobileNumber != nil {
		uc.notify(ctx, domain.Notification{
			EventType: domain.EventComplaintCreated,
			Mobiles:   []string{*c.MobileNumber},
			Payload:   complaintPayload(c),
		})
	}

	if choice.Worker != nil {
		uc.metrics.IncAssignment("assigned")
		uc.notify(ctx, domain.Notification{
			EventType: domain.EventComplaintAssigned,
			ActorIDs:  []int64{*choice.Worker},
			Payload:   complaintPayload(c),
		})
		return
	}

	uc.metrics.IncAssignment("unassigned")
	uc.logger.Warn("No active worker in village, complaint left OPEN",
		zap.Int64("complaint_id", c.ID), zap.Int64("village_id", c.VillageID))

	vdos, err := uc.positions.ListActiveByVillage(ctx, c.VillageID, domain.RoleVDO, uc.now())
	if err != nil {
		uc.logger.Warn("Failed to look up VDOs for unassigned complaint",
			zap.Int64("complaint_id", c.ID), zap.Error(err))
		return
	}
	ids := make([]int64, 0, len(vdos))
	for _, p := range vdos {
		ids = append(ids, p.HolderID)
	}
	uc.notify(ctx, domain.Notification{
		EventType: domain.EventComplaintUnassigned,
		ActorIDs:  ids,
		Payload:   complaintPayload(c),
	})
}

// Transition moves a complaint along the lifecycle table. Authorization is
// resolved fresh; the status write is a compare-and-swap on (status, version).
func (uc *ComplaintUseCase) Transition(ctx context.Context, actor domain.Actor, complaintID int64, target domain.Status, opts TransitionOptions) (*domain.Complaint, error) {
	from := "unknown"
	updated, err := uc.transition(ctx, actor, complaintID, target, opts, &from)
	uc.metrics.IncTransition(from, string(target), resultLabel(err))
	if err != nil {
		uc.logger.Info("Complaint transition rejected",
			zap.Int64("complaint_id", complaintID),
			zap.String("actor", actor.String()),
			zap.String("from", from),
			zap.String("to", string(target)),
			zap.Error(err))
		return nil, err
	}

	uc.logger.Info("Complaint transitioned",
		zap.Int64("complaint_id", complaintID),
		zap.String("actor", actor.String()),
		zap.String("from", from),
		zap.String("to", string(target)))

	uc.afterTransition(ctx, actor, updated, domain.Status(from))
	return updated, nil
}

func (uc *ComplaintUseCase) transition(ctx context.Context, actor domain.Actor, complaintID int64, target domain.Status, opts TransitionOptions, from *string) (*domain.Complaint, error) {
	if !target.Valid() {
		return nil, errors.Validation("transition", "unknown target status", map[string]interface{}{
			"complaint_id": complaintID,
			"to":           string(target),
		})
	}

	j, err := uc.authz.ResolveFresh(ctx, actor)
	if err != nil {
		return nil, err
	}

	note := strings.TrimSpace(opts.Note)
	var updated *domain.Complaint
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := uc.complaints.GetByID(ctx, complaintID)
		if err != nil {
			return err
		}
		*from = string(c.Status)

		if !actor.IsSystem() && !canRead(actor, j, c) {
			return errors.Forbidden("transition", map[string]interface{}{
				"complaint_id": c.ID,
				"village_id":   c.VillageID,
			})
		}

		rule, ok := domain.LookupTransition(c.Status, target)
		if !ok {
			return errors.InvalidTransition(c.ID, string(c.Status), string(target))
		}
		if !rule.Permits(actor, j, c) {
			return errors.Forbidden("transition", map[string]interface{}{
				"complaint_id": c.ID,
				"from":         string(c.Status),
				"to":           string(target),
			})
		}
		if err := uc.checkPreconditions(ctx, actor, c, rule, note, opts); err != nil {
			return err
		}

		var worker *int64
		if rule.AssignsWorker {
			if worker, err = uc.chooseWorker(ctx, c, opts.WorkerID); err != nil {
				return err
			}
		}

		now := uc.now()
		updated, err = uc.complaints.UpdateStatus(ctx, repository.StatusUpdate{
			ComplaintID:      c.ID,
			ExpectedStatus:   c.Status,
			ExpectedVersion:  c.Version,
			NewStatus:        target,
			AssignedWorkerID: worker,
			At:               now,
		})
		if err != nil {
			return err
		}

		if note != "" {
			authorID, authorMobile := domain.Authorship(actor)
			if err := uc.activity.AddComment(ctx, &domain.Comment{
				ComplaintID:  c.ID,
				AuthorID:     authorID,
				AuthorMobile: authorMobile,
				Text:         note,
				CreatedAt:    now,
			}); err != nil {
				return err
			}
		}

		previous := c.Status
		return uc.recordChange(ctx, c.ID, &previous, target, actor, note, now)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (uc *ComplaintUseCase) checkPreconditions(ctx context.Context, actor domain.Actor, c *domain.Complaint, rule domain.TransitionRule, note string, opts TransitionOptions) error {
	details := map[string]interface{}{
		"complaint_id": c.ID,
		"from":         string(rule.From),
		"to":           string(rule.To),
	}

	if opts.WorkerID != nil && !rule.AssignsWorker {
		return errors.Validation("transition", "worker_id is only accepted when assigning", details)
	}
	if rule.NoteRequired && note == "" {
		return errors.Validation("transition", "an explanatory note is required", details)
	}
	if rule.EvidenceRequired && note == "" {
		found, err := uc.activity.HasEvidenceBy(ctx, c.ID, actor.ID)
		if err != nil {
			return err
		}
		if !found {
			return errors.Validation("transition", "a resolution comment or media is required", details)
		}
	}
	return nil
}

// chooseWorker locks the village's workers; an explicit worker must be one of them
func (uc *ComplaintUseCase) chooseWorker(ctx context.Context, c *domain.Complaint, requested *int64) (*int64, error) {
	choice, err := uc.assignment.SelectWorkerLocked(ctx, c.VillageID)
	if err != nil {
		return nil, err
	}

	switch {
	case requested != nil:
		if !choice.allows(*requested) {
			return nil, errors.Validation("transition", "worker has no active WORKER position in the village", map[string]interface{}{
				"complaint_id": c.ID,
				"village_id":   c.VillageID,
				"worker_id":    *requested,
			})
		}
		return requested, nil
	case choice.Worker == nil:
		return nil, errors.Validation("transition", "village has no active worker", map[string]interface{}{
			"complaint_id": c.ID,
			"village_id":   c.VillageID,
		})
	default:
		return choice.Worker, nil
	}
}

func (uc *ComplaintUseCase) afterTransition(ctx context.Context, actor domain.Actor, c *domain.Complaint, from domain.Status) {
	payload := complaintPayload(c)
	payload["from"] = string(from)

	if c.Status == domain.StatusAssigned && c.AssignedWorkerID != nil {
		uc.metrics.IncAssignment("assigned")
		uc.notify(ctx, domain.Notification{
			EventType: domain.EventComplaintAssigned,
			ActorIDs:  []int64{*c.AssignedWorkerID},
			Payload:   payload,
		})
	}

	ids, mobiles := recipients(c, actor)
	uc.notify(ctx, domain.Notification{
		EventType: domain.EventStatusChanged,
		ActorIDs:  ids,
		Mobiles:   mobiles,
		Payload:   payload,
	})
}

// List returns the complaints the actor may see. Citizens see their own complaints.
func (uc *ComplaintUseCase) List(ctx context.Context, actor domain.Actor, req dto.ListComplaintsRequest) (*dto.ComplaintListResponse, error) {
	if err := validate("complaint.list", req); err != nil {
		return nil, err
	}

	q := domain.ComplaintQuery{
		AssignedTo: req.AssignedTo,
		From:       req.From,
		To:         req.To,
		OrderBy:    domain.OrderNewest,
		Skip:       req.Skip,
		Limit:      pageLimit(req.Limit),
	}
	if req.OrderBy != "" {
		q.OrderBy = domain.OrderBy(req.OrderBy)
	}
	if req.Status != "" {
		s := domain.Status(req.Status)
		q.Status = &s
	}

	switch {
	case actor.IsCitizen():
		m := actor.Mobile
		q.MobileNumber = &m
	case actor.IsStaff():
		filter, err := uc.authz.VillageFilter(ctx, actor)
		if err != nil {
			return nil, err
		}
		q.Villages = filter
	case actor.IsSystem():
	default:
		return nil, errors.Forbidden("complaint.list", nil)
	}

	scope := uc.geography.NewScope()
	for _, nodeID := range []*int64{req.VillageID, req.BlockID, req.DistrictID} {
		if nodeID == nil {
			continue
		}
		villages, err := scope.Descendants(ctx, *nodeID)
		if err != nil {
			return nil, err
		}
		if q.Villages == nil {
			q.Villages = villages
		} else {
			q.Villages = q.Villages.Intersect(villages)
		}
	}

	items, total, err := uc.complaints.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &dto.ComplaintListResponse{
		Complaints: items,
		Total:      total,
		Skip:       q.Skip,
		Limit:      q.Limit,
	}, nil
}

// Get returns the complaint with comments, media and status history
func (uc *ComplaintUseCase) Get(ctx context.Context, actor domain.Actor, id int64) (*domain.ComplaintDetails, error) {
	c, err := uc.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsSystem() {
		j, err := uc.authz.ResolveJurisdiction(ctx, actor)
		if err != nil {
			return nil, err
		}
		if !canRead(actor, j, c) {
			return nil, errors.Forbidden("complaint.get", map[string]interface{}{
				"complaint_id": c.ID,
				"village_id":   c.VillageID,
			})
		}
	}

	details := &domain.ComplaintDetails{Complaint: c}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		details.Comments, err = uc.activity.ListComments(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		details.Media, err = uc.activity.ListMedia(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		details.History, err = uc.activity.ListStatusChanges(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return details, nil
}

// AddComment - assignee, VDO and above in the village, or the filing citizen
func (uc *ComplaintUseCase) AddComment(ctx context.Context, actor domain.Actor, complaintID int64, req dto.CommentRequest) (*domain.Comment, error) {
	if err := validate("complaint.comment", req); err != nil {
		return nil, err
	}

	var (
		c       *domain.Complaint
		comment *domain.Comment
	)
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if c, err = uc.complaints.GetByID(ctx, complaintID); err != nil {
			return err
		}
		allowed, err := uc.authz.CanMutateComplaint(ctx, actor, c)
		if err != nil {
			return err
		}
		if !allowed {
			return errors.Forbidden("complaint.comment", map[string]interface{}{
				"complaint_id": c.ID,
				"village_id":   c.VillageID,
			})
		}

		authorID, authorMobile := domain.Authorship(actor)
		comment = &domain.Comment{
			ComplaintID:  c.ID,
			AuthorID:     authorID,
			AuthorMobile: authorMobile,
			Text:         strings.TrimSpace(req.Text),
			CreatedAt:    uc.now(),
		}
		return uc.activity.AddComment(ctx, comment)
	})
	if err != nil {
		return nil, err
	}

	ids, mobiles := recipients(c, actor)
	payload := complaintPayload(c)
	payload["comment_id"] = comment.ID
	uc.notify(ctx, domain.Notification{
		EventType: domain.EventCommentAdded,
		ActorIDs:  ids,
		Mobiles:   mobiles,
		Payload:   payload,
	})
	return comment, nil
}

// AddMedia stores the bytes first; the stored object is removed again when the row insert fails
func (uc *ComplaintUseCase) AddMedia(ctx context.Context, actor domain.Actor, complaintID int64, data []byte, filename string) (*domain.Media, error) {
	c, err := uc.complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	allowed, err := uc.authz.CanMutateComplaint(ctx, actor, c)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, errors.Forbidden("complaint.media", map[string]interface{}{
			"complaint_id": c.ID,
			"village_id":   c.VillageID,
		})
	}

	url, err := uc.media.Store(ctx, data, filename)
	if err != nil {
		return nil, err
	}

	uploaderID, uploaderMobile := domain.Authorship(actor)
	m := &domain.Media{
		ComplaintID:      c.ID,
		URL:              url,
		UploadedByID:     uploaderID,
		UploadedByMobile: uploaderMobile,
		UploadedAt:       uc.now(),
	}
	if err := uc.activity.AddMedia(ctx, m); err != nil {
		if delErr := uc.media.Delete(context.WithoutCancel(ctx), url); delErr != nil {
			uc.logger.Error("Failed to remove orphaned media",
				zap.Int64("complaint_id", c.ID),
				zap.String("url", url),
				zap.Error(delErr))
		}
		return nil, err
	}

	uc.logger.Info("Media attached",
		zap.Int64("complaint_id", c.ID),
		zap.Int64("media_id", m.ID))
	return m, nil
}

func (uc *ComplaintUseCase) ListTypes(ctx context.Context) ([]domain.ComplaintType, error) {
	return uc.complaints.ListTypes(ctx)
}

func (uc *ComplaintUseCase) recordChange(ctx context.Context, complaintID int64, from *domain.Status, to domain.Status, actor domain.Actor, note string, at time.Time) error {
	actorID, actorMobile := domain.Authorship(actor)
	change := &domain.StatusChange{
		ComplaintID: complaintID,
		FromStatus:  from,
		ToStatus:    to,
		ActorID:     actorID,
		ActorMobile: actorMobile,
		CreatedAt:   at,
	}
	if note != "" {
		change.Note = &note
	}
	return uc.activity.AddStatusChange(ctx, change)
}

// notify runs after commit; failures are logged and never surface to the caller
func (uc *ComplaintUseCase) notify(ctx context.Context, n domain.Notification) {
	if !n.HasRecipients() {
		return
	}
	n.CreatedAt = uc.now()
	if err := uc.notifier.Notify(context.WithoutCancel(ctx), n); err != nil {
		uc.logger.Warn("Failed to publish notification",
			zap.String("event_type", n.EventType),
			zap.Error(err))
	}
}

// recipients - the filing citizen and the assignee, minus whoever caused the event
func recipients(c *domain.Complaint, actor domain.Actor) ([]int64, []string) {
	var (
		ids     []int64
		mobiles []string
	)
	if c.AssignedWorkerID != nil && !(actor.IsStaff() && actor.ID == *c.AssignedWorkerID) {
		ids = append(ids, *c.AssignedWorkerID)
	}
	if c.MobileNumber != nil && !(actor.IsCitizen() && actor.Mobile == *c.MobileNumber) {
		mobiles = append(mobiles, *c.MobileNumber)
	}
	return ids, mobiles
}

func complaintPayload(c *domain.Complaint) map[string]interface{} {
	return map[string]interface{}{
		"complaint_id": c.ID,
		"village_id":   c.VillageID,
		"status":       string(c.Status),
	}
}
