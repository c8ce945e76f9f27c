package usecase

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/domain/repository"
	"github.com/sanitation-complaints/internal/pkg/errors"
	"github.com/sanitation-complaints/internal/pkg/metrics"
)

// fakeStore - in-memory persistence shared by the fake repositories
type fakeStore struct {
	mu         sync.Mutex
	nodes      map[int64]domain.GeographyNode
	positions  []domain.Position
	complaints map[int64]domain.Complaint
	types      map[int64]domain.ComplaintType
	comments   []domain.Comment
	media      []domain.Media
	history    []domain.StatusChange
	nextID     int64

	descendantCalls int
	holderCalls     int
	lockCalls       int
	failAddMedia    error
	beforeUpdate    func(ctx context.Context, u repository.StatusUpdate)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nodes:      make(map[int64]domain.GeographyNode),
		complaints: make(map[int64]domain.Complaint),
		types:      make(map[int64]domain.ComplaintType),
		nextID:     1000,
	}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) addNode(id int64, kind domain.NodeKind, parent int64, name string) {
	n := domain.GeographyNode{ID: id, Kind: kind, Name: name}
	if parent != 0 {
		p := parent
		n.ParentID = &p
	}
	s.nodes[id] = n
}

func (s *fakeStore) addPosition(id, holder int64, role domain.Role, scope int64, start time.Time, end *time.Time) {
	p := domain.Position{ID: id, HolderID: holder, Role: role, StartDate: start, EndDate: end}
	if scope != 0 {
		sc := scope
		p.ScopeNodeID = &sc
	}
	s.positions = append(s.positions, p)
}

func (s *fakeStore) seedComplaint(villageID int64, status domain.Status, worker *int64, mobile string) domain.Complaint {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := domain.Complaint{
		ID:               s.id(),
		VillageID:        villageID,
		ComplaintTypeID:  1,
		Description:      "seeded complaint",
		Status:           status,
		AssignedWorkerID: worker,
		Version:          1,
		CreatedAt:        time.Now().UTC(),
	}
	if mobile != "" {
		m := mobile
		c.MobileNumber = &m
	}
	c.UpdatedAt = c.CreatedAt
	s.complaints[c.ID] = c
	return c
}

func (s *fakeStore) complaint(id int64) domain.Complaint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complaints[id]
}

func (s *fakeStore) statusWalk(complaintID int64) []domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	var walk []domain.Status
	for _, h := range s.history {
		if h.ComplaintID == complaintID {
			walk = append(walk, h.ToStatus)
		}
	}
	return walk
}

// ---- TxManager

type fakeTx struct{ *fakeStore }

// fakeTx runs fn directly; tests only fail transactions before their first write
func (t fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ---- GeographyRepository

type fakeGeo struct{ *fakeStore }

func (g fakeGeo) GetByID(_ context.Context, id int64) (*domain.GeographyNode, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok {
		return nil, errors.NotFound("geography_node", id)
	}
	return &n, nil
}

func (g fakeGeo) Ancestors(_ context.Context, id int64) ([]domain.GeographyNode, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok {
		return nil, errors.NotFound("geography_node", id)
	}
	chain := []domain.GeographyNode{n}
	for n.ParentID != nil {
		n = g.nodes[*n.ParentID]
		chain = append([]domain.GeographyNode{n}, chain...)
	}
	return chain, nil
}

func (g fakeGeo) DescendantVillages(_ context.Context, id int64) ([]int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.descendantCalls++
	if _, ok := g.nodes[id]; !ok {
		return nil, errors.NotFound("geography_node", id)
	}
	var out []int64
	for _, n := range g.nodes {
		if n.Kind != domain.NodeVillage {
			continue
		}
		for cur := n; ; {
			if cur.ID == id {
				out = append(out, n.ID)
				break
			}
			if cur.ParentID == nil {
				break
			}
			cur = g.nodes[*cur.ParentID]
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (g fakeGeo) Children(_ context.Context, id int64) ([]domain.GeographyNode, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.GeographyNode, 0)
	for _, n := range g.nodes {
		if n.ParentID != nil && *n.ParentID == id {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (g fakeGeo) Districts(_ context.Context) ([]domain.GeographyNode, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.GeographyNode, 0)
	for _, n := range g.nodes {
		if n.Kind == domain.NodeDistrict {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ---- PositionRepository

type fakePositions struct{ *fakeStore }

func (p fakePositions) Create(_ context.Context, pos *domain.Position) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos.ID = p.id()
	p.positions = append(p.positions, *pos)
	return nil
}

func (p fakePositions) GetByID(_ context.Context, id int64) (*domain.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pos := range p.positions {
		if pos.ID == id {
			return &pos, nil
		}
	}
	return nil, errors.NotFound("position", id)
}

func (p fakePositions) End(_ context.Context, id int64, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, pos := range p.positions {
		if pos.ID != id {
			continue
		}
		if !pos.StartDate.Before(at) || (pos.EndDate != nil && !pos.EndDate.After(at)) {
			return errors.Validation("position.end", "position is not open at the requested end date", nil)
		}
		end := at
		p.positions[i].EndDate = &end
		return nil
	}
	return errors.Validation("position.end", "position is not open at the requested end date", nil)
}

func (p fakePositions) ListByHolder(_ context.Context, holderID int64) ([]domain.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.holderCalls++
	out := make([]domain.Position, 0)
	for _, pos := range p.positions {
		if pos.HolderID == holderID {
			out = append(out, pos)
		}
	}
	return out, nil
}

func (p fakePositions) active(villageID int64, role domain.Role, at time.Time) []domain.Position {
	out := make([]domain.Position, 0)
	for _, pos := range p.positions {
		if pos.Role == role && pos.ScopeNodeID != nil && *pos.ScopeNodeID == villageID && pos.IsActive(at) {
			out = append(out, pos)
		}
	}
	sort.Slice(out, func(i, j int) bool { return earlier(out[i], out[j]) })
	return out
}

func (p fakePositions) ListActiveByVillage(_ context.Context, villageID int64, role domain.Role, at time.Time) ([]domain.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active(villageID, role, at), nil
}

func (p fakePositions) LockActiveWorkers(_ context.Context, villageID int64, at time.Time) ([]domain.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lockCalls++
	return p.active(villageID, domain.RoleWorker, at), nil
}

// ---- ComplaintRepository

type fakeComplaints struct{ *fakeStore }

func (f fakeComplaints) Create(_ context.Context, c *domain.Complaint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = f.id()
	c.Version = 1
	c.UpdatedAt = c.CreatedAt
	f.complaints[c.ID] = *c
	return nil
}

func (f fakeComplaints) GetByID(_ context.Context, id int64) (*domain.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.complaints[id]
	if !ok {
		return nil, errors.NotFound("complaint", id)
	}
	return &c, nil
}

func (f fakeComplaints) UpdateStatus(ctx context.Context, u repository.StatusUpdate) (*domain.Complaint, error) {
	if hook := f.beforeUpdate; hook != nil {
		f.beforeUpdate = nil
		hook(ctx, u)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.complaints[u.ComplaintID]
	if !ok || c.Status != u.ExpectedStatus || c.Version != u.ExpectedVersion {
		return nil, errors.Conflict("complaint", u.ComplaintID, "transition")
	}
	c.Status = u.NewStatus
	if u.AssignedWorkerID != nil {
		w := *u.AssignedWorkerID
		c.AssignedWorkerID = &w
	}
	c.Version++
	c.UpdatedAt = u.At
	f.complaints[c.ID] = c
	return &c, nil
}

func (f fakeComplaints) List(_ context.Context, q domain.ComplaintQuery) ([]domain.Complaint, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []domain.Complaint
	for _, c := range f.complaints {
		switch {
		case q.Villages != nil && !q.Villages.Has(c.VillageID):
		case q.Status != nil && c.Status != *q.Status:
		case q.MobileNumber != nil && (c.MobileNumber == nil || *c.MobileNumber != *q.MobileNumber):
		case q.AssignedTo != nil && !c.IsAssignedTo(*q.AssignedTo):
		default:
			matched = append(matched, c)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	if q.Skip >= total {
		return []domain.Complaint{}, total, nil
	}
	end := q.Skip + q.Limit
	if end > total {
		end = total
	}
	return matched[q.Skip:end], total, nil
}

func (f fakeComplaints) CountLoad(_ context.Context, workerIDs []int64) (map[int64]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	loads := make(map[int64]int, len(workerIDs))
	for _, id := range workerIDs {
		loads[id] = 0
	}
	for _, c := range f.complaints {
		if c.AssignedWorkerID == nil || !c.Status.CountsAsLoad() {
			continue
		}
		if _, ok := loads[*c.AssignedWorkerID]; ok {
			loads[*c.AssignedWorkerID]++
		}
	}
	return loads, nil
}

func (f fakeComplaints) ListTypes(_ context.Context) ([]domain.ComplaintType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ComplaintType, 0, len(f.types))
	for _, t := range f.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f fakeComplaints) TypeExists(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.types[id]
	return ok, nil
}

// ---- ActivityRepository

type fakeActivity struct{ *fakeStore }

func (a fakeActivity) AddComment(_ context.Context, c *domain.Comment) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	c.ID = a.id()
	a.comments = append(a.comments, *c)
	return nil
}

func (a fakeActivity) ListComments(_ context.Context, complaintID int64) ([]domain.Comment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.Comment, 0)
	for _, c := range a.comments {
		if c.ComplaintID == complaintID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (a fakeActivity) AddMedia(_ context.Context, m *domain.Media) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failAddMedia != nil {
		return a.failAddMedia
	}
	m.ID = a.id()
	a.media = append(a.media, *m)
	return nil
}

func (a fakeActivity) ListMedia(_ context.Context, complaintID int64) ([]domain.Media, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.Media, 0)
	for _, m := range a.media {
		if m.ComplaintID == complaintID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (a fakeActivity) AddStatusChange(_ context.Context, sc *domain.StatusChange) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	sc.ID = a.id()
	a.history = append(a.history, *sc)
	return nil
}

func (a fakeActivity) ListStatusChanges(_ context.Context, complaintID int64) ([]domain.StatusChange, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.StatusChange, 0)
	for _, h := range a.history {
		if h.ComplaintID == complaintID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (a fakeActivity) HasEvidenceBy(_ context.Context, complaintID, authorID int64) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range a.comments {
		if c.ComplaintID == complaintID && c.AuthorID != nil && *c.AuthorID == authorID {
			return true, nil
		}
	}
	for _, m := range a.media {
		if m.ComplaintID == complaintID && m.UploadedByID != nil && *m.UploadedByID == authorID {
			return true, nil
		}
	}
	return false, nil
}

// ---- collaborators mocked with testify

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, n domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// sent returns the notifications of the given event type
func (m *mockNotifier) sent(eventType string) []domain.Notification {
	var out []domain.Notification
	for _, call := range m.Calls {
		if n := call.Arguments.Get(1).(domain.Notification); n.EventType == eventType {
			out = append(out, n)
		}
	}
	return out
}

type mockMediaStore struct {
	mock.Mock
}

func (m *mockMediaStore) Store(ctx context.Context, data []byte, filename string) (string, error) {
	args := m.Called(ctx, data, filename)
	return args.String(0), args.Error(1)
}

func (m *mockMediaStore) Delete(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

type mockJurisdictionCache struct {
	mock.Mock
}

func (m *mockJurisdictionCache) Get(ctx context.Context, actorID int64) (*domain.Jurisdiction, int64, error) {
	args := m.Called(ctx, actorID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).(*domain.Jurisdiction), args.Get(1).(int64), args.Error(2)
}

func (m *mockJurisdictionCache) Set(ctx context.Context, j *domain.Jurisdiction, epoch int64, ttl time.Duration) error {
	args := m.Called(ctx, j, epoch, ttl)
	return args.Error(0)
}

func (m *mockJurisdictionCache) Invalidate(ctx context.Context, actorID int64) error {
	args := m.Called(ctx, actorID)
	return args.Error(0)
}

type mockAnalyticsRepository struct {
	mock.Mock
}

func (m *mockAnalyticsRepository) CountByStatus(ctx context.Context, q domain.AnalyticsQuery) ([]domain.StatusCount, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StatusCount), args.Error(1)
}

func (m *mockAnalyticsRepository) CountByDay(ctx context.Context, q domain.AnalyticsQuery) ([]domain.DailyCount, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DailyCount), args.Error(1)
}

func (m *mockAnalyticsRepository) ResolutionStats(ctx context.Context, q domain.AnalyticsQuery) ([]domain.NodeResolution, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.NodeResolution), args.Error(1)
}

// ---- world

// Holders in the Jaipur / Sanganer / Bagru fixture
const (
	adminID       int64 = 100
	workerBagru   int64 = 500
	workerRetired int64 = 501
	workerAjmer   int64 = 502
	vdoBagru      int64 = 600
	vdoMuhana     int64 = 601
	bdoSanganer   int64 = 700
	ceoJaipur     int64 = 800
	ceoAjmer      int64 = 900

	districtJaipur   int64 = 1
	blockSanganer    int64 = 2
	villageBagru     int64 = 3
	villageMuhana    int64 = 4
	blockAmber       int64 = 5
	villageKunda     int64 = 6
	districtAjmer    int64 = 10
	blockKishangarh  int64 = 11
	villageRoopangar int64 = 12

	citizenMobile = "9876543210"
)

type testEnv struct {
	store      *fakeStore
	notifier   *mockNotifier
	media      *mockMediaStore
	geography  *GeographyUseCase
	authz      *AuthorizationUseCase
	assignment *AssignmentUseCase
	complaints *ComplaintUseCase
	positions  *PositionUseCase
}

var fixtureStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func newWorld() *fakeStore {
	s := newFakeStore()
	s.addNode(districtJaipur, domain.NodeDistrict, 0, "Jaipur")
	s.addNode(blockSanganer, domain.NodeBlock, districtJaipur, "Sanganer")
	s.addNode(villageBagru, domain.NodeVillage, blockSanganer, "Bagru")
	s.addNode(villageMuhana, domain.NodeVillage, blockSanganer, "Muhana")
	s.addNode(blockAmber, domain.NodeBlock, districtJaipur, "Amber")
	s.addNode(villageKunda, domain.NodeVillage, blockAmber, "Kunda")
	s.addNode(districtAjmer, domain.NodeDistrict, 0, "Ajmer")
	s.addNode(blockKishangarh, domain.NodeBlock, districtAjmer, "Kishangarh")
	s.addNode(villageRoopangar, domain.NodeVillage, blockKishangarh, "Roopangarh")

	retiredStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	retiredEnd := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	s.addPosition(1, workerBagru, domain.RoleWorker, villageBagru, fixtureStart, nil)
	s.addPosition(2, vdoBagru, domain.RoleVDO, villageBagru, fixtureStart, nil)
	s.addPosition(3, bdoSanganer, domain.RoleBDO, blockSanganer, fixtureStart, nil)
	s.addPosition(4, ceoJaipur, domain.RoleCEO, districtJaipur, fixtureStart, nil)
	s.addPosition(5, ceoAjmer, domain.RoleCEO, districtAjmer, fixtureStart, nil)
	s.addPosition(6, workerRetired, domain.RoleWorker, villageBagru, retiredStart, &retiredEnd)
	s.addPosition(7, adminID, domain.RoleAdmin, 0, fixtureStart, nil)
	s.addPosition(8, workerAjmer, domain.RoleWorker, villageRoopangar, fixtureStart, nil)
	s.addPosition(9, vdoMuhana, domain.RoleVDO, villageMuhana, fixtureStart, nil)

	s.types[1] = domain.ComplaintType{ID: 1, Name: "Garbage"}
	s.types[2] = domain.ComplaintType{ID: 2, Name: "Drainage"}
	return s
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newWorld()
	logger := zap.NewNop()
	m := metrics.NewNop()

	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)
	media := &mockMediaStore{}

	geography := NewGeographyUseCase(fakeGeo{store}, logger)
	authz := NewAuthorizationUseCase(fakePositions{store}, geography, nil, 0, m, logger)
	assignment := NewAssignmentUseCase(fakePositions{store}, fakeComplaints{store}, geography, authz, m, logger)
	complaints := NewComplaintUseCase(
		fakeTx{store}, fakeComplaints{store}, fakeActivity{store}, fakePositions{store},
		geography, authz, assignment, media, notifier, m, logger,
	)
	positions := NewPositionUseCase(fakePositions{store}, geography, nil, logger)

	return &testEnv{
		store:      store,
		notifier:   notifier,
		media:      media,
		geography:  geography,
		authz:      authz,
		assignment: assignment,
		complaints: complaints,
		positions:  positions,
	}
}

func int64Ptr(v int64) *int64 { return &v }
