package notification_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/pkg/metrics"
	redisRepo "github.com/sanitation-complaints/internal/repository/redis"
	"github.com/sanitation-complaints/internal/worker/notification"
)

// MockStreamRepository is a mock of StreamRepository
type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) ClaimPending(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int64) ([]domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer, minIdle, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) ConsumeBatch(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer, count, block)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) AckMessages(ctx context.Context, stream, group string, messageIDs []string) error {
	args := m.Called(ctx, stream, group, messageIDs)
	return args.Error(0)
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	args := m.Called(ctx, stream, group)
	return args.Error(0)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	args := m.Called(ctx, stream, data)
	return args.Error(0)
}

// MockPushSender is a mock of PushSender
type MockPushSender struct {
	mock.Mock
}

func (m *MockPushSender) Send(ctx context.Context, msg domain.PushMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

const group = "test-group"

func testConfig(retries int) notification.Config {
	return notification.Config{
		ConsumerGroup: group,
		BatchSize:     10,
		ReadTimeout:   10 * time.Millisecond,
		MaxRetries:    retries,
		ClaimIdle:     time.Millisecond,
	}
}

// newWorker - nothing is pending unless the test says otherwise
func newWorker(stream *MockStreamRepository, sender *MockPushSender, retries int) *notification.DispatchWorker {
	stream.On("ClaimPending", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.StreamMessage{}, nil).Maybe()
	return notification.NewDispatchWorker(stream, sender, metrics.NewNop(), testConfig(retries), zap.NewNop())
}

func message(t *testing.T, id string, n domain.Notification) domain.StreamMessage {
	t.Helper()
	data, err := json.Marshal(n)
	require.NoError(t, err)
	return domain.StreamMessage{ID: id, Data: string(data)}
}

func TestDispatchWorker_Name(t *testing.T) {
	w := newWorker(&MockStreamRepository{}, &MockPushSender{}, 0)
	assert.Equal(t, "notification-dispatch", w.Name())
	assert.Equal(t, group, w.ConsumerGroup())
}

func TestDispatchWorker_ProcessBatch(t *testing.T) {
	stream := &MockStreamRepository{}
	sender := &MockPushSender{}
	w := newWorker(stream, sender, 0)

	assigned := domain.Notification{
		EventType: domain.EventComplaintAssigned,
		ActorIDs:  []int64{500},
		Payload:   map[string]interface{}{"complaint_id": 7, "status": "ASSIGNED"},
	}
	created := domain.Notification{
		EventType: domain.EventComplaintCreated,
		Mobiles:   []string{"9876543210"},
		Payload:   map[string]interface{}{"complaint_id": 7},
	}
	batch := []domain.StreamMessage{
		message(t, "1-0", assigned),
		{ID: "2-0", Data: "{not json"},
		message(t, "3-0", created),
	}

	stream.On("ConsumeBatch", mock.Anything, domain.StreamComplaintNotifications, group, mock.Anything, int64(10), 10*time.Millisecond).
		Return(batch, nil).Once()
	sender.On("Send", mock.Anything, mock.MatchedBy(func(m domain.PushMessage) bool {
		return assert.ObjectsAreEqual([]string{"staff:500"}, m.Recipients) && m.Title == "New assignment"
	})).Return(nil).Once()
	sender.On("Send", mock.Anything, mock.MatchedBy(func(m domain.PushMessage) bool {
		return assert.ObjectsAreEqual([]string{"mobile:9876543210"}, m.Recipients)
	})).Return(nil).Once()
	stream.On("AckMessages", mock.Anything, domain.StreamComplaintNotifications, group, []string{"1-0", "2-0", "3-0"}).Return(nil).Once()

	n, err := w.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	stream.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestDispatchWorker_RetriesThenGivesUp(t *testing.T) {
	stream := &MockStreamRepository{}
	sender := &MockPushSender{}
	w := newWorker(stream, sender, 2)

	msg := message(t, "5-0", domain.Notification{
		EventType: domain.EventStatusChanged,
		Mobiles:   []string{"9876543210"},
		Payload:   map[string]interface{}{"complaint_id": 9, "status": "CLOSED"},
	})
	stream.On("ConsumeBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.StreamMessage{msg}, nil).Once()
	sender.On("Send", mock.Anything, mock.Anything).Return(stderrors.New("provider down")).Times(3)
	stream.On("AckMessages", mock.Anything, mock.Anything, group, []string{"5-0"}).Return(nil).Once()

	_, err := w.ProcessBatch(context.Background())
	require.NoError(t, err)
	sender.AssertNumberOfCalls(t, "Send", 3)
	stream.AssertExpectations(t)
}

func TestDispatchWorker_RecoversAfterTransientFailure(t *testing.T) {
	stream := &MockStreamRepository{}
	sender := &MockPushSender{}
	w := newWorker(stream, sender, 3)

	msg := message(t, "6-0", domain.Notification{
		EventType: domain.EventCommentAdded,
		ActorIDs:  []int64{600},
		Payload:   map[string]interface{}{"complaint_id": 3},
	})
	stream.On("ConsumeBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.StreamMessage{msg}, nil).Once()
	sender.On("Send", mock.Anything, mock.Anything).Return(stderrors.New("timeout")).Once()
	sender.On("Send", mock.Anything, mock.Anything).Return(nil).Once()
	stream.On("AckMessages", mock.Anything, mock.Anything, group, []string{"6-0"}).Return(nil).Once()

	_, err := w.ProcessBatch(context.Background())
	require.NoError(t, err)
	sender.AssertNumberOfCalls(t, "Send", 2)
}

func TestDispatchWorker_EmptyBatch(t *testing.T) {
	stream := &MockStreamRepository{}
	w := newWorker(stream, &MockPushSender{}, 0)

	stream.On("ConsumeBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.StreamMessage{}, nil).Once()

	n, err := w.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	stream.AssertNotCalled(t, "AckMessages", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatchWorker_StopEndsLoop(t *testing.T) {
	stream := &MockStreamRepository{}
	w := newWorker(stream, &MockPushSender{}, 0)

	stream.On("CreateConsumerGroup", mock.Anything, domain.StreamComplaintNotifications, group).Return(nil)
	stream.On("ConsumeBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.StreamMessage{}, nil).
		Run(func(mock.Arguments) { time.Sleep(5 * time.Millisecond) })

	done := make(chan error, 1)
	go func() { done <- w.Start(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, w.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestDispatchWorker_ConsumerGroupFailure(t *testing.T) {
	stream := &MockStreamRepository{}
	w := newWorker(stream, &MockPushSender{}, 0)

	stream.On("CreateConsumerGroup", mock.Anything, mock.Anything, mock.Anything).Return(stderrors.New("redis down"))

	err := w.Start(context.Background())
	assert.Error(t, err)
}

func TestDispatchWorker_PendingBeforeNew(t *testing.T) {
	stream := &MockStreamRepository{}
	sender := &MockPushSender{}
	w := notification.NewDispatchWorker(stream, sender, metrics.NewNop(), testConfig(0), zap.NewNop())

	msg := message(t, "4-0", domain.Notification{
		EventType: domain.EventComplaintCreated,
		Mobiles:   []string{"9876543210"},
		Payload:   map[string]interface{}{"complaint_id": 4},
	})
	stream.On("ClaimPending", mock.Anything, domain.StreamComplaintNotifications, group, mock.Anything, time.Millisecond, int64(10)).
		Return([]domain.StreamMessage{msg}, nil).Once()
	sender.On("Send", mock.Anything, mock.Anything).Return(nil).Once()
	stream.On("AckMessages", mock.Anything, domain.StreamComplaintNotifications, group, []string{"4-0"}).Return(nil).Once()

	n, err := w.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	stream.AssertNotCalled(t, "ConsumeBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	stream.AssertExpectations(t)
}

func TestDispatchWorker_ClaimFailure(t *testing.T) {
	stream := &MockStreamRepository{}
	w := notification.NewDispatchWorker(stream, &MockPushSender{}, metrics.NewNop(), testConfig(0), zap.NewNop())

	stream.On("ClaimPending", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, stderrors.New("redis down")).Once()

	_, err := w.ProcessBatch(context.Background())
	assert.Error(t, err)
	stream.AssertNotCalled(t, "ConsumeBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// A consumer stopped during retry backoff leaves its entry pending; the next
// process, running under a different consumer name, must deliver it.
func TestDispatchWorker_InterruptedDeliveryIsReclaimed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	streams := redisRepo.NewStreamRepository(client, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, streams.CreateConsumerGroup(ctx, domain.StreamComplaintNotifications, group))
	require.NoError(t, streams.PublishToStream(ctx, domain.StreamComplaintNotifications, domain.Notification{
		EventType: domain.EventComplaintCreated,
		Mobiles:   []string{"9876543210"},
		Payload:   map[string]interface{}{"complaint_id": 11},
	}))

	firstCtx, stopFirst := context.WithCancel(ctx)
	defer stopFirst()
	failing := &MockPushSender{}
	failing.On("Send", mock.Anything, mock.Anything).
		Return(stderrors.New("provider down")).
		Run(func(mock.Arguments) { stopFirst() }).
		Once()
	first := notification.NewDispatchWorker(streams, failing, metrics.NewNop(), testConfig(3), zap.NewNop())

	n, err := first.ProcessBatch(firstCtx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pending, err := client.XPending(ctx, domain.StreamComplaintNotifications, group).Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), pending.Count)

	time.Sleep(10 * time.Millisecond)

	healthy := &MockPushSender{}
	healthy.On("Send", mock.Anything, mock.MatchedBy(func(m domain.PushMessage) bool {
		return assert.ObjectsAreEqual([]string{"mobile:9876543210"}, m.Recipients)
	})).Return(nil).Once()
	second := notification.NewDispatchWorker(streams, healthy, metrics.NewNop(), testConfig(3), zap.NewNop())

	n, err = second.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	healthy.AssertExpectations(t)

	pending, err = client.XPending(ctx, domain.StreamComplaintNotifications, group).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Count)
}

func TestBuildPushMessage(t *testing.T) {
	msg := notification.BuildPushMessage(domain.Notification{
		EventType: domain.EventStatusChanged,
		ActorIDs:  []int64{500},
		Mobiles:   []string{"9876543210"},
		Payload:   map[string]interface{}{"complaint_id": 12, "status": "VERIFIED"},
	})

	assert.Equal(t, []string{"staff:500", "mobile:9876543210"}, msg.Recipients)
	assert.Equal(t, "Complaint #12 is now VERIFIED", msg.Body)
	assert.Equal(t, domain.EventStatusChanged, msg.Data["event_type"])
	assert.Equal(t, 12, msg.Data["complaint_id"])
}
