package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/quickfix/internal/config"
	"github.com/illegalcall/quickfix/internal/events"
	"github.com/illegalcall/quickfix/internal/metrics"
	"github.com/illegalcall/quickfix/internal/models"
)

const testUser = "6f1c2a4e-1111-4b7e-9c1a-000000000001"

// MockConsumerGroup mocks sarama.ConsumerGroup
type MockConsumerGroup struct {
	mock.Mock
}

func (m *MockConsumerGroup) Consume(ctx context.Context, topics []string, handler sarama.ConsumerGroupHandler) error {
	args := m.Called(ctx, topics, handler)
	return args.Error(0)
}

func (m *MockConsumerGroup) Errors() <-chan error {
	args := m.Called()
	return args.Get(0).(chan error)
}

func (m *MockConsumerGroup) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockConsumerGroup) Pause(partitions map[string][]int32)  { m.Called(partitions) }
func (m *MockConsumerGroup) Resume(partitions map[string][]int32) { m.Called(partitions) }
func (m *MockConsumerGroup) PauseAll()                            { m.Called() }
func (m *MockConsumerGroup) ResumeAll()                           { m.Called() }

// fakeStore fails the first failures calls to Create.
type fakeStore struct {
	mu       sync.Mutex
	failures int
	calls    int
	created  []models.Notification
}

func (s *fakeStore) Create(_ context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return errors.New("connection reset")
	}
	s.created = append(s.created, n)
	return nil
}

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx    context.Context
	mu     sync.Mutex
	marked []int64
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	msgs chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.msgs }

// setupTestWorker creates a test worker with mocked dependencies
func setupTestWorker(t *testing.T) (*Worker, *fakeStore, *MockConsumerGroup, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	store := &fakeStore{}
	group := new(MockConsumerGroup)
	w := NewWorker(config.KafkaConfig{
		Topic:        "test-topic",
		Group:        "test-group",
		RetryMax:     3,
		RetryBackoff: time.Millisecond,
	}, group, store, metrics.New(reg), zerolog.Nop())
	w.sleep = func(context.Context, time.Duration) error { return nil }
	return w, store, group, reg
}

func envelope(t *testing.T, typ events.Type, payload any) []byte {
	t.Helper()
	env, err := events.NewEnvelope(typ, testUser, payload)
	require.NoError(t, err)
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	return raw
}

func eventCount(t *testing.T, reg *prometheus.Registry) int {
	t.Helper()
	n, err := testutil.GatherAndCount(reg, "quickfix_worker_events_total")
	require.NoError(t, err)
	return n
}

func TestNotify(t *testing.T) {
	tests := []struct {
		name      string
		typ       events.Type
		payload   any
		wantType  models.NotificationType
		wantTitle string
		wantDesc  string
	}{
		{
			name: "checkout",
			typ:  events.CheckoutCompleted,
			payload: events.WalletPayload{
				CheckoutID:  "chk-1",
				Amount:      decimal.NewFromInt(1500),
				Balance:     decimal.NewFromInt(3500),
				Description: "Sink repair",
			},
			wantType:  models.NotificationSystem,
			wantTitle: "Payment completed",
			wantDesc:  "Sink repair: 1500 HUF. New balance: 3500 HUF.",
		},
		{
			name:      "top-up",
			typ:       events.ToppedUp,
			payload:   events.WalletPayload{Amount: decimal.NewFromInt(2000), Balance: decimal.NewFromInt(7000)},
			wantType:  models.NotificationSystem,
			wantTitle: "Balance topped up",
			wantDesc:  "2000 HUF was added to your balance. New balance: 7000 HUF.",
		},
		{
			name:      "task",
			typ:       events.TaskCreated,
			payload:   events.TaskPayload{TaskID: "t-1", Title: "Dripping tap", Expertise: "plumbing"},
			wantType:  models.NotificationProfessional,
			wantTitle: "Professional help requested",
			wantDesc:  `A plumbing specialist has been scheduled for "Dripping tap".`,
		},
		{
			name:      "ai reply",
			typ:       events.AIReplied,
			payload:   events.AIRepliedPayload{ConversationID: "c-1", Title: "Leak", Preview: "Turn off the water"},
			wantType:  models.NotificationAI,
			wantTitle: "The AI assistant replied: Leak",
			wantDesc:  "Turn off the water",
		},
		{
			name:      "message",
			typ:       events.MessageSent,
			payload:   events.MessagePayload{MessageID: "m-1", SenderName: "Kiss Anna", Preview: "Hi"},
			wantType:  models.NotificationSystem,
			wantTitle: "New message from Kiss Anna",
			wantDesc:  "Hi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := events.Decode(envelope(t, tt.typ, tt.payload))
			require.NoError(t, err)

			n, err := Notify(env)
			require.NoError(t, err)
			assert.Equal(t, testUser, n.UserID)
			assert.Equal(t, tt.wantType, n.Type)
			assert.Equal(t, tt.wantTitle, n.Title)
			assert.Equal(t, tt.wantDesc, n.Description)
		})
	}
}

func TestNotifyUnknownType(t *testing.T) {
	env, err := events.Decode(envelope(t, "wallet.refunded", map[string]string{}))
	require.NoError(t, err)

	_, err = Notify(env)
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestProcess(t *testing.T) {
	checkout := events.WalletPayload{Amount: decimal.NewFromInt(10), Balance: decimal.NewFromInt(90), Description: "x"}

	testCases := []struct {
		name        string
		value       func(t *testing.T) []byte
		failures    int
		wantCalls   int
		wantCreated int
	}{
		{
			name:        "stored first time",
			value:       func(t *testing.T) []byte { return envelope(t, events.CheckoutCompleted, checkout) },
			wantCalls:   1,
			wantCreated: 1,
		},
		{
			name:        "stored after retries",
			value:       func(t *testing.T) []byte { return envelope(t, events.CheckoutCompleted, checkout) },
			failures:    2,
			wantCalls:   3,
			wantCreated: 1,
		},
		{
			name:      "gives up after retry limit",
			value:     func(t *testing.T) []byte { return envelope(t, events.CheckoutCompleted, checkout) },
			failures:  10,
			wantCalls: 3,
		},
		{
			name:  "malformed json",
			value: func(*testing.T) []byte { return []byte("{not json") },
		},
		{
			name:  "unknown type",
			value: func(t *testing.T) []byte { return envelope(t, "wallet.refunded", checkout) },
		},
		{
			name:  "bad payload",
			value: func(t *testing.T) []byte { return envelope(t, events.TaskCreated, "not an object") },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w, store, _, reg := setupTestWorker(t)
			store.failures = tc.failures

			w.Process(context.Background(), tc.value(t))

			assert.Equal(t, tc.wantCalls, store.calls)
			assert.Len(t, store.created, tc.wantCreated)
			assert.Equal(t, 1, eventCount(t, reg))
		})
	}
}

func TestConsumeClaimMarksEveryMessage(t *testing.T) {
	w, store, _, _ := setupTestWorker(t)

	claim := &fakeClaim{msgs: make(chan *sarama.ConsumerMessage, 3)}
	claim.msgs <- &sarama.ConsumerMessage{Offset: 1, Value: envelope(t, events.ToppedUp, events.WalletPayload{})}
	claim.msgs <- &sarama.ConsumerMessage{Offset: 2, Value: []byte("garbage")}
	claim.msgs <- &sarama.ConsumerMessage{Offset: 3, Value: envelope(t, events.MessageSent, events.MessagePayload{SenderName: "Anna"})}
	close(claim.msgs)

	sess := &fakeSession{ctx: context.Background()}
	require.NoError(t, w.ConsumeClaim(sess, claim))

	assert.Equal(t, []int64{1, 2, 3}, sess.marked)
	assert.Len(t, store.created, 2)
}

func TestConsumeClaimStopsOnSessionEnd(t *testing.T) {
	w, _, _, _ := setupTestWorker(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	claim := &fakeClaim{msgs: make(chan *sarama.ConsumerMessage)}

	assert.NoError(t, w.ConsumeClaim(&fakeSession{ctx: ctx}, claim))
}

func TestWorkerStart(t *testing.T) {
	w, _, mockConsumerGroup, _ := setupTestWorker(t)

	// Setup expectations
	errChan := make(chan error)
	defer close(errChan)
	mockConsumerGroup.On("Errors").Return(errChan).Maybe()
	mockConsumerGroup.On("Consume", mock.Anything, []string{"test-topic"}, w).
		Run(func(args mock.Arguments) {
			require.NoError(t, w.Setup(nil))
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := w.Start(ctx)
	assert.NoError(t, err)

	select {
	case <-w.Ready():
	default:
		t.Fatal("worker never became ready")
	}
	mockConsumerGroup.AssertExpectations(t)
}

func TestWorkerStartClosedGroup(t *testing.T) {
	w, _, mockConsumerGroup, _ := setupTestWorker(t)

	errChan := make(chan error)
	defer close(errChan)
	mockConsumerGroup.On("Errors").Return(errChan).Maybe()
	mockConsumerGroup.On("Consume", mock.Anything, mock.Anything, mock.Anything).
		Return(sarama.ErrClosedConsumerGroup).Once()

	assert.NoError(t, w.Start(context.Background()))
	mockConsumerGroup.AssertExpectations(t)
}
