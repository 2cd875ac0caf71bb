package service

import (
	"context"
	"io/fs"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/illegalcall/quickfix/internal/assistant"
	"github.com/illegalcall/quickfix/internal/events"
	"github.com/illegalcall/quickfix/internal/models"
	"github.com/illegalcall/quickfix/internal/session"
)

type mockWallet struct{ mock.Mock }

func (m *mockWallet) Apply(ctx context.Context, mut models.WalletMutation) (*models.CheckoutResult, error) {
	args := m.Called(ctx, mut)
	res, _ := args.Get(0).(*models.CheckoutResult)
	return res, args.Error(1)
}

func (m *mockWallet) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type mockFinance struct{ mock.Mock }

func (m *mockFinance) Records(ctx context.Context, userID string, limit int) ([]models.FinancialRecord, error) {
	args := m.Called(ctx, userID, limit)
	res, _ := args.Get(0).([]models.FinancialRecord)
	return res, args.Error(1)
}

func (m *mockFinance) MonthlyTotals(ctx context.Context, userID string, year int) ([]models.ChartPoint, error) {
	args := m.Called(ctx, userID, year)
	res, _ := args.Get(0).([]models.ChartPoint)
	return res, args.Error(1)
}

type mockTasks struct{ mock.Mock }

func (m *mockTasks) Submit(ctx context.Context, sub models.TaskSubmission) (*models.TaskSubmissionResult, error) {
	args := m.Called(ctx, sub)
	res, _ := args.Get(0).(*models.TaskSubmissionResult)
	return res, args.Error(1)
}

func (m *mockTasks) List(ctx context.Context, userID string, f models.TaskFilter) ([]models.ProfessionalTask, error) {
	args := m.Called(ctx, userID, f)
	res, _ := args.Get(0).([]models.ProfessionalTask)
	return res, args.Error(1)
}

func (m *mockTasks) Get(ctx context.Context, userID, id string) (*models.ProfessionalTask, error) {
	args := m.Called(ctx, userID, id)
	res, _ := args.Get(0).(*models.ProfessionalTask)
	return res, args.Error(1)
}

type mockChats struct{ mock.Mock }

func (m *mockChats) CreateConversation(ctx context.Context, userID, title string) (*models.AIConversation, error) {
	args := m.Called(ctx, userID, title)
	res, _ := args.Get(0).(*models.AIConversation)
	return res, args.Error(1)
}

func (m *mockChats) ListConversations(ctx context.Context, userID string, f models.ConversationFilter) ([]models.AIConversation, error) {
	args := m.Called(ctx, userID, f)
	res, _ := args.Get(0).([]models.AIConversation)
	return res, args.Error(1)
}

func (m *mockChats) GetConversation(ctx context.Context, userID, id string) (*models.AIConversation, error) {
	args := m.Called(ctx, userID, id)
	res, _ := args.Get(0).(*models.AIConversation)
	return res, args.Error(1)
}

func (m *mockChats) Messages(ctx context.Context, conversationID string, limit int) ([]models.AIMessage, error) {
	args := m.Called(ctx, conversationID, limit)
	res, _ := args.Get(0).([]models.AIMessage)
	return res, args.Error(1)
}

func (m *mockChats) Message(ctx context.Context, userID, conversationID, id string) (*models.AIMessage, error) {
	args := m.Called(ctx, userID, conversationID, id)
	res, _ := args.Get(0).(*models.AIMessage)
	return res, args.Error(1)
}

func (m *mockChats) AddMessage(ctx context.Context, msg models.AIMessage) (*models.AIMessage, error) {
	args := m.Called(ctx, msg)
	res, _ := args.Get(0).(*models.AIMessage)
	return res, args.Error(1)
}

func (m *mockChats) SetResolved(ctx context.Context, userID, id string, resolved bool) (*models.AIConversation, error) {
	args := m.Called(ctx, userID, id, resolved)
	res, _ := args.Get(0).(*models.AIConversation)
	return res, args.Error(1)
}

type mockMessages struct{ mock.Mock }

func (m *mockMessages) Send(ctx context.Context, msg models.Message) (*models.Message, error) {
	args := m.Called(ctx, msg)
	res, _ := args.Get(0).(*models.Message)
	return res, args.Error(1)
}

func (m *mockMessages) Contacts(ctx context.Context, userID, search string) ([]models.Contact, error) {
	args := m.Called(ctx, userID, search)
	res, _ := args.Get(0).([]models.Contact)
	return res, args.Error(1)
}

func (m *mockMessages) Conversation(ctx context.Context, userID, otherID string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, userID, otherID, limit)
	res, _ := args.Get(0).([]models.Message)
	return res, args.Error(1)
}

func (m *mockMessages) MarkRead(ctx context.Context, userID, messageID string) error {
	return m.Called(ctx, userID, messageID).Error(0)
}

func (m *mockMessages) CreateGroup(ctx context.Context, name, createdBy string, memberIDs []string) (*models.MessageGroup, error) {
	args := m.Called(ctx, name, createdBy, memberIDs)
	res, _ := args.Get(0).(*models.MessageGroup)
	return res, args.Error(1)
}

func (m *mockMessages) Members(ctx context.Context, groupID string) ([]string, error) {
	args := m.Called(ctx, groupID)
	res, _ := args.Get(0).([]string)
	return res, args.Error(1)
}

func (m *mockMessages) GroupMessages(ctx context.Context, userID, groupID string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, userID, groupID, limit)
	res, _ := args.Get(0).([]models.Message)
	return res, args.Error(1)
}

type mockProfiles struct{ mock.Mock }

func (m *mockProfiles) Ensure(ctx context.Context, p models.NewProfile) (*models.Profile, bool, error) {
	args := m.Called(ctx, p)
	res, _ := args.Get(0).(*models.Profile)
	return res, args.Bool(1), args.Error(2)
}

func (m *mockProfiles) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	res, _ := args.Get(0).(*models.Profile)
	return res, args.Error(1)
}

func (m *mockProfiles) Update(ctx context.Context, userID string, u models.ProfileUpdate) (*models.Profile, error) {
	args := m.Called(ctx, userID, u)
	res, _ := args.Get(0).(*models.Profile)
	return res, args.Error(1)
}

func (m *mockProfiles) DisplayName(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

type mockIdentity struct{ mock.Mock }

func (m *mockIdentity) SignUp(ctx context.Context, email, password, fullName string) (*models.Identity, error) {
	args := m.Called(ctx, email, password, fullName)
	res, _ := args.Get(0).(*models.Identity)
	return res, args.Error(1)
}

func (m *mockIdentity) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	args := m.Called(ctx, email, password)
	res, _ := args.Get(0).(*models.Identity)
	return res, args.Error(1)
}

func (m *mockIdentity) Recover(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockIdentity) SignOut(ctx context.Context, accessToken string) error {
	return m.Called(ctx, accessToken).Error(0)
}

type mockSessions struct{ mock.Mock }

func (m *mockSessions) Start(ctx context.Context, userID, email, providerToken string) (string, *session.Session, error) {
	args := m.Called(ctx, userID, email, providerToken)
	sess, _ := args.Get(1).(*session.Session)
	return args.String(0), sess, args.Error(2)
}

func (m *mockSessions) End(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

type completerFunc func(ctx context.Context, p assistant.Prompt) (string, error)

func (f completerFunc) Complete(ctx context.Context, p assistant.Prompt) (string, error) {
	return f(ctx, p)
}

type fakeImages struct {
	stored  [][]byte
	deleted []string
	files   map[string][]byte
}

func (f *fakeImages) Read(_ context.Context, path string) ([]byte, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (f *fakeImages) StoreImage(_ context.Context, data []byte) (string, string, error) {
	f.stored = append(f.stored, data)
	return "/tmp/img-1.png", "image/png", nil
}

func (f *fakeImages) Delete(_ context.Context, path string) error {
	f.deleted = append(f.deleted, path)
	return nil
}

type published struct {
	Type    events.Type
	UserID  string
	Payload any
}

// recorder is an events.Publisher that keeps what it was given.
type recorder struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (r *recorder) Publish(_ context.Context, typ events.Type, userID string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, published{Type: typ, UserID: userID, Payload: payload})
	return nil
}
