package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/illegalcall/quickfix/internal/events"
	"github.com/illegalcall/quickfix/internal/metrics"
	"github.com/illegalcall/quickfix/internal/models"
	"github.com/illegalcall/quickfix/internal/session"
)

type ProfileStore interface {
	Ensure(ctx context.Context, p models.NewProfile) (*models.Profile, bool, error)
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	Update(ctx context.Context, userID string, u models.ProfileUpdate) (*models.Profile, error)
	DisplayName(ctx context.Context, userID string) (string, error)
}

type WalletStore interface {
	Apply(ctx context.Context, m models.WalletMutation) (*models.CheckoutResult, error)
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
}

type FinanceStore interface {
	Records(ctx context.Context, userID string, limit int) ([]models.FinancialRecord, error)
	MonthlyTotals(ctx context.Context, userID string, year int) ([]models.ChartPoint, error)
}

type TaskStore interface {
	Submit(ctx context.Context, sub models.TaskSubmission) (*models.TaskSubmissionResult, error)
	List(ctx context.Context, userID string, f models.TaskFilter) ([]models.ProfessionalTask, error)
	Get(ctx context.Context, userID, id string) (*models.ProfessionalTask, error)
}

type ChatStore interface {
	CreateConversation(ctx context.Context, userID, title string) (*models.AIConversation, error)
	ListConversations(ctx context.Context, userID string, f models.ConversationFilter) ([]models.AIConversation, error)
	GetConversation(ctx context.Context, userID, id string) (*models.AIConversation, error)
	Messages(ctx context.Context, conversationID string, limit int) ([]models.AIMessage, error)
	Message(ctx context.Context, userID, conversationID, id string) (*models.AIMessage, error)
	AddMessage(ctx context.Context, msg models.AIMessage) (*models.AIMessage, error)
	SetResolved(ctx context.Context, userID, id string, resolved bool) (*models.AIConversation, error)
}

type MessageStore interface {
	Send(ctx context.Context, msg models.Message) (*models.Message, error)
	Contacts(ctx context.Context, userID, search string) ([]models.Contact, error)
	Conversation(ctx context.Context, userID, otherID string, limit int) ([]models.Message, error)
	MarkRead(ctx context.Context, userID, messageID string) error
	CreateGroup(ctx context.Context, name, createdBy string, memberIDs []string) (*models.MessageGroup, error)
	Members(ctx context.Context, groupID string) ([]string, error)
	GroupMessages(ctx context.Context, userID, groupID string, limit int) ([]models.Message, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n models.Notification) error
	List(ctx context.Context, userID string, f models.NotificationFilter) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type CatalogStore interface {
	Specialists(ctx context.Context, f models.SpecialistFilter) ([]models.Specialist, error)
	Shops(ctx context.Context, limit int) ([]models.Shop, error)
	ActiveAdvertisements(ctx context.Context, limit int) ([]models.Advertisement, error)
	LatestAdvertisement(ctx context.Context) (*models.Advertisement, error)
}

type SettingsStore interface {
	Get(ctx context.Context, userID string) (*models.Settings, error)
	Save(ctx context.Context, s models.Settings) (*models.Settings, error)
}

// IdentityProvider authenticates users. Errors are already classified as
// apperror kinds.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password, fullName string) (*models.Identity, error)
	SignIn(ctx context.Context, email, password string) (*models.Identity, error)
	Recover(ctx context.Context, email string) error
	SignOut(ctx context.Context, accessToken string) error
}

type Sessions interface {
	Start(ctx context.Context, userID, email, providerToken string) (string, *session.Session, error)
	End(ctx context.Context, sessionID string) error
}

type ImageStore interface {
	StoreImage(ctx context.Context, data []byte) (string, string, error)
	Read(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

// emitter publishes events after the state change committed. A failed
// publish is logged and counted, never returned.
type emitter struct {
	pub     events.Publisher
	metrics *metrics.Metrics
}

func (e emitter) emit(ctx context.Context, typ events.Type, userID string, payload any) {
	if e.pub == nil {
		return
	}
	if err := e.pub.Publish(ctx, typ, userID, payload); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Str("event_type", string(typ)).
			Str("user_id", userID).
			Msg("failed to publish event")
		e.metrics.PublishFailed(string(typ))
	}
}

var now = time.Now
