package api

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/illegalcall/quickfix/internal/apperror"
	"github.com/illegalcall/quickfix/internal/assistant"
	"github.com/illegalcall/quickfix/internal/config"
	"github.com/illegalcall/quickfix/internal/events"
	"github.com/illegalcall/quickfix/internal/metrics"
	"github.com/illegalcall/quickfix/internal/repository"
	"github.com/illegalcall/quickfix/internal/service"
	"github.com/illegalcall/quickfix/internal/session"
	"github.com/illegalcall/quickfix/internal/storage"
	"github.com/illegalcall/quickfix/pkg/database"
)

// Deps are the external collaborators of the API. Storage defaults to local
// storage under the configured directory and Publisher to events.Nop.
type Deps struct {
	Identity  service.IdentityProvider
	Assistant assistant.Completer
	Publisher events.Publisher
	Storage   storage.Storage
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Logger    zerolog.Logger
}

type Server struct {
	app      *fiber.App
	cfg      *config.Config
	db       *database.Clients
	log      zerolog.Logger
	validate *validator.Validate
	sessions *session.Manager
	gatherer prometheus.Gatherer

	auth          *service.AuthService
	profiles      *service.ProfileService
	wallet        *service.WalletService
	help          *service.HelpService
	chat          *service.ChatService
	messaging     *service.MessagingService
	notifications *service.NotificationService
	dashboard     *service.DashboardService
	catalog       *service.CatalogService
	settings      *service.SettingsService
}

func NewServer(cfg *config.Config, db *database.Clients, deps Deps) (*Server, error) {
	store := deps.Storage
	if store == nil {
		local, err := storage.NewLocalStorage(cfg.Storage.Dir, cfg.Storage.MaxImageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		store = local
	}
	pub := deps.Publisher
	if pub == nil {
		pub = events.Nop{}
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	profileRepo := repository.NewProfileRepository(db.DB)
	walletRepo := repository.NewWalletRepository(db.DB)
	financeRepo := repository.NewFinanceRepository(db.DB)
	taskRepo := repository.NewTaskRepository(db.DB)
	aiRepo := repository.NewAIRepository(db.DB)
	messageRepo := repository.NewMessageRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)
	catalogRepo := repository.NewCatalogRepository(db.DB)
	settingsRepo := repository.NewSettingsRepository(db.DB)

	sessions := session.NewManager(
		session.NewStore(db.Redis),
		session.NewTokens(cfg.JWT.Secret, cfg.JWT.Expiration),
	)

	s := &Server{
		cfg:      cfg,
		db:       db,
		log:      deps.Logger,
		validate: newValidator(),
		sessions: sessions,
		gatherer: gatherer,

		auth:          service.NewAuthService(deps.Identity, profileRepo, sessions),
		profiles:      service.NewProfileService(profileRepo),
		wallet:        service.NewWalletService(walletRepo, financeRepo, pub, deps.Metrics),
		help:          service.NewHelpService(taskRepo, pub, deps.Metrics),
		chat:          service.NewChatService(aiRepo, deps.Assistant, store, cfg.AI.HistoryLimit, pub, deps.Metrics),
		messaging:     service.NewMessagingService(messageRepo, profileRepo, pub, deps.Metrics),
		notifications: service.NewNotificationService(notificationRepo),
		dashboard:     service.NewDashboardService(profileRepo, financeRepo, aiRepo, taskRepo, catalogRepo),
		catalog:       service.NewCatalogService(catalogRepo),
		settings:      service.NewSettingsService(settingsRepo),
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "quickfix",
		ErrorHandler: s.errorHandler,
		ReadTimeout:  cfg.Server.RequestTimeout,
		WriteTimeout: cfg.Server.RequestTimeout,
		// Base64 images are carried in JSON bodies.
		BodyLimit: int(cfg.Storage.MaxImageSize)*2 + 64*1024,
	})

	// Middleware
	s.app.Use(requestid.New())
	s.app.Use(requestLogger(s.log))
	s.app.Use(recover.New())
	s.app.Use(limiter.New(limiter.Config{
		Max:        cfg.Server.MaxRequests,
		Expiration: cfg.Server.RateWindow,
		LimitReached: func(c *fiber.Ctx) error {
			return apperror.RateLimited("too many requests", nil)
		},
	}))

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	// Page routes answer with the navigation decision for the path.
	for _, path := range []string{"/", "/login", "/signup", "/forgot-password", "/dashboard", "/dashboard/:view"} {
		s.app.Get(path, s.handlePage)
	}

	api := s.app.Group("/api")

	// Public routes
	api.Post("/auth/signup", s.handleSignUp)
	api.Post("/auth/login", s.handleLogin)
	api.Post("/auth/forgot-password", s.handleForgotPassword)
	api.Get("/session", s.handleSession)
	api.Get("/navigation", s.handleNavigation)

	// Protected routes
	protected := api.Group("", jwtware.New(jwtware.Config{
		SigningKey:   []byte(s.cfg.JWT.Secret),
		ErrorHandler: jwtError,
	}), s.requireSession)

	protected.Post("/auth/logout", s.handleLogout)

	protected.Get("/profile", s.handleGetProfile)
	protected.Patch("/profile", s.handleUpdateProfile)

	protected.Get("/wallet", s.handleGetWallet)
	protected.Post("/wallet/checkout", s.idempotent(), s.handleCheckout)
	protected.Post("/wallet/topup", s.idempotent(), s.handleTopUp)

	protected.Post("/help/professional", s.idempotent(), s.handleProfessionalHelp)
	protected.Get("/tasks", s.handleListTasks)
	protected.Get("/tasks/:id", s.handleGetTask)

	protected.Post("/ai/conversations", s.handleCreateConversation)
	protected.Get("/ai/conversations", s.handleListConversations)
	protected.Get("/ai/conversations/:id", s.handleGetConversation)
	protected.Post("/ai/conversations/:id/messages", s.handleSendAIMessage)
	protected.Get("/ai/conversations/:id/messages/:messageID/image", s.handleAIMessageImage)
	protected.Post("/ai/conversations/:id/resolve", s.handleResolveConversation)

	protected.Post("/messages", s.handleSendMessage)
	protected.Get("/messages/contacts", s.handleContacts)
	protected.Get("/messages/with/:userID", s.handleDirectConversation)
	protected.Post("/messages/:id/read", s.handleMarkMessageRead)
	protected.Post("/groups", s.handleCreateGroup)
	protected.Get("/groups/:id/messages", s.handleGroupMessages)

	protected.Get("/notifications", s.handleListNotifications)
	protected.Post("/notifications/read-all", s.handleMarkAllNotificationsRead)
	protected.Post("/notifications/:id/read", s.handleMarkNotificationRead)

	protected.Get("/history", s.handleHistory)
	protected.Get("/finance/chart", s.handleFinanceChart)
	protected.Get("/dashboard", s.handleDashboard)

	catalogCache := cache.New(cache.Config{
		Expiration:   s.cfg.Server.CacheExpiration,
		CacheControl: true,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.Path() + "?" + string(c.Request().URI().QueryString())
		},
	})
	protected.Get("/specialists", catalogCache, s.handleSpecialists)
	protected.Get("/shops", catalogCache, s.handleShops)
	protected.Get("/advertisements", catalogCache, s.handleAdvertisements)

	protected.Get("/settings", s.handleGetSettings)
	protected.Put("/settings", s.handleUpdateSettings)
}

func (s *Server) Start() error {
	return s.app.Listen(s.cfg.Server.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
