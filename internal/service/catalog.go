package service

import (
	"context"
	"slices"
	"strings"

	"github.com/illegalcall/quickfix/internal/apperror"
	"github.com/illegalcall/quickfix/internal/models"
)

type CatalogService struct {
	catalog CatalogStore
}

func NewCatalogService(catalog CatalogStore) *CatalogService {
	return &CatalogService{catalog: catalog}
}

func (s *CatalogService) Specialists(ctx context.Context, f models.SpecialistFilter) ([]models.Specialist, error) {
	f.Search = strings.TrimSpace(f.Search)
	f.Profession = strings.TrimSpace(f.Profession)
	return s.catalog.Specialists(ctx, f)
}

func (s *CatalogService) Shops(ctx context.Context, limit int) ([]models.Shop, error) {
	return s.catalog.Shops(ctx, limit)
}

func (s *CatalogService) Advertisements(ctx context.Context, limit int) ([]models.Advertisement, error) {
	return s.catalog.ActiveAdvertisements(ctx, limit)
}

type SettingsService struct {
	settings SettingsStore
}

func NewSettingsService(settings SettingsStore) *SettingsService {
	return &SettingsService{settings: settings}
}

func (s *SettingsService) Get(ctx context.Context, userID string) (*models.Settings, error) {
	return s.settings.Get(ctx, userID)
}

func (s *SettingsService) Update(ctx context.Context, userID string, u models.SettingsUpdate) (*models.Settings, error) {
	if !slices.Contains(models.SupportedLanguages, u.Language) {
		return nil, apperror.Validation("language", "unsupported language")
	}
	return s.settings.Save(ctx, models.Settings{
		UserID:             userID,
		Language:           u.Language,
		DarkMode:           u.DarkMode,
		EmailNotifications: u.EmailNotifications,
		PushNotifications:  u.PushNotifications,
		MarketingEmails:    u.MarketingEmails,
	})
}
