package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/illegalcall/quickfix/internal/models"
)

type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) Specialists(ctx context.Context, f models.SpecialistFilter) ([]models.Specialist, error) {
	list := []models.Specialist{}
	err := r.db.SelectContext(ctx, &list, `
		SELECT id, name, avatar_url, profession, description, rating, review_count,
			price_range, availability, location, services, featured
		FROM specialists
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
			AND ($2 = '' OR profession = $2)
		ORDER BY featured DESC, rating DESC
		LIMIT $3`,
		f.Search, f.Profession, clampLimit(f.Limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list specialists: %w", err)
	}
	return list, nil
}

func (r *CatalogRepository) Shops(ctx context.Context, limit int) ([]models.Shop, error) {
	list := []models.Shop{}
	err := r.db.SelectContext(ctx, &list, `
		SELECT id, name, logo_url, kind, description, rating, review_count,
			location, open_hours, website, featured, discount
		FROM shops
		ORDER BY featured DESC, rating DESC
		LIMIT $1`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list shops: %w", err)
	}
	return list, nil
}

func (r *CatalogRepository) ActiveAdvertisements(ctx context.Context, limit int) ([]models.Advertisement, error) {
	list := []models.Advertisement{}
	err := r.db.SelectContext(ctx, &list, `
		SELECT id, title, subtitle, content, redirect_url, is_active, created_at
		FROM advertisements
		WHERE is_active
		ORDER BY created_at DESC
		LIMIT $1`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list advertisements: %w", err)
	}
	return list, nil
}

// LatestAdvertisement returns nil when no advertisement is active.
func (r *CatalogRepository) LatestAdvertisement(ctx context.Context) (*models.Advertisement, error) {
	var ad models.Advertisement
	err := r.db.GetContext(ctx, &ad, `
		SELECT id, title, subtitle, content, redirect_url, is_active, created_at
		FROM advertisements
		WHERE is_active
		ORDER BY created_at DESC
		LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get advertisement: %w", err)
	}
	return &ad, nil
}
