package models

import (
	"time"

	"github.com/lib/pq"
)

type Specialist struct {
	ID           string         `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	AvatarURL    *string        `json:"avatar_url,omitempty" db:"avatar_url"`
	Profession   string         `json:"profession" db:"profession"`
	Description  string         `json:"description" db:"description"`
	Rating       float64        `json:"rating" db:"rating"`
	ReviewCount  int            `json:"review_count" db:"review_count"`
	PriceRange   string         `json:"price_range" db:"price_range"`
	Availability string         `json:"availability" db:"availability"`
	Location     string         `json:"location" db:"location"`
	Services     pq.StringArray `json:"services" db:"services"`
	Featured     bool           `json:"featured" db:"featured"`
}

type Shop struct {
	ID          string  `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	LogoURL     *string `json:"logo_url,omitempty" db:"logo_url"`
	Kind        string  `json:"kind" db:"kind"`
	Description string  `json:"description" db:"description"`
	Rating      float64 `json:"rating" db:"rating"`
	ReviewCount int     `json:"review_count" db:"review_count"`
	Location    string  `json:"location" db:"location"`
	OpenHours   string  `json:"open_hours" db:"open_hours"`
	Website     *string `json:"website,omitempty" db:"website"`
	Featured    bool    `json:"featured" db:"featured"`
	Discount    *string `json:"discount,omitempty" db:"discount"`
}

type Advertisement struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Subtitle    string    `json:"subtitle" db:"subtitle"`
	Content     string    `json:"content" db:"content"`
	RedirectURL string    `json:"redirect_url" db:"redirect_url"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type SpecialistFilter struct {
	Search     string
	Profession string
	Limit      int
}
