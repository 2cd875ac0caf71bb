package models

import "time"

// Languages the client ships translations for.
var SupportedLanguages = []string{
	"hu", "en", "de", "ro", "sr", "sk", "fr", "es", "pt", "uk",
	"ru", "nl", "sv", "da", "sl", "it", "ar", "ja", "zh", "hi",
}

const DefaultLanguage = "hu"

type Settings struct {
	UserID             string    `json:"user_id" db:"user_id"`
	Language           string    `json:"language" db:"language"`
	DarkMode           bool      `json:"dark_mode" db:"dark_mode"`
	EmailNotifications bool      `json:"email_notifications" db:"email_notifications"`
	PushNotifications  bool      `json:"push_notifications" db:"push_notifications"`
	MarketingEmails    bool      `json:"marketing_emails" db:"marketing_emails"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:             userID,
		Language:           DefaultLanguage,
		DarkMode:           true,
		EmailNotifications: true,
		PushNotifications:  true,
		MarketingEmails:    false,
	}
}

type SettingsUpdate struct {
	Language           string `json:"language" validate:"required,language"`
	DarkMode           bool   `json:"dark_mode"`
	EmailNotifications bool   `json:"email_notifications"`
	PushNotifications  bool   `json:"push_notifications"`
	MarketingEmails    bool   `json:"marketing_emails"`
}
