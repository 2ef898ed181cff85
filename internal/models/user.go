package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionTier — уровень подписки пользователя.
type SubscriptionTier string

const (
	TierFree SubscriptionTier = "FREE"
	TierPro  SubscriptionTier = "PRO"
)

// Valid reports whether the tier is one of the known values.
func (t SubscriptionTier) Valid() bool {
	return t == TierFree || t == TierPro
}

// User — учётная запись. PasswordHash никогда не сериализуется наружу.
type User struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	Email        string           `json:"email" db:"email"`
	PasswordHash string           `json:"-" db:"password_hash"`
	Tier         SubscriptionTier `json:"tier" db:"tier"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// UserProfile — настройки и профиль автора поверх учётной записи.
type UserProfile struct {
	UserID           uuid.UUID `json:"user_id" db:"user_id"`
	DisplayName      string    `json:"display_name" db:"display_name"`
	PreferredGenres  []string  `json:"preferred_genres" db:"preferred_genres"`
	PreferredTone    string    `json:"preferred_tone" db:"preferred_tone"`
	DefaultFramework string    `json:"default_framework" db:"default_framework"`
	OnboardingDone   bool      `json:"onboarding_done" db:"onboarding_done"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}
