package handler

import (
	"storygen-server/internal/ai"
	"storygen-server/internal/export"
	"storygen-server/internal/models"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// authResponse — пара токенов и аккаунт после register/login.
type authResponse struct {
	User   *models.User         `json:"user"`
	Tokens *models.TokenDetails `json:"tokens"`
}

type updateProfileRequest struct {
	DisplayName      string   `json:"display_name"`
	PreferredGenres  []string `json:"preferred_genres"`
	PreferredTone    string   `json:"preferred_tone"`
	DefaultFramework string   `json:"default_framework"`
	OnboardingDone   bool     `json:"onboarding_done"`
}

type setTierRequest struct {
	Tier string `json:"tier" binding:"required"`
}

type startDraftRequest struct {
	FrameworkID  string `json:"framework_id" binding:"required"`
	RawStoryIdea string `json:"raw_story_idea"`
}

// Пустое название допустимо: сервис подставит "Untitled Story (<дата>)".
type submitTitleRequest struct {
	Title string `json:"title"`
}

type renameProjectRequest struct {
	Title string `json:"title" binding:"required"`
}

type updateStageRequest struct {
	Content string `json:"content"`
}

type clarifyingQuestionsRequest struct {
	Instruction string `json:"instruction"`
}

type stageSuggestionRequest struct {
	Mode        string              `json:"mode" binding:"required"`
	Answers     []ai.QuestionAnswer `json:"answers,omitempty"`
	Instruction string              `json:"instruction"`
}

type generateFullStoryRequest struct {
	Mode        string `json:"mode" binding:"required"`
	Instruction string `json:"instruction"`
}

type exportProjectRequest struct {
	Format  string         `json:"format" binding:"required"`
	Options export.Options `json:"options"`
}

type questionsResponse struct {
	Questions []string `json:"questions"`
}

type suggestionResponse struct {
	Content string `json:"content"`
}

type usageResponse struct {
	Remaining map[models.AIOperationKind]int `json:"remaining"`
}
