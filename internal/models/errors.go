package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound        = errors.New("resource not found") // General not found
	ErrProjectNotFound = errors.New("project not found")
	ErrVersionNotFound = errors.New("project version not found")
	ErrProfileNotFound = errors.New("user profile not found")

	// User & Authentication Errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized") // Authentication required or failed
	ErrForbidden          = errors.New("forbidden")    // Authenticated, but lacks permission

	// Token Errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenNotFound  = errors.New("token not found in storage")

	// Framework & Project Errors
	ErrFrameworkNotFound  = errors.New("framework not found")
	ErrUnknownStage       = errors.New("stage does not belong to the project framework")
	ErrNoPendingDraft     = errors.New("no pending project draft awaiting a title")
	ErrDeleteNotConfirmed = errors.New("project deletion requires explicit confirmation")

	// Quota & Tier Gates (routed to upgrade prompts, never raw errors)
	ErrQuotaExceeded = errors.New("daily AI usage quota exceeded")
	ErrTierRequired  = errors.New("feature requires a Pro subscription")
	ErrProjectLimit  = errors.New("project limit reached for current tier")

	// Bulk Operation Serialization
	ErrOperationInProgress = errors.New("another bulk operation is already in progress for this project")
	ErrNothingToGenerate   = errors.New("all stages are already filled; clear a stage or regenerate per stage")

	// AI Provider Errors
	ErrAIGenerationFailed = errors.New("AI text generation failed")
	ErrAIInvalidFormat    = errors.New("AI returned a response in an unexpected format")

	// General Request Errors
	ErrBadRequest   = errors.New("bad request")
	ErrInvalidInput = errors.New("invalid input data")
)
