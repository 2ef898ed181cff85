package models

// Gin context keys set by the auth middleware.
const (
	ContextKeyUserID = "userID"
	ContextKeyTier   = "userTier"
	ContextKeyClaims = "userClaims"
)
