package models

import "github.com/golang-jwt/jwt/v5"

// Claims defines the JWT payload carried by access and refresh tokens.
type Claims struct {
	UserID string           `json:"uid"`
	Tier   SubscriptionTier `json:"tier"`
	jwt.RegisteredClaims
}
