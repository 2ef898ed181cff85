package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storygen-server/internal/interfaces"
	"storygen-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenVerifier определяет функцию, которая проверяет строку токена и
// возвращает claims. Ошибки: models.ErrTokenInvalid, models.ErrTokenExpired,
// models.ErrTokenMalformed.
type TokenVerifier func(ctx context.Context, tokenString string) (*models.Claims, error)

// AuthMiddleware создает Gin middleware для проверки JWT. Подпись
// проверяется через verifier, затем access UUID сверяется с Redis:
// отозванный на логауте токен не проходит даже с валидной подписью.
// UserID, tier и claims кладутся в контекст запроса.
func AuthMiddleware(verifier TokenVerifier, tokenRepo interfaces.TokenRepository, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("AuthMiddleware")
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Authorization header missing", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized: Missing token"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			log.Warn("Malformed Authorization header", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized: Malformed token header"})
			return
		}
		tokenString := parts[1]

		claims, err := verifier(c.Request.Context(), tokenString)
		if err != nil {
			status := http.StatusUnauthorized
			msg := "Unauthorized: Invalid token"
			switch {
			case errors.Is(err, models.ErrTokenExpired):
				msg = "Unauthorized: Token expired"
			case errors.Is(err, models.ErrTokenMalformed), errors.Is(err, models.ErrTokenInvalid):
				// Одно сообщение для обоих случаев.
			default:
				log.Error("Unexpected token verification error", zap.Error(err))
				status = http.StatusInternalServerError
				msg = "Internal server error during token verification"
			}
			c.AbortWithStatusJSON(status, models.ErrorResponse{Error: msg})
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			log.Warn("Token carries malformed userID", zap.String("uid", claims.UserID))
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized: Invalid token"})
			return
		}

		// Проверка отзыва: access UUID должен ещё существовать в Redis.
		storedUserID, err := tokenRepo.GetUserIDByAccessUUID(c.Request.Context(), claims.ID)
		if err != nil {
			if errors.Is(err, models.ErrTokenNotFound) {
				log.Warn("Access token revoked or expired in store", zap.String("userID", claims.UserID))
				c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized: Token revoked"})
				return
			}
			log.Error("Failed to check token revocation", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
			return
		}
		if storedUserID != userID {
			log.Error("Token user mismatch", zap.String("tokenUserID", claims.UserID), zap.String("storedUserID", storedUserID.String()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized: Invalid token"})
			return
		}

		tier := claims.Tier
		if !tier.Valid() {
			tier = models.TierFree
		}

		c.Set(models.ContextKeyUserID, userID)
		c.Set(models.ContextKeyTier, tier)
		c.Set(models.ContextKeyClaims, claims)
		c.Next()
	}
}

// UserIDFromContext извлекает userID, установленный AuthMiddleware.
func UserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(models.ContextKeyUserID)
	if !ok {
		return uuid.Nil, false
	}
	userID, ok := v.(uuid.UUID)
	return userID, ok
}

// TierFromContext извлекает уровень подписки, установленный AuthMiddleware.
func TierFromContext(c *gin.Context) models.SubscriptionTier {
	v, ok := c.Get(models.ContextKeyTier)
	if !ok {
		return models.TierFree
	}
	tier, ok := v.(models.SubscriptionTier)
	if !ok {
		return models.TierFree
	}
	return tier
}
