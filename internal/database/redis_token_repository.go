package database

import (
	"context"
	"fmt"
	"time"

	"storygen-server/internal/interfaces"
	"storygen-server/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check to ensure redisTokenRepository implements TokenRepository
var _ interfaces.TokenRepository = (*redisTokenRepository)(nil)

type redisTokenRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisTokenRepository creates a new Redis-backed TokenRepository.
func NewRedisTokenRepository(client *redis.Client, logger *zap.Logger) interfaces.TokenRepository {
	return &redisTokenRepository{
		client: client,
		logger: logger.Named("RedisTokenRepo"),
	}
}

// SetToken stores token details in Redis.
// Two key-value pairs are written per token pair:
// 1. AccessUUID -> UserID (with access token TTL)
// 2. RefreshUUID -> UserID (with refresh token TTL)
// Both identifiers are also added to a user-specific set
// user_tokens:{UserID} so all tokens of a user can be revoked at once.
func (r *redisTokenRepository) SetToken(ctx context.Context, userID uuid.UUID, td *models.TokenDetails) error {
	now := time.Now()
	accessTTL := time.Unix(td.AtExpires, 0).Sub(now)
	refreshTTL := time.Unix(td.RtExpires, 0).Sub(now)

	userIDStr := userID.String()
	accessKey := fmt.Sprintf("access_uuid:%s", td.AccessUUID)
	refreshKey := fmt.Sprintf("refresh_uuid:%s", td.RefreshUUID)
	userSetKey := fmt.Sprintf("user_tokens:%s", userIDStr)

	// Use pipeline for atomic operations
	pipe := r.client.Pipeline()
	pipe.Set(ctx, accessKey, userIDStr, accessTTL)
	pipe.Set(ctx, refreshKey, userIDStr, refreshTTL)
	pipe.SAdd(ctx, userSetKey,
		fmt.Sprintf("access:%s", td.AccessUUID),
		fmt.Sprintf("refresh:%s", td.RefreshUUID),
	)
	pipe.Expire(ctx, userSetKey, refreshTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to set token details in redis", zap.Error(err), zap.String("userID", userIDStr))
		return fmt.Errorf("failed to set token details in redis: %w", err)
	}
	r.logger.Debug("Tokens stored in Redis",
		zap.String("userID", userIDStr),
		zap.Duration("accessTTL", accessTTL),
		zap.Duration("refreshTTL", refreshTTL),
	)
	return nil
}

func (r *redisTokenRepository) getUserID(ctx context.Context, key string) (uuid.UUID, error) {
	userIDStr, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return uuid.Nil, models.ErrTokenNotFound
		}
		r.logger.Error("Failed to get token from redis", zap.Error(err), zap.String("key", key))
		return uuid.Nil, fmt.Errorf("failed to get token from redis: %w", err)
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		// Данные в Redis повреждены
		r.logger.Error("Failed to parse userID from redis token data", zap.Error(err), zap.String("key", key), zap.String("value", userIDStr))
		return uuid.Nil, fmt.Errorf("corrupted userID data in redis for key %s: %w", key, err)
	}
	return userID, nil
}

// GetUserIDByAccessUUID retrieves the UserID associated with an AccessUUID.
func (r *redisTokenRepository) GetUserIDByAccessUUID(ctx context.Context, accessUUID string) (uuid.UUID, error) {
	return r.getUserID(ctx, fmt.Sprintf("access_uuid:%s", accessUUID))
}

// GetUserIDByRefreshUUID retrieves the UserID associated with a RefreshUUID.
func (r *redisTokenRepository) GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error) {
	return r.getUserID(ctx, fmt.Sprintf("refresh_uuid:%s", refreshUUID))
}

// DeleteTokens removes tokens from Redis based on their UUIDs and removes them from the user's set.
func (r *redisTokenRepository) DeleteTokens(ctx context.Context, userID uuid.UUID, accessUUID, refreshUUID string) (int64, error) {
	userSetKey := fmt.Sprintf("user_tokens:%s", userID.String())
	keysToDelete := []string{}
	identifiersToRemove := []interface{}{}

	if accessUUID != "" {
		keysToDelete = append(keysToDelete, fmt.Sprintf("access_uuid:%s", accessUUID))
		identifiersToRemove = append(identifiersToRemove, fmt.Sprintf("access:%s", accessUUID))
	}
	if refreshUUID != "" {
		keysToDelete = append(keysToDelete, fmt.Sprintf("refresh_uuid:%s", refreshUUID))
		identifiersToRemove = append(identifiersToRemove, fmt.Sprintf("refresh:%s", refreshUUID))
	}
	if len(keysToDelete) == 0 {
		r.logger.Warn("DeleteTokens called with no UUIDs", zap.String("userID", userID.String()))
		return 0, nil
	}

	pipe := r.client.Pipeline()
	delCmd := pipe.Del(ctx, keysToDelete...)
	pipe.SRem(ctx, userSetKey, identifiersToRemove...)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to delete tokens from redis", zap.Error(err), zap.String("userID", userID.String()))
		return 0, fmt.Errorf("failed to delete tokens from redis: %w", err)
	}

	deletedCount, _ := delCmd.Result()
	r.logger.Info("Tokens deleted from Redis", zap.String("userID", userID.String()), zap.Int64("deletedCount", deletedCount))
	return deletedCount, nil
}

// DeleteTokensByUserID removes all tokens associated with a user via the
// user_tokens set. Used on full logout.
func (r *redisTokenRepository) DeleteTokensByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	userSetKey := fmt.Sprintf("user_tokens:%s", userID.String())

	identifiers, err := r.client.SMembers(ctx, userSetKey).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		r.logger.Error("Failed to read user token set from redis", zap.Error(err), zap.String("userID", userID.String()))
		return 0, fmt.Errorf("failed to read user token set from redis: %w", err)
	}
	if len(identifiers) == 0 {
		return 0, nil
	}

	keysToDelete := make([]string, 0, len(identifiers)+1)
	for _, id := range identifiers {
		switch {
		case len(id) > 7 && id[:7] == "access:":
			keysToDelete = append(keysToDelete, fmt.Sprintf("access_uuid:%s", id[7:]))
		case len(id) > 8 && id[:8] == "refresh:":
			keysToDelete = append(keysToDelete, fmt.Sprintf("refresh_uuid:%s", id[8:]))
		}
	}
	keysToDelete = append(keysToDelete, userSetKey)

	deleted, err := r.client.Del(ctx, keysToDelete...).Result()
	if err != nil {
		r.logger.Error("Failed to delete user tokens from redis", zap.Error(err), zap.String("userID", userID.String()))
		return 0, fmt.Errorf("failed to delete user tokens from redis: %w", err)
	}
	r.logger.Info("All user tokens deleted from Redis", zap.String("userID", userID.String()), zap.Int64("deleted", deleted))
	return deleted, nil
}
