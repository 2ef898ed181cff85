package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storygen-server/internal/interfaces"
	"storygen-server/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TTL восстанавливаемой сессии редактора. Сессия продлевается при каждой записи.
const editorSessionTTL = 30 * 24 * time.Hour

// Compile-time check to ensure redisSessionRepository implements SessionStateRepository
var _ interfaces.SessionStateRepository = (*redisSessionRepository)(nil)

type redisSessionRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisSessionRepository creates a new Redis-backed SessionStateRepository.
func NewRedisSessionRepository(client *redis.Client, logger *zap.Logger) interfaces.SessionStateRepository {
	return &redisSessionRepository{
		client: client,
		logger: logger.Named("RedisSessionRepo"),
	}
}

func sessionKey(userID uuid.UUID) string {
	return fmt.Sprintf("editor_session:%s", userID.String())
}

// SaveSession stores the editor session of a user, refreshing its TTL.
func (r *redisSessionRepository) SaveSession(ctx context.Context, userID uuid.UUID, session *models.EditorSession) error {
	session.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal editor session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(userID), data, editorSessionTTL).Err(); err != nil {
		r.logger.Error("Failed to save editor session in redis", zap.Error(err), zap.String("userID", userID.String()))
		return fmt.Errorf("failed to save editor session in redis: %w", err)
	}
	return nil
}

// GetSession retrieves the editor session of a user.
func (r *redisSessionRepository) GetSession(ctx context.Context, userID uuid.UUID) (*models.EditorSession, error) {
	data, err := r.client.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get editor session from redis", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to get editor session from redis: %w", err)
	}
	session := &models.EditorSession{}
	if err := json.Unmarshal(data, session); err != nil {
		// Повреждённая сессия не должна блокировать вход: считаем её отсутствующей
		r.logger.Warn("Corrupted editor session in redis, discarding", zap.Error(err), zap.String("userID", userID.String()))
		if delErr := r.client.Del(ctx, sessionKey(userID)).Err(); delErr != nil {
			r.logger.Warn("Failed to delete corrupted editor session", zap.Error(delErr), zap.String("userID", userID.String()))
		}
		return nil, models.ErrNotFound
	}
	return session, nil
}

// DeleteSession removes the stored session, e.g. on logout.
func (r *redisSessionRepository) DeleteSession(ctx context.Context, userID uuid.UUID) error {
	if err := r.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		r.logger.Error("Failed to delete editor session from redis", zap.Error(err), zap.String("userID", userID.String()))
		return fmt.Errorf("failed to delete editor session from redis: %w", err)
	}
	return nil
}
