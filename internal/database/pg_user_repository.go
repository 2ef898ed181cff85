package database

import (
	"context"
	"errors"
	"fmt"

	"storygen-server/internal/interfaces"
	"storygen-server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgUserRepository implements UserRepository
var _ interfaces.UserRepository = (*pgUserRepository)(nil)

type pgUserRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgUserRepository creates a new PostgreSQL-backed UserRepository.
func NewPgUserRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.UserRepository {
	return &pgUserRepository{
		db:     db,
		logger: logger.Named("PgUserRepo"),
	}
}

// CreateUser inserts a new user into the database.
func (r *pgUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (email, password_hash, tier) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("email", user.Email))
	err := r.db.QueryRow(ctx, query, user.Email, user.PasswordHash, user.Tier).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// Check for unique constraint violation (duplicate email)
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // 23505 is unique_violation
			r.logger.Warn("Attempted to create duplicate user by email", zap.String("email", user.Email))
			return models.ErrUserAlreadyExists
		}
		r.logger.Error("Failed to create user in postgres", zap.Error(err), zap.String("email", user.Email))
		return fmt.Errorf("failed to create user in postgres: %w", err)
	}
	r.logger.Info("User created successfully", zap.String("userID", user.ID.String()), zap.String("email", user.Email))
	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *pgUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT id, email, password_hash, tier, created_at, updated_at FROM users WHERE id = $1`
	user := &models.User{}
	err := r.db.QueryRow(ctx, query, id).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Tier, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("User not found by ID", zap.String("id", id.String()))
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user by id from postgres", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get user by id from postgres: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by their email.
func (r *pgUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, password_hash, tier, created_at, updated_at FROM users WHERE email = $1`
	user := &models.User{}
	err := r.db.QueryRow(ctx, query, email).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Tier, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("User not found by email", zap.String("email", email))
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user by email from postgres", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get user by email from postgres: %w", err)
	}
	return user, nil
}

// UpdateUserTier changes the subscription tier of a user.
func (r *pgUserRepository) UpdateUserTier(ctx context.Context, userID uuid.UUID, tier models.SubscriptionTier) error {
	query := `UPDATE users SET tier = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, userID, tier)
	if err != nil {
		r.logger.Error("Failed to update user tier in postgres", zap.Error(err), zap.String("userID", userID.String()))
		return fmt.Errorf("failed to update user tier in postgres: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}
	r.logger.Info("User tier updated", zap.String("userID", userID.String()), zap.String("tier", string(tier)))
	return nil
}
