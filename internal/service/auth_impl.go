package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"storygen-server/internal/config"
	"storygen-server/internal/interfaces"
	"storygen-server/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Compile-time check to ensure authServiceImpl implements AuthService
var _ AuthService = (*authServiceImpl)(nil)

const minPasswordLength = 8

const tokenIssuer = "storygen-server"

// authServiceImpl implements the AuthService interface.
type authServiceImpl struct {
	userRepo    interfaces.UserRepository
	profileRepo interfaces.UserProfileRepository
	tokenRepo   interfaces.TokenRepository
	cfg         *config.Config
	logger      *zap.Logger
}

// NewAuthService creates a new instance of authServiceImpl.
func NewAuthService(
	userRepo interfaces.UserRepository,
	profileRepo interfaces.UserProfileRepository,
	tokenRepo interfaces.TokenRepository,
	cfg *config.Config,
	logger *zap.Logger,
) AuthService {
	return &authServiceImpl{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		tokenRepo:   tokenRepo,
		cfg:         cfg,
		logger:      logger.Named("AuthService"),
	}
}

// Register creates a new user on the FREE tier.
func (s *authServiceImpl) Register(ctx context.Context, email, password string) (*models.User, *models.TokenDetails, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	log := s.logger.With(zap.String("email", email))
	log.Info("Registering new user")

	if _, err := mail.ParseAddress(email); err != nil {
		log.Warn("Registration attempt with invalid email format", zap.Error(err))
		return nil, nil, fmt.Errorf("invalid email format: %w", models.ErrInvalidCredentials)
	}
	if len(password) < minPasswordLength {
		log.Warn("Registration attempt with too short password")
		return nil, nil, fmt.Errorf("password must be at least %d characters: %w", minPasswordLength, models.ErrInvalidCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password during registration", zap.Error(err))
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Tier:         models.TierFree,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrUserAlreadyExists) {
			log.Warn("Registration attempt for existing email")
			return nil, nil, err
		}
		log.Error("Failed to create user via repository", zap.Error(err))
		return nil, nil, err
	}

	td, err := s.createTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	log.Info("User registered", zap.String("userID", user.ID.String()))
	return user, td, nil
}

// Login verifies credentials and issues a token pair.
func (s *authServiceImpl) Login(ctx context.Context, email, password string) (*models.User, *models.TokenDetails, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	log := s.logger.With(zap.String("email", email))

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			// Не раскрываем, что именно не совпало.
			log.Warn("Login attempt for unknown email")
			return nil, nil, models.ErrInvalidCredentials
		}
		log.Error("Failed to get user by email during login", zap.Error(err))
		return nil, nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		log.Warn("Login attempt with wrong password", zap.String("userID", user.ID.String()))
		return nil, nil, models.ErrInvalidCredentials
	}

	td, err := s.createTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	log.Info("User logged in", zap.String("userID", user.ID.String()))
	return user, td, nil
}

// Refresh rotates a refresh token. The presented token must be both
// cryptographically valid and still present in Redis; the old refresh
// token is revoked before the new pair is issued.
func (s *authServiceImpl) Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return nil, err
	}

	userID, err := s.tokenRepo.GetUserIDByRefreshUUID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			s.logger.Warn("Refresh attempt with revoked or expired token", zap.String("refreshUUID", claims.ID))
			return nil, models.ErrTokenInvalid
		}
		return nil, err
	}
	if userID.String() != claims.UserID {
		s.logger.Error("Refresh token user mismatch",
			zap.String("tokenUserID", claims.UserID), zap.String("storedUserID", userID.String()))
		return nil, models.ErrTokenInvalid
	}

	// Ротация: старый refresh-токен отзывается до выпуска нового.
	if _, err := s.tokenRepo.DeleteTokens(ctx, userID, "", claims.ID); err != nil {
		s.logger.Error("Failed to revoke old refresh token", zap.String("userID", userID.String()), zap.Error(err))
		return nil, err
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	td, err := s.createTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Token pair refreshed", zap.String("userID", userID.String()))
	return td, nil
}

// Logout revokes every token of the user.
func (s *authServiceImpl) Logout(ctx context.Context, userID uuid.UUID) error {
	deleted, err := s.tokenRepo.DeleteTokensByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to delete user tokens on logout", zap.String("userID", userID.String()), zap.Error(err))
		return err
	}
	s.logger.Info("User logged out", zap.String("userID", userID.String()), zap.Int64("tokensRevoked", deleted))
	return nil
}

// GetUser returns the account of a user.
func (s *authServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

// GetProfile returns the author profile, falling back to an empty default
// for users who never saved one.
func (s *authServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	profile, err := s.profileRepo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrProfileNotFound) {
			return &models.UserProfile{UserID: userID}, nil
		}
		return nil, err
	}
	return profile, nil
}

// UpdateProfile creates or replaces the author profile of a user.
func (s *authServiceImpl) UpdateProfile(ctx context.Context, profile *models.UserProfile) error {
	if profile.UserID == uuid.Nil {
		return models.ErrInvalidInput
	}
	return s.profileRepo.UpsertProfile(ctx, profile)
}

// createTokens generates a new access/refresh pair and stores the token
// UUIDs in Redis so they can be revoked.
func (s *authServiceImpl) createTokens(ctx context.Context, user *models.User) (*models.TokenDetails, error) {
	now := time.Now()

	td := &models.TokenDetails{
		AccessUUID:  uuid.New().String(),
		RefreshUUID: uuid.New().String(),
		AtExpires:   now.Add(s.cfg.JWTAccessTTL).Unix(),
		RtExpires:   now.Add(s.cfg.JWTRefreshTTL).Unix(),
	}

	acClaims := &models.Claims{
		UserID: user.ID.String(),
		Tier:   user.Tier,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        td.AccessUUID,
			ExpiresAt: jwt.NewNumericDate(time.Unix(td.AtExpires, 0)),
			Subject:   user.ID.String(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	acToken := jwt.NewWithClaims(jwt.SigningMethodHS256, acClaims)
	var err error
	td.AccessToken, err = acToken.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		s.logger.Error("Failed to sign access token", zap.Error(err), zap.String("userID", user.ID.String()))
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	rcClaims := &models.Claims{
		UserID: user.ID.String(),
		Tier:   user.Tier,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        td.RefreshUUID,
			ExpiresAt: jwt.NewNumericDate(time.Unix(td.RtExpires, 0)),
			Subject:   user.ID.String(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	rtToken := jwt.NewWithClaims(jwt.SigningMethodHS256, rcClaims)
	td.RefreshToken, err = rtToken.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		s.logger.Error("Failed to sign refresh token", zap.Error(err), zap.String("userID", user.ID.String()))
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	if err := s.tokenRepo.SetToken(ctx, user.ID, td); err != nil {
		return nil, err
	}
	return td, nil
}

// parseToken validates the signature and standard claims of a token.
func (s *authServiceImpl) parseToken(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrTokenExpired
		}
		return nil, models.ErrTokenMalformed
	}
	if !token.Valid || claims.ID == "" || claims.UserID == "" {
		return nil, models.ErrTokenInvalid
	}
	return claims, nil
}
