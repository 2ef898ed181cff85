package service_test

import (
	"context"
	"testing"
	"time"

	"storygen-server/internal/config"
	"storygen-server/internal/interfaces/mocks"
	"storygen-server/internal/models"
	"storygen-server/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type authFixture struct {
	userRepo    *mocks.MockUserRepository
	profileRepo *mocks.MockUserProfileRepository
	tokenRepo   *mocks.MockTokenRepository
	cfg         *config.Config
	svc         service.AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		userRepo:    mocks.NewMockUserRepository(t),
		profileRepo: mocks.NewMockUserProfileRepository(t),
		tokenRepo:   mocks.NewMockTokenRepository(t),
		cfg: &config.Config{
			JWTSecret:     "test-secret",
			JWTAccessTTL:  15 * time.Minute,
			JWTRefreshTTL: 720 * time.Hour,
		},
	}
	f.svc = service.NewAuthService(f.userRepo, f.profileRepo, f.tokenRepo, f.cfg, zap.NewNop())
	return f
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("Successful registration issues a stored token pair", func(t *testing.T) {
		f := newAuthFixture(t)

		f.userRepo.On("CreateUser", ctx, mock.MatchedBy(func(u *models.User) bool {
			// Email нормализован, пароль не хранится открытым текстом.
			return u.Email == "writer@example.com" &&
				u.Tier == models.TierFree &&
				bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct-horse")) == nil
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.User).ID = uuid.New()
		}).Return(nil).Once()
		f.tokenRepo.On("SetToken", ctx, mock.Anything, mock.MatchedBy(func(td *models.TokenDetails) bool {
			return td.AccessToken != "" && td.RefreshToken != "" && td.AccessUUID != td.RefreshUUID
		})).Return(nil).Once()

		user, td, err := f.svc.Register(ctx, "  Writer@Example.com ", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, "writer@example.com", user.Email)
		require.NotNil(t, td)

		// Токен несёт uid и tier в своих claims.
		claims := &models.Claims{}
		_, err = jwt.ParseWithClaims(td.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(f.cfg.JWTSecret), nil
		})
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID)
		assert.Equal(t, models.TierFree, claims.Tier)
		assert.Equal(t, td.AccessUUID, claims.ID)
	})

	t.Run("Invalid email format", func(t *testing.T) {
		f := newAuthFixture(t)
		_, _, err := f.svc.Register(ctx, "not-an-email", "correct-horse")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})

	t.Run("Too short password", func(t *testing.T) {
		f := newAuthFixture(t)
		_, _, err := f.svc.Register(ctx, "writer@example.com", "short")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		f := newAuthFixture(t)
		f.userRepo.On("CreateUser", ctx, mock.Anything).Return(models.ErrUserAlreadyExists).Once()
		_, _, err := f.svc.Register(ctx, "writer@example.com", "correct-horse")
		assert.ErrorIs(t, err, models.ErrUserAlreadyExists)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	storedUser := &models.User{
		ID:           uuid.New(),
		Email:        "writer@example.com",
		PasswordHash: string(hashed),
		Tier:         models.TierPro,
	}

	t.Run("Successful login", func(t *testing.T) {
		f := newAuthFixture(t)
		f.userRepo.On("GetUserByEmail", ctx, "writer@example.com").Return(storedUser, nil).Once()
		f.tokenRepo.On("SetToken", ctx, storedUser.ID, mock.Anything).Return(nil).Once()

		user, td, err := f.svc.Login(ctx, "Writer@Example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, storedUser.ID, user.ID)
		assert.NotEmpty(t, td.RefreshToken)
	})

	t.Run("Wrong password", func(t *testing.T) {
		f := newAuthFixture(t)
		f.userRepo.On("GetUserByEmail", ctx, "writer@example.com").Return(storedUser, nil).Once()

		_, _, err := f.svc.Login(ctx, "writer@example.com", "wrong")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})

	t.Run("Unknown email does not leak existence", func(t *testing.T) {
		f := newAuthFixture(t)
		f.userRepo.On("GetUserByEmail", ctx, "ghost@example.com").Return(nil, models.ErrUserNotFound).Once()

		_, _, err := f.svc.Login(ctx, "ghost@example.com", "whatever1")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	login := func(t *testing.T, f *authFixture, user *models.User) *models.TokenDetails {
		t.Helper()
		f.userRepo.On("GetUserByEmail", ctx, user.Email).Return(user, nil).Once()
		f.tokenRepo.On("SetToken", ctx, user.ID, mock.Anything).Return(nil)
		_, td, err := f.svc.Login(ctx, user.Email, "correct-horse")
		require.NoError(t, err)
		return td
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	storedUser := &models.User{
		ID:           uuid.New(),
		Email:        "writer@example.com",
		PasswordHash: string(hashed),
		Tier:         models.TierFree,
	}

	t.Run("Rotation revokes the old refresh token", func(t *testing.T) {
		f := newAuthFixture(t)
		td := login(t, f, storedUser)

		f.tokenRepo.On("GetUserIDByRefreshUUID", ctx, td.RefreshUUID).Return(storedUser.ID, nil).Once()
		f.tokenRepo.On("DeleteTokens", ctx, storedUser.ID, "", td.RefreshUUID).Return(int64(1), nil).Once()
		f.userRepo.On("GetUserByID", ctx, storedUser.ID).Return(storedUser, nil).Once()

		newTD, err := f.svc.Refresh(ctx, td.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, td.RefreshUUID, newTD.RefreshUUID)
		f.tokenRepo.AssertExpectations(t)
	})

	t.Run("Revoked refresh token is rejected", func(t *testing.T) {
		f := newAuthFixture(t)
		td := login(t, f, storedUser)

		f.tokenRepo.On("GetUserIDByRefreshUUID", ctx, td.RefreshUUID).Return(uuid.Nil, models.ErrTokenNotFound).Once()

		_, err := f.svc.Refresh(ctx, td.RefreshToken)
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})

	t.Run("Garbage token is rejected", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.svc.Refresh(ctx, "not.a.jwt")
		assert.ErrorIs(t, err, models.ErrTokenMalformed)
	})
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Missing profile falls back to an empty default", func(t *testing.T) {
		f := newAuthFixture(t)
		f.profileRepo.On("GetProfile", ctx, userID).Return(nil, models.ErrProfileNotFound).Once()

		profile, err := f.svc.GetProfile(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, userID, profile.UserID)
		assert.False(t, profile.OnboardingDone)
	})

	t.Run("Stored profile is returned as is", func(t *testing.T) {
		f := newAuthFixture(t)
		stored := &models.UserProfile{UserID: userID, DisplayName: "Ishmael", OnboardingDone: true}
		f.profileRepo.On("GetProfile", ctx, userID).Return(stored, nil).Once()

		profile, err := f.svc.GetProfile(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, stored, profile)
	})
}

func TestLogoutRevokesTokens(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	f := newAuthFixture(t)
	f.tokenRepo.On("DeleteTokensByUserID", ctx, userID).Return(int64(2), nil).Once()

	err := f.svc.Logout(ctx, userID)
	assert.NoError(t, err)
	f.tokenRepo.AssertExpectations(t)
}
