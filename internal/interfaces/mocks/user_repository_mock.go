package mocks

import (
	"context"

	"storygen-server/internal/interfaces"
	"storygen-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock type for the interfaces.UserRepository type
type MockUserRepository struct {
	mock.Mock
}

// CreateUser provides a mock function with given fields: ctx, user
func (_m *MockUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	ret := _m.Called(ctx, user)
	return ret.Error(0)
}

// GetUserByID provides a mock function with given fields: ctx, id
func (_m *MockUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.User)
	}

	return r0, ret.Error(1)
}

// GetUserByEmail provides a mock function with given fields: ctx, email
func (_m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ret := _m.Called(ctx, email)

	var r0 *models.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.User)
	}

	return r0, ret.Error(1)
}

// UpdateUserTier provides a mock function with given fields: ctx, userID, tier
func (_m *MockUserRepository) UpdateUserTier(ctx context.Context, userID uuid.UUID, tier models.SubscriptionTier) error {
	ret := _m.Called(ctx, userID, tier)
	return ret.Error(0)
}

// NewMockUserRepository creates a new instance of MockUserRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockUserRepository(t interface {
	mock.TestingT
	Helper()
}) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ interfaces.UserRepository = (*MockUserRepository)(nil)

// MockUserProfileRepository is a mock type for the interfaces.UserProfileRepository type
type MockUserProfileRepository struct {
	mock.Mock
}

// GetProfile provides a mock function with given fields: ctx, userID
func (_m *MockUserProfileRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	ret := _m.Called(ctx, userID)

	var r0 *models.UserProfile
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.UserProfile)
	}

	return r0, ret.Error(1)
}

// UpsertProfile provides a mock function with given fields: ctx, profile
func (_m *MockUserProfileRepository) UpsertProfile(ctx context.Context, profile *models.UserProfile) error {
	ret := _m.Called(ctx, profile)
	return ret.Error(0)
}

// NewMockUserProfileRepository creates a new instance of MockUserProfileRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockUserProfileRepository(t interface {
	mock.TestingT
	Helper()
}) *MockUserProfileRepository {
	m := &MockUserProfileRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ interfaces.UserProfileRepository = (*MockUserProfileRepository)(nil)
