package mocks

import (
	"context"

	"storygen-server/internal/interfaces"
	"storygen-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockTokenRepository is a mock type for the interfaces.TokenRepository type
type MockTokenRepository struct {
	mock.Mock
}

// SetToken provides a mock function with given fields: ctx, userID, td
func (_m *MockTokenRepository) SetToken(ctx context.Context, userID uuid.UUID, td *models.TokenDetails) error {
	ret := _m.Called(ctx, userID, td)
	return ret.Error(0)
}

// GetUserIDByAccessUUID provides a mock function with given fields: ctx, accessUUID
func (_m *MockTokenRepository) GetUserIDByAccessUUID(ctx context.Context, accessUUID string) (uuid.UUID, error) {
	ret := _m.Called(ctx, accessUUID)

	var r0 uuid.UUID
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(uuid.UUID)
	}

	return r0, ret.Error(1)
}

// GetUserIDByRefreshUUID provides a mock function with given fields: ctx, refreshUUID
func (_m *MockTokenRepository) GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error) {
	ret := _m.Called(ctx, refreshUUID)

	var r0 uuid.UUID
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(uuid.UUID)
	}

	return r0, ret.Error(1)
}

// DeleteTokens provides a mock function with given fields: ctx, userID, accessUUID, refreshUUID
func (_m *MockTokenRepository) DeleteTokens(ctx context.Context, userID uuid.UUID, accessUUID string, refreshUUID string) (int64, error) {
	ret := _m.Called(ctx, userID, accessUUID, refreshUUID)

	var r0 int64
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(int64)
	}

	return r0, ret.Error(1)
}

// DeleteTokensByUserID provides a mock function with given fields: ctx, userID
func (_m *MockTokenRepository) DeleteTokensByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	ret := _m.Called(ctx, userID)

	var r0 int64
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(int64)
	}

	return r0, ret.Error(1)
}

// NewMockTokenRepository creates a new instance of MockTokenRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockTokenRepository(t interface {
	mock.TestingT
	Helper()
}) *MockTokenRepository {
	m := &MockTokenRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ interfaces.TokenRepository = (*MockTokenRepository)(nil)
