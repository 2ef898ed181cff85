package mocks

import (
	"context"

	"storygen-server/internal/interfaces"
	"storygen-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockSessionStateRepository is a mock type for the interfaces.SessionStateRepository type
type MockSessionStateRepository struct {
	mock.Mock
}

// SaveSession provides a mock function with given fields: ctx, userID, session
func (_m *MockSessionStateRepository) SaveSession(ctx context.Context, userID uuid.UUID, session *models.EditorSession) error {
	ret := _m.Called(ctx, userID, session)
	return ret.Error(0)
}

// GetSession provides a mock function with given fields: ctx, userID
func (_m *MockSessionStateRepository) GetSession(ctx context.Context, userID uuid.UUID) (*models.EditorSession, error) {
	ret := _m.Called(ctx, userID)

	var r0 *models.EditorSession
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.EditorSession)
	}

	return r0, ret.Error(1)
}

// DeleteSession provides a mock function with given fields: ctx, userID
func (_m *MockSessionStateRepository) DeleteSession(ctx context.Context, userID uuid.UUID) error {
	ret := _m.Called(ctx, userID)
	return ret.Error(0)
}

// NewMockSessionStateRepository creates a new instance of MockSessionStateRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockSessionStateRepository(t interface {
	mock.TestingT
	Helper()
}) *MockSessionStateRepository {
	m := &MockSessionStateRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ interfaces.SessionStateRepository = (*MockSessionStateRepository)(nil)
