package mocks

import (
	"context"

	"storygen-server/internal/interfaces"
	"storygen-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockClientEventPublisher is a mock type for the interfaces.ClientEventPublisher type
type MockClientEventPublisher struct {
	mock.Mock
}

// PublishClientEvent provides a mock function with given fields: ctx, payload
func (_m *MockClientEventPublisher) PublishClientEvent(ctx context.Context, payload models.ClientEventPayload) error {
	ret := _m.Called(ctx, payload)
	return ret.Error(0)
}

// Close provides a mock function with given fields:
func (_m *MockClientEventPublisher) Close() error {
	ret := _m.Called()
	return ret.Error(0)
}

// NewMockClientEventPublisher creates a new instance of MockClientEventPublisher. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockClientEventPublisher(t interface {
	mock.TestingT
	Helper()
}) *MockClientEventPublisher {
	m := &MockClientEventPublisher{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ interfaces.ClientEventPublisher = (*MockClientEventPublisher)(nil)
