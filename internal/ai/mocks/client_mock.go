package mocks

import (
	"context"

	"storygen-server/internal/ai"

	"github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the ai.Client type
type MockClient struct {
	mock.Mock
}

// GenerateText provides a mock function with given fields: ctx, userID, systemPrompt, userInput, params
func (_m *MockClient) GenerateText(ctx context.Context, userID string, systemPrompt string, userInput string, params ai.GenerationParams) (string, ai.UsageInfo, error) {
	ret := _m.Called(ctx, userID, systemPrompt, userInput, params)

	var r0 string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(string)
	}

	var r1 ai.UsageInfo
	if ret.Get(1) != nil {
		r1 = ret.Get(1).(ai.UsageInfo)
	}

	return r0, r1, ret.Error(2)
}

// NewMockClient creates a new instance of MockClient. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockClient(t interface {
	mock.TestingT
	Helper()
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ ai.Client = (*MockClient)(nil)
