package mocks

import (
	"context"

	"storygen-server/internal/interfaces"
	"storygen-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProjectVersionRepository is a mock type for the interfaces.ProjectVersionRepository type
type MockProjectVersionRepository struct {
	mock.Mock
}

// CreateVersion provides a mock function with given fields: ctx, version
func (_m *MockProjectVersionRepository) CreateVersion(ctx context.Context, version *models.ProjectVersion) error {
	ret := _m.Called(ctx, version)
	return ret.Error(0)
}

// ListVersions provides a mock function with given fields: ctx, projectID
func (_m *MockProjectVersionRepository) ListVersions(ctx context.Context, projectID uuid.UUID) ([]models.ProjectVersion, error) {
	ret := _m.Called(ctx, projectID)

	var r0 []models.ProjectVersion
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.ProjectVersion)
	}

	return r0, ret.Error(1)
}

// GetVersionByID provides a mock function with given fields: ctx, projectID, versionID
func (_m *MockProjectVersionRepository) GetVersionByID(ctx context.Context, projectID uuid.UUID, versionID uuid.UUID) (*models.ProjectVersion, error) {
	ret := _m.Called(ctx, projectID, versionID)

	var r0 *models.ProjectVersion
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.ProjectVersion)
	}

	return r0, ret.Error(1)
}

// DeleteVersionsBeyond provides a mock function with given fields: ctx, projectID, keep
func (_m *MockProjectVersionRepository) DeleteVersionsBeyond(ctx context.Context, projectID uuid.UUID, keep int) (int64, error) {
	ret := _m.Called(ctx, projectID, keep)

	var r0 int64
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(int64)
	}

	return r0, ret.Error(1)
}

// NewMockProjectVersionRepository creates a new instance of MockProjectVersionRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockProjectVersionRepository(t interface {
	mock.TestingT
	Helper()
}) *MockProjectVersionRepository {
	m := &MockProjectVersionRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ interfaces.ProjectVersionRepository = (*MockProjectVersionRepository)(nil)
