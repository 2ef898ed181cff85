package mocks

import (
	"context"

	"storygen-server/internal/interfaces"
	"storygen-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProjectRepository is a mock type for the interfaces.ProjectRepository type
type MockProjectRepository struct {
	mock.Mock
}

// CreateProject provides a mock function with given fields: ctx, project
func (_m *MockProjectRepository) CreateProject(ctx context.Context, project *models.Project) error {
	ret := _m.Called(ctx, project)
	return ret.Error(0)
}

// GetProjectByID provides a mock function with given fields: ctx, userID, projectID
func (_m *MockProjectRepository) GetProjectByID(ctx context.Context, userID uuid.UUID, projectID uuid.UUID) (*models.Project, error) {
	ret := _m.Called(ctx, userID, projectID)

	var r0 *models.Project
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Project)
	}

	return r0, ret.Error(1)
}

// ListProjectsByUser provides a mock function with given fields: ctx, userID
func (_m *MockProjectRepository) ListProjectsByUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	ret := _m.Called(ctx, userID)

	var r0 []models.Project
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.Project)
	}

	return r0, ret.Error(1)
}

// CountProjectsByUser provides a mock function with given fields: ctx, userID
func (_m *MockProjectRepository) CountProjectsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	ret := _m.Called(ctx, userID)

	var r0 int64
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(int64)
	}

	return r0, ret.Error(1)
}

// UpdateProjectContent provides a mock function with given fields: ctx, project
func (_m *MockProjectRepository) UpdateProjectContent(ctx context.Context, project *models.Project) error {
	ret := _m.Called(ctx, project)
	return ret.Error(0)
}

// UpdateProjectTitle provides a mock function with given fields: ctx, userID, projectID, title
func (_m *MockProjectRepository) UpdateProjectTitle(ctx context.Context, userID uuid.UUID, projectID uuid.UUID, title string) error {
	ret := _m.Called(ctx, userID, projectID, title)
	return ret.Error(0)
}

// DeleteProject provides a mock function with given fields: ctx, userID, projectID
func (_m *MockProjectRepository) DeleteProject(ctx context.Context, userID uuid.UUID, projectID uuid.UUID) (int64, error) {
	ret := _m.Called(ctx, userID, projectID)

	var r0 int64
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(int64)
	}

	return r0, ret.Error(1)
}

// NewMockProjectRepository creates a new instance of MockProjectRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockProjectRepository(t interface {
	mock.TestingT
	Helper()
}) *MockProjectRepository {
	m := &MockProjectRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ interfaces.ProjectRepository = (*MockProjectRepository)(nil)
