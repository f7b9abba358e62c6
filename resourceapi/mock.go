package resourceapi

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/insightops/odag-provisioning-backend/interfaces"
)

// MockResourceAPI implements interfaces.ResourceAPI for testing. Behavior is
// configured per test via testify's mock expectations.
type MockResourceAPI struct {
	mock.Mock
}

// ValidateApplication implements interfaces.ResourceAPI.
func (m *MockResourceAPI) ValidateApplication(ctx context.Context, id interfaces.AppID) (interfaces.AppValidationResult, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(interfaces.AppValidationResult), args.Error(1)
}

// CreateLink implements interfaces.ResourceAPI.
func (m *MockResourceAPI) CreateLink(ctx context.Context, req interfaces.LinkRequest) (interfaces.LinkResource, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(interfaces.LinkResource), args.Error(1)
}

// About implements interfaces.ResourceAPI.
func (m *MockResourceAPI) About(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// ProbeLinkService implements interfaces.ResourceAPI.
func (m *MockResourceAPI) ProbeLinkService(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
