package engine

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/insightops/odag-provisioning-backend/interfaces"
)

// MockRegistrar implements interfaces.NavigationRegistrar for testing.
type MockRegistrar struct {
	mock.Mock
}

// RegisterNavigation implements interfaces.NavigationRegistrar.
func (m *MockRegistrar) RegisterNavigation(ctx context.Context, selectionApp interfaces.AppID, link interfaces.LinkResource) error {
	return m.Called(ctx, selectionApp, link).Error(0)
}

// ProbeEngine implements interfaces.NavigationRegistrar.
func (m *MockRegistrar) ProbeEngine(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
