// Package mocks holds testify mocks for the domain interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"vulnsift.dev/pkg/vulnsift/internal/domain"
	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// MockWorkflow is a mock of domain.Workflow.
type MockWorkflow struct {
	mock.Mock
}

// Scan provides a mock function.
func (_m *MockWorkflow) Scan(ctx context.Context, args domain.ScanArgs) (m.ScanResult, error) {
	ret := _m.Called(ctx, args)

	var r0 m.ScanResult
	if rf, ok := ret.Get(0).(func(context.Context, domain.ScanArgs) m.ScanResult); ok {
		r0 = rf(ctx, args)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(m.ScanResult)
	}

	return r0, ret.Error(1)
}

// History provides a mock function.
func (_m *MockWorkflow) History(ctx context.Context, limit int) error {
	return _m.Called(ctx, limit).Error(0)
}

// Show provides a mock function.
func (_m *MockWorkflow) Show(ctx context.Context, id string) error {
	return _m.Called(ctx, id).Error(0)
}

// Export provides a mock function.
func (_m *MockWorkflow) Export(ctx context.Context, args domain.ExportArgs) error {
	return _m.Called(ctx, args).Error(0)
}

// CacheStats provides a mock function.
func (_m *MockWorkflow) CacheStats(ctx context.Context, root m.Path) error {
	return _m.Called(ctx, root).Error(0)
}

// ClearCache provides a mock function.
func (_m *MockWorkflow) ClearCache(ctx context.Context, root m.Path) error {
	return _m.Called(ctx, root).Error(0)
}

// NewMockWorkflow creates a mock and registers expectation checks on cleanup.
func NewMockWorkflow(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorkflow {
	mockWorkflow := &MockWorkflow{}
	mockWorkflow.Mock.Test(t)

	t.Cleanup(func() { mockWorkflow.AssertExpectations(t) })

	return mockWorkflow
}
