// Package mocks holds testify mocks for the controller interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"vulnsift.dev/pkg/vulnsift/internal/controller"
	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// MockUI is a mock of controller.UI. Progress callbacks are recorded but
// never asserted, since their count depends on scan internals.
type MockUI struct {
	mock.Mock
}

// Start provides a mock function.
func (_m *MockUI) Start(ctx context.Context, options ...controller.StartOption) error {
	return _m.Called(ctx, options).Error(0)
}

// Close provides a mock function.
func (_m *MockUI) Close(ctx context.Context) {
	_m.Called(ctx)
}

// Wait provides a mock function.
func (_m *MockUI) Wait(ctx context.Context) {
	_m.Called(ctx)
}

// FilesDiscovered is a no-op.
func (_m *MockUI) FilesDiscovered(int) {}

// FileProcessed is a no-op.
func (_m *MockUI) FileProcessed(m.Path) {}

// ValidationFinished is a no-op.
func (_m *MockUI) ValidationFinished(time.Duration, bool) {}

// ScanFinished is a no-op.
func (_m *MockUI) ScanFinished(m.ScanMode, m.ScanStats) {}

// DisplayScanResult provides a mock function.
func (_m *MockUI) DisplayScanResult(ctx context.Context, result m.ScanResult) error {
	return _m.Called(ctx, result).Error(0)
}

// DisplayHistory provides a mock function.
func (_m *MockUI) DisplayHistory(ctx context.Context, records []m.ScanRecord) error {
	return _m.Called(ctx, records).Error(0)
}

// DisplayCacheInfo provides a mock function.
func (_m *MockUI) DisplayCacheInfo(ctx context.Context, info m.CacheInfo) error {
	return _m.Called(ctx, info).Error(0)
}

// DisplayCacheCleared provides a mock function.
func (_m *MockUI) DisplayCacheCleared(ctx context.Context, path m.Path) error {
	return _m.Called(ctx, path).Error(0)
}

// NewMockUI creates a mock and registers expectation checks on cleanup.
func NewMockUI(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUI {
	mockUI := &MockUI{}
	mockUI.Mock.Test(t)

	t.Cleanup(func() { mockUI.AssertExpectations(t) })

	return mockUI
}
