package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// MockResultStore is a mock of adapter.ResultStore.
type MockResultStore struct {
	mock.Mock
}

// SaveScan provides a mock function.
func (_m *MockResultStore) SaveScan(ctx context.Context, result m.ScanResult) error {
	ret := _m.Called(ctx, result)

	return ret.Error(0)
}

// ListScans provides a mock function.
func (_m *MockResultStore) ListScans(ctx context.Context, limit int) ([]m.ScanRecord, error) {
	ret := _m.Called(ctx, limit)

	var r0 []m.ScanRecord
	if v := ret.Get(0); v != nil {
		r0 = v.([]m.ScanRecord)
	}

	return r0, ret.Error(1)
}

// GetScan provides a mock function.
func (_m *MockResultStore) GetScan(ctx context.Context, id string) (m.ScanResult, error) {
	ret := _m.Called(ctx, id)

	return ret.Get(0).(m.ScanResult), ret.Error(1)
}

// Close provides a mock function.
func (_m *MockResultStore) Close() error {
	ret := _m.Called()

	return ret.Error(0)
}

// NewMockResultStore creates a mock and registers expectation checks on cleanup.
func NewMockResultStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockResultStore {
	mockStore := &MockResultStore{}
	mockStore.Mock.Test(t)

	t.Cleanup(func() { mockStore.AssertExpectations(t) })

	return mockStore
}
