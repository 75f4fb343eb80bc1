package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// MockScanner is a mock of domain.Scanner.
type MockScanner struct {
	mock.Mock
}

// Scan provides a mock function.
func (_m *MockScanner) Scan(ctx context.Context, root m.Path) (m.ScanResult, error) {
	ret := _m.Called(ctx, root)

	var r0 m.ScanResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(m.ScanResult)
	}

	return r0, ret.Error(1)
}

// ScanIncremental provides a mock function.
func (_m *MockScanner) ScanIncremental(ctx context.Context, root m.Path, forceFull bool) (m.ScanResult, error) {
	ret := _m.Called(ctx, root, forceFull)

	var r0 m.ScanResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(m.ScanResult)
	}

	return r0, ret.Error(1)
}

// NewMockScanner creates a mock and registers expectation checks on cleanup.
func NewMockScanner(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockScanner {
	mockScanner := &MockScanner{}
	mockScanner.Mock.Test(t)

	t.Cleanup(func() { mockScanner.AssertExpectations(t) })

	return mockScanner
}
