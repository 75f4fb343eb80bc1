// Package mocks holds testify mocks for the adapter interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// MockInferenceClient is a mock of adapter.InferenceClient.
type MockInferenceClient struct {
	mock.Mock
}

// Generate provides a mock function.
func (_m *MockInferenceClient) Generate(ctx context.Context, req m.InferenceRequest) (string, error) {
	ret := _m.Called(ctx, req)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, m.InferenceRequest) string); ok {
		r0 = rf(ctx, req)
	} else {
		r0 = ret.String(0)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, m.InferenceRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockInferenceClient creates a mock and registers expectation checks on cleanup.
func NewMockInferenceClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockInferenceClient {
	mockClient := &MockInferenceClient{}
	mockClient.Mock.Test(t)

	t.Cleanup(func() { mockClient.AssertExpectations(t) })

	return mockClient
}
