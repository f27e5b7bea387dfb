// Package mocks provides test doubles for the openrouter client.
package mocks

import (
	"context"

	openrouter "github.com/sells-group/domain-cli/pkg/openrouter"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// ChatCompletion provides a mock function with given fields: ctx, req
func (_m *MockClient) ChatCompletion(ctx context.Context, req openrouter.ChatCompletionRequest) (*openrouter.ChatCompletionResponse, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for ChatCompletion")
	}

	var r0 *openrouter.ChatCompletionResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, openrouter.ChatCompletionRequest) (*openrouter.ChatCompletionResponse, error)); ok {
		return rf(ctx, req)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*openrouter.ChatCompletionResponse)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// Model provides a mock function with no fields
func (_m *MockClient) Model() string {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Model")
	}

	return ret.String(0)
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
