// Package mocks provides test doubles for the searxng client.
package mocks

import (
	"context"

	searxng "github.com/sells-group/domain-cli/pkg/searxng"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Search provides a mock function with given fields: ctx, query, opts
func (_m *MockClient) Search(ctx context.Context, query string, opts ...searxng.SearchOption) (*searxng.SearchResponse, error) {
	ret := _m.Called(ctx, query)

	if len(ret) == 0 {
		panic("no return value specified for Search")
	}

	var r0 *searxng.SearchResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*searxng.SearchResponse, error)); ok {
		return rf(ctx, query)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*searxng.SearchResponse)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// BaseURL provides a mock function with no fields
func (_m *MockClient) BaseURL() string {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for BaseURL")
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
