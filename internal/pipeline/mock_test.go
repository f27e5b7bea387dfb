package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/domain-cli/internal/model"
)

// --- Reasoner Mock ---

type mockReasoner struct {
	mock.Mock
}

func (m *mockReasoner) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *mockReasoner) Provider() string { return "openrouter" }

func (m *mockReasoner) Model() string { return "test-model" }

// --- Searcher Mock ---

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) SearchAll(ctx context.Context, queries []string) []model.SearchResult {
	args := m.Called(ctx, queries)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.SearchResult)
}

// --- Verifier Mock ---

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, domain string) model.VerificationStatus {
	args := m.Called(ctx, domain)
	return args.Get(0).(model.VerificationStatus)
}
