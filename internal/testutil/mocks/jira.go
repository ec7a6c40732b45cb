package mocks

import (
	"context"

	"github.com/douhashi/labelbulk/internal/jira"
	"github.com/stretchr/testify/mock"
)

// MockJiraService is a mock implementation of jira.Service
type MockJiraService struct {
	mock.Mock
}

// NewMockJiraService creates a new instance of MockJiraService
func NewMockJiraService() *MockJiraService {
	return &MockJiraService{}
}

// Search mocks the Search method
func (m *MockJiraService) Search(ctx context.Context, jql string) ([]jira.Issue, error) {
	args := m.Called(ctx, jql)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]jira.Issue), args.Error(1)
}

// IsLabelEditable mocks the IsLabelEditable method
func (m *MockJiraService) IsLabelEditable(ctx context.Context, issueKey, issueType string) (bool, error) {
	args := m.Called(ctx, issueKey, issueType)
	return args.Bool(0), args.Error(1)
}

// ApplyLabelDelta mocks the ApplyLabelDelta method
func (m *MockJiraService) ApplyLabelDelta(ctx context.Context, issueKey string, toAdd, toRemove []string) (bool, error) {
	args := m.Called(ctx, issueKey, toAdd, toRemove)
	return args.Bool(0), args.Error(1)
}

var _ jira.Service = (*MockJiraService)(nil)
