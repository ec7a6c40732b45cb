package jira

import (
	"context"

	"github.com/douhashi/labelbulk/internal/retry"
)

// RetryingService wraps every Service operation with the same retry policy
type RetryingService struct {
	next   Service
	policy retry.Policy
}

// NewRetryingService creates a new RetryingService instance
func NewRetryingService(next Service, policy retry.Policy) *RetryingService {
	return &RetryingService{next: next, policy: policy}
}

// Search retries the whole paginated search; a failed page restarts from offset 0
func (s *RetryingService) Search(ctx context.Context, jql string) ([]Issue, error) {
	return retry.Do(ctx, s.policy, "search", func(ctx context.Context) ([]Issue, error) {
		return s.next.Search(ctx, jql)
	})
}

// IsLabelEditable performs the editability check with retry logic
func (s *RetryingService) IsLabelEditable(ctx context.Context, issueKey, issueType string) (bool, error) {
	return retry.Do(ctx, s.policy, "check_label_editability", func(ctx context.Context) (bool, error) {
		return s.next.IsLabelEditable(ctx, issueKey, issueType)
	})
}

// ApplyLabelDelta performs the label update with retry logic
func (s *RetryingService) ApplyLabelDelta(ctx context.Context, issueKey string, toAdd, toRemove []string) (bool, error) {
	return retry.Do(ctx, s.policy, "modify_issue_labels", func(ctx context.Context) (bool, error) {
		return s.next.ApplyLabelDelta(ctx, issueKey, toAdd, toRemove)
	})
}

var (
	_ Service = (*Client)(nil)
	_ Service = (*RetryingService)(nil)
)
