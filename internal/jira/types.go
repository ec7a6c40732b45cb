package jira

import "context"

// Issue is the subset of a Jira issue the label pipeline needs
type Issue struct {
	ID            string   `json:"id"`
	Key           string   `json:"key"`
	Type          string   `json:"type"`
	CurrentLabels []string `json:"currentLabels"`
}

// Service is the remote issue-tracker surface used by the batch processor
type Service interface {
	// Search returns every issue matching the JQL query across all pages
	Search(ctx context.Context, jql string) ([]Issue, error)
	// IsLabelEditable reports whether labels support add and remove for the issue's type
	IsLabelEditable(ctx context.Context, issueKey, issueType string) (bool, error)
	// ApplyLabelDelta adds then removes the given labels in a single update
	ApplyLabelDelta(ctx context.Context, issueKey string, toAdd, toRemove []string) (bool, error)
}

// searchResponse mirrors /rest/api/{v}/search
type searchResponse struct {
	StartAt    int            `json:"startAt"`
	MaxResults int            `json:"maxResults"`
	Total      int            `json:"total"`
	Issues     *[]searchIssue `json:"issues"`
}

type searchIssue struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Fields struct {
		IssueType *struct {
			Name string `json:"name"`
		} `json:"issuetype"`
		Labels []string `json:"labels"`
	} `json:"fields"`
}

// editMetaResponse mirrors /rest/api/{v}/issue/{key}/editmeta
type editMetaResponse struct {
	Fields map[string]struct {
		Operations []string `json:"operations"`
	} `json:"fields"`
}

// labelOperation is one entry of update.labels; exactly one field is set
type labelOperation struct {
	Add    string `json:"add,omitempty"`
	Remove string `json:"remove,omitempty"`
}

type updateRequest struct {
	Update struct {
		Labels []labelOperation `json:"labels"`
	} `json:"update"`
}
