package jira

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/douhashi/labelbulk/internal/logger"
	"github.com/douhashi/labelbulk/internal/version"
	"golang.org/x/oauth2"
)

var userAgent = version.Get().UserAgent()

// Sleeper blocks for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Options configures a Client
type Options struct {
	BaseURL        string
	Email          string
	APIToken       string
	BearerToken    string
	APIVersion     string
	VerifySSL      bool
	Timeout        time.Duration
	PageSize       int
	RateLimitPause time.Duration
	Logger         logger.Logger
	Sleep          Sleeper
	// Transport overrides the base transport, mainly for tests
	Transport http.RoundTripper
}

// Client talks to the Jira REST API. It is not safe for concurrent use:
// the editability cache is written without synchronization.
type Client struct {
	baseURL        string
	apiVersion     string
	email          string
	apiToken       string
	pageSize       int
	rateLimitPause time.Duration
	http           *http.Client
	logger         logger.Logger
	sleep          Sleeper

	// editability is keyed by issue type name and lives for the whole run
	editability map[string]bool
}

// NewClient creates a Jira client
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("Jira base URL is required")
	}
	if opts.BearerToken == "" && opts.APIToken == "" {
		return nil, errors.New("Jira API token is required")
	}
	if opts.APIVersion == "" {
		opts.APIVersion = "3"
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Sleep == nil {
		opts.Sleep = SleepContext
	}

	base := opts.Transport
	if base == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		if !opts.VerifySSL {
			t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via verify_ssl=false
		}
		base = t
	}

	var transport http.RoundTripper = &loggingRoundTripper{base: base, logger: opts.Logger}
	if opts.BearerToken != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.BearerToken, TokenType: "Bearer"}),
			Base:   transport,
		}
	}

	// bearer auth replaces basic credentials entirely
	apiToken := opts.APIToken
	if opts.BearerToken != "" {
		apiToken = ""
	}

	return &Client{
		baseURL:        strings.TrimSuffix(opts.BaseURL, "/"),
		apiVersion:     opts.APIVersion,
		email:          opts.Email,
		apiToken:       apiToken,
		pageSize:       opts.PageSize,
		rateLimitPause: opts.RateLimitPause,
		http:           &http.Client{Timeout: opts.Timeout, Transport: transport},
		logger:         opts.Logger,
		sleep:          opts.Sleep,
		editability:    make(map[string]bool),
	}, nil
}

func (c *Client) apiURL(path string) string {
	return fmt.Sprintf("%s/rest/api/%s/%s", c.baseURL, c.apiVersion, path)
}

// Search pages through /search with startAt/maxResults until startAt+pageSize
// reaches the total reported by the last page, pausing between pages.
func (c *Client) Search(ctx context.Context, jql string) ([]Issue, error) {
	c.logger.Info("Executing JQL query", "jql", jql)

	var collected []searchIssue
	startAt := 0
	for {
		params := url.Values{
			"jql":        {jql},
			"fields":     {"issuetype,labels"},
			"startAt":    {strconv.Itoa(startAt)},
			"maxResults": {strconv.Itoa(c.pageSize)},
		}

		body, err := c.do(ctx, http.MethodGet, c.apiURL("search")+"?"+params.Encode(), nil, "execute JQL query", okOnly)
		if err != nil {
			return nil, err
		}

		var page searchResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("parse search response: %w", err)
		}
		if page.Issues == nil {
			c.logger.Warn("No 'issues' found in API response", "start_at", startAt)
			break
		}

		collected = append(collected, *page.Issues...)
		c.logger.Info("Retrieved issues", "count", len(*page.Issues), "total_so_far", len(collected))

		if startAt+c.pageSize >= page.Total {
			c.logger.Info("All issues retrieved", "total", page.Total)
			break
		}
		startAt += c.pageSize

		if err := c.sleep(ctx, c.rateLimitPause); err != nil {
			return nil, err
		}
	}

	issues := make([]Issue, 0, len(collected))
	for _, raw := range collected {
		issue := Issue{
			ID:            raw.ID,
			Key:           raw.Key,
			CurrentLabels: raw.Fields.Labels,
		}
		if raw.Fields.IssueType != nil {
			issue.Type = raw.Fields.IssueType.Name
		}
		if issue.CurrentLabels == nil {
			issue.CurrentLabels = []string{}
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

// IsLabelEditable inspects editmeta of one representative issue. The answer
// is cached per issue type, since the field schema is a property of the type.
func (c *Client) IsLabelEditable(ctx context.Context, issueKey, issueType string) (bool, error) {
	if editable, ok := c.editability[issueType]; ok {
		return editable, nil
	}

	c.logger.Debug("Checking label editability", "issue_key", issueKey, "issue_type", issueType)

	body, err := c.do(ctx, http.MethodGet, c.apiURL("issue/"+url.PathEscape(issueKey)+"/editmeta"), nil,
		fmt.Sprintf("get edit metadata for issue %s", issueKey), okOnly)
	if err != nil {
		return false, err
	}

	var meta editMetaResponse
	if err := json.Unmarshal(body, &meta); err != nil {
		return false, fmt.Errorf("parse editmeta response: %w", err)
	}

	editable := false
	if field, ok := meta.Fields["labels"]; ok {
		editable = containsString(field.Operations, "add") && containsString(field.Operations, "remove")
	}

	c.editability[issueType] = editable
	c.logger.Debug("Label editability resolved", "issue_type", issueType, "editable", editable)
	return editable, nil
}

// ApplyLabelDelta sends one PUT with every add operation followed by every remove
func (c *Client) ApplyLabelDelta(ctx context.Context, issueKey string, toAdd, toRemove []string) (bool, error) {
	var req updateRequest
	req.Update.Labels = make([]labelOperation, 0, len(toAdd)+len(toRemove))
	for _, label := range toAdd {
		req.Update.Labels = append(req.Update.Labels, labelOperation{Add: label})
	}
	for _, label := range toRemove {
		req.Update.Labels = append(req.Update.Labels, labelOperation{Remove: label})
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return false, fmt.Errorf("marshal update request: %w", err)
	}

	c.logger.Debug("Modifying labels", "issue_key", issueKey, "add", toAdd, "remove", toRemove)

	if _, err := c.do(ctx, http.MethodPut, c.apiURL("issue/"+url.PathEscape(issueKey)), payload,
		fmt.Sprintf("modify labels for issue %s", issueKey), okOrNoContent); err != nil {
		return false, err
	}

	c.logger.Info("Successfully modified labels", "issue_key", issueKey)
	return true, nil
}

// Success statuses per operation: /search and /editmeta answer 200, the update 204 (or 200).
var (
	okOnly        = []int{http.StatusOK}
	okOrNoContent = []int{http.StatusOK, http.StatusNoContent}
)

// do executes one request and classifies any response outside accepted as an APIError
func (c *Client) do(ctx context.Context, method, apiURL string, payload []byte, operation string, accepted []int) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiToken != "" && c.email != "" {
		req.SetBasicAuth(c.email, c.apiToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &APIError{
			Type:        ErrorTypeNetwork,
			Message:     operation,
			OriginalErr: err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{
			Type:        ErrorTypeNetwork,
			StatusCode:  resp.StatusCode,
			Message:     operation + ": read response",
			OriginalErr: err,
		}
	}

	for _, status := range accepted {
		if resp.StatusCode == status {
			return body, nil
		}
	}

	apiErr := newResponseError(resp, body, operation, 2*c.rateLimitPause)
	if apiErr.Type == ErrorTypeRateLimit {
		c.logger.Warn("Rate limit exceeded", "operation", operation, "retry_after", apiErr.RetryAfter.String())
	} else {
		c.logger.Error("Jira API request failed",
			"operation", operation,
			"status_code", apiErr.StatusCode,
			"error_type", apiErr.Type.String(),
			"message", apiErr.Message,
		)
	}
	return nil, apiErr
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
