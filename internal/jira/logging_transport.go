package jira

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/douhashi/labelbulk/internal/logger"
)

// loggingRoundTripper はHTTPリクエスト/レスポンスをログ出力するラウンドトリッパー
type loggingRoundTripper struct {
	base   http.RoundTripper
	logger logger.Logger
}

// RoundTrip はHTTPリクエストを実行し、リクエスト/レスポンスの詳細をログ出力する
func (rt *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	rt.logRequest(req)

	resp, err := rt.base.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		rt.logger.Error("jira_api_error",
			"method", req.Method,
			"url", req.URL.String(),
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		)
		return nil, err
	}

	rt.logResponse(req, resp, duration)

	return resp, nil
}

// logRequest はHTTPリクエストの詳細をログ出力する
func (rt *loggingRoundTripper) logRequest(req *http.Request) {
	fields := []interface{}{
		"method", req.Method,
		"url", req.URL.String(),
	}

	if auth := req.Header.Get("Authorization"); auth != "" {
		fields = append(fields, "authorization", maskAuthHeader(auth))
	}

	rt.logger.Debug("jira_api_request", fields...)
}

// logResponse はHTTPレスポンスの詳細をログ出力する
func (rt *loggingRoundTripper) logResponse(req *http.Request, resp *http.Response, duration time.Duration) {
	fields := []interface{}{
		"method", req.Method,
		"status_code", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
	}

	// Jiraのレート制限ヘッダー
	if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining != "" {
		fields = append(fields, "rate_limit_remaining", remaining)
	}
	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		fields = append(fields, "retry_after", retryAfter)
	}

	if resp.Body != nil {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			rt.logger.Error("failed_to_read_response_body", "error", err.Error())
		} else {
			resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))

			preview := string(bodyBytes)
			if len(preview) > 200 {
				preview = preview[:200] + "..."
			}
			fields = append(fields, "body_preview", preview)
		}
	}

	rt.logger.Debug("jira_api_response", fields...)
}

// maskAuthHeader はAuthorizationヘッダーの値をマスキングする
func maskAuthHeader(auth string) string {
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) == 2 {
		return fmt.Sprintf("%s [REDACTED]", parts[0])
	}
	return "[REDACTED]"
}
