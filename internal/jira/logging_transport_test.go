package jira

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/douhashi/labelbulk/internal/testutil/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoggingRoundTripper(t *testing.T) {
	t.Run("正常系: リクエストとレスポンスをログ出力する", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-RateLimit-Remaining", "42")
			_, _ = w.Write([]byte(strings.Repeat("x", 300)))
		}))
		defer server.Close()

		log, logs := helpers.NewObservableLogger(zapcore.DebugLevel)
		client := &http.Client{Transport: &loggingRoundTripper{base: http.DefaultTransport, logger: log}}

		req, err := http.NewRequest(http.MethodGet, server.URL+"/rest/api/3/search", nil)
		require.NoError(t, err)
		req.SetBasicAuth("bot@example.com", "secret")

		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		requests := logs.FilterMessage("jira_api_request").All()
		require.Len(t, requests, 1)
		fields := requests[0].ContextMap()
		assert.Equal(t, "GET", fields["method"])
		assert.Equal(t, "Basic [REDACTED]", fields["authorization"])

		responses := logs.FilterMessage("jira_api_response").All()
		require.Len(t, responses, 1)
		fields = responses[0].ContextMap()
		assert.EqualValues(t, 200, fields["status_code"])
		assert.Equal(t, "42", fields["rate_limit_remaining"])
		assert.Len(t, fields["body_preview"], 203)
	})

	t.Run("正常系: 本文は読み直せる", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		defer server.Close()

		log, _ := helpers.NewObservableLogger(zapcore.DebugLevel)
		client := &http.Client{Transport: &loggingRoundTripper{base: http.DefaultTransport, logger: log}}

		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		defer resp.Body.Close()

		buf := new(bytes.Buffer)
		_, err = buf.ReadFrom(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, `{"ok":true}`, buf.String())
	})

	t.Run("異常系: 通信エラーをログ出力する", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		log, logs := helpers.NewObservableLogger(zapcore.DebugLevel)
		client := &http.Client{Transport: &loggingRoundTripper{base: http.DefaultTransport, logger: log}}

		_, err := client.Get(url)
		require.Error(t, err)
		assert.Equal(t, 1, logs.FilterMessage("jira_api_error").Len())
	})
}

func TestMaskAuthHeader(t *testing.T) {
	assert.Equal(t, "Bearer [REDACTED]", maskAuthHeader("Bearer abc"))
	assert.Equal(t, "[REDACTED]", maskAuthHeader("opaque"))
}
