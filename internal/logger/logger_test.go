package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{
			name:    "正常系: デフォルト設定",
			opts:    nil,
			wantErr: false,
		},
		{
			name:    "正常系: jsonフォーマット",
			opts:    []Option{WithFormat("json"), WithLevel("debug")},
			wantErr: false,
		},
		{
			name:    "異常系: 不正なレベル",
			opts:    []Option{WithLevel("verbose")},
			wantErr: true,
		},
		{
			name:    "異常系: 不正なフォーマット",
			opts:    []Option{WithFormat("xml")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]Option{WithOutput(&bytes.Buffer{})}, tt.opts...)
			l, err := New(opts...)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, l)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNew_OutputRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	l, err := New(WithOutput(buf), WithLevel("warn"))
	require.NoError(t, err)

	l.Info("hidden message")
	l.Warn("visible message", "batch", "triage")

	out := buf.String()
	assert.NotContains(t, out, "hidden message")
	assert.Contains(t, out, "visible message")
	assert.Contains(t, out, "triage")
}

func TestNew_LogFileCapturesDebug(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "logs", "labelbulk_test.log")

	l, err := New(WithOutput(&bytes.Buffer{}), WithLevel("error"), WithLogFile(logFile))
	require.NoError(t, err)

	l.Debug("debug detail", "issue", "PROJ-1")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "debug detail"))
}

func TestZapLogger_SanitizesFields(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	l := newLoggerWithCore(core)

	l.Info("configured", "api_token", "super-secret", "email", "me@example.com")

	logs := observed.All()
	require.Len(t, logs, 1)
	assert.Equal(t, masked, logs[0].ContextMap()["api_token"])
	assert.Equal(t, "me@example.com", logs[0].ContextMap()["email"])
}

func TestZapLogger_WithFields(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	l := newLoggerWithCore(core).WithFields("run_id", "abc")

	l.Warn("rate limited")

	logs := observed.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "abc", logs[0].ContextMap()["run_id"])
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	assert.NotPanics(t, func() {
		l.Info("noop")
		l.WithFields("k", "v").Error("noop")
	})
}
