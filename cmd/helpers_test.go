package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/douhashi/labelbulk/internal/batch"
	"github.com/douhashi/labelbulk/internal/config"
	"github.com/douhashi/labelbulk/internal/jira"
	"github.com/douhashi/labelbulk/internal/logger"
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

const (
	testInput       = "batches.json"
	testSummaryPath = "output/final_results_20240102_030405.json"
)

// cmdEnv はコマンドテスト用の環境
type cmdEnv struct {
	fs         afero.Fs
	configPath string
}

// setupCmdTest はモック用の関数変数を差し替え、テスト終了時に元に戻す
func setupCmdTest(t *testing.T, configBody string) *cmdEnv {
	t.Helper()

	origFs := appFs
	origNow := nowFunc
	origService := newJiraServiceFunc
	origInteractive := isInteractiveFunc
	origCleanup := newCleanupManagerFunc
	origNoColor := color.NoColor
	t.Cleanup(func() {
		color.NoColor = origNoColor
		appFs = origFs
		nowFunc = origNow
		newJiraServiceFunc = origService
		isInteractiveFunc = origInteractive
		newCleanupManagerFunc = origCleanup
	})

	for _, key := range []string{"JIRA_BASE_URL", "JIRA_EMAIL", "JIRA_API_TOKEN", "JIRA_BEARER_TOKEN", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}

	color.NoColor = true
	appFs = afero.NewMemMapFs()
	nowFunc = func() time.Time { return testNow }
	isInteractiveFunc = func() bool { return false }
	newJiraServiceFunc = func(*config.Config, logger.Logger) (jira.Service, error) {
		t.Fatal("unexpected Jira client creation")
		return nil, nil
	}

	dir := t.TempDir()
	configPath := filepath.Join(dir, "labelbulk.yml")
	if configBody == "" {
		configBody = validConfig(dir)
	}
	require.NoError(t, os.WriteFile(configPath, []byte(configBody), 0644))

	return &cmdEnv{fs: appFs, configPath: configPath}
}

func validConfig(dir string) string {
	return `jira:
  base_url: "https://example.atlassian.net"
  email: "bot@example.com"
  api_token: "secret-token"
paths:
  input_file: "` + testInput + `"
  output_dir: "output"
  log_dir: "` + filepath.Join(dir, "logs") + `"
processing:
  label_space_policy: "abort"
`
}

// execute はルートコマンドを実行し、標準出力と標準エラーをまとめて返す
func (e *cmdEnv) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return e.executeWithInput(t, strings.NewReader(""), args...)
}

func (e *cmdEnv) executeWithInput(t *testing.T, in io.Reader, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	cmd := NewRootCmd()
	cmd.SetIn(in)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append(args, "--config="+e.configPath, "--env-file="))

	err := cmd.Execute()
	return buf.String(), err
}

func (e *cmdEnv) writeBatches(t *testing.T, batches []batch.Batch) {
	t.Helper()
	require.NoError(t, batch.NewStore(e.fs, testInput, logger.NewNop()).Save(batches))
}

func (e *cmdEnv) writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, e.fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, afero.WriteFile(e.fs, path, []byte(content), 0644))
}

func (e *cmdEnv) readBatches(t *testing.T) []batch.Batch {
	t.Helper()
	batches, err := batch.NewStore(e.fs, testInput, logger.NewNop()).Load(batch.LoadOptions{SkipValidation: true})
	require.NoError(t, err)
	return batches
}
