package cmd

import (
	"testing"

	"github.com/douhashi/labelbulk/internal/batch"
	"github.com/douhashi/labelbulk/internal/config"
	"github.com/douhashi/labelbulk/internal/logger"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestInitCmd(t *testing.T) {
	env := setupCmdTest(t, "")

	output, err := env.execute(t, "init")
	require.NoError(t, err)
	assert.Contains(t, output, "✅ 初期化が完了しました！")

	content, err := afero.ReadFile(env.fs, defaultInitConfigPath)
	require.NoError(t, err)
	var parsed map[string]interface{}
	require.NoError(t, yaml.Unmarshal(content, &parsed))
	assert.Contains(t, parsed, "jira")
	assert.Contains(t, parsed, "processing")

	// 書き出したバッチはそのまま検証を通る
	batches, err := batch.NewStore(env.fs, testInput, logger.NewNop()).Load(batch.LoadOptions{SpacePolicy: batch.SpacePolicyAbort})
	require.NoError(t, err)
	assert.Len(t, batches, len(sampleBatches))
	for _, b := range batches {
		assert.Equal(t, batch.StatusToDo, b.Status)
	}
}

func TestInitCmd_ExistingFiles(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantContent bool
	}{
		{
			name:        "正常系: 既存ファイルは上書きしない",
			args:        []string{"init"},
			wantContent: true,
		},
		{
			name:        "正常系: --forceで上書き",
			args:        []string{"init", "--force"},
			wantContent: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupCmdTest(t, "")
			env.writeFile(t, defaultInitConfigPath, "custom: true\n")
			env.writeFile(t, testInput, "[]")

			output, err := env.execute(t, tt.args...)
			require.NoError(t, err)

			content, err := afero.ReadFile(env.fs, defaultInitConfigPath)
			require.NoError(t, err)
			if tt.wantContent {
				assert.Equal(t, "custom: true\n", string(content))
				assert.Contains(t, output, "既に存在します")
			} else {
				assert.NotEqual(t, "custom: true\n", string(content))
				assert.NotContains(t, output, "既に存在します")
			}
		})
	}
}

func TestInitCmd_YAMLInput(t *testing.T) {
	env := setupCmdTest(t, "")

	_, err := env.execute(t, "init", "-i", "batches.yaml", "--config-path", "conf/labelbulk.yml")
	require.NoError(t, err)

	exists, err := afero.Exists(env.fs, "conf/labelbulk.yml")
	require.NoError(t, err)
	assert.True(t, exists)

	content, err := afero.ReadFile(env.fs, "batches.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(content), "batchName: Triage backlog")
}

func TestInitCmd_Global(t *testing.T) {
	env := setupCmdTest(t, "")
	t.Setenv("XDG_CONFIG_HOME", "/home/tester/.config")

	output, err := env.execute(t, "init", "--global")
	require.NoError(t, err)

	want, err := config.DefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/home/tester/.config/labelbulk/labelbulk.yml", want)
	assert.Contains(t, output, want)

	exists, err := afero.Exists(env.fs, want)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = afero.Exists(env.fs, defaultInitConfigPath)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestConfigTemplateDefaults(t *testing.T) {
	content, err := templateFS.ReadFile("templates/labelbulk.yml")
	require.NoError(t, err)

	// テンプレートの値はデフォルト値と一致する
	defaults := config.NewConfig()
	var parsed struct {
		Paths struct {
			InputFile string `yaml:"input_file"`
			OutputDir string `yaml:"output_dir"`
			LogDir    string `yaml:"log_dir"`
		} `yaml:"paths"`
		Processing struct {
			ProgressInterval int    `yaml:"progress_interval"`
			LabelSpacePolicy string `yaml:"label_space_policy"`
		} `yaml:"processing"`
	}
	require.NoError(t, yaml.Unmarshal(content, &parsed))

	assert.Equal(t, defaults.Paths.InputFile, parsed.Paths.InputFile)
	assert.Equal(t, defaults.Paths.OutputDir, parsed.Paths.OutputDir)
	assert.Equal(t, defaults.Paths.LogDir, parsed.Paths.LogDir)
	assert.Equal(t, defaults.Processing.ProgressInterval, parsed.Processing.ProgressInterval)
	assert.Equal(t, defaults.Processing.LabelSpacePolicy, parsed.Processing.LabelSpacePolicy)
}
