package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config はアプリケーション全体の設定
type Config struct {
	Jira       JiraConfig       `mapstructure:"jira"`
	Request    RequestConfig    `mapstructure:"request"`
	Paths      PathsConfig      `mapstructure:"paths"`
	Processing ProcessingConfig `mapstructure:"processing"`
}

// JiraConfig はJira接続の設定
type JiraConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	Email       string `mapstructure:"email"`
	APIToken    string `mapstructure:"api_token"`
	BearerToken string `mapstructure:"bearer_token"`
	APIVersion  string `mapstructure:"api_version"`
	VerifySSL   bool   `mapstructure:"verify_ssl"`
}

// RequestConfig はHTTPリクエストのペース配分とリトライの設定
type RequestConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimitPause time.Duration `mapstructure:"rate_limit_pause"`
	MaxRetries     int           `mapstructure:"max_retries"`
	PageSize       int           `mapstructure:"page_size"`
}

// PathsConfig は入出力パスの設定
type PathsConfig struct {
	InputFile string `mapstructure:"input_file"`
	OutputDir string `mapstructure:"output_dir"`
	LogDir    string `mapstructure:"log_dir"`
}

// ProcessingConfig はバッチ処理の設定
type ProcessingConfig struct {
	ProgressInterval int    `mapstructure:"progress_interval"`
	LabelSpacePolicy string `mapstructure:"label_space_policy"`
}

// ラベルに空白が含まれる場合の扱い
var labelSpacePolicies = []string{"prompt", "strip", "underscore", "skip", "abort"}

// 接頭辞なしの環境変数名も受け付ける
var legacyEnv = map[string]string{
	"jira.base_url":            "JIRA_BASE_URL",
	"jira.email":               "JIRA_EMAIL",
	"jira.api_token":           "JIRA_API_TOKEN",
	"jira.bearer_token":        "JIRA_BEARER_TOKEN",
	"jira.api_version":         "API_VERSION",
	"jira.verify_ssl":          "VERIFY_SSL",
	"request.timeout":          "REQUEST_TIMEOUT",
	"request.rate_limit_pause": "RATE_LIMIT_PAUSE",
	"request.max_retries":      "MAX_RETRIES",
	"request.page_size":        "MAX_RESULTS_PER_PAGE",
	"paths.input_file":         "DEFAULT_INPUT_FILE",
	"paths.output_dir":         "OUTPUT_DIR",
	"paths.log_dir":            "LOG_DIR",
}

// NewConfig はデフォルト値で新しいConfigを作成する
func NewConfig() *Config {
	return &Config{
		Jira: JiraConfig{
			BaseURL:    "https://your-domain.atlassian.net",
			APIVersion: "3",
			VerifySSL:  true,
		},
		Request: RequestConfig{
			Timeout:        30 * time.Second,
			RateLimitPause: 1 * time.Second,
			MaxRetries:     3,
			PageSize:       100,
		},
		Paths: PathsConfig{
			InputFile: "jql_queries.json",
			OutputDir: "output",
			LogDir:    "logs",
		},
		Processing: ProcessingConfig{
			ProgressInterval: 10,
			LabelSpacePolicy: "prompt",
		},
	}
}

// viperDefaults はNewConfigの値をviperのキーに展開する。
// 環境変数だけで指定された値もUnmarshalに乗るよう、すべてのキーを登録する。
func viperDefaults() map[string]interface{} {
	d := NewConfig()
	return map[string]interface{}{
		"jira.base_url":                 d.Jira.BaseURL,
		"jira.email":                    d.Jira.Email,
		"jira.api_token":                d.Jira.APIToken,
		"jira.bearer_token":             d.Jira.BearerToken,
		"jira.api_version":              d.Jira.APIVersion,
		"jira.verify_ssl":               d.Jira.VerifySSL,
		"request.timeout":               d.Request.Timeout,
		"request.rate_limit_pause":      d.Request.RateLimitPause,
		"request.max_retries":           d.Request.MaxRetries,
		"request.page_size":             d.Request.PageSize,
		"paths.input_file":              d.Paths.InputFile,
		"paths.output_dir":              d.Paths.OutputDir,
		"paths.log_dir":                 d.Paths.LogDir,
		"processing.progress_interval":  d.Processing.ProgressInterval,
		"processing.label_space_policy": d.Processing.LabelSpacePolicy,
	}
}

// Load は設定ファイルと環境変数から設定を読み込む
// configPathが空の場合は既定の場所を探し、見つからなければデフォルト値と環境変数のみを使う
func (c *Config) Load(configPath string) error {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		if dir, err := DefaultConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
		v.SetConfigName("labelbulk")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("LABELBULK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range viperDefaults() {
		v.SetDefault(key, value)
	}
	for key, env := range legacyEnv {
		prefixed := "LABELBULK_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(c, viper.DecodeHook(secondsToDurationHook())); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	return nil
}

// secondsToDurationHook は "30" や "1.5" のような秒数、または "30s" 形式をtime.Durationに変換する
func secondsToDurationHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		durationType := reflect.TypeOf(time.Duration(0))
		if to != durationType || from == durationType {
			return data, nil
		}
		switch from.Kind() {
		case reflect.String:
			s := strings.TrimSpace(data.(string))
			if secs, err := strconv.ParseFloat(s, 64); err == nil {
				return time.Duration(secs * float64(time.Second)), nil
			}
			return time.ParseDuration(s)
		case reflect.Float32, reflect.Float64:
			return time.Duration(reflect.ValueOf(data).Float() * float64(time.Second)), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return time.Duration(reflect.ValueOf(data).Int()) * time.Second, nil
		default:
			return data, nil
		}
	}
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	u, err := url.Parse(c.Jira.BaseURL)
	if c.Jira.BaseURL == "" || err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid Jira base URL: %q", c.Jira.BaseURL)
	}

	if c.Jira.BearerToken == "" {
		if c.Jira.APIToken == "" {
			return errors.New("Jira API token is required")
		}
		if c.Jira.Email == "" {
			return errors.New("Jira email is required for basic authentication")
		}
	}

	if c.Request.Timeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if c.Request.RateLimitPause < 0 {
		return errors.New("rate limit pause must not be negative")
	}
	if c.Request.MaxRetries < 0 {
		return errors.New("max retries must not be negative")
	}
	if c.Request.PageSize < 1 || c.Request.PageSize > 1000 {
		return fmt.Errorf("page size must be between 1 and 1000: %d", c.Request.PageSize)
	}

	if c.Processing.ProgressInterval < 1 {
		return errors.New("progress interval must be at least 1")
	}
	if !isValidPolicy(c.Processing.LabelSpacePolicy) {
		return fmt.Errorf("invalid label space policy: %s (expected one of %s)",
			c.Processing.LabelSpacePolicy, strings.Join(labelSpacePolicies, ", "))
	}

	return nil
}

func isValidPolicy(p string) bool {
	for _, policy := range labelSpacePolicies {
		if p == policy {
			return true
		}
	}
	return false
}

// DefaultConfigDir は設定ファイルの既定ディレクトリを返す
func DefaultConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "labelbulk"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "labelbulk"), nil
}

// DefaultConfigPath は設定ファイルの既定パスを返す
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "labelbulk.yml"), nil
}
