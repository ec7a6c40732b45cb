package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/douhashi/labelbulk/internal/config"
	"github.com/douhashi/labelbulk/internal/logger"
	"github.com/douhashi/labelbulk/internal/version"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	envFile   string
	verbose   bool
	rootCmd   *cobra.Command
	appLog    logger.Logger
	appConfig *config.Config
)

func init() {
	rootCmd = newRootCmd()

	// サブコマンドの追加
	addCommands(rootCmd)
}

func addCommands(cmd *cobra.Command) {
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newCleanCmd())
}

// NewRootCmd creates a new root command with all subcommands
func NewRootCmd() *cobra.Command {
	cmd := newRootCmd()
	addCommands(cmd)
	return cmd
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labelbulk",
		Short: "Jiraのラベルを一括変更するCLIツール",
		Long: `labelbulkは、JQLクエリごとに定義したバッチに従って
Jira Issueのラベルを一括で追加・削除するCLIツールです。`,
		Version:       version.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .envは既存の環境変数を上書きしない
			if err := loadDotEnv(envFile); err != nil {
				return err
			}

			// 設定ファイルを先に読み込む
			if err := initConfig(); err != nil {
				return fmt.Errorf("failed to initialize config: %w", err)
			}

			// ロガーの初期化
			var err error
			appLog, err = newConsoleLogger(cmd.ErrOrStderr(), "")
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "設定ファイルのパス")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", ".envファイルのパス")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "詳細出力")

	return cmd
}

// Execute はルートコマンドを実行する
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func initConfig() error {
	cfg := config.NewConfig()
	if err := cfg.Load(cfgFile); err != nil {
		return err
	}
	appConfig = cfg
	return nil
}

// newConsoleLogger は環境変数と--verboseからロガーを作成する。
// logFileを指定するとdebugレベルでファイルにも出力する。
func newConsoleLogger(out io.Writer, logFile string) (logger.Logger, error) {
	lc := logger.ConfigFromEnv()
	if verbose {
		lc.Level = "debug"
	}
	opts := []logger.Option{
		logger.WithLevel(lc.Level),
		logger.WithFormat(lc.Format),
		logger.WithOutput(out),
	}
	if logFile != "" {
		opts = append(opts, logger.WithLogFile(logFile))
	}
	return logger.New(opts...)
}
