package cmd

import (
	"embed"
	"fmt"
	"io"
	"os"

	"github.com/douhashi/labelbulk/internal/artifact"
	"github.com/douhashi/labelbulk/internal/batch"
	"github.com/douhashi/labelbulk/internal/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

//go:embed templates/*
var templateFS embed.FS

const defaultInitConfigPath = "labelbulk.yml"

// 初期化時に書き出すバッチの例
var sampleBatches = []batch.Batch{
	{
		BatchName: "Triage backlog",
		Query:     `project = "PROJ" AND labels = "needs-review"`,
		Add:       batch.LabelSet{"triaged"},
		Remove:    batch.LabelSet{"needs-review"},
		Status:    batch.StatusToDo,
	},
	{
		BatchName: "Tag Q1 epics",
		Query:     `project = "PROJ" AND issuetype = Epic AND created >= 2024-01-01`,
		Add:       batch.LabelSet{"q1"},
		Remove:    batch.LabelSet{},
		Status:    batch.StatusToDo,
	},
}

func newInitCmd() *cobra.Command {
	var (
		input      string
		configPath string
		global     bool
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "設定ファイルと入力ファイルの雛形を作成",
		Long: `カレントディレクトリに設定ファイルと入力ファイルの雛形を作成します。
--global を指定すると設定ファイルをユーザーの設定ディレクトリ
(~/.config/labelbulk/labelbulk.yml) に作成します。
既存のファイルは --force を指定しない限り上書きしません。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if global {
				path, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("設定ディレクトリを取得できません: %w", err)
				}
				configPath = path
			}

			fmt.Fprintln(out, "🚀 labelbulkの初期化を開始します...")
			fmt.Fprintln(out, "")

			fmt.Fprint(out, "[1/2] 設定ファイルの作成       ")
			if err := setupConfigFile(out, configPath, force); err != nil {
				fmt.Fprintln(out, "❌")
				return fmt.Errorf("設定ファイルの作成に失敗しました: %w", err)
			}

			path := inputPath(input)
			fmt.Fprint(out, "[2/2] 入力ファイルの作成       ")
			if err := setupInputFile(out, path, force); err != nil {
				fmt.Fprintln(out, "❌")
				return fmt.Errorf("入力ファイルの作成に失敗しました: %w", err)
			}

			fmt.Fprintln(out, "")
			showCompletionMessage(out, configPath, path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "作成する入力ファイルのパス (JSON/YAML)")
	cmd.Flags().StringVar(&configPath, "config-path", defaultInitConfigPath, "作成する設定ファイルのパス")
	cmd.Flags().BoolVar(&global, "global", false, "設定ファイルをユーザーの設定ディレクトリに作成")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "既存のファイルを上書き")

	return cmd
}

func setupConfigFile(out io.Writer, path string, force bool) error {
	if exists, err := afero.Exists(appFs, path); err != nil {
		return err
	} else if exists && !force {
		fmt.Fprintln(out, "⚠️  既に存在します")
		return nil
	}

	content, err := templateFS.ReadFile("templates/labelbulk.yml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}
	if err := artifact.WriteFileAtomic(appFs, path, content); err != nil {
		return err
	}

	fmt.Fprintln(out, "✅")
	return nil
}

func setupInputFile(out io.Writer, path string, force bool) error {
	if exists, err := afero.Exists(appFs, path); err != nil {
		return err
	} else if exists && !force {
		fmt.Fprintln(out, "⚠️  既に存在します")
		return nil
	}

	store := batch.NewStore(appFs, path, appLog)
	if err := store.Save(sampleBatches); err != nil {
		return err
	}

	fmt.Fprintln(out, "✅")
	return nil
}

func showCompletionMessage(out io.Writer, configPath, inputFile string) {
	fmt.Fprintln(out, "✅ 初期化が完了しました！")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "次のステップ:")
	fmt.Fprintf(out, "  1. %s にJiraの接続先と認証情報を設定してください\n", configPath)
	fmt.Fprintf(out, "  2. %s のバッチを編集してください\n", inputFile)
	fmt.Fprintln(out, "  3. labelbulk validate で入力ファイルを検証してください")
	fmt.Fprintln(out, "  4. labelbulk run -d で対象を確認してから labelbulk run を実行してください")
	if os.Getenv("JIRA_API_TOKEN") == "" && os.Getenv("LABELBULK_JIRA_API_TOKEN") == "" {
		fmt.Fprintln(out, "")
		fmt.Fprintln(out, "ℹ️  JIRA_API_TOKEN は .env ファイルでも指定できます")
	}
}
