package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/douhashi/labelbulk/internal/cleanup"
	"github.com/spf13/cobra"
)

const defaultCleanAge = 7 * 24 * time.Hour

// モック用の関数変数
var newCleanupManagerFunc = func() cleanup.Manager {
	return cleanup.NewManager(appFs, newPathManager(), appLog)
}

func newCleanCmd() *cobra.Command {
	var (
		olderThan time.Duration
		dryRun    bool
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "古い進捗ファイルと結果ファイルを削除",
		Long: `出力ディレクトリにある古い進捗ファイル・結果ファイル・実行サマリーを削除します。

使用例:
  labelbulk clean                      # 7日より古いファイルを削除（確認あり）
  labelbulk clean --older-than 24h     # 1日より古いファイルを削除
  labelbulk clean --dry-run            # 削除対象を表示するだけ
  labelbulk clean --force              # 確認なしで削除`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if olderThan <= 0 {
				return fmt.Errorf("--older-than には正の期間を指定してください")
			}

			manager := newCleanupManagerFunc()

			// まず対象を確認する
			targets, err := manager.CleanupArtifacts(cmd.Context(), olderThan, true)
			if err != nil {
				return fmt.Errorf("削除対象の確認に失敗しました: %w", err)
			}
			if len(targets) == 0 {
				fmt.Fprintf(out, "%sより古いファイルはありません。\n", olderThan)
				return nil
			}

			fmt.Fprintf(out, "%sより古いファイル (%d件):\n", olderThan, len(targets))
			for _, path := range targets {
				fmt.Fprintf(out, "  - %s\n", path)
			}
			if dryRun {
				return nil
			}

			if !force {
				confirmed, err := confirmPrompt(cmd.InOrStdin(), out, "本当に削除しますか？ (yes/no): ")
				if err != nil {
					return fmt.Errorf("確認の読み取りに失敗しました: %w", err)
				}
				if !confirmed {
					fmt.Fprintln(out, "削除をキャンセルしました。")
					return nil
				}
			}

			removed, err := manager.CleanupArtifacts(cmd.Context(), olderThan, false)
			if len(removed) > 0 {
				fmt.Fprintf(out, "%d件のファイルを削除しました。\n", len(removed))
			}
			if err != nil {
				return fmt.Errorf("ファイルの削除に失敗しました: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", defaultCleanAge, "この期間より古いファイルを削除")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "削除対象を表示するだけ")
	cmd.Flags().BoolVar(&force, "force", false, "確認プロンプトを表示せずに削除")

	return cmd
}

func confirmPrompt(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || response == "") {
		return false, err
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "yes" || response == "y", nil
}
