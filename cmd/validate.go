package cmd

import (
	"fmt"

	"github.com/douhashi/labelbulk/internal/batch"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "入力ファイルを検証",
		Long: `入力ファイルを読み込み、バッチ定義の妥当性を検証します。
Jiraへの接続は行いません。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			store := batch.NewStore(appFs, inputPath(input), appLog)
			batches, err := store.Load(loadOptions(false))
			if err != nil {
				fmt.Fprintf(out, "❌ %s\n", store.Path())
				return err
			}

			todo, done := countStatuses(batches)
			fmt.Fprintf(out, "✅ %s: %d件のバッチ (TO DO: %d, DONE: %d)\n", store.Path(), len(batches), todo, done)

			// 接続設定の問題は警告にとどめる
			if err := appConfig.Validate(); err != nil {
				fmt.Fprintf(out, "⚠️  設定に問題があります: %v\n", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "入力ファイルのパス (JSON/YAML)")

	return cmd
}

func countStatuses(batches []batch.Batch) (todo, done int) {
	for _, b := range batches {
		switch b.Status {
		case batch.StatusToDo:
			todo++
		case batch.StatusDone:
			done++
		}
	}
	return todo, done
}
