package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/douhashi/labelbulk/internal/artifact"
	"github.com/douhashi/labelbulk/internal/batch"
	"github.com/douhashi/labelbulk/internal/logger"
	"github.com/douhashi/labelbulk/internal/paths"
	"github.com/douhashi/labelbulk/internal/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "バッチの状態を表示",
		Long: `入力ファイルの各バッチの状態と、直近の進捗ファイルの集計を表示します。
入力ファイルの検証は行いません。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// 表示のみなので検証と空白の扱いは行わない
			store := batch.NewStore(appFs, inputPath(input), logger.NewNop())
			batches, err := store.Load(batch.LoadOptions{SkipValidation: true})
			if err != nil {
				return err
			}

			printStatus(cmd.OutOrStdout(), store.Path(), batches, newPathManager(), artifact.NewStore(appFs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "入力ファイルのパス (JSON/YAML)")

	return cmd
}

func printStatus(out io.Writer, path string, batches []batch.Batch, pm paths.PathManager, artifacts *artifact.Store) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	todo, done := countStatuses(batches)
	fmt.Fprintf(out, "%s: %d件のバッチ (TO DO: %d, DONE: %d)\n", path, len(batches), todo, done)
	if len(batches) == 0 {
		return
	}
	fmt.Fprintln(out, "")

	for _, b := range batches {
		var status string
		switch b.Status {
		case batch.StatusDone:
			status = green(string(b.Status))
		case batch.StatusToDo:
			status = yellow(string(b.Status))
		default:
			status = red(fmt.Sprintf("%q", string(b.Status)))
		}

		fmt.Fprintf(out, "[%s] %s\n", status, b.BatchName)
		fmt.Fprintf(out, "    Query:  %s\n", b.Query)
		fmt.Fprintf(out, "    Add:    %s\n", formatLabels(b.Add))
		fmt.Fprintf(out, "    Remove: %s\n", formatLabels(b.Remove))

		if line := latestProgress(pm, artifacts, b.BatchName); line != "" {
			fmt.Fprintf(out, "    %s\n", line)
		}
	}
}

// latestProgress は直近の進捗ファイルの集計を返す。ファイルがなければ空文字
func latestProgress(pm paths.PathManager, artifacts *artifact.Store, batchName string) string {
	files, err := pm.ProgressFiles(artifacts.Fs(), batchName)
	if err != nil || len(files) == 0 {
		return ""
	}

	latest := files[len(files)-1]
	var progress types.Progress
	if err := artifacts.ReadJSON(latest, &progress); err != nil {
		return fmt.Sprintf("進捗: 読み込みに失敗しました (%s)", filepath.Base(latest))
	}

	var ok, failed int
	for _, entry := range progress {
		if entry.Status == types.ProgressFailed {
			failed++
		} else {
			ok++
		}
	}
	return fmt.Sprintf("進捗: DONE %d / FAILED %d (%s)", ok, failed, filepath.Base(latest))
}
