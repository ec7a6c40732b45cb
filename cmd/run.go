package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/douhashi/labelbulk/internal/artifact"
	"github.com/douhashi/labelbulk/internal/batch"
	"github.com/douhashi/labelbulk/internal/jira"
	"github.com/douhashi/labelbulk/internal/processor"
	"github.com/douhashi/labelbulk/internal/runner"
	"github.com/douhashi/labelbulk/internal/types"
	"github.com/douhashi/labelbulk/internal/version"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type runOptions struct {
	input          string
	batches        string
	dryRun         bool
	force          bool
	skipValidation bool
	resume         bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "バッチを実行してラベルを一括変更",
		Long: `入力ファイルのバッチを順に実行し、JQLに一致するIssueのラベルを追加・削除します。

使用例:
  labelbulk run                      # 未処理(TO DO)のバッチをすべて実行
  labelbulk run -b "batch1,batch2"   # 指定したバッチのみ実行
  labelbulk run -d                   # 対象のバッチを表示するだけ（変更なし）
  labelbulk run -f                   # DONEのバッチも再実行
  labelbulk run --resume             # 前回の進捗ファイルから再開`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatches(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "入力ファイルのパス (JSON/YAML)")
	cmd.Flags().StringVarP(&opts.batches, "batch", "b", "", "実行するバッチ名（カンマ区切り）")
	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "d", false, "変更を行わずに対象のバッチを表示")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "DONEのバッチも再実行")
	cmd.Flags().BoolVar(&opts.skipValidation, "skip-validation", false, "入力ファイルの検証をスキップ")
	cmd.Flags().BoolVar(&opts.resume, "resume", false, "直近の進捗ファイルで処理済みのIssueをスキップ")

	return cmd
}

func runBatches(cmd *cobra.Command, opts *runOptions) error {
	out := cmd.OutOrStdout()
	pm := newPathManager()
	startedAt := nowFunc()
	log := appLog

	// ドライランでは設定の検証もファイル出力も行わない
	if !opts.dryRun {
		if err := appConfig.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if err := pm.EnsureDirectories(appFs); err != nil {
			return fmt.Errorf("failed to create output directories: %w", err)
		}
		fileLog, err := newConsoleLogger(cmd.ErrOrStderr(), pm.LogFile(startedAt))
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		log = fileLog
	}

	store := batch.NewStore(appFs, inputPath(opts.input), log)
	log.Info("labelbulk starting", "version", version.Get().Version, "input_file", store.Path())

	batches, err := store.Load(loadOptions(opts.skipValidation))
	if err != nil {
		return fmt.Errorf("failed to load input file: %w", err)
	}

	var svc jira.Service
	if !opts.dryRun {
		svc, err = newJiraServiceFunc(appConfig, log)
		if err != nil {
			return fmt.Errorf("failed to create Jira client: %w", err)
		}
	}

	artifacts := artifact.NewStore(appFs)
	proc := processor.New(svc, artifacts, pm, log,
		processor.WithProgressInterval(appConfig.Processing.ProgressInterval),
	)
	r := runner.New(proc, store, artifacts, pm, log, runner.WithClock(nowFunc))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := r.Run(ctx, batches, runner.Options{
		BatchNames: splitBatchNames(opts.batches),
		Force:      opts.force,
		DryRun:     opts.dryRun,
		Resume:     opts.resume,
	})
	if report != nil {
		printReport(out, batches, report, opts.dryRun)
	}
	return err
}

func splitBatchNames(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var names []string
	for _, name := range strings.Split(value, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func printReport(out io.Writer, batches []batch.Batch, report *runner.Report, dryRun bool) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	if len(report.Plan.Pending) == 0 {
		fmt.Fprintln(out, yellow("未処理のバッチはありません。--force で再実行できます。"))
		return
	}

	if dryRun {
		fmt.Fprintln(out, cyan("DRY RUN: Jiraへの変更は行いません"))
		fmt.Fprintf(out, "対象バッチ: %d件\n", len(report.Plan.Pending))
		for n, i := range report.Plan.Pending {
			b := batches[i]
			fmt.Fprintf(out, "  %d. %s\n", n+1, b.BatchName)
			fmt.Fprintf(out, "     Query:  %s\n", b.Query)
			fmt.Fprintf(out, "     Add:    %s\n", formatLabels(b.Add))
			fmt.Fprintf(out, "     Remove: %s\n", formatLabels(b.Remove))
		}
		return
	}

	s := report.Summary
	if s == nil {
		return
	}

	fmt.Fprintln(out, "")
	fmt.Fprintf(out, "実行結果 (run_id: %s)\n", s.RunID)
	fmt.Fprintf(out, "  バッチ: %s / %s / %s (合計 %d)\n",
		green(fmt.Sprintf("完了 %d", s.CompletedBatches)),
		yellow(fmt.Sprintf("スキップ %d", s.SkippedBatches)),
		red(fmt.Sprintf("失敗 %d", s.FailedBatches)),
		s.TotalBatches,
	)
	fmt.Fprintf(out, "  Issue:  %s / %s / %s (合計 %d)\n",
		green(fmt.Sprintf("成功 %d", s.SuccessfulIssues)),
		yellow(fmt.Sprintf("スキップ %d", s.SkippedIssues)),
		red(fmt.Sprintf("失敗 %d", s.FailedIssues)),
		s.TotalIssues,
	)
	for _, entry := range s.Batches {
		switch entry.Result {
		case types.BatchRunSuccess:
			fmt.Fprintf(out, "  %s %s\n", green("✓"), entry.Name)
		case types.BatchRunSkipped:
			fmt.Fprintf(out, "  %s %s (処理済み)\n", yellow("-"), entry.Name)
		case types.BatchRunFailure:
			fmt.Fprintf(out, "  %s %s: %s\n", red("✗"), entry.Name, entry.Error)
		}
	}
	if report.SummaryPath != "" {
		fmt.Fprintf(out, "結果ファイル: %s\n", report.SummaryPath)
	}
}

func formatLabels(labels batch.LabelSet) string {
	if len(labels) == 0 {
		return "(なし)"
	}
	return strings.Join(labels, ", ")
}
