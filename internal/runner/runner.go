// Package runner drives a whole run: it selects the batches to process, hands
// each to the batch processor, persists batch status after every completed
// batch and writes the run summary once at the end.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/douhashi/labelbulk/internal/artifact"
	"github.com/douhashi/labelbulk/internal/batch"
	"github.com/douhashi/labelbulk/internal/jira"
	"github.com/douhashi/labelbulk/internal/logger"
	"github.com/douhashi/labelbulk/internal/paths"
	"github.com/douhashi/labelbulk/internal/processor"
	"github.com/douhashi/labelbulk/internal/types"
	"github.com/google/uuid"
)

// BatchProcessor は1バッチを処理するインターフェース
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, b batch.Batch, run processor.Run) (*types.BatchResult, error)
}

// BatchSaver はバッチ一覧を入力ファイルに書き戻すインターフェース
type BatchSaver interface {
	Save(batches []batch.Batch) error
}

// Options は実行条件
type Options struct {
	// BatchNames が空でなければ一致するバッチだけを対象にする
	BatchNames []string
	// Force はDONEのバッチをTO DOに戻して再処理する
	Force bool
	// DryRun は対象の選択とログ出力のみ行う
	DryRun bool
	// Resume は直近の進捗ファイルから再開する
	Resume bool
}

// Plan は選択結果。値は入力一覧のインデックス
type Plan struct {
	Selected []int
	Pending  []int
}

// Report はRunの結果。DryRunや未処理バッチがない場合Summaryはnil
type Report struct {
	RunID       string
	Plan        *Plan
	Summary     *types.RunSummary
	SummaryPath string
}

// Runner はバッチ一覧全体を処理する
type Runner struct {
	processor BatchProcessor
	store     BatchSaver
	artifacts artifact.Writer
	paths     paths.PathManager
	logger    logger.Logger
	now       func() time.Time
	newID     func() string
}

// Option はRunnerの設定オプション
type Option func(*Runner)

// WithClock は実行時刻に使う時計を設定する
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// WithIDGenerator はrun_idの生成関数を設定する
func WithIDGenerator(newID func() string) Option {
	return func(r *Runner) {
		r.newID = newID
	}
}

// New は新しいRunnerを作成する
func New(proc BatchProcessor, store BatchSaver, artifacts artifact.Writer, pm paths.PathManager, log logger.Logger, opts ...Option) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	r := &Runner{
		processor: proc,
		store:     store,
		artifacts: artifacts,
		paths:     pm,
		logger:    log,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SelectBatches は処理対象を決める。Forceの場合は対象のDONEも処理対象に含める。
// batchesは変更しない。
// 名前の指定に一致するバッチがなければConfigurationErrorを返す。
func SelectBatches(batches []batch.Batch, opts Options) (*Plan, error) {
	plan := &Plan{}

	wanted := make(map[string]struct{}, len(opts.BatchNames))
	var names []string
	for _, name := range opts.BatchNames {
		if name = strings.TrimSpace(name); name != "" {
			wanted[name] = struct{}{}
			names = append(names, name)
		}
	}

	for i, b := range batches {
		if len(wanted) > 0 {
			if _, ok := wanted[b.BatchName]; !ok {
				continue
			}
		}
		plan.Selected = append(plan.Selected, i)
	}

	if len(wanted) > 0 && len(plan.Selected) == 0 {
		return nil, batch.NewConfigurationError(nil, "no batches found matching: %s", strings.Join(names, ", "))
	}

	for _, i := range plan.Selected {
		status := batches[i].Status
		if status == batch.StatusToDo || (opts.Force && status == batch.StatusDone) {
			plan.Pending = append(plan.Pending, i)
		}
	}
	return plan, nil
}

// resetForced は対象のDONEをTO DOに戻す。DryRunでは呼ばない
func resetForced(batches []batch.Batch, plan *Plan) {
	for _, i := range plan.Pending {
		if batches[i].Status == batch.StatusDone {
			batches[i].Status = batch.StatusToDo
		}
	}
}

// Run は選択したバッチを順に処理する。
// バッチ単位の失敗は記録して続行し、認証・権限エラーとキャンセルのみ実行全体を中断する。
func (r *Runner) Run(ctx context.Context, batches []batch.Batch, opts Options) (*Report, error) {
	runID := r.newID()
	log := r.logger.WithFields("run_id", runID)

	plan, err := SelectBatches(batches, opts)
	if err != nil {
		return nil, err
	}
	report := &Report{RunID: runID, Plan: plan}

	if len(opts.BatchNames) > 0 {
		log.Info("Processing specified batches", "count", len(plan.Selected))
	}
	if opts.Force {
		log.Info("Force flag set, processing all selected batches regardless of status")
	}

	if len(plan.Pending) == 0 {
		log.Warn("No unprocessed batches found. Use --force to reprocess.")
		return report, nil
	}

	log.Info("Found unprocessed batches", "count", len(plan.Pending))
	for n, i := range plan.Pending {
		b := batches[i]
		log.Info(fmt.Sprintf("Batch %d: %s", n+1, b.BatchName),
			"query", b.Query,
			"add", []string(b.Add),
			"remove", []string(b.Remove),
		)
	}

	if opts.DryRun {
		log.Info("DRY RUN MODE: No changes will be made to Jira issues")
		return report, nil
	}

	if opts.Force {
		resetForced(batches, plan)
	}

	startedAt := r.now()
	summary := &types.RunSummary{
		RunID:        runID,
		StartedAt:    startedAt,
		TotalBatches: len(plan.Selected),
		Batches:      []types.BatchEntry{},
	}
	report.Summary = summary
	run := processor.Run{StartedAt: startedAt, Resume: opts.Resume}

	runErr := r.processSelected(ctx, batches, plan, run, summary, log)

	if err := r.store.Save(batches); err != nil {
		log.Error("Failed to save updated input file", "error", err.Error())
	}

	summary.FinishedAt = r.now()
	report.SummaryPath = r.paths.FinalResultsFile(startedAt)
	if err := r.artifacts.WriteJSON(report.SummaryPath, summary); err != nil {
		return report, errors.Join(runErr, fmt.Errorf("save run summary: %w", err))
	}

	log.Info("Processing completed",
		"results_file", report.SummaryPath,
		"successful_issues", summary.SuccessfulIssues,
		"failed_issues", summary.FailedIssues,
		"skipped_issues", summary.SkippedIssues,
	)
	return report, runErr
}

func (r *Runner) processSelected(ctx context.Context, batches []batch.Batch, plan *Plan, run processor.Run, summary *types.RunSummary, log logger.Logger) error {
	for n, i := range plan.Selected {
		b := &batches[i]
		log.Info(fmt.Sprintf("Processing batch %d/%d: %s", n+1, len(plan.Selected), b.BatchName))

		if b.Status != batch.StatusToDo {
			log.Info("Batch already processed, skipping", "batch", b.BatchName)
			summary.AddSkipped(b.BatchName)
			continue
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := r.processor.ProcessBatch(ctx, *b, run)
		if err != nil {
			log.Error("Failed to process batch", "batch", b.BatchName, "error", err.Error())
			summary.AddFailed(b.BatchName, err)
			if jira.IsCriticalError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("batch %q aborted the run: %w", b.BatchName, err)
			}
			continue
		}

		b.Status = batch.StatusDone
		if err := r.store.Save(batches); err != nil {
			log.Error("Failed to save updated input file", "batch", b.BatchName, "error", err.Error())
		}
		summary.AddCompleted(b.BatchName, result)
	}
	return nil
}
