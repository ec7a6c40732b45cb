// Package processor runs one batch: it searches the matching issues, computes
// the label delta per issue and applies it, checkpointing progress as it goes.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/douhashi/labelbulk/internal/artifact"
	"github.com/douhashi/labelbulk/internal/batch"
	"github.com/douhashi/labelbulk/internal/jira"
	"github.com/douhashi/labelbulk/internal/logger"
	"github.com/douhashi/labelbulk/internal/paths"
	"github.com/douhashi/labelbulk/internal/types"
)

// DefaultProgressInterval は進捗を書き出す記録件数の間隔
const DefaultProgressInterval = 10

// Run はラン全体で共通の情報
type Run struct {
	// StartedAt は成果物ファイル名の時刻に使う
	StartedAt time.Time
	// Resume は直近の進捗ファイルでDONEのIssueをスキップする
	Resume bool
}

// Processor はバッチ単位の処理を行う
type Processor struct {
	service          jira.Service
	artifacts        *artifact.Store
	paths            paths.PathManager
	logger           logger.Logger
	progressInterval int
	now              func() time.Time
}

// Option はProcessorの設定オプション
type Option func(*Processor)

// WithProgressInterval は進捗を書き出す間隔を設定する
func WithProgressInterval(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.progressInterval = n
		}
	}
}

// WithClock は進捗の時刻に使う時計を設定する
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		p.now = now
	}
}

// New は新しいProcessorを作成する
func New(service jira.Service, artifacts *artifact.Store, pm paths.PathManager, log logger.Logger, opts ...Option) *Processor {
	if log == nil {
		log = logger.NewNop()
	}
	p := &Processor{
		service:          service,
		artifacts:        artifacts,
		paths:            pm,
		logger:           log,
		progressInterval: DefaultProgressInterval,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessBatch は1つのバッチを処理する。
// Issue単位の失敗は結果に記録して続行し、認証・権限エラーとキャンセルのみバッチを中断する。
func (p *Processor) ProcessBatch(ctx context.Context, b batch.Batch, run Run) (*types.BatchResult, error) {
	log := p.logger.WithFields("batch", b.BatchName)
	log.Info("Starting batch",
		"query", b.Query,
		"add", []string(b.Add),
		"remove", []string(b.Remove),
	)

	progressPath := p.paths.ProgressFile(b.BatchName, run.StartedAt)

	var previous types.Progress
	if run.Resume {
		previous = p.loadPreviousProgress(b.BatchName, progressPath, log)
	}

	issues, err := p.service.Search(ctx, b.Query)
	if err != nil {
		return nil, fmt.Errorf("search issues: %w", err)
	}
	log.Info("Found issues matching the query", "count", len(issues))

	result := types.NewBatchResult(len(issues))
	tracker := newProgressTracker(p.artifacts, progressPath, p.progressInterval)

	for i, issue := range issues {
		if err := ctx.Err(); err != nil {
			p.flushOnAbort(tracker, log)
			return nil, err
		}

		if entry, ok := previous[issue.Key]; ok && entry.Status == types.ProgressDone {
			log.Debug("Issue already processed, skipping", "issue_key", issue.Key)
			result.Record(issue.Key, types.IssueOutcome{Status: types.OutcomeSkipped, Reason: types.ReasonAlreadyProcessed})
			if err := tracker.record(issue.Key, entry); err != nil {
				return nil, fmt.Errorf("save progress: %w", err)
			}
			continue
		}

		outcome, abortErr := p.processIssue(ctx, b, issue, log)
		result.Record(issue.Key, outcome)

		entry := types.ProgressEntry{Status: types.ProgressStatusFor(outcome.Status), Timestamp: p.now()}
		if err := tracker.record(issue.Key, entry); err != nil {
			return nil, fmt.Errorf("save progress: %w", err)
		}

		if abortErr != nil {
			p.flushOnAbort(tracker, log)
			return nil, abortErr
		}

		log.Debug("Issue processed",
			"issue_key", issue.Key,
			"status", string(outcome.Status),
			"position", i+1,
			"total", len(issues),
		)
	}

	if err := tracker.flush(); err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}

	resultsPath := p.paths.ResultsFile(b.BatchName, run.StartedAt)
	if err := p.artifacts.WriteJSON(resultsPath, result); err != nil {
		return nil, fmt.Errorf("save results: %w", err)
	}

	log.Info("Batch completed",
		"total_issues", result.TotalIssues,
		"successful", result.SuccessfulIssues,
		"skipped", result.SkippedIssues,
		"failed", result.FailedIssues,
		"results_file", resultsPath,
	)
	return result, nil
}

// processIssue は1件のIssueを処理する。返すエラーはバッチを中断すべきものだけ
func (p *Processor) processIssue(ctx context.Context, b batch.Batch, issue jira.Issue, log logger.Logger) (types.IssueOutcome, error) {
	delta := ComputeDelta(b.Add, b.Remove, issue.CurrentLabels)
	if delta.Empty() {
		log.Debug("No label changes needed", "issue_key", issue.Key)
		return types.IssueOutcome{Status: types.OutcomeSkipped, Reason: types.ReasonNoChanges}, nil
	}

	editable, err := p.service.IsLabelEditable(ctx, issue.Key, issue.Type)
	if err != nil {
		log.Error("Error checking label editability", "issue_key", issue.Key, "error", err.Error())
		return failed(err), abortError(err)
	}
	if !editable {
		log.Warn("Labels not editable", "issue_key", issue.Key, "issue_type", issue.Type)
		return types.IssueOutcome{Status: types.OutcomeSkipped, Reason: types.ReasonNotEditable}, nil
	}

	ok, err := p.service.ApplyLabelDelta(ctx, issue.Key, delta.Add, delta.Remove)
	if err != nil {
		log.Error("Error modifying labels", "issue_key", issue.Key, "error", err.Error())
		return failed(err), abortError(err)
	}
	if !ok {
		return types.IssueOutcome{Status: types.OutcomeFailed, Error: "unknown error"}, nil
	}

	return types.IssueOutcome{
		Status:  types.OutcomeSuccess,
		Added:   delta.Add,
		Removed: delta.Remove,
	}, nil
}

func (p *Processor) loadPreviousProgress(batchName, currentPath string, log logger.Logger) types.Progress {
	files, err := p.paths.ProgressFiles(p.artifacts.Fs(), batchName)
	if err != nil {
		log.Warn("Failed to list previous progress files", "error", err.Error())
		return nil
	}

	for i := len(files) - 1; i >= 0; i-- {
		if files[i] == currentPath {
			continue
		}
		var previous types.Progress
		if err := p.artifacts.ReadJSON(files[i], &previous); err != nil {
			log.Warn("Failed to load previous progress", "file", files[i], "error", err.Error())
			return nil
		}
		log.Info("Resuming from previous progress", "file", files[i], "entries", len(previous))
		return previous
	}

	log.Info("No previous progress found, processing all issues")
	return nil
}

func (p *Processor) flushOnAbort(tracker *progressTracker, log logger.Logger) {
	if err := tracker.flush(); err != nil {
		log.Error("Failed to save progress", "error", err.Error())
	}
}

func failed(err error) types.IssueOutcome {
	return types.IssueOutcome{Status: types.OutcomeFailed, Error: err.Error()}
}

// abortError は認証・権限エラーとキャンセルだけを返し、それ以外はnilにする
func abortError(err error) error {
	if jira.IsCriticalError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
