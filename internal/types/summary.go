package types

import "time"

// BatchResult は1バッチ分の集計結果
type BatchResult struct {
	TotalIssues      int                     `json:"total_issues"`
	SuccessfulIssues int                     `json:"successful_issues"`
	SkippedIssues    int                     `json:"skipped_issues"`
	FailedIssues     int                     `json:"failed_issues"`
	Issues           map[string]IssueOutcome `json:"issues"`
}

// NewBatchResult は空のBatchResultを作成する
func NewBatchResult(total int) *BatchResult {
	return &BatchResult{
		TotalIssues: total,
		Issues:      make(map[string]IssueOutcome, total),
	}
}

// Record は結果を記録し、カウンタを更新する
func (r *BatchResult) Record(issueKey string, outcome IssueOutcome) {
	if prev, ok := r.Issues[issueKey]; ok {
		r.adjust(prev.Status, -1)
	}
	r.Issues[issueKey] = outcome
	r.adjust(outcome.Status, 1)
}

func (r *BatchResult) adjust(status OutcomeStatus, delta int) {
	switch status {
	case OutcomeSuccess:
		r.SuccessfulIssues += delta
	case OutcomeSkipped:
		r.SkippedIssues += delta
	case OutcomeFailed:
		r.FailedIssues += delta
	}
}

// BatchRunResult はラン全体から見たバッチの結果
type BatchRunResult string

const (
	BatchRunSuccess BatchRunResult = "success"
	BatchRunFailure BatchRunResult = "failure"
	BatchRunSkipped BatchRunResult = "skipped"
)

// BatchEntry はRunSummary内の1バッチ分のエントリ
type BatchEntry struct {
	Name    string         `json:"name"`
	Result  BatchRunResult `json:"result"`
	Details *BatchResult   `json:"details,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// RunSummary はラン全体の集計結果
type RunSummary struct {
	RunID            string       `json:"run_id"`
	StartedAt        time.Time    `json:"started_at"`
	FinishedAt       time.Time    `json:"finished_at"`
	TotalBatches     int          `json:"total_batches"`
	CompletedBatches int          `json:"completed_batches"`
	SkippedBatches   int          `json:"skipped_batches"`
	FailedBatches    int          `json:"failed_batches"`
	TotalIssues      int          `json:"total_issues"`
	SuccessfulIssues int          `json:"successful_issues"`
	SkippedIssues    int          `json:"skipped_issues"`
	FailedIssues     int          `json:"failed_issues"`
	Batches          []BatchEntry `json:"batches"`
}

// AddCompleted は成功したバッチを集計に加える
func (s *RunSummary) AddCompleted(name string, result *BatchResult) {
	s.CompletedBatches++
	s.TotalIssues += result.TotalIssues
	s.SuccessfulIssues += result.SuccessfulIssues
	s.SkippedIssues += result.SkippedIssues
	s.FailedIssues += result.FailedIssues
	s.Batches = append(s.Batches, BatchEntry{Name: name, Result: BatchRunSuccess, Details: result})
}

// AddFailed は失敗したバッチを集計に加える
func (s *RunSummary) AddFailed(name string, err error) {
	s.FailedBatches++
	s.Batches = append(s.Batches, BatchEntry{Name: name, Result: BatchRunFailure, Error: err.Error()})
}

// AddSkipped は処理済みのためスキップしたバッチを集計に加える
func (s *RunSummary) AddSkipped(name string) {
	s.SkippedBatches++
	s.Batches = append(s.Batches, BatchEntry{Name: name, Result: BatchRunSkipped})
}
