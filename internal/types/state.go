package types

import "time"

// OutcomeStatus はIssue単位の処理結果を表す型
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "SUCCESS"
	OutcomeSkipped OutcomeStatus = "SKIPPED"
	OutcomeFailed  OutcomeStatus = "FAILED"
)

// スキップ理由
const (
	ReasonNoChanges        = "no changes needed"
	ReasonNotEditable      = "not editable"
	ReasonAlreadyProcessed = "already processed"
)

// IssueOutcome は1件のIssueに対する処理結果
type IssueOutcome struct {
	Status  OutcomeStatus `json:"status"`
	Added   []string      `json:"added,omitempty"`
	Removed []string      `json:"removed,omitempty"`
	Reason  string        `json:"reason,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// ProgressStatus は進捗ファイルに記録される状態を表す型
type ProgressStatus string

const (
	ProgressDone   ProgressStatus = "DONE"
	ProgressFailed ProgressStatus = "FAILED"
)

// ProgressEntry は進捗ファイルの1エントリ
type ProgressEntry struct {
	Status    ProgressStatus `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
}

// Progress はIssueキーから進捗エントリへのマップ
type Progress map[string]ProgressEntry

// ProgressStatusFor は処理結果を進捗状態に変換する。失敗以外はDONEとして扱う
func ProgressStatusFor(status OutcomeStatus) ProgressStatus {
	if status == OutcomeFailed {
		return ProgressFailed
	}
	return ProgressDone
}
