package batch

import (
	"fmt"
	"strings"
)

// Validate は必須項目、状態、バッチ名の重複を検証する
func Validate(batches []Batch) error {
	var problems []string
	seen := make(map[string]int, len(batches))

	for i, b := range batches {
		pos := i + 1
		if strings.TrimSpace(b.BatchName) == "" {
			problems = append(problems, fmt.Sprintf("batch %d: batchName is required", pos))
		} else if first, ok := seen[b.BatchName]; ok {
			problems = append(problems, fmt.Sprintf("batch %d: duplicate batchName %q (first defined in batch %d)", pos, b.BatchName, first))
		} else {
			seen[b.BatchName] = pos
		}

		if strings.TrimSpace(b.Query) == "" {
			problems = append(problems, fmt.Sprintf("batch %d: query is required", pos))
		}

		if b.Status == "" {
			problems = append(problems, fmt.Sprintf("batch %d: status is required", pos))
		} else if !b.Status.Valid() {
			problems = append(problems, fmt.Sprintf("batch %d: status must be %q or %q, got %q", pos, StatusToDo, StatusDone, b.Status))
		}
	}

	if len(problems) > 0 {
		return NewConfigurationError(nil, "input validation error: %s", strings.Join(problems, "; "))
	}
	return nil
}
