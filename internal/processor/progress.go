package processor

import (
	"github.com/douhashi/labelbulk/internal/artifact"
	"github.com/douhashi/labelbulk/internal/types"
)

// progressTracker はIssueごとの進捗を記録し、interval件ごとに書き出す
type progressTracker struct {
	writer   artifact.Writer
	path     string
	interval int

	entries  types.Progress
	recorded int
}

func newProgressTracker(writer artifact.Writer, path string, interval int) *progressTracker {
	if interval < 1 {
		interval = 1
	}
	return &progressTracker{
		writer:   writer,
		path:     path,
		interval: interval,
		entries:  make(types.Progress),
	}
}

// record はエントリを記録する。件数は記録回数で数え、キーの値には依存しない
func (p *progressTracker) record(issueKey string, entry types.ProgressEntry) error {
	p.entries[issueKey] = entry
	p.recorded++
	if p.recorded%p.interval == 0 {
		return p.flush()
	}
	return nil
}

func (p *progressTracker) flush() error {
	return p.writer.WriteJSON(p.path, p.entries)
}
