package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/douhashi/labelbulk/internal/logger"
	"github.com/douhashi/labelbulk/internal/paths"
	"github.com/spf13/afero"
)

// Manager はクリーンアップ処理のインターフェース
type Manager interface {
	CleanupArtifacts(ctx context.Context, olderThan time.Duration, dryRun bool) ([]string, error)
}

// DefaultManager は出力ディレクトリの古い成果物を削除する
type DefaultManager struct {
	fs     afero.Fs
	paths  paths.PathManager
	logger logger.Logger
	now    func() time.Time
}

// NewManager は新しいクリーンアップマネージャーを作成する
func NewManager(fs afero.Fs, pm paths.PathManager, log logger.Logger) *DefaultManager {
	if log == nil {
		log = logger.NewNop()
	}
	return &DefaultManager{
		fs:     fs,
		paths:  pm,
		logger: log,
		now:    time.Now,
	}
}

// CleanupArtifacts は更新時刻がolderThanより古い進捗・結果ファイルを削除し、対象のパスを返す。
// dryRunの場合は削除せずに対象だけを返す。
func (m *DefaultManager) CleanupArtifacts(ctx context.Context, olderThan time.Duration, dryRun bool) ([]string, error) {
	files, err := m.paths.Artifacts(m.fs)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	cutoff := m.now().Add(-olderThan)
	var removed []string

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		info, err := m.fs.Stat(path)
		if err != nil {
			// 一覧取得後に消えたファイルは無視して続行
			m.logger.Warn("Failed to stat artifact", "path", path, "error", err.Error())
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if dryRun {
			m.logger.Info("Would remove artifact", "path", path, "modified", info.ModTime().Format(time.RFC3339))
			removed = append(removed, path)
			continue
		}

		if err := m.fs.Remove(path); err != nil {
			m.logger.Warn("Failed to remove artifact", "path", path, "error", err.Error())
			continue
		}
		m.logger.Debug("Removed artifact", "path", path)
		removed = append(removed, path)
	}

	m.logger.Info("Artifact cleanup finished",
		"removed", len(removed),
		"older_than", olderThan.String(),
		"dry_run", dryRun,
	)
	return removed, nil
}

var _ Manager = (*DefaultManager)(nil)
