// Package artifact persists the structured documents produced by a run:
// progress snapshots, per-batch results and the final run summary.
package artifact

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Writer はJSONドキュメントを書き出すインターフェース
type Writer interface {
	WriteJSON(path string, v interface{}) error
}

// Reader はJSONドキュメントを読み込むインターフェース
type Reader interface {
	ReadJSON(path string, v interface{}) error
}

// Store はafero上のJSON成果物ストア
type Store struct {
	fs afero.Fs
}

// NewStore は新しいStoreを作成する
func NewStore(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// Fs は基盤となるファイルシステムを返す
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// WriteJSON はvをインデント付きJSONとしてpathに書き出す
func (s *Store) WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return WriteFileAtomic(s.fs, path, append(data, '\n'))
}

// ReadJSON はpathのJSONをvに読み込む
func (s *Store) ReadJSON(path string, v interface{}) error {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// WriteFileAtomic は一時ファイルに書いてからリネームする。
// 途中で落ちても既存のファイルは壊れない。
func WriteFileAtomic(fs afero.Fs, path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

var (
	_ Writer = (*Store)(nil)
	_ Reader = (*Store)(nil)
)
