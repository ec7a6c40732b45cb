package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/douhashi/labelbulk/internal/artifact"
	"github.com/douhashi/labelbulk/internal/logger"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Format は入力ファイルの形式
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor は拡張子から入力ファイルの形式を判定する
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadOptions はLoadの動作を制御する
type LoadOptions struct {
	// SkipValidation は必須項目と状態の検証、ラベルの空白処理を行わない
	SkipValidation bool
	SpacePolicy    SpacePolicy
	Prompter       Prompter
}

// Store はバッチ一覧を保持する入力ファイル
type Store struct {
	fs     afero.Fs
	path   string
	logger logger.Logger
}

// NewStore は新しいStoreを作成する
func NewStore(fs afero.Fs, path string, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{fs: fs, path: path, logger: log}
}

// Path は入力ファイルのパスを返す
func (s *Store) Path() string {
	return s.path
}

// Load は入力ファイルを読み込み、検証済みのバッチ一覧を返す。
// 発生するエラーはすべてConfigurationError。
func (s *Store) Load(opts LoadOptions) ([]Batch, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewConfigurationError(nil, "input file not found: %s", s.path)
		}
		return nil, NewConfigurationError(err, "failed to read input file %s", s.path)
	}

	batches, err := decode(data, FormatFor(s.path))
	if err != nil {
		return nil, err
	}

	if opts.SkipValidation {
		s.logger.Warn("Skipping input validation", "path", s.path)
		return batches, nil
	}

	if err := Validate(batches); err != nil {
		return nil, err
	}

	policy := opts.SpacePolicy
	if policy == "" {
		policy = SpacePolicyPrompt
	}
	if err := ApplySpacePolicy(batches, policy, opts.Prompter, s.logger); err != nil {
		return nil, err
	}

	s.logger.Info("Input file loaded", "path", s.path, "batches", len(batches))
	return batches, nil
}

// Save はバッチ一覧全体を入力ファイルに書き戻す
func (s *Store) Save(batches []Batch) error {
	data, err := encode(batches, FormatFor(s.path))
	if err != nil {
		return err
	}
	if err := artifact.WriteFileAtomic(s.fs, s.path, data); err != nil {
		return fmt.Errorf("failed to save input file: %w", err)
	}
	s.logger.Info("Updated input file saved", "path", s.path)
	return nil
}

func decode(data []byte, format Format) ([]Batch, error) {
	var batches []Batch
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &batches); err != nil {
			return nil, NewConfigurationError(err, "invalid YAML in input file")
		}
	default:
		if err := json.Unmarshal(data, &batches); err != nil {
			return nil, NewConfigurationError(err, "invalid JSON in input file")
		}
	}
	if batches == nil {
		batches = []Batch{}
	}
	return batches, nil
}

func encode(batches []Batch, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(batches)
		if err != nil {
			return nil, fmt.Errorf("encode input file: %w", err)
		}
		return data, nil
	default:
		data, err := json.MarshalIndent(batches, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode input file: %w", err)
		}
		return append(data, '\n'), nil
	}
}
