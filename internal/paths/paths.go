package paths

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// TimestampLayout は成果物ファイル名に埋め込む実行時刻の書式
const TimestampLayout = "20060102_150405"

const (
	progressPrefix = "progress_"
	resultsPrefix  = "results_"
	finalPrefix    = "final_results_"
	artifactExt    = ".json"
)

// PathManager はlabelbulkの出力ファイルパスを管理するインターフェース
type PathManager interface {
	OutputDir() string
	LogDir() string
	LogFile(ts time.Time) string
	ProgressFile(batchName string, ts time.Time) string
	ResultsFile(batchName string, ts time.Time) string
	FinalResultsFile(ts time.Time) string
	EnsureDirectories(fs afero.Fs) error
	ProgressFiles(fs afero.Fs, batchName string) ([]string, error)
	Artifacts(fs afero.Fs) ([]string, error)
}

type pathManager struct {
	outputDir string
	logDir    string
}

// NewPathManager は新しいPathManagerを作成します
func NewPathManager(outputDir, logDir string) PathManager {
	if outputDir == "" {
		outputDir = "output"
	}
	if logDir == "" {
		logDir = "logs"
	}
	return &pathManager{
		outputDir: outputDir,
		logDir:    logDir,
	}
}

// OutputDir は成果物ディレクトリのパスを返します
func (p *pathManager) OutputDir() string {
	return p.outputDir
}

// LogDir はログディレクトリのパスを返します
func (p *pathManager) LogDir() string {
	return p.logDir
}

// LogFile は実行ごとのログファイルのパスを返します
func (p *pathManager) LogFile(ts time.Time) string {
	return filepath.Join(p.logDir, "labelbulk_"+ts.Format(TimestampLayout)+".log")
}

// ProgressFile はバッチの進捗スナップショットのパスを返します
func (p *pathManager) ProgressFile(batchName string, ts time.Time) string {
	return filepath.Join(p.outputDir, progressPrefix+SanitizeName(batchName)+"_"+ts.Format(TimestampLayout)+artifactExt)
}

// ResultsFile はバッチの結果ファイルのパスを返します
func (p *pathManager) ResultsFile(batchName string, ts time.Time) string {
	return filepath.Join(p.outputDir, resultsPrefix+SanitizeName(batchName)+"_"+ts.Format(TimestampLayout)+artifactExt)
}

// FinalResultsFile は実行全体のサマリーファイルのパスを返します
func (p *pathManager) FinalResultsFile(ts time.Time) string {
	return filepath.Join(p.outputDir, finalPrefix+ts.Format(TimestampLayout)+artifactExt)
}

// EnsureDirectories は必要なディレクトリを作成します
func (p *pathManager) EnsureDirectories(fs afero.Fs) error {
	for _, dir := range []string{p.outputDir, p.logDir} {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// ProgressFiles は指定バッチの進捗ファイルを古い順に返します
func (p *pathManager) ProgressFiles(fs afero.Fs, batchName string) ([]string, error) {
	prefix := progressPrefix + SanitizeName(batchName) + "_"
	names, err := p.listOutput(fs)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, name := range names {
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, artifactExt) {
			continue
		}
		// "a" と "a_b" のような前方一致を除外するため、残りが時刻のみであることを確認
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix), artifactExt)
		if _, err := time.Parse(TimestampLayout, stamp); err != nil {
			continue
		}
		files = append(files, filepath.Join(p.outputDir, name))
	}

	sort.Strings(files)
	return files, nil
}

// Artifacts は出力ディレクトリ内のlabelbulkが生成したファイルをすべて返します
func (p *pathManager) Artifacts(fs afero.Fs) ([]string, error) {
	names, err := p.listOutput(fs)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, name := range names {
		if !strings.HasSuffix(name, artifactExt) {
			continue
		}
		if strings.HasPrefix(name, progressPrefix) ||
			strings.HasPrefix(name, resultsPrefix) ||
			strings.HasPrefix(name, finalPrefix) {
			files = append(files, filepath.Join(p.outputDir, name))
		}
	}

	sort.Strings(files)
	return files, nil
}

func (p *pathManager) listOutput(fs afero.Fs) ([]string, error) {
	entries, err := afero.ReadDir(fs, p.outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

var nameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	" ", "_",
)

// SanitizeName はバッチ名をファイルシステムで安全な文字列に変換します。
// 置換が発生した場合は元の名前のハッシュを付け、"a b" と "a_b" が同じパスにならないようにします。
func SanitizeName(name string) string {
	safe := nameReplacer.Replace(name)
	if safe == name {
		return name
	}
	sum := sha256.Sum256([]byte(name))
	return safe + "-" + hex.EncodeToString(sum[:4])
}
