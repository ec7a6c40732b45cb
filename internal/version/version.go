package version

import (
	"fmt"
	"runtime"
)

var (
	// Version はビルド時に設定されるバージョン情報
	Version = "dev"
	// Commit はビルド時に設定されるGitコミットハッシュ
	Commit = "none"
	// Date はビルド時に設定されるビルド日時
	Date = "unknown"
)

// Info はバージョン情報を保持する構造体
type Info struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
}

// Get は現在のバージョン情報を返す
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
	}
}

// String は表示用の1行の文字列を返す
func (i Info) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, %s)", i.Version, i.Commit, i.Date, i.GoVersion)
}

// UserAgent はHTTPリクエストに付けるUser-Agentを返す
func (i Info) UserAgent() string {
	return "labelbulk/" + i.Version
}
