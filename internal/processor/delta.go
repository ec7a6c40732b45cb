package processor

import "github.com/douhashi/labelbulk/internal/batch"

// Delta は1件のIssueに実際に必要なラベル変更
type Delta struct {
	Add    []string
	Remove []string
}

// Empty は変更が不要かどうかを返す
func (d Delta) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}

// ComputeDelta は現在のラベルに対して必要な変更だけを求める。
// 追加は現在のラベルにないもの、削除は現在のラベルにあるもの。順序は入力の順を保つ。
func ComputeDelta(add, remove batch.LabelSet, current []string) Delta {
	have := make(map[string]struct{}, len(current))
	for _, label := range current {
		have[label] = struct{}{}
	}

	d := Delta{Add: []string{}, Remove: []string{}}
	for _, label := range add {
		if _, ok := have[label]; !ok {
			d.Add = append(d.Add, label)
		}
	}
	for _, label := range remove {
		if _, ok := have[label]; ok {
			d.Remove = append(d.Remove, label)
		}
	}
	return d
}
