package batch

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// Status はバッチの処理状態を表す型
type Status string

const (
	StatusToDo Status = "TO DO"
	StatusDone Status = "DONE"
)

// Valid は既知の状態かどうかを返す
func (s Status) Valid() bool {
	return s == StatusToDo || s == StatusDone
}

// Batch は1つの検索クエリとラベル変更の組
type Batch struct {
	BatchName string   `json:"batchName" yaml:"batchName"`
	Query     string   `json:"query" yaml:"query"`
	Add       LabelSet `json:"add" yaml:"add"`
	Remove    LabelSet `json:"remove" yaml:"remove"`
	Status    Status   `json:"status" yaml:"status"`
}

var errLabelShape = errors.New("labels must be a string, a list of strings, or null")

// LabelSet は重複と空文字を除いた順序付きのラベル一覧。
// 入力では文字列、文字列の配列、nullのいずれも受け付ける。
type LabelSet []string

// NewLabelSet は重複と空白のみの要素を取り除いたLabelSetを作成する
func NewLabelSet(labels ...string) LabelSet {
	set := make(LabelSet, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		if strings.TrimSpace(label) == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		set = append(set, label)
	}
	return set
}

// UnmarshalJSON implements json.Unmarshaler
func (l *LabelSet) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = LabelSet{}
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = NewLabelSet(single)
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errLabelShape
	}
	*l = NewLabelSet(many...)
	return nil
}

// MarshalJSON implements json.Marshaler
func (l LabelSet) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// UnmarshalYAML implements yaml.Unmarshaler
func (l *LabelSet) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.ShortTag() == "!!null" {
			*l = LabelSet{}
			return nil
		}
		if value.ShortTag() != "!!str" {
			return errLabelShape
		}
		*l = NewLabelSet(value.Value)
		return nil
	case yaml.SequenceNode:
		many := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.ShortTag() != "!!str" {
				return errLabelShape
			}
			many = append(many, item.Value)
		}
		*l = NewLabelSet(many...)
		return nil
	default:
		return errLabelShape
	}
}

// MarshalYAML implements yaml.Marshaler
func (l LabelSet) MarshalYAML() (interface{}, error) {
	if l == nil {
		return []string{}, nil
	}
	return []string(l), nil
}
