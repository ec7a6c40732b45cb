package batch

import (
	"fmt"
	"strings"

	"github.com/douhashi/labelbulk/internal/logger"
)

// SpacePolicy は空白を含むラベルの扱い。Jiraのラベルは空白を含められない。
type SpacePolicy string

const (
	SpacePolicyPrompt     SpacePolicy = "prompt"
	SpacePolicyStrip      SpacePolicy = "strip"
	SpacePolicyUnderscore SpacePolicy = "underscore"
	SpacePolicySkip       SpacePolicy = "skip"
	SpacePolicyAbort      SpacePolicy = "abort"
)

// SpacePolicies は有効なポリシーの一覧
var SpacePolicies = []SpacePolicy{
	SpacePolicyPrompt,
	SpacePolicyStrip,
	SpacePolicyUnderscore,
	SpacePolicySkip,
	SpacePolicyAbort,
}

// ParseSpacePolicy は文字列をSpacePolicyに変換する
func ParseSpacePolicy(s string) (SpacePolicy, error) {
	for _, p := range SpacePolicies {
		if string(p) == strings.ToLower(strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown label space policy %q", s)
}

// Prompter は空白を含むラベルの扱いを利用者に尋ねる
type Prompter interface {
	ChooseSpacePolicy(batchName string, labels []string) (SpacePolicy, error)
}

// LabelsWithSpaces は追加・削除ラベルのうち空白を含むものを返す
func LabelsWithSpaces(b Batch) []string {
	var found []string
	for _, label := range append(append([]string{}, b.Add...), b.Remove...) {
		if strings.Contains(label, " ") {
			found = append(found, label)
		}
	}
	return found
}

// ApplySpacePolicy は空白を含むラベルをポリシーに従って変換する。
// promptでPrompterがない場合はabortとして扱う。
func ApplySpacePolicy(batches []Batch, policy SpacePolicy, prompter Prompter, log logger.Logger) error {
	if log == nil {
		log = logger.NewNop()
	}

	for i := range batches {
		b := &batches[i]
		labels := LabelsWithSpaces(*b)
		if len(labels) == 0 {
			continue
		}

		log.Warn("Labels contain spaces", "batch", b.BatchName, "labels", strings.Join(labels, ", "))

		chosen := policy
		if chosen == SpacePolicyPrompt {
			if prompter == nil {
				chosen = SpacePolicyAbort
			} else {
				var err error
				chosen, err = prompter.ChooseSpacePolicy(b.BatchName, labels)
				if err != nil {
					return NewConfigurationError(err, "failed to choose how to handle labels with spaces")
				}
			}
		}

		switch chosen {
		case SpacePolicyStrip:
			b.Add = mapLabels(b.Add, func(s string) string { return strings.ReplaceAll(s, " ", "") })
			b.Remove = mapLabels(b.Remove, func(s string) string { return strings.ReplaceAll(s, " ", "") })
			log.Info("Spaces stripped from labels", "batch", b.BatchName)
		case SpacePolicyUnderscore:
			b.Add = mapLabels(b.Add, func(s string) string { return strings.ReplaceAll(s, " ", "_") })
			b.Remove = mapLabels(b.Remove, func(s string) string { return strings.ReplaceAll(s, " ", "_") })
			log.Info("Spaces replaced with underscores", "batch", b.BatchName)
		case SpacePolicySkip:
			b.Add = filterLabels(b.Add)
			b.Remove = filterLabels(b.Remove)
			log.Info("Labels with spaces skipped", "batch", b.BatchName)
		default:
			return NewConfigurationError(nil, "aborting due to labels with spaces in batch %q: %s", b.BatchName, strings.Join(labels, ", "))
		}
	}
	return nil
}

func mapLabels(labels LabelSet, fn func(string) string) LabelSet {
	mapped := make([]string, 0, len(labels))
	for _, label := range labels {
		mapped = append(mapped, fn(label))
	}
	return NewLabelSet(mapped...)
}

func filterLabels(labels LabelSet) LabelSet {
	kept := make([]string, 0, len(labels))
	for _, label := range labels {
		if !strings.Contains(label, " ") {
			kept = append(kept, label)
		}
	}
	return NewLabelSet(kept...)
}
