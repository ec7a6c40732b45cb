// Package prompt asks the operator how to handle labels that contain spaces.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/douhashi/labelbulk/internal/batch"
)

// Runner はフォームを実行する関数。テストで差し替える
type Runner func(form *huh.Form) error

// SpacePolicyPrompter はhuhのSelectでポリシーを選ばせる
type SpacePolicyPrompter struct {
	run Runner
}

// Option はSpacePolicyPrompterの設定オプション
type Option func(*SpacePolicyPrompter)

// WithRunner はフォームの実行方法を設定する
func WithRunner(run Runner) Option {
	return func(p *SpacePolicyPrompter) {
		p.run = run
	}
}

// NewSpacePolicyPrompter は新しいSpacePolicyPrompterを作成する
func NewSpacePolicyPrompter(opts ...Option) *SpacePolicyPrompter {
	p := &SpacePolicyPrompter{
		run: func(form *huh.Form) error { return form.Run() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Options は選択肢の一覧
func Options() []huh.Option[string] {
	return []huh.Option[string]{
		huh.NewOption("Strip spaces (e.g., 'My Label' becomes 'MyLabel')", string(batch.SpacePolicyStrip)),
		huh.NewOption("Replace spaces with underscores (e.g., 'My Label' becomes 'My_Label')", string(batch.SpacePolicyUnderscore)),
		huh.NewOption("Skip these labels", string(batch.SpacePolicySkip)),
		huh.NewOption("Abort", string(batch.SpacePolicyAbort)),
	}
}

// ChooseSpacePolicy implements batch.Prompter
func (p *SpacePolicyPrompter) ChooseSpacePolicy(batchName string, labels []string) (batch.SpacePolicy, error) {
	choice := string(batch.SpacePolicyAbort)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Labels in batch %q contain spaces", batchName)).
				Description("Jira labels cannot contain spaces: "+strings.Join(labels, ", ")).
				Options(Options()...).
				Value(&choice),
		),
	)

	if err := p.run(form); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return batch.SpacePolicyAbort, nil
		}
		return "", fmt.Errorf("label space prompt: %w", err)
	}

	policy, err := batch.ParseSpacePolicy(choice)
	if err != nil || policy == batch.SpacePolicyPrompt {
		return batch.SpacePolicyAbort, nil
	}
	return policy, nil
}

var _ batch.Prompter = (*SpacePolicyPrompter)(nil)
