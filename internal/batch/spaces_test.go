package batch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrompter struct {
	policy SpacePolicy
	err    error
	asked  []string
}

func (f *fakePrompter) ChooseSpacePolicy(batchName string, labels []string) (SpacePolicy, error) {
	f.asked = append(f.asked, batchName)
	return f.policy, f.err
}

func TestApplySpacePolicy(t *testing.T) {
	newBatches := func() []Batch {
		return []Batch{
			{BatchName: "spaced", Add: LabelSet{"My Label", "ok"}, Remove: LabelSet{"Old Label"}},
			{BatchName: "clean", Add: LabelSet{"fine"}},
		}
	}

	tests := []struct {
		name       string
		policy     SpacePolicy
		wantAdd    LabelSet
		wantRemove LabelSet
		wantErr    string
	}{
		{
			name:       "正常系: 空白を取り除く",
			policy:     SpacePolicyStrip,
			wantAdd:    LabelSet{"MyLabel", "ok"},
			wantRemove: LabelSet{"OldLabel"},
		},
		{
			name:       "正常系: アンダースコアに置き換える",
			policy:     SpacePolicyUnderscore,
			wantAdd:    LabelSet{"My_Label", "ok"},
			wantRemove: LabelSet{"Old_Label"},
		},
		{
			name:       "正常系: 空白を含むラベルを除外する",
			policy:     SpacePolicySkip,
			wantAdd:    LabelSet{"ok"},
			wantRemove: LabelSet{},
		},
		{
			name:    "異常系: 中断する",
			policy:  SpacePolicyAbort,
			wantErr: `aborting due to labels with spaces in batch "spaced": My Label, Old Label`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches := newBatches()
			err := ApplySpacePolicy(batches, tt.policy, nil, nil)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, IsConfigurationError(err))
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAdd, batches[0].Add)
			assert.Equal(t, tt.wantRemove, batches[0].Remove)
			assert.Equal(t, LabelSet{"fine"}, batches[1].Add)
		})
	}

	t.Run("正常系: promptは空白を含むバッチだけ尋ねる", func(t *testing.T) {
		batches := newBatches()
		prompter := &fakePrompter{policy: SpacePolicyStrip}

		require.NoError(t, ApplySpacePolicy(batches, SpacePolicyPrompt, prompter, nil))
		assert.Equal(t, []string{"spaced"}, prompter.asked)
		assert.Equal(t, LabelSet{"MyLabel", "ok"}, batches[0].Add)
	})

	t.Run("正常系: 変換後の重複はまとめる", func(t *testing.T) {
		batches := []Batch{{BatchName: "dup", Add: LabelSet{"a b", "ab"}}}
		require.NoError(t, ApplySpacePolicy(batches, SpacePolicyStrip, nil, nil))
		assert.Equal(t, LabelSet{"ab"}, batches[0].Add)
	})

	t.Run("異常系: Prompterのエラー", func(t *testing.T) {
		prompter := &fakePrompter{err: errors.New("no tty")}
		err := ApplySpacePolicy(newBatches(), SpacePolicyPrompt, prompter, nil)
		require.Error(t, err)
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("異常系: Prompterがなければ中断する", func(t *testing.T) {
		err := ApplySpacePolicy(newBatches(), SpacePolicyPrompt, nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "aborting")
	})
}

func TestParseSpacePolicy(t *testing.T) {
	p, err := ParseSpacePolicy(" Underscore ")
	require.NoError(t, err)
	assert.Equal(t, SpacePolicyUnderscore, p)

	_, err = ParseSpacePolicy("replace")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		batches []Batch
		wantErr []string
	}{
		{
			name:    "正常系: 問題なし",
			batches: []Batch{{BatchName: "a", Query: "q", Status: StatusToDo}, {BatchName: "b", Query: "q", Status: StatusDone}},
		},
		{
			name:    "正常系: 空の一覧",
			batches: []Batch{},
		},
		{
			name:    "異常系: 必須項目の欠落",
			batches: []Batch{{}},
			wantErr: []string{"batch 1: batchName is required", "batch 1: query is required", "batch 1: status is required"},
		},
		{
			name:    "異常系: バッチ名の重複",
			batches: []Batch{{BatchName: "a", Query: "q", Status: StatusToDo}, {BatchName: "a", Query: "q", Status: StatusToDo}},
			wantErr: []string{`batch 2: duplicate batchName "a" (first defined in batch 1)`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.batches)
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsConfigurationError(err))
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}
