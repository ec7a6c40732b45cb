package artifact

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_WriteJSON(t *testing.T) {
	t.Run("正常系: ディレクトリを作成してインデント付きで書き出す", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		store := NewStore(fs)

		err := store.WriteJSON("output/progress_a_20240101_000000.json", map[string]string{"X-1": "DONE"})
		require.NoError(t, err)

		data, err := afero.ReadFile(fs, "output/progress_a_20240101_000000.json")
		require.NoError(t, err)
		assert.Equal(t, "{\n  \"X-1\": \"DONE\"\n}\n", string(data))

		exists, err := afero.Exists(fs, "output/progress_a_20240101_000000.json.tmp")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("正常系: 既存ファイルを上書きする", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		store := NewStore(fs)

		require.NoError(t, store.WriteJSON("out.json", []int{1}))
		require.NoError(t, store.WriteJSON("out.json", []int{1, 2}))

		var got []int
		require.NoError(t, store.ReadJSON("out.json", &got))
		assert.Equal(t, []int{1, 2}, got)
	})

	t.Run("異常系: エンコードできない値", func(t *testing.T) {
		store := NewStore(afero.NewMemMapFs())
		err := store.WriteJSON("out.json", map[string]interface{}{"ch": make(chan int)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "marshal out.json")
	})

	t.Run("異常系: 読み取り専用ファイルシステム", func(t *testing.T) {
		store := NewStore(afero.NewReadOnlyFs(afero.NewMemMapFs()))
		err := store.WriteJSON("output/out.json", []int{1})
		require.Error(t, err)
	})
}

func TestStore_ReadJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs)

	t.Run("異常系: ファイルが存在しない", func(t *testing.T) {
		var v map[string]string
		err := store.ReadJSON("missing.json", &v)
		require.Error(t, err)
	})

	t.Run("異常系: 不正なJSON", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "broken.json", []byte("{"), 0644))
		var v map[string]string
		err := store.ReadJSON("broken.json", &v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse broken.json")
	})
}
