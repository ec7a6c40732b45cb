package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeErr はテスト用のエラー型
type fakeErr struct {
	rateLimited bool
	retryAfter  time.Duration
	critical    bool
}

func (e *fakeErr) Error() string { return "fake" }

func (e *fakeErr) RateLimitDelay() (time.Duration, bool) {
	return e.retryAfter, e.rateLimited
}

func (e *fakeErr) Retryable() bool { return !e.critical }

// recordingSleeper は待機時間を記録するだけのSleeper
type recordingSleeper struct {
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return nil
}

func newPolicy(s *recordingSleeper, maxRetries int) Policy {
	return Policy{MaxRetries: maxRetries, BasePause: time.Second, Sleep: s.Sleep}
}

func TestDo(t *testing.T) {
	t.Run("正常系: 成功した呼び出しはそのまま返す", func(t *testing.T) {
		s := &recordingSleeper{}
		calls := 0
		got, err := Do(context.Background(), newPolicy(s, 3), "op", func(context.Context) (int, error) {
			calls++
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 1, calls)
		assert.Empty(t, s.waits)
	})

	t.Run("正常系: 指数バックオフで再試行して成功する", func(t *testing.T) {
		s := &recordingSleeper{}
		calls := 0
		got, err := Do(context.Background(), newPolicy(s, 3), "op", func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("temporary")
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, s.waits)
	})

	t.Run("異常系: 最大リトライ回数を超えると最後のエラーを返す", func(t *testing.T) {
		s := &recordingSleeper{}
		cause := errors.New("boom")
		calls := 0
		_, err := Do(context.Background(), newPolicy(s, 3), "op", func(context.Context) (int, error) {
			calls++
			return 0, cause
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "failed after 3 retries")
		assert.Equal(t, 4, calls)
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, s.waits)
	})

	t.Run("正常系: レート制限は指定時間だけ待ちリトライ回数に数えない", func(t *testing.T) {
		s := &recordingSleeper{}
		calls := 0
		_, err := Do(context.Background(), newPolicy(s, 1), "op", func(context.Context) (bool, error) {
			calls++
			switch calls {
			case 1, 2, 3:
				return false, &fakeErr{rateLimited: true, retryAfter: 5 * time.Second}
			case 4:
				return false, errors.New("temporary")
			default:
				return true, nil
			}
		})
		require.NoError(t, err)
		assert.Equal(t, 5, calls)
		assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second, 5 * time.Second, time.Second}, s.waits)
	})

	t.Run("正常系: Retry-After: 5 で一度だけ5秒待つ", func(t *testing.T) {
		s := &recordingSleeper{}
		calls := 0
		ok, err := Do(context.Background(), newPolicy(s, 0), "op", func(context.Context) (bool, error) {
			calls++
			if calls == 1 {
				return false, &fakeErr{rateLimited: true, retryAfter: 5 * time.Second}
			}
			return true, nil
		})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []time.Duration{5 * time.Second}, s.waits)
	})

	t.Run("異常系: リトライ不可のエラーは即座に返す", func(t *testing.T) {
		s := &recordingSleeper{}
		calls := 0
		critical := &fakeErr{critical: true}
		_, err := Do(context.Background(), newPolicy(s, 3), "op", func(context.Context) (int, error) {
			calls++
			return 0, critical
		})
		assert.Same(t, critical, err)
		assert.Equal(t, 1, calls)
		assert.Empty(t, s.waits)
	})

	t.Run("異常系: backoff.Permanentは即座に中身を返す", func(t *testing.T) {
		s := &recordingSleeper{}
		cause := errors.New("stop")
		_, err := Do(context.Background(), newPolicy(s, 3), "op", func(context.Context) (int, error) {
			return 0, backoff.Permanent(cause)
		})
		assert.Equal(t, cause, err)
		assert.Empty(t, s.waits)
	})

	t.Run("異常系: MaxRetries=0では再試行しない", func(t *testing.T) {
		s := &recordingSleeper{}
		cause := errors.New("boom")
		_, err := Do(context.Background(), newPolicy(s, 0), "op", func(context.Context) (int, error) {
			return 0, cause
		})
		assert.Equal(t, cause, err)
		assert.Empty(t, s.waits)
	})

	t.Run("異常系: キャンセルされたコンテキストでは再試行しない", func(t *testing.T) {
		s := &recordingSleeper{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Do(ctx, newPolicy(s, 3), "op", func(context.Context) (int, error) {
			return 0, errors.New("boom")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, s.waits)
	})
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepContext(context.Background(), 0))
}
