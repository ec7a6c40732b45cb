package helpers

import (
	"context"
	"time"
)

// RecordingSleeper records requested waits instead of sleeping
type RecordingSleeper struct {
	Waits []time.Duration
}

// Sleep records d and returns immediately unless ctx is already done
func (s *RecordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.Waits = append(s.Waits, d)
	return ctx.Err()
}
