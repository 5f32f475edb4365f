package quiz

import (
	"context"
	"time"
)

// RunSweeper calls Sweep every interval until ctx is cancelled. onSweep, if
// non-nil, receives the number of sessions removed by each pass.
func (s *Store) RunSweeper(ctx context.Context, interval, ttl time.Duration, onSweep func(removed int)) {
	if interval <= 0 || ttl <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n := s.Sweep(ttl)
			if onSweep != nil {
				onSweep(n)
			}
		}
	}
}
