package scanner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Run blocks, invoking RunCycle on every aligned interval until ctx is
// cancelled. The first tick fires at the next interval boundary so cycles
// land on round timestamps.
//
// A cycle that overruns the interval causes the next tick to be skipped
// rather than queued; only one cycle runs at a time. On cancellation Run
// waits for an in-flight cycle before returning, so callers can close the
// stores as soon as Run comes back.
func (s *Scanner) Run(ctx context.Context) error {
	var (
		inFlight atomic.Bool
		wg       sync.WaitGroup
	)
	defer wg.Wait()

	next := s.now().Truncate(s.cfg.ScanInterval).Add(s.cfg.ScanInterval)
	for {
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if !inFlight.CompareAndSwap(false, true) {
			if s.prom != nil {
				s.prom.ScanSkippedTotal.WithLabelValues("in_flight").Inc()
			}
			s.slog.Warn("scan tick skipped, previous cycle still running")
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer inFlight.Store(false)
				if err := s.RunCycle(ctx); err != nil && ctx.Err() == nil {
					s.slog.Error("scan cycle failed", "err", err)
				}
			}()
		}

		next = next.Add(s.cfg.ScanInterval)
		if !next.After(s.now()) {
			next = s.now().Truncate(s.cfg.ScanInterval).Add(s.cfg.ScanInterval)
		}
	}
}
