package tokenstore

import (
	"context"
	"time"
)

const cleanupTimeout = 30 * time.Second

// StartCleanupRoutine purges expired revocation entries every interval until ctx is done.
// The returned channel is closed once the goroutine has exited.
func (s *Store) StartCleanupRoutine(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runCtx, cancel := context.WithTimeout(ctx, cleanupTimeout)
				n, err := s.PurgeExpired(runCtx, time.Now())
				cancel()

				if err != nil {
					s.log.Error().Err(err).Msg("revocation cleanup failed")
				} else if n > 0 {
					s.log.Debug().Int64("count", n).Msg("revocation cleanup completed")
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return done
}
