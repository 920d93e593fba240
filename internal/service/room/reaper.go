package room

import (
	"context"
	"time"
)

// RunReaper periodically removes long-empty rooms until ctx is done.
// leaveRoom already deletes rooms synchronously when they empty out;
// the reaper only catches deletions that were somehow missed.
func (s *service) RunReaper(ctx context.Context) {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CleanupStaleRooms(ctx)
		}
	}
}

func (s *service) CleanupStaleRooms(ctx context.Context) int {
	removed := s.registry.cleanupStale(s.roomTimeout)
	if removed > 0 {
		s.logger.InfoContext(ctx, "cleaned up stale rooms", "count", removed)
	}

	return removed
}
