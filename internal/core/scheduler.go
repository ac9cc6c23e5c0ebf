package core

// scheduler.go runs background maintenance for the service.
//
// The session sweeper drops sessions that have been idle longer than the
// configured TTL, freeing the uploaded file bytes they hold. It is
// long-running and stops when its context is cancelled.

import (
	"context"
	"log/slog"
	"time"
)

// StartSessionSweeper removes expired sessions every interval until ctx is
// cancelled. It sweeps once immediately on start.
func (s *Service) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	slog.Info("session sweeper started", "interval", interval.String())

	s.runSweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			s.runSweep()
		}
	}
}

// runSweep performs one sweep and refreshes the session gauge.
func (s *Service) runSweep() {
	start := time.Now()
	removed := s.sessions.Sweep()
	active := s.sessions.Len()
	s.metrics.SetActiveSessions(active)

	if removed > 0 {
		slog.Info("expired sessions removed",
			"removed", removed,
			"active", active,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
