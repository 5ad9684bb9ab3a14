package server

import (
	"context"
	"time"
)

const minReapInterval = time.Second

// reapLoop closes idle sessions until ctx is cancelled.
func (s *Server) reapLoop(ctx context.Context) error {
	interval := max(s.cfg.IdleTTL/4, minReapInterval)
	ticker := s.clock.NewTicker(interval, "reaper")
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.reapIdle()
		}
	}
}

// reapIdle closes every active session without activity for IdleTTL and
// returns how many it closed.
func (s *Server) reapIdle() int {
	cutoff := s.clock.Now().Add(-s.cfg.IdleTTL)
	n := 0
	for _, key := range s.store.Idle(cutoff) {
		if _, err := s.closeSession(key, "idle"); err != nil {
			s.logger.Warn().Err(err).Int64("chat_id", key.ChatID).Msg("Failed to reap session")
			continue
		}
		n++
	}
	return n
}
