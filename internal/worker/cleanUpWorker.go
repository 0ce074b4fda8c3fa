package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ds124wfegd/innonet-bff/internal/service"

	"github.com/sirupsen/logrus"
)

// SessionCleanupWorker unmounts sessions whose page stopped talking to us.
type SessionCleanupWorker struct {
	sessionService service.SessionService
	interval       time.Duration
	idleTimeout    time.Duration

	runs    atomic.Int64
	removed atomic.Int64
	lastRun atomic.Int64 // unix nano
}

func NewSessionCleanupWorker(sessionService service.SessionService, interval, idleTimeout time.Duration) *SessionCleanupWorker {
	return &SessionCleanupWorker{
		sessionService: sessionService,
		interval:       interval,
		idleTimeout:    idleTimeout,
	}
}

func (w *SessionCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.Info("Session cleanup worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Session cleanup worker stopped")
			return
		case <-ticker.C:
			w.cleanupIdleSessions(ctx)
		}
	}
}

// cleanupIdleSessions выполняет очистку неактивных сессий
func (w *SessionCleanupWorker) cleanupIdleSessions(ctx context.Context) int {
	removed := w.sessionService.ExpireIdle(ctx, w.idleTimeout)
	w.runs.Add(1)
	w.removed.Add(int64(removed))
	w.lastRun.Store(time.Now().UnixNano())
	if removed == 0 {
		logrus.Debug("No idle sessions found for cleanup")
		return 0
	}

	logrus.WithFields(logrus.Fields{
		"removed": removed,
		"active":  w.sessionService.Count(),
	}).Info("Idle sessions cleanup completed")
	return removed
}

func (w *SessionCleanupWorker) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"worker_type":     "session_cleanup",
		"interval":        w.interval.String(),
		"idle_timeout":    w.idleTimeout.String(),
		"active_sessions": w.sessionService.Count(),
		"runs":            w.runs.Load(),
		"removed_total":   w.removed.Load(),
	}
	if last := w.lastRun.Load(); last != 0 {
		stats["last_run"] = time.Unix(0, last).UTC().Format(time.RFC3339)
	}
	return stats
}
