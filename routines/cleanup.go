package routines

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// SessionPurger removes expired form sessions.
type SessionPurger interface {
	DeleteExpired(now time.Time) ([]string, error)
}

// StartCleanupRoutine purges expired sessions once right away and then on
// every interval tick until ctx is done.
func StartCleanupRoutine(ctx context.Context, purger SessionPurger, interval time.Duration, logger *logrus.Logger) {
	cleanupRoutine(purger, logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleanupRoutine(purger, logger)
		}
	}
}

func cleanupRoutine(purger SessionPurger, logger *logrus.Logger) {
	ids, err := purger.DeleteExpired(time.Now())
	if err != nil {
		logger.WithError(err).Error("Session cleanup failed")
		return
	}
	for _, id := range ids {
		logger.WithField("session_id", id).Debug("Deleted expired session")
	}
	if len(ids) > 0 {
		logger.WithField("count", len(ids)).Info("Expired sessions deleted")
	}
}
