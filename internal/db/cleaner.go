package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// PurgeFunc deletes the sessions expired at now and reports how many.
type PurgeFunc func(ctx context.Context, now time.Time) (int64, error)

// PurgeExpiredSessions returns a PurgeFunc over the auth_sessions table.
func PurgeExpiredSessions(db *sql.DB) PurgeFunc {
	return func(ctx context.Context, now time.Time) (int64, error) {
		res, err := db.ExecContext(ctx, `
            DELETE FROM auth_sessions
             WHERE expires_at <= $1
        `, now)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	}
}

// StartSessionCleaner runs purge every interval until ctx is done.
func StartSessionCleaner(
	ctx context.Context,
	purge PurgeFunc,
	interval time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := purge(ctx, time.Now())
				if err != nil {
					log.Error("failed to clean expired sessions", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Info("cleaned expired sessions", zap.Int64("removed", removed))
				}
			}
		}
	}()
}
