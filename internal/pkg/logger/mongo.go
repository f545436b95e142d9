package logger

import (
	"context"
	log "log/slog"
	"time"

	"go.mongodb.org/mongo-driver/event"
)

const mongoSlowThreshold = 200 * time.Millisecond

// NewMongoMonitor logs command outcomes; successful fast commands stay at debug.
func NewMongoMonitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Succeeded: func(ctx context.Context, evt *event.CommandSucceededEvent) {
			fields := []any{
				log.String("command", evt.CommandName),
				log.Duration("latency", evt.Duration),
				log.Int64("request_id", evt.RequestID),
			}
			if evt.Duration > mongoSlowThreshold {
				log.WarnContext(ctx, "MongoDB Slow", fields...)
				return
			}
			log.DebugContext(ctx, "MongoDB Success", fields...)
		},
		Failed: func(ctx context.Context, evt *event.CommandFailedEvent) {
			log.ErrorContext(ctx, "MongoDB Error",
				log.String("command", evt.CommandName),
				log.Duration("latency", evt.Duration),
				log.Int64("request_id", evt.RequestID),
				log.String("err", evt.Failure),
			)
		},
	}
}
