package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-hrms/internal/jobs"
)

// Reaper deletes expired sessions. *auth.Service satisfies it.
type Reaper interface {
	ReapExpiredSessions(ctx context.Context) (int64, error)
}

// SessionReapJob removes sessions that expired without being touched again.
// Expiry is still enforced on access; this only keeps the table small.
type SessionReapJob struct {
	Reaper  Reaper
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewSessionReapJob initialises the reaper handler.
func NewSessionReapJob(reaper Reaper, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionReapJob {
	return &SessionReapJob{Reaper: reaper, Logger: logger, Metrics: metrics}
}

// Handle executes one reap pass.
func (j *SessionReapJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reaper == nil {
		return errors.New("session reap: handler not configured")
	}
	var payload SessionReapPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	_, err := j.Run(ctx, payload.RequestedBy)
	return err
}

// Run reaps inline and returns the number of deleted rows.
func (j *SessionReapJob) Run(ctx context.Context, requestedBy string) (int64, error) {
	tracker := j.Metrics.Track(TaskSessionReap)
	logger := j.logger()
	if requestedBy != "" {
		logger = logger.With(slog.String("requested_by", requestedBy))
	}
	n, err := j.Reaper.ReapExpiredSessions(ctx)
	if err != nil {
		logger.Error("session reap failed", slog.Any("error", err))
		return 0, tracker.End(err)
	}
	j.Metrics.AddReaped(n)
	logger.Info("session reap complete", slog.Int64("deleted", n))
	return n, tracker.End(nil)
}

func (j *SessionReapJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
