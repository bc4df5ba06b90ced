package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionReap deletes expired session rows.
	TaskSessionReap = "auth:sessions:reap"
)

// SessionReapPayload carries scheduling metadata.
type SessionReapPayload struct {
	RequestedBy  string    `json:"requested_by,omitempty"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewSessionReapTask constructs an Asynq task for the session reaper.
func NewSessionReapTask(payload SessionReapPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionReap, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3), asynq.Timeout(2*time.Minute)), nil
}
