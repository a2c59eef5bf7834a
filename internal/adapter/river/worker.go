package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// EventWorker processes wizard event jobs from the River queue. For now it
// logs the event; future versions will dispatch partner invitation emails
// and onboarding notifications.
type EventWorker struct {
	river.WorkerDefaults[EventJobArgs]
}

// Work processes a single event job.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventJobArgs]) error {
	slog.InfoContext(ctx, "processing wizard event",
		"event", job.Args.Event,
		"user_id", job.Args.UserID,
		"profile_complete", job.Args.ProfileComplete,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}
