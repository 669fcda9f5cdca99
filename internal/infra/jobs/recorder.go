package jobs

import (
	"context"

	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/logger"
)

// UsageQueue enqueues usage ledger increments. Satisfied by the job client.
type UsageQueue interface {
	EnqueueUsageTrack(ctx context.Context, payload UsageTrackPayload) error
}

// UsageRecorder meters api calls through the queue so request goroutines
// never touch the ledger store directly. When the queue is missing or
// rejects the task, the increment falls back to the direct tracker so
// metering degrades instead of dropping events.
type UsageRecorder struct {
	queue  UsageQueue
	direct UsageTracker
	logger *logger.Logger
}

// NewUsageRecorder creates a queue-backed api call tracker with a direct
// fallback. A nil queue always takes the direct path.
func NewUsageRecorder(queue UsageQueue, direct UsageTracker, log *logger.Logger) *UsageRecorder {
	return &UsageRecorder{
		queue:  queue,
		direct: direct,
		logger: log.With("component", "usage_recorder"),
	}
}

// TrackAPICall records one api call against the organization's ledger.
func (r *UsageRecorder) TrackAPICall(ctx context.Context, orgID shared.ID) error {
	if r.queue != nil {
		err := r.queue.EnqueueUsageTrack(ctx, UsageTrackPayload{OrganizationID: orgID.String()})
		if err == nil {
			return nil
		}
		r.logger.Warn("usage track enqueue failed, incrementing directly",
			"organization_id", orgID.String(),
			"error", err,
		)
	}
	return r.direct.TrackAPICall(ctx, orgID)
}
