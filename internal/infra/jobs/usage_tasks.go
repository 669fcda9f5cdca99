package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/logger"
)

// UsageTracker records API calls against the usage ledger.
type UsageTracker interface {
	TrackAPICall(ctx context.Context, orgID shared.ID) error
}

// UsageTaskHandler applies queued usage increments.
type UsageTaskHandler struct {
	tracker UsageTracker
	logger  *logger.Logger
}

// NewUsageTaskHandler creates a handler for usage tracking tasks.
func NewUsageTaskHandler(tracker UsageTracker, log *logger.Logger) *UsageTaskHandler {
	return &UsageTaskHandler{
		tracker: tracker,
		logger:  log.With("component", "usage_tasks"),
	}
}

// HandleUsageTrack processes a usage ledger increment task.
func (h *UsageTaskHandler) HandleUsageTrack(ctx context.Context, t *asynq.Task) error {
	var payload UsageTrackPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal usage track payload: %v: %w", err, asynq.SkipRetry)
	}

	orgID, err := shared.IDFromString(payload.OrganizationID)
	if err != nil {
		return fmt.Errorf("invalid organization id %q: %v: %w", payload.OrganizationID, err, asynq.SkipRetry)
	}

	if err := h.tracker.TrackAPICall(ctx, orgID); err != nil {
		return fmt.Errorf("track api call for %s: %w", payload.OrganizationID, err)
	}
	return nil
}
