package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/logger"
)

type fakeUsageTracker struct {
	tracked []shared.ID
	err     error
}

func (f *fakeUsageTracker) TrackAPICall(_ context.Context, orgID shared.ID) error {
	if f.err != nil {
		return f.err
	}
	f.tracked = append(f.tracked, orgID)
	return nil
}

func TestHandleUsageTrack(t *testing.T) {
	tracker := &fakeUsageTracker{}
	h := NewUsageTaskHandler(tracker, logger.NewNop())

	orgID := shared.NewID()
	task, err := NewUsageTrackTask(UsageTrackPayload{OrganizationID: orgID.String()})
	require.NoError(t, err)

	require.NoError(t, h.HandleUsageTrack(context.Background(), task))
	require.Len(t, tracker.tracked, 1)
	assert.Equal(t, orgID, tracker.tracked[0])
}

func TestHandleUsageTrackBadOrgIDSkipsRetry(t *testing.T) {
	h := NewUsageTaskHandler(&fakeUsageTracker{}, logger.NewNop())

	task, err := NewUsageTrackTask(UsageTrackPayload{OrganizationID: "not-a-uuid"})
	require.NoError(t, err)

	err = h.HandleUsageTrack(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleUsageTrackTrackerFailureRetries(t *testing.T) {
	h := NewUsageTaskHandler(&fakeUsageTracker{err: errors.New("ledger unavailable")}, logger.NewNop())

	task, err := NewUsageTrackTask(UsageTrackPayload{OrganizationID: shared.NewID().String()})
	require.NoError(t, err)

	err = h.HandleUsageTrack(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
