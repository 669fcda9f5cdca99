package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/logger"
)

type fakeUsageQueue struct {
	payloads []UsageTrackPayload
	err      error
}

func (f *fakeUsageQueue) EnqueueUsageTrack(_ context.Context, payload UsageTrackPayload) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func TestUsageRecorderEnqueues(t *testing.T) {
	queue := &fakeUsageQueue{}
	direct := &fakeUsageTracker{}
	r := NewUsageRecorder(queue, direct, logger.NewNop())

	orgID := shared.NewID()
	require.NoError(t, r.TrackAPICall(context.Background(), orgID))

	require.Len(t, queue.payloads, 1)
	assert.Equal(t, orgID.String(), queue.payloads[0].OrganizationID)
	assert.Empty(t, direct.tracked)
}

func TestUsageRecorderFallsBackOnEnqueueFailure(t *testing.T) {
	queue := &fakeUsageQueue{err: errors.New("redis down")}
	direct := &fakeUsageTracker{}
	r := NewUsageRecorder(queue, direct, logger.NewNop())

	orgID := shared.NewID()
	require.NoError(t, r.TrackAPICall(context.Background(), orgID))

	require.Len(t, direct.tracked, 1)
	assert.Equal(t, orgID, direct.tracked[0])
}

func TestUsageRecorderWithoutQueue(t *testing.T) {
	direct := &fakeUsageTracker{}
	r := NewUsageRecorder(nil, direct, logger.NewNop())

	require.NoError(t, r.TrackAPICall(context.Background(), shared.NewID()))
	require.Len(t, direct.tracked, 1)
}

func TestUsageRecorderSurfacesDirectFailure(t *testing.T) {
	queue := &fakeUsageQueue{err: errors.New("redis down")}
	direct := &fakeUsageTracker{err: errors.New("ledger unavailable")}
	r := NewUsageRecorder(queue, direct, logger.NewNop())

	assert.Error(t, r.TrackAPICall(context.Background(), shared.NewID()))
}
