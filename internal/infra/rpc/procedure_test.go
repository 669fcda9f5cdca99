package rpc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menucraft/api/pkg/domain/entitlement"
	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/domain/usage"
	"github.com/menucraft/api/pkg/logger"
)

type fakeAuthorizer struct {
	denial *entitlement.Denial
	err    error
}

func (f *fakeAuthorizer) Authorize(context.Context, shared.ID, entitlement.Policy) (*entitlement.Denial, error) {
	return f.denial, f.err
}

type fakeTracker struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeTracker) TrackAPICall(context.Context, shared.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func (f *fakeTracker) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func echo(_ context.Context, _ shared.ID, req string) (string, error) {
	return req, nil
}

func TestProcedureAllows(t *testing.T) {
	g := NewGuard(&fakeAuthorizer{}, nil, logger.NewNop())
	proc := Procedure(g, entitlement.Policy{Operation: "read", AllowTrial: true}, echo)

	resp, err := proc(context.Background(), shared.NewID(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", resp)
}

func TestProcedureDenies(t *testing.T) {
	denial := &entitlement.Denial{
		Reason:       entitlement.ReasonLimitExceeded,
		Metric:       usage.MetricProducts,
		CurrentUsage: 50,
		Limit:        50,
		Requested:    1,
	}
	g := NewGuard(&fakeAuthorizer{denial: denial}, nil, logger.NewNop())
	proc := Procedure(g, entitlement.Policy{}, echo)

	_, err := proc(context.Background(), shared.NewID(), "hello")
	require.Error(t, err)

	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CodeResourceExhausted, rpcErr.Code)
	assert.Equal(t, "products limit exceeded. Current: 50, Limit: 50, Requested: 1", rpcErr.Message)
	assert.Same(t, denial, rpcErr.Denial)
}

func TestProcedureFailsClosedOnAuthorizerError(t *testing.T) {
	g := NewGuard(&fakeAuthorizer{err: errors.New("store down")}, nil, logger.NewNop())
	proc := Procedure(g, entitlement.Policy{}, echo)

	_, err := proc(context.Background(), shared.NewID(), "hello")
	require.Error(t, err)

	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CodeUnavailable, rpcErr.Code)
	assert.Nil(t, rpcErr.Denial)
}

func TestProcedureRejectsZeroOrganization(t *testing.T) {
	g := NewGuard(&fakeAuthorizer{}, nil, logger.NewNop())
	proc := Procedure(g, entitlement.Policy{}, echo)

	_, err := proc(context.Background(), shared.ID{}, "hello")
	require.Error(t, err)

	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CodeForbidden, rpcErr.Code)
}

func TestProcedureTracksAPICall(t *testing.T) {
	tracker := &fakeTracker{}
	g := NewGuard(&fakeAuthorizer{}, tracker, logger.NewNop())
	proc := Procedure(g, entitlement.Policy{Operation: "read", TrackAPICall: true}, echo)

	_, err := proc(context.Background(), shared.NewID(), "hello")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return tracker.count() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestProcedureSkipsTrackingOnHandlerError(t *testing.T) {
	tracker := &fakeTracker{}
	g := NewGuard(&fakeAuthorizer{}, tracker, logger.NewNop())
	proc := Procedure(g, entitlement.Policy{TrackAPICall: true}, func(context.Context, shared.ID, string) (string, error) {
		return "", errors.New("boom")
	})

	_, err := proc(context.Background(), shared.NewID(), "hello")
	require.Error(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, tracker.count())
}
