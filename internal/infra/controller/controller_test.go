package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/domain/usage"
	"github.com/menucraft/api/pkg/logger"
)

type countingController struct {
	mu       sync.Mutex
	name     string
	interval time.Duration
	runs     int
	err      error
}

func (c *countingController) Name() string            { return c.name }
func (c *countingController) Interval() time.Duration { return c.interval }

func (c *countingController) Reconcile(context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs++
	return c.runs, c.err
}

func (c *countingController) runCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(&ManagerConfig{Logger: logger.NewNop()})
}

func TestManagerRunsControllerImmediately(t *testing.T) {
	m := newTestManager(t)
	c := &countingController{name: "test", interval: time.Hour}
	m.Register(c)

	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	assert.Eventually(t, func() bool {
		return c.runCount() >= 1
	}, time.Second, 10*time.Millisecond)
}

func TestManagerTicksOnInterval(t *testing.T) {
	m := newTestManager(t)
	c := &countingController{name: "test", interval: 20 * time.Millisecond}
	m.Register(c)

	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	assert.Eventually(t, func() bool {
		return c.runCount() >= 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestManagerStartTwiceFails(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	assert.Error(t, m.Start(context.Background()))
}

func TestManagerStopIsIdempotent(t *testing.T) {
	m := newTestManager(t)
	m.Register(&countingController{name: "test", interval: time.Hour})

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Stop())
	require.NoError(t, m.Stop())
	assert.False(t, m.IsRunning())
}

func TestManagerSurvivesReconcileErrors(t *testing.T) {
	m := newTestManager(t)
	c := &countingController{name: "flaky", interval: 20 * time.Millisecond, err: errors.New("boom")}
	m.Register(c)

	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	assert.Eventually(t, func() bool {
		return c.runCount() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestManagerRegisterWhileRunningPanics(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	assert.Panics(t, func() {
		m.Register(&countingController{name: "late", interval: time.Hour})
	})
}

type fakeSweeper struct {
	count int
	err   error
}

func (f *fakeSweeper) ProcessExpiredSubscriptions(context.Context) (int, error) {
	return f.count, f.err
}

func TestSubscriptionExpiryControllerDefaults(t *testing.T) {
	c := NewSubscriptionExpiryController(&fakeSweeper{}, nil)

	assert.Equal(t, "subscription-expiry", c.Name())
	assert.Equal(t, time.Hour, c.Interval())
}

func TestSubscriptionExpiryControllerReconcile(t *testing.T) {
	c := NewSubscriptionExpiryController(&fakeSweeper{count: 3}, nil)

	n, err := c.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSubscriptionExpiryControllerReconcileError(t *testing.T) {
	c := NewSubscriptionExpiryController(&fakeSweeper{err: errors.New("db down")}, nil)

	n, err := c.Reconcile(context.Background())
	require.Error(t, err)
	assert.Zero(t, n)
}

type fakeUsageRepo struct {
	removed    int64
	err        error
	lastCutoff time.Time
}

func (f *fakeUsageRepo) Increment(context.Context, shared.ID, usage.Metric, time.Time, int64) error {
	return nil
}

func (f *fakeUsageRepo) Get(context.Context, shared.ID, usage.Metric, time.Time) (*usage.Record, error) {
	return nil, shared.ErrNotFound
}

func (f *fakeUsageRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.lastCutoff = cutoff
	return f.removed, f.err
}

func TestUsageRetentionControllerDefaults(t *testing.T) {
	c := NewUsageRetentionController(&fakeUsageRepo{}, nil)

	assert.Equal(t, "usage-retention", c.Name())
	assert.Equal(t, 24*time.Hour, c.Interval())
}

func TestUsageRetentionControllerCutoff(t *testing.T) {
	repo := &fakeUsageRepo{removed: 7}
	c := NewUsageRetentionController(repo, &UsageRetentionControllerConfig{RetentionMonths: 6})

	n, err := c.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	want := time.Now().AddDate(0, -6, 0)
	assert.WithinDuration(t, want, repo.lastCutoff, time.Minute)
}

func TestUsageRetentionControllerError(t *testing.T) {
	c := NewUsageRetentionController(&fakeUsageRepo{err: errors.New("db down")}, nil)

	n, err := c.Reconcile(context.Background())
	require.Error(t, err)
	assert.Zero(t, n)
}
