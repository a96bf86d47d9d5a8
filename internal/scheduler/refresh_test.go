package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls    atomic.Int32
	deadline atomic.Bool
	err      error
}

func (r *countingRefresher) RefreshAll(ctx context.Context) (int, error) {
	r.calls.Add(1)
	_, ok := ctx.Deadline()
	r.deadline.Store(ok)
	return 2, r.err
}

func TestNewRefreshSchedulerRejectsBadSchedule(t *testing.T) {
	_, err := NewRefreshScheduler(&countingRefresher{}, "every minute", time.Minute)
	assert.Error(t, err)
}

func TestRunOnce(t *testing.T) {
	r := &countingRefresher{}
	s, err := NewRefreshScheduler(r, "*/5 * * * *", time.Minute)
	require.NoError(t, err)

	s.RunOnce(context.Background())
	assert.Equal(t, int32(1), r.calls.Load())
	assert.True(t, r.deadline.Load(), "runs are bounded by the timeout")

	r.err = errors.New("boom")
	s.RunOnce(context.Background())
	assert.Equal(t, int32(2), r.calls.Load())
}

func TestStartStop(t *testing.T) {
	s, err := NewRefreshScheduler(&countingRefresher{}, "0 3 * * *", 0)
	require.NoError(t, err)

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	s.Stop()
	s.Stop()
}
