package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCloser struct {
	calls atomic.Int32
	err   error
}

func (c *countingCloser) CloseFinished(context.Context) (int64, error) {
	c.calls.Add(1)
	return 2, c.err
}

func TestNewSweeperRejectsBadSchedule(t *testing.T) {
	_, err := NewSweeper("every now and then", &countingCloser{})
	assert.Error(t, err)
}

func TestRunOnceCallsCloser(t *testing.T) {
	c := &countingCloser{}
	s, err := NewSweeper("@every 1h", c)
	require.NoError(t, err)
	s.RunOnce()
	c.err = errors.New("db down")
	s.RunOnce()
	assert.Equal(t, int32(2), c.calls.Load())
}

func TestSweeperRunsOnSchedule(t *testing.T) {
	c := &countingCloser{}
	s, err := NewSweeper("@every 1s", c)
	require.NoError(t, err)
	s.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	}()
	assert.Eventually(t, func() bool { return c.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
