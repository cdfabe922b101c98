package sysload

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForHeadroom_ZeroEstimateReturnsImmediately(t *testing.T) {
	g := &Guard{MinAvailableBytes: 1 << 40, PollInterval: time.Hour}
	err := g.WaitForHeadroom(context.Background(), 0)
	assert.NoError(t, err)
}

func TestWaitForHeadroom_ContextCancelledWhileBlocked(t *testing.T) {
	g := &Guard{MinAvailableBytes: 1 << 50, PollInterval: 10 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := g.WaitForHeadroom(ctx, 1<<50)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewGuard_SetsPositiveFloor(t *testing.T) {
	g := NewGuard()
	assert.Greater(t, g.MinAvailableBytes, uint64(0))
	assert.Equal(t, 2*time.Second, g.PollInterval)
}
