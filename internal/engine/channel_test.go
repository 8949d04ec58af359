package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenChannelFIFO(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ch := NewTokenChannel(8)

	require.NoError(t, ch.PushToken(ctx, "a"))
	require.NoError(t, ch.PushToken(ctx, ""))
	require.NoError(t, ch.PushToken(ctx, "b"))
	require.NoError(t, ch.PushEnd(ctx))

	v, err := ch.Pop(time.Second)
	require.NoError(t, err)
	assert.Equal(t, KindToken, v.Kind)
	assert.Equal(t, "a", v.Token)

	// Empty-string tokens are legal values, not terminals.
	v, err = ch.Pop(time.Second)
	require.NoError(t, err)
	assert.Equal(t, KindToken, v.Kind)
	assert.Equal(t, "", v.Token)

	v, err = ch.Pop(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "b", v.Token)

	v, err = ch.Pop(time.Second)
	require.NoError(t, err)
	assert.Equal(t, KindEnd, v.Kind)
}

func TestTokenChannelErrorVariant(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ch := NewTokenChannel(1)
	cause := errors.New("upstream exploded")

	require.NoError(t, ch.PushError(ctx, cause))

	v, err := ch.Pop(time.Second)
	require.NoError(t, err)
	assert.Equal(t, KindError, v.Kind)
	assert.Equal(t, cause, v.Err)
}

func TestTokenChannelPopTimeout(t *testing.T) {
	t.Parallel()

	ch := NewTokenChannel(1)

	start := time.Now()
	_, err := ch.Pop(20 * time.Millisecond)
	require.ErrorIs(t, err, ErrPopTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestTokenChannelPushUnblocksOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	ch := NewTokenChannel(1)

	// Fill the buffer so the next push blocks.
	require.NoError(t, ch.PushToken(ctx, "fill"))

	done := make(chan error, 1)
	go func() {
		done <- ch.PushToken(ctx, "blocked")
	}()

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("push did not unblock after cancel")
	}
}

func TestTokenChannelZeroCapacityDefaults(t *testing.T) {
	t.Parallel()

	ch := NewTokenChannel(0)
	require.NoError(t, ch.PushToken(context.Background(), "x"))

	v, err := ch.Pop(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "x", v.Token)
}
