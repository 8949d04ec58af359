package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayushma-ai/assistant-platform/internal/model"
)

func collectEvents(events *[]model.StreamEvent) EmitFunc {
	return func(e model.StreamEvent) error {
		*events = append(*events, e)
		return nil
	}
}

func TestAssemblerSkipsPrefixToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ch := NewTokenChannel(8)
	require.NoError(t, ch.PushToken(ctx, "Ayushma:"))
	require.NoError(t, ch.PushToken(ctx, " Hi"))
	require.NoError(t, ch.PushToken(ctx, " there"))
	require.NoError(t, ch.PushEnd(ctx))

	asm := &Assembler{SkipTokens: 1, Timeout: time.Second, ConversationID: "c1", Input: "hello"}
	var events []model.StreamEvent
	text, err := asm.Drain(ch, collectEvents(&events))
	require.NoError(t, err)

	assert.Equal(t, " Hi there", text)
	require.Len(t, events, 2)
	assert.Equal(t, " Hi", events[0].Delta)
	assert.Equal(t, " Hi", events[0].Message)
	assert.Equal(t, " there", events[1].Delta)
	assert.Equal(t, " Hi there", events[1].Message)
	for _, e := range events {
		assert.False(t, e.Stop)
		assert.Equal(t, "c1", e.ConversationID)
		assert.Equal(t, "hello", e.Input)
	}
}

func TestAssemblerCumulativeConcatenation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tokens := []string{"skip", "The", " quick", "", " brown", " fox"}
	ch := NewTokenChannel(16)
	for _, tok := range tokens {
		require.NoError(t, ch.PushToken(ctx, tok))
	}
	require.NoError(t, ch.PushEnd(ctx))

	asm := &Assembler{SkipTokens: 1, Timeout: time.Second}
	var events []model.StreamEvent
	text, err := asm.Drain(ch, collectEvents(&events))
	require.NoError(t, err)

	// Every event's message is the concatenation of all deltas so far,
	// and the final text equals the last message.
	var cumulative string
	for _, e := range events {
		cumulative += e.Delta
		assert.Equal(t, cumulative, e.Message)
	}
	assert.Equal(t, cumulative, text)
	assert.Equal(t, "The quick brown fox", text)
}

func TestAssemblerProducerError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cause := errors.New("model unavailable")
	ch := NewTokenChannel(8)
	require.NoError(t, ch.PushToken(ctx, "prefix"))
	require.NoError(t, ch.PushToken(ctx, "partial"))
	require.NoError(t, ch.PushError(ctx, cause))

	asm := &Assembler{SkipTokens: 1, Timeout: time.Second}
	var events []model.StreamEvent
	text, err := asm.Drain(ch, collectEvents(&events))

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "partial", text)
	require.Len(t, events, 1)
}

func TestAssemblerTimeout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ch := NewTokenChannel(8)
	require.NoError(t, ch.PushToken(ctx, "prefix"))
	require.NoError(t, ch.PushToken(ctx, "some"))
	// Producer goes silent: no terminal value.

	asm := &Assembler{SkipTokens: 1, Timeout: 30 * time.Millisecond}
	var events []model.StreamEvent
	_, err := asm.Drain(ch, collectEvents(&events))

	require.ErrorIs(t, err, ErrPopTimeout)
	require.Len(t, events, 1)
}

func TestAssemblerEmitFailureStopsDrain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ch := NewTokenChannel(8)
	require.NoError(t, ch.PushToken(ctx, "a"))
	require.NoError(t, ch.PushToken(ctx, "b"))
	require.NoError(t, ch.PushEnd(ctx))

	emitErr := errors.New("client went away")
	calls := 0
	asm := &Assembler{SkipTokens: 0, Timeout: time.Second}
	_, err := asm.Drain(ch, func(model.StreamEvent) error {
		calls++
		return emitErr
	})

	require.ErrorIs(t, err, emitErr)
	assert.Equal(t, 1, calls)
}

func TestAssemblerEmptyStream(t *testing.T) {
	t.Parallel()

	ch := NewTokenChannel(1)
	require.NoError(t, ch.PushEnd(context.Background()))

	asm := &Assembler{SkipTokens: 1, Timeout: time.Second}
	var events []model.StreamEvent
	text, err := asm.Drain(ch, collectEvents(&events))

	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Empty(t, events)
}
