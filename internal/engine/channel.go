// Package engine implements the streaming response orchestration core: the
// bridge between an asynchronous token producer and the synchronous event
// stream consumed by the caller, plus the turn lifecycle around it.
package engine

import (
	"context"
	"errors"
	"time"
)

// ErrPopTimeout is returned by Pop when no value arrives within the bound.
var ErrPopTimeout = errors.New("token channel: pop timed out")

// ValueKind tags the variants carried by a TokenChannel.
type ValueKind int

const (
	// KindToken is a model-generated text fragment.
	KindToken ValueKind = iota
	// KindEnd marks successful end of stream. Always the last value pushed.
	KindEnd
	// KindError carries a producer failure. Always the last value pushed.
	KindError
)

// Value is one tagged item on the channel. Tokens are distinguished from
// the terminals by kind, never by content, so empty-string tokens are legal.
type Value struct {
	Kind  ValueKind
	Token string
	Err   error
}

// TokenChannel is a single-producer single-consumer FIFO hand-off between
// the model-call goroutine and the consumer loop. Pushes backpressure on a
// bounded buffer rather than dropping, and bail out when the producer's
// context is cancelled, so an abandoned producer never blocks forever.
// Pop blocks up to a timeout.
type TokenChannel struct {
	ch chan Value
}

// NewTokenChannel creates a channel with the given buffer capacity.
func NewTokenChannel(capacity int) *TokenChannel {
	if capacity <= 0 {
		capacity = 256
	}
	return &TokenChannel{ch: make(chan Value, capacity)}
}

// PushToken hands a token to the consumer, blocking while the buffer is
// full.
func (c *TokenChannel) PushToken(ctx context.Context, token string) error {
	return c.push(ctx, Value{Kind: KindToken, Token: token})
}

// PushEnd marks successful completion. No value may be pushed after it.
func (c *TokenChannel) PushEnd(ctx context.Context) error {
	return c.push(ctx, Value{Kind: KindEnd})
}

// PushError reports a producer failure. No value may be pushed after it.
func (c *TokenChannel) PushError(ctx context.Context, err error) error {
	return c.push(ctx, Value{Kind: KindError, Err: err})
}

func (c *TokenChannel) push(ctx context.Context, v Value) error {
	select {
	case c.ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pop returns the next value in push order, waiting up to timeout. An
// ErrPopTimeout result means the producer went silent, not that the stream
// ended.
func (c *TokenChannel) Pop(timeout time.Duration) (Value, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v := <-c.ch:
		return v, nil
	case <-timer.C:
		return Value{}, ErrPopTimeout
	}
}
